package services

import (
	"errors"
	"fmt"
	"log"
	"regexp"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jonathanvouilloz/extensionReview/internal/code"
	apperrors "github.com/jonathanvouilloz/extensionReview/internal/errors"
	"github.com/jonathanvouilloz/extensionReview/internal/models"
	"github.com/jonathanvouilloz/extensionReview/internal/repository"
	"github.com/jonathanvouilloz/extensionReview/internal/screenshot"
	"github.com/jonathanvouilloz/extensionReview/internal/storage"
)

// CommentService provides business logic for comments and their screenshot
// blobs. The blob store and the relational store share no transaction
// manager; consistency between them relies on the upload-then-insert order
// and compensating deletes, both implemented here.
type CommentService struct {
	commentRepo repository.CommentRepository
	projectRepo repository.ProjectRepository
	store       storage.ObjectStore
	now         func() time.Time
}

// NewCommentService creates and returns a new instance of CommentService.
func NewCommentService(commentRepo repository.CommentRepository, projectRepo repository.ProjectRepository, store storage.ObjectStore) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		projectRepo: projectRepo,
		store:       store,
		now:         time.Now,
	}
}

// resolutionPattern is the accepted shape of a reported screen resolution.
var resolutionPattern = regexp.MustCompile(`^\d+x\d+$`)

// Create persists a comment, uploading its screenshot first. If the row
// insert fails after a successful upload, the blob is deleted again so no
// orphan stays referenced by nothing; the insert error propagates.
func (s *CommentService) Create(req models.CreateCommentRequest) (string, error) {
	if req.Metadata != nil && req.Metadata.ScreenResolution != "" &&
		!resolutionPattern.MatchString(req.Metadata.ScreenResolution) {
		return "", apperrors.NewValidation("Screen resolution must be WIDTHxHEIGHT, e.g. 1920x1080")
	}

	id := uuid.NewString()

	var screenshotKey string
	if req.Screenshot != "" {
		if !screenshot.IsValidDataURL(req.Screenshot) {
			return "", apperrors.ErrInvalidScreenshot
		}
		data, err := screenshot.Process(req.Screenshot)
		if err != nil {
			return "", err
		}
		screenshotKey = screenshot.Key(id, s.now())
		err = s.store.Put(screenshotKey, data, storage.PutOptions{
			ContentType:        screenshot.ContentType,
			CacheControl:       screenshot.CacheControl,
			ContentDisposition: "inline",
		})
		if err != nil {
			return "", fmt.Errorf("failed to upload screenshot: %w", err)
		}
	}

	priority := req.Priority
	if priority == "" {
		priority = models.PriorityNormal
	}

	comment := &models.Comment{
		ID:            id,
		ProjectCode:   req.ProjectCode,
		URL:           req.URL,
		Text:          SanitizeHTML(req.Text),
		Priority:      priority,
		ScreenshotKey: screenshotKey,
		CreatedAt:     s.now(),
		Status:        models.CommentStatusNew,
	}
	if req.Coordinates != nil {
		comment.CoordX = &req.Coordinates.X
		comment.CoordY = &req.Coordinates.Y
		comment.CoordWidth = &req.Coordinates.Width
		comment.CoordHeight = &req.Coordinates.Height
	}
	if req.Metadata != nil {
		comment.UserAgent = req.Metadata.UserAgent
		comment.ScreenResolution = req.Metadata.ScreenResolution
	}

	if err := s.commentRepo.Create(comment); err != nil {
		if screenshotKey != "" {
			// Compensating delete; its own failure is logged, never surfaced.
			if delErr := s.store.Delete(screenshotKey); delErr != nil {
				log.Printf("[COMMENT] failed to clean up screenshot %s after insert failure: %v", screenshotKey, delErr)
			}
		}
		return "", err
	}

	return id, nil
}

// ListByProject returns one filtered page of a project's comments. A
// malformed code short-circuits to an empty result rather than erroring.
func (s *CommentService) ListByProject(rawCode string, filter models.CommentFilter, page models.Pagination) (*models.CommentListResponse, error) {
	normalized := code.Normalize(rawCode)
	if !code.IsValidFormat(normalized) {
		return &models.CommentListResponse{
			Comments: []models.CommentResponse{},
			Project:  models.ProjectRef{Code: rawCode},
		}, nil
	}

	comments, total, err := s.commentRepo.ListByProject(normalized, filter, page)
	if err != nil {
		return nil, err
	}

	responses := make([]models.CommentResponse, 0, len(comments))
	for i := range comments {
		responses = append(responses, comments[i].Response())
	}

	ref := models.ProjectRef{Code: normalized}
	if project, err := s.projectRepo.GetByCode(normalized); err == nil {
		ref.ID = project.ID
		ref.Name = project.Name
	}

	return &models.CommentListResponse{
		Comments: responses,
		Total:    total,
		Project:  ref,
	}, nil
}

// Get returns a single comment by id.
func (s *CommentService) Get(id string) (*models.Comment, error) {
	comment, err := s.commentRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCommentNotFound
		}
		return nil, err
	}
	return comment, nil
}

// Update applies a partial update. No fields means failure, not success.
func (s *CommentService) Update(id string, req models.UpdateCommentRequest) error {
	if req.IsEmpty() {
		return apperrors.ErrNoFieldsToUpdate
	}

	fields := make(map[string]interface{})
	if req.Text != nil {
		fields["text"] = SanitizeHTML(*req.Text)
	}
	if req.Priority != nil {
		fields["priority"] = *req.Priority
	}
	if req.Status != nil {
		fields["status"] = *req.Status
	}

	changed, err := s.commentRepo.UpdateFields(id, fields)
	if err != nil {
		return err
	}
	if changed == 0 {
		return apperrors.ErrCommentNotFound
	}
	return nil
}

// UpdateStatus sets a comment's status. Any transition between the three
// values is allowed; ordering discipline is a policy concern above this
// layer.
func (s *CommentService) UpdateStatus(id, status string) error {
	changed, err := s.commentRepo.UpdateStatus(id, status)
	if err != nil {
		return err
	}
	if changed == 0 {
		return apperrors.ErrCommentNotFound
	}
	return nil
}

// Delete removes the comment row, then best-effort deletes its screenshot.
// A blob that refuses to go is logged, never reported to the caller.
func (s *CommentService) Delete(id string) error {
	comment, err := s.commentRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrCommentNotFound
		}
		return err
	}

	changed, err := s.commentRepo.Delete(id)
	if err != nil {
		return err
	}
	if changed == 0 {
		return apperrors.ErrCommentNotFound
	}

	if comment.ScreenshotKey != "" {
		if err := s.store.Delete(comment.ScreenshotKey); err != nil {
			log.Printf("[COMMENT] failed to delete screenshot %s for comment %s: %v", comment.ScreenshotKey, id, err)
		}
	}
	return nil
}

// BulkUpdateStatus updates up to 100 comments in one call. An empty id list
// returns 0 without touching storage; ids matching no row simply do not
// count toward the result.
func (s *CommentService) BulkUpdateStatus(ids []string, status string) (int64, error) {
	if len(ids) > models.MaxBulkStatusIDs {
		return 0, apperrors.ErrTooManyIDs
	}
	if len(ids) == 0 {
		return 0, nil
	}
	return s.commentRepo.BulkUpdateStatus(ids, status)
}

// StatsByProject returns the per-status comment counts of a project.
func (s *CommentService) StatsByProject(rawCode string) (map[string]int, error) {
	normalized := code.Normalize(rawCode)
	if !code.IsValidFormat(normalized) {
		return map[string]int{}, nil
	}
	byStatus, _, err := s.commentRepo.StatsByProject(normalized)
	if err != nil {
		return nil, err
	}
	return byStatus, nil
}

// CountByProject reports how many comments a project currently holds.
func (s *CommentService) CountByProject(code string) (int64, error) {
	return s.commentRepo.CountByProject(code)
}

// DeleteAllForProject removes every screenshot of the project's comments in
// parallel (best-effort), then deletes the rows. Used by cascading project
// deletion.
func (s *CommentService) DeleteAllForProject(rawCode string) (int64, error) {
	normalized := code.Normalize(rawCode)
	if !code.IsValidFormat(normalized) {
		return 0, nil
	}

	keys, err := s.commentRepo.ScreenshotKeysByProject(normalized)
	if err != nil {
		return 0, err
	}

	var wg sync.WaitGroup
	for _, key := range keys {
		wg.Add(1)
		go func(key string) {
			defer wg.Done()
			if err := s.store.Delete(key); err != nil {
				log.Printf("[COMMENT] failed to delete screenshot %s during cascade: %v", key, err)
			}
		}(key)
	}
	wg.Wait()

	return s.commentRepo.DeleteByProject(normalized)
}
