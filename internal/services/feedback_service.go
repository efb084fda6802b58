package services

import (
	"log"

	apperrors "github.com/jonathanvouilloz/extensionReview/internal/errors"
	"github.com/jonathanvouilloz/extensionReview/internal/models"
	"github.com/jonathanvouilloz/extensionReview/internal/notify"
	"github.com/jonathanvouilloz/extensionReview/internal/repository"
	"github.com/jonathanvouilloz/extensionReview/internal/storage"
)

// FeedbackService composes the project and comment services into the public
// operations of the API: project lifecycle, comment submission against a
// live project, and the schedulable sweeps.
type FeedbackService struct {
	Projects *ProjectService
	Comments *CommentService

	commentRepo repository.CommentRepository
	store       storage.ObjectStore
	notifier    *notify.WebhookNotifier
}

// NewFeedbackService wires the composition layer.
func NewFeedbackService(
	projects *ProjectService,
	comments *CommentService,
	commentRepo repository.CommentRepository,
	store storage.ObjectStore,
	notifier *notify.WebhookNotifier,
) *FeedbackService {
	return &FeedbackService{
		Projects:    projects,
		Comments:    comments,
		commentRepo: commentRepo,
		store:       store,
		notifier:    notifier,
	}
}

// SubmitComment validates that the target project is live and under its
// comment cap, creates the comment, then fires the webhook notification
// without blocking or failing the request.
func (s *FeedbackService) SubmitComment(req models.CreateCommentRequest) (string, error) {
	project, err := s.Projects.GetByCode(req.ProjectCode)
	if err != nil {
		return "", err
	}
	req.ProjectCode = project.Code

	count, err := s.Comments.CountByProject(project.Code)
	if err != nil {
		return "", err
	}
	if count >= int64(project.MaxComments) {
		return "", apperrors.ErrCommentLimitReached
	}

	id, err := s.Comments.Create(req)
	if err != nil {
		return "", err
	}

	priority := req.Priority
	if priority == "" {
		priority = models.PriorityNormal
	}
	s.notifier.CommentCreated(project, id, priority, req.URL)

	return id, nil
}

// DeleteProject cascades: every comment of the project (and its screenshot)
// goes first, then the project row, as one logical unit. Screenshot cleanup
// is best-effort and never fails the operation.
func (s *FeedbackService) DeleteProject(code string) error {
	deleted, err := s.Comments.DeleteAllForProject(code)
	if err != nil {
		return err
	}
	if deleted > 0 {
		log.Printf("[PROJECT] cascade removed %d comment(s) of project %s", deleted, code)
	}
	return s.Projects.Delete(code)
}

// Stats returns the comment aggregates of a live project.
func (s *FeedbackService) Stats(code string) (*models.ProjectStats, error) {
	project, err := s.Projects.GetByCode(code)
	if err != nil {
		return nil, err
	}

	total, err := s.commentRepo.CountByProject(project.Code)
	if err != nil {
		return nil, err
	}
	byStatus, byPriority, err := s.commentRepo.StatsByProject(project.Code)
	if err != nil {
		return nil, err
	}

	return &models.ProjectStats{
		TotalComments:      int(total),
		CommentsByStatus:   byStatus,
		CommentsByPriority: byPriority,
	}, nil
}

// SweepExpired runs the bulk expiry flip. Schedulable; never called from a
// request path.
func (s *FeedbackService) SweepExpired() (int64, error) {
	return s.Projects.SweepExpired()
}

// SweepOrphanBlobs deletes stored screenshots no comment row references,
// the leftovers of uploads whose row insert never landed (client
// disconnects). Returns how many blobs were removed.
func (s *FeedbackService) SweepOrphanBlobs() (int64, error) {
	stored, err := s.store.List("screenshots/")
	if err != nil {
		return 0, err
	}
	if len(stored) == 0 {
		return 0, nil
	}

	referenced, err := s.commentRepo.AllScreenshotKeys()
	if err != nil {
		return 0, err
	}
	live := make(map[string]struct{}, len(referenced))
	for _, key := range referenced {
		live[key] = struct{}{}
	}

	var removed int64
	for _, key := range stored {
		if _, ok := live[key]; ok {
			continue
		}
		if err := s.store.Delete(key); err != nil {
			log.Printf("[SWEEP] failed to delete orphan blob %s: %v", key, err)
			continue
		}
		removed++
	}
	return removed, nil
}
