// Package services contains the business logic layer of the feedback API.
package services

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jonathanvouilloz/extensionReview/internal/code"
	apperrors "github.com/jonathanvouilloz/extensionReview/internal/errors"
	"github.com/jonathanvouilloz/extensionReview/internal/models"
	"github.com/jonathanvouilloz/extensionReview/internal/repository"
)

// maxCodeRetries bounds the collision-retry loop when assigning a fresh
// project code against the database.
const maxCodeRetries = 5

// ProjectService provides business logic for managing feedback projects.
type ProjectService struct {
	projectRepo repository.ProjectRepository
	generator   *code.Generator
	now         func() time.Time
}

// NewProjectService creates and returns a new instance of ProjectService.
func NewProjectService(projectRepo repository.ProjectRepository, generator *code.Generator) *ProjectService {
	return &ProjectService{
		projectRepo: projectRepo,
		generator:   generator,
		now:         time.Now,
	}
}

// validateWebhookURL enforces the absent-or-valid-HTTPS contract.
func validateWebhookURL(raw string) error {
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || u.Scheme != "https" {
		return apperrors.NewValidation("Webhook URL must be a valid HTTPS URL")
	}
	return nil
}

// Create assigns a fresh unique code and ID, sets expiry 30 days out and
// persists the project as active. Collisions against existing codes are
// retried a bounded number of times.
func (s *ProjectService) Create(req models.CreateProjectRequest) (*models.ProjectSummary, error) {
	if err := validateWebhookURL(req.WebhookURL); err != nil {
		return nil, err
	}

	var projectCode string
	for i := 0; i < maxCodeRetries; i++ {
		candidate, err := s.generator.Generate()
		if err != nil {
			return nil, fmt.Errorf("failed to generate project code: %w", err)
		}

		_, err = s.projectRepo.GetByCode(candidate)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				projectCode = candidate
				break
			}
			return nil, fmt.Errorf("database error checking code uniqueness: %w", err)
		}
		log.Printf("Project code '%s' already exists, retrying generation (%d/%d)...", candidate, i+1, maxCodeRetries)
	}
	if projectCode == "" {
		return nil, apperrors.ErrCodeGenerationFailed
	}

	maxComments := req.MaxComments
	if maxComments == 0 {
		maxComments = models.DefaultMaxComments
	}

	now := s.now()
	project := &models.Project{
		ID:          uuid.NewString(),
		Code:        projectCode,
		Name:        SanitizeHTML(strings.TrimSpace(req.Name)),
		OwnerEmail:  req.OwnerEmail,
		CreatedAt:   now,
		ExpiresAt:   now.Add(models.ProjectLifetime),
		MaxComments: maxComments,
		NotifyEmail: req.NotifyEmail,
		WebhookURL:  req.WebhookURL,
		Status:      models.ProjectStatusActive,
	}

	if err := s.projectRepo.Create(project); err != nil {
		return nil, err
	}

	summary := project.Summary()
	return &summary, nil
}

// GetByCode returns a live project. Malformed codes are rejected before any
// query. A row found past its expiry is flipped to expired as a documented
// side effect of the read, then reported as not found; callers cannot tell
// missing from expired.
func (s *ProjectService) GetByCode(rawCode string) (*models.Project, error) {
	normalized := code.Normalize(rawCode)
	if !code.IsValidFormat(normalized) {
		return nil, apperrors.ErrInvalidProjectCode
	}

	project, err := s.projectRepo.GetByCode(normalized)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrProjectNotFound
		}
		return nil, err
	}

	if project.Status != models.ProjectStatusActive {
		return nil, apperrors.ErrProjectNotFound
	}

	if project.IsExpired(s.now()) {
		if err := s.projectRepo.MarkExpired(normalized); err != nil {
			log.Printf("[PROJECT] failed to lazily expire %s: %v", normalized, err)
		}
		return nil, apperrors.ErrProjectNotFound
	}

	return project, nil
}

// Update applies a partial update to a non-expired project. An update with
// no fields is a failure, not a silent success.
func (s *ProjectService) Update(rawCode string, req models.UpdateProjectRequest) error {
	normalized := code.Normalize(rawCode)
	if !code.IsValidFormat(normalized) {
		return apperrors.ErrInvalidProjectCode
	}
	if req.IsEmpty() {
		return apperrors.ErrNoFieldsToUpdate
	}

	fields := make(map[string]interface{})
	if req.Name != nil {
		fields["name"] = SanitizeHTML(strings.TrimSpace(*req.Name))
	}
	if req.MaxComments != nil {
		fields["max_comments"] = *req.MaxComments
	}
	if req.NotifyEmail != nil {
		fields["notify_email"] = *req.NotifyEmail
	}
	if req.WebhookURL != nil {
		if err := validateWebhookURL(*req.WebhookURL); err != nil {
			return err
		}
		fields["webhook_url"] = *req.WebhookURL
	}
	if req.Status != nil {
		fields["status"] = *req.Status
	}

	changed, err := s.projectRepo.UpdateFields(normalized, fields)
	if err != nil {
		return err
	}
	if changed == 0 {
		return apperrors.ErrProjectNotFound
	}
	return nil
}

// ExtendExpiration pushes the expiry forward from its current value (so
// repeated extensions compound) and reactivates the project even when it had
// lapsed into expired.
func (s *ProjectService) ExtendExpiration(rawCode string, days int) error {
	normalized := code.Normalize(rawCode)
	if !code.IsValidFormat(normalized) {
		return apperrors.ErrInvalidProjectCode
	}
	if days <= 0 {
		days = 30
	}

	project, err := s.projectRepo.GetByCode(normalized)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrProjectNotFound
		}
		return err
	}

	newExpiry := project.ExpiresAt.Add(time.Duration(days) * 24 * time.Hour)
	changed, err := s.projectRepo.SetExpiration(normalized, newExpiry)
	if err != nil {
		return err
	}
	if changed == 0 {
		return apperrors.ErrProjectNotFound
	}
	return nil
}

// Delete removes the project row. Cascading comment and screenshot cleanup
// is orchestrated by the feedback service before this call.
func (s *ProjectService) Delete(rawCode string) error {
	normalized := code.Normalize(rawCode)
	if !code.IsValidFormat(normalized) {
		return apperrors.ErrInvalidProjectCode
	}

	changed, err := s.projectRepo.Delete(normalized)
	if err != nil {
		return err
	}
	if changed == 0 {
		return apperrors.ErrProjectNotFound
	}
	return nil
}

// SweepExpired bulk-flips every active project past its expiry and returns
// how many were flipped.
func (s *ProjectService) SweepExpired() (int64, error) {
	return s.projectRepo.SweepExpired(s.now())
}

// ListByOwner returns one page of the owner's projects.
func (s *ProjectService) ListByOwner(ownerEmail string, page, perPage int) (*models.ProjectListResponse, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 20
	}
	if perPage > 100 {
		perPage = 100
	}

	projects, total, err := s.projectRepo.ListByOwner(ownerEmail, (page-1)*perPage, perPage)
	if err != nil {
		return nil, err
	}

	summaries := make([]models.ProjectSummary, 0, len(projects))
	for i := range projects {
		summaries = append(summaries, projects[i].Summary())
	}
	return &models.ProjectListResponse{
		Projects: summaries,
		Total:    total,
		Page:     page,
		PerPage:  perPage,
	}, nil
}
