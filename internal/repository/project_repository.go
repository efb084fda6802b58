package repository

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/jonathanvouilloz/extensionReview/internal/models"
)

// ProjectRepository définit les méthodes d'accès aux données des projets.
type ProjectRepository interface {
	Create(project *models.Project) error
	GetByCode(code string) (*models.Project, error)
	UpdateFields(code string, fields map[string]interface{}) (int64, error)
	MarkExpired(code string) error
	SetExpiration(code string, expiresAt time.Time) (int64, error)
	Delete(code string) (int64, error)
	SweepExpired(now time.Time) (int64, error)
	ListByOwner(ownerEmail string, offset, limit int) ([]models.Project, int64, error)
}

// GormProjectRepository is the GORM implementation of ProjectRepository.
type GormProjectRepository struct {
	db *gorm.DB
}

// NewProjectRepository crée et retourne une nouvelle instance de GormProjectRepository.
func NewProjectRepository(db *gorm.DB) *GormProjectRepository {
	return &GormProjectRepository{db: db}
}

// Create insère un nouveau projet dans la base de données.
func (r *GormProjectRepository) Create(project *models.Project) error {
	if err := r.db.Create(project).Error; err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}
	return nil
}

// GetByCode récupère un projet par son code, quel que soit son statut.
// Expiry handling is the service's concern.
func (r *GormProjectRepository) GetByCode(code string) (*models.Project, error) {
	var project models.Project
	if err := r.db.Where("code = ?", code).First(&project).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

// UpdateFields applies a whitelisted field map to a non-expired project and
// reports how many rows changed.
func (r *GormProjectRepository) UpdateFields(code string, fields map[string]interface{}) (int64, error) {
	res := r.db.Model(&models.Project{}).
		Where("code = ? AND status <> ?", code, models.ProjectStatusExpired).
		Updates(fields)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to update project %s: %w", code, res.Error)
	}
	return res.RowsAffected, nil
}

// MarkExpired flips a project's status to expired. Used by the lazy
// expiry-on-read path.
func (r *GormProjectRepository) MarkExpired(code string) error {
	res := r.db.Model(&models.Project{}).
		Where("code = ?", code).
		Update("status", models.ProjectStatusExpired)
	if res.Error != nil {
		return fmt.Errorf("failed to expire project %s: %w", code, res.Error)
	}
	return nil
}

// SetExpiration moves a project's expiry forward and reactivates it.
func (r *GormProjectRepository) SetExpiration(code string, expiresAt time.Time) (int64, error) {
	res := r.db.Model(&models.Project{}).
		Where("code = ?", code).
		Updates(map[string]interface{}{
			"expires_at": expiresAt,
			"status":     models.ProjectStatusActive,
		})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to extend project %s: %w", code, res.Error)
	}
	return res.RowsAffected, nil
}

// Delete supprime le projet. Comment cleanup happens in the service before
// this call.
func (r *GormProjectRepository) Delete(code string) (int64, error) {
	res := r.db.Where("code = ?", code).Delete(&models.Project{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete project %s: %w", code, res.Error)
	}
	return res.RowsAffected, nil
}

// SweepExpired bulk-flips every active project past its expiry.
func (r *GormProjectRepository) SweepExpired(now time.Time) (int64, error) {
	res := r.db.Model(&models.Project{}).
		Where("expires_at < ? AND status = ?", now, models.ProjectStatusActive).
		Update("status", models.ProjectStatusExpired)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to sweep expired projects: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// ListByOwner returns one page of an owner's projects, newest first, plus
// the total count.
func (r *GormProjectRepository) ListByOwner(ownerEmail string, offset, limit int) ([]models.Project, int64, error) {
	var total int64
	if err := r.db.Model(&models.Project{}).
		Where("owner_email = ?", ownerEmail).
		Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count projects for owner: %w", err)
	}

	var projects []models.Project
	if err := r.db.Where("owner_email = ?", ownerEmail).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&projects).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list projects for owner: %w", err)
	}
	return projects, total, nil
}
