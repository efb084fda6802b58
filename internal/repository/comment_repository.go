package repository

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/jonathanvouilloz/extensionReview/internal/models"
)

// CommentRepository définit les méthodes d'accès aux données des commentaires.
type CommentRepository interface {
	Create(comment *models.Comment) error
	GetByID(id string) (*models.Comment, error)
	ListByProject(code string, filter models.CommentFilter, page models.Pagination) ([]models.Comment, int64, error)
	UpdateFields(id string, fields map[string]interface{}) (int64, error)
	UpdateStatus(id string, status string) (int64, error)
	BulkUpdateStatus(ids []string, status string) (int64, error)
	Delete(id string) (int64, error)
	DeleteByProject(code string) (int64, error)
	CountByProject(code string) (int64, error)
	StatsByProject(code string) (map[string]int, map[string]int, error)
	ScreenshotKeysByProject(code string) ([]string, error)
	AllScreenshotKeys() ([]string, error)
}

// GormCommentRepository is the GORM implementation of CommentRepository.
type GormCommentRepository struct {
	db *gorm.DB
}

// NewCommentRepository crée et retourne une nouvelle instance de GormCommentRepository.
func NewCommentRepository(db *gorm.DB) *GormCommentRepository {
	return &GormCommentRepository{db: db}
}

// Create insère un nouveau commentaire dans la base de données.
func (r *GormCommentRepository) Create(comment *models.Comment) error {
	if err := r.db.Create(comment).Error; err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}
	return nil
}

// GetByID récupère un commentaire par son identifiant.
func (r *GormCommentRepository) GetByID(id string) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.Where("id = ?", id).First(&comment).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

// sortColumns whitelists the sortable fields; anything else falls back to
// created_at.
var sortColumns = map[string]string{
	"created_at": "created_at",
	"priority":   "priority",
	"status":     "status",
}

// ListByProject returns one filtered, sorted page of a project's comments
// plus the total count matching the filter.
func (r *GormCommentRepository) ListByProject(code string, filter models.CommentFilter, page models.Pagination) ([]models.Comment, int64, error) {
	q := r.db.Model(&models.Comment{}).Where("project_code = ?", code)

	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Priority != "" {
		q = q.Where("priority = ?", filter.Priority)
	}
	if filter.DateFrom != nil {
		q = q.Where("created_at >= ?", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		q = q.Where("created_at <= ?", *filter.DateTo)
	}
	if filter.Search != "" {
		q = q.Where("text LIKE ?", "%"+filter.Search+"%")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count comments for project %s: %w", code, err)
	}

	pageNum := page.Page
	if pageNum < 1 {
		pageNum = 1
	}
	perPage := page.PerPage
	if perPage < 1 {
		perPage = 20
	}
	if perPage > 100 {
		perPage = 100
	}

	column, ok := sortColumns[page.Sort]
	if !ok {
		column = "created_at"
	}
	direction := "DESC"
	if page.Order == "asc" {
		direction = "ASC"
	}
	order := column + " " + direction
	if column != "created_at" {
		// Secondary key keeps pages stable when the primary sort has ties.
		order += ", created_at DESC"
	}

	var comments []models.Comment
	if err := q.Order(order).
		Offset((pageNum - 1) * perPage).
		Limit(perPage).
		Find(&comments).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list comments for project %s: %w", code, err)
	}
	return comments, total, nil
}

// UpdateFields applies a whitelisted field map and reports rows changed.
func (r *GormCommentRepository) UpdateFields(id string, fields map[string]interface{}) (int64, error) {
	res := r.db.Model(&models.Comment{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to update comment %s: %w", id, res.Error)
	}
	return res.RowsAffected, nil
}

// UpdateStatus change le statut d'un commentaire.
func (r *GormCommentRepository) UpdateStatus(id string, status string) (int64, error) {
	res := r.db.Model(&models.Comment{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to update comment status %s: %w", id, res.Error)
	}
	return res.RowsAffected, nil
}

// BulkUpdateStatus sets the status on every listed id and reports the
// aggregate changed-count. Missing ids simply do not count.
func (r *GormCommentRepository) BulkUpdateStatus(ids []string, status string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.Model(&models.Comment{}).Where("id IN ?", ids).Update("status", status)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to bulk update comment status: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// Delete supprime un commentaire par son identifiant.
func (r *GormCommentRepository) Delete(id string) (int64, error) {
	res := r.db.Where("id = ?", id).Delete(&models.Comment{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete comment %s: %w", id, res.Error)
	}
	return res.RowsAffected, nil
}

// DeleteByProject supprime tous les commentaires d'un projet.
func (r *GormCommentRepository) DeleteByProject(code string) (int64, error) {
	res := r.db.Where("project_code = ?", code).Delete(&models.Comment{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete comments for project %s: %w", code, res.Error)
	}
	return res.RowsAffected, nil
}

// CountByProject compte les commentaires d'un projet.
func (r *GormCommentRepository) CountByProject(code string) (int64, error) {
	var count int64
	if err := r.db.Model(&models.Comment{}).Where("project_code = ?", code).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count comments for project %s: %w", code, err)
	}
	return count, nil
}

type groupCount struct {
	Key   string
	Count int
}

// StatsByProject aggregates comment counts by status and by priority.
func (r *GormCommentRepository) StatsByProject(code string) (map[string]int, map[string]int, error) {
	byStatus := make(map[string]int)
	byPriority := make(map[string]int)

	var rows []groupCount
	if err := r.db.Model(&models.Comment{}).
		Select("status AS key, COUNT(*) AS count").
		Where("project_code = ?", code).
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to aggregate comment statuses for %s: %w", code, err)
	}
	for _, row := range rows {
		byStatus[row.Key] = row.Count
	}

	rows = rows[:0]
	if err := r.db.Model(&models.Comment{}).
		Select("priority AS key, COUNT(*) AS count").
		Where("project_code = ?", code).
		Group("priority").
		Scan(&rows).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to aggregate comment priorities for %s: %w", code, err)
	}
	for _, row := range rows {
		byPriority[row.Key] = row.Count
	}

	return byStatus, byPriority, nil
}

// ScreenshotKeysByProject returns the storage keys of every screenshot
// attached to the project's comments.
func (r *GormCommentRepository) ScreenshotKeysByProject(code string) ([]string, error) {
	var keys []string
	if err := r.db.Model(&models.Comment{}).
		Where("project_code = ? AND screenshot_key <> ''", code).
		Pluck("screenshot_key", &keys).Error; err != nil {
		return nil, fmt.Errorf("failed to collect screenshot keys for project %s: %w", code, err)
	}
	return keys, nil
}

// AllScreenshotKeys returns every screenshot key referenced by a comment row.
// Used by the orphan-blob sweep to tell live blobs from leftovers.
func (r *GormCommentRepository) AllScreenshotKeys() ([]string, error) {
	var keys []string
	if err := r.db.Model(&models.Comment{}).
		Where("screenshot_key <> ''").
		Pluck("screenshot_key", &keys).Error; err != nil {
		return nil, fmt.Errorf("failed to collect screenshot keys: %w", err)
	}
	return keys, nil
}
