package models

import "time"

// Project status values. 'expired' is reached by wall-clock time,
// 'inactive' is a manual pause set by the owner.
const (
	ProjectStatusActive   = "active"
	ProjectStatusInactive = "inactive"
	ProjectStatusExpired  = "expired"
)

// DefaultMaxComments is applied when a project is created without an
// explicit comment cap.
const DefaultMaxComments = 100

// ProjectLifetime is the initial validity window of a freshly created
// project. Extensions add to the current expiry, not to time.Now().
const ProjectLifetime = 30 * 24 * time.Hour

// Project represents a feedback project identified by its human-typable code.
type Project struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	Code        string    `gorm:"uniqueIndex;size:11;not null" json:"code"`
	Name        string    `gorm:"size:100;not null" json:"name"`
	OwnerEmail  string    `gorm:"size:255;index;not null" json:"owner_email"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	ExpiresAt   time.Time `gorm:"index" json:"expires_at"`
	MaxComments int       `gorm:"default:100" json:"max_comments"`
	NotifyEmail bool      `json:"notify_email"`
	WebhookURL  string    `gorm:"size:500" json:"webhook_url,omitempty"`
	Status      string    `gorm:"size:20;default:active;index" json:"status"`
}

// IsExpired reports whether the project has outlived its expiry timestamp,
// regardless of the persisted status column.
func (p *Project) IsExpired(now time.Time) bool {
	return now.After(p.ExpiresAt)
}

// CreateProjectRequest is the JSON body accepted by POST /api/projects.
type CreateProjectRequest struct {
	Name        string `json:"name" binding:"required,min=2,max=100"`
	OwnerEmail  string `json:"owner_email" binding:"required,email"`
	MaxComments int    `json:"max_comments" binding:"omitempty,min=1,max=1000"`
	NotifyEmail bool   `json:"notify_email"`
	WebhookURL  string `json:"webhook_url" binding:"omitempty,url"`
}

// UpdateProjectRequest is the partial-update body for PUT /api/projects/:code.
// Pointer fields distinguish "absent" from zero values; an update with no
// fields set is rejected rather than silently succeeding.
type UpdateProjectRequest struct {
	Name        *string `json:"name" binding:"omitempty,min=2,max=100"`
	MaxComments *int    `json:"max_comments" binding:"omitempty,min=1,max=1000"`
	NotifyEmail *bool   `json:"notify_email"`
	WebhookURL  *string `json:"webhook_url"`
	Status      *string `json:"status" binding:"omitempty,oneof=active inactive expired"`
}

// IsEmpty reports whether the update carries no fields at all.
func (r *UpdateProjectRequest) IsEmpty() bool {
	return r.Name == nil && r.MaxComments == nil && r.NotifyEmail == nil &&
		r.WebhookURL == nil && r.Status == nil
}

// ProjectSummary is the public shape returned for a project. The owner email
// is deliberately not part of it.
type ProjectSummary struct {
	ID          string    `json:"id"`
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	ExpiresAt   time.Time `json:"expires_at"`
	MaxComments int       `json:"max_comments"`
}

// Summary converts a full project row into its public summary.
func (p *Project) Summary() ProjectSummary {
	return ProjectSummary{
		ID:          p.ID,
		Code:        p.Code,
		Name:        p.Name,
		ExpiresAt:   p.ExpiresAt,
		MaxComments: p.MaxComments,
	}
}

// ProjectRef is the minimal project reference embedded in comment listings.
type ProjectRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
}

// ProjectStats aggregates comment counts for a single project.
type ProjectStats struct {
	TotalComments      int            `json:"total_comments"`
	CommentsByStatus   map[string]int `json:"comments_by_status"`
	CommentsByPriority map[string]int `json:"comments_by_priority"`
}

// ProjectListResponse is the paginated owner listing returned by
// GET /api/projects.
type ProjectListResponse struct {
	Projects []ProjectSummary `json:"projects"`
	Total    int64            `json:"total"`
	Page     int              `json:"page"`
	PerPage  int              `json:"per_page"`
}
