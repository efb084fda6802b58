package models

import "time"

// Comment status values. The store permits any transition between the three;
// workflow ordering is a concern of whoever drives the API.
const (
	CommentStatusNew        = "new"
	CommentStatusInProgress = "in_progress"
	CommentStatusResolved   = "resolved"
)

// Comment priority values.
const (
	PriorityLow    = "low"
	PriorityNormal = "normal"
	PriorityHigh   = "high"
)

// MaxBulkStatusIDs caps how many comments a single bulk status update may touch.
const MaxBulkStatusIDs = 100

// Comment is a single piece of feedback left against a project. The owning
// project is referenced by code (denormalized, no gorm association) so comment
// rows survive unchanged when project metadata is edited.
type Comment struct {
	ID               string    `gorm:"primaryKey;size:36" json:"id"`
	ProjectCode      string    `gorm:"size:11;index;not null" json:"project_code"`
	URL              string    `gorm:"size:2000;not null" json:"url"`
	Text             string    `gorm:"size:2000;not null" json:"text"`
	Priority         string    `gorm:"size:10;default:normal" json:"priority"`
	ScreenshotKey    string    `gorm:"size:255" json:"screenshot_key,omitempty"`
	CoordX           *int      `json:"-"`
	CoordY           *int      `json:"-"`
	CoordWidth       *int      `json:"-"`
	CoordHeight      *int      `json:"-"`
	UserAgent        string    `gorm:"size:500" json:"user_agent,omitempty"`
	ScreenResolution string    `gorm:"size:20" json:"screen_resolution,omitempty"`
	CreatedAt        time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	Status           string    `gorm:"size:20;default:new;index" json:"status"`
}

// Coordinates describes the capture rectangle selected in the page.
type Coordinates struct {
	X      int `json:"x" binding:"min=0"`
	Y      int `json:"y" binding:"min=0"`
	Width  int `json:"width" binding:"required,gt=0"`
	Height int `json:"height" binding:"required,gt=0"`
}

// CommentMetadata is optional client context attached at capture time.
type CommentMetadata struct {
	UserAgent        string `json:"user_agent" binding:"omitempty,max=500"`
	ScreenResolution string `json:"screen_resolution"`
}

// CreateCommentRequest is the JSON body accepted by POST /api/comments.
// Screenshot, when present, is a base64 data URL (png, jpeg or webp).
type CreateCommentRequest struct {
	ProjectCode string           `json:"project_code" binding:"required"`
	URL         string           `json:"url" binding:"required,url"`
	Text        string           `json:"text" binding:"required,min=1,max=2000"`
	Priority    string           `json:"priority" binding:"omitempty,oneof=low normal high"`
	Screenshot  string           `json:"screenshot"`
	Coordinates *Coordinates     `json:"coordinates"`
	Metadata    *CommentMetadata `json:"metadata"`
}

// UpdateCommentRequest is the partial-update body for PUT /api/comments/:id.
type UpdateCommentRequest struct {
	Text     *string `json:"text" binding:"omitempty,min=1,max=2000"`
	Priority *string `json:"priority" binding:"omitempty,oneof=low normal high"`
	Status   *string `json:"status" binding:"omitempty,oneof=new in_progress resolved"`
}

// IsEmpty reports whether the update carries no fields at all.
func (r *UpdateCommentRequest) IsEmpty() bool {
	return r.Text == nil && r.Priority == nil && r.Status == nil
}

// BulkStatusRequest is the body for PUT /api/comments/bulk/status.
type BulkStatusRequest struct {
	CommentIDs []string `json:"commentIds" binding:"required"`
	Status     string   `json:"status" binding:"required,oneof=new in_progress resolved"`
}

// CommentResponse is the API shape of a comment. Coordinates are folded back
// into a nested object when the capture rectangle was recorded.
type CommentResponse struct {
	ID               string       `json:"id"`
	ProjectCode      string       `json:"project_code"`
	URL              string       `json:"url"`
	Text             string       `json:"text"`
	Priority         string       `json:"priority"`
	ScreenshotKey    string       `json:"screenshot_key,omitempty"`
	Coordinates      *Coordinates `json:"coordinates,omitempty"`
	UserAgent        string       `json:"user_agent,omitempty"`
	ScreenResolution string       `json:"screen_resolution,omitempty"`
	CreatedAt        time.Time    `json:"created_at"`
	Status           string       `json:"status"`
}

// Response converts a stored comment into its API shape.
func (c *Comment) Response() CommentResponse {
	resp := CommentResponse{
		ID:               c.ID,
		ProjectCode:      c.ProjectCode,
		URL:              c.URL,
		Text:             c.Text,
		Priority:         c.Priority,
		ScreenshotKey:    c.ScreenshotKey,
		UserAgent:        c.UserAgent,
		ScreenResolution: c.ScreenResolution,
		CreatedAt:        c.CreatedAt,
		Status:           c.Status,
	}
	if c.CoordX != nil && c.CoordY != nil {
		coords := Coordinates{X: *c.CoordX, Y: *c.CoordY}
		if c.CoordWidth != nil {
			coords.Width = *c.CoordWidth
		}
		if c.CoordHeight != nil {
			coords.Height = *c.CoordHeight
		}
		resp.Coordinates = &coords
	}
	return resp
}

// CommentFilter narrows a project's comment listing.
type CommentFilter struct {
	Status   string
	Priority string
	Search   string
	DateFrom *time.Time
	DateTo   *time.Time
}

// Pagination carries the page/sort parameters of a listing request. Values
// are normalized by the repository (page floored at 1, per-page clamped to
// [1,100], unknown sort keys fall back to created_at desc).
type Pagination struct {
	Page    int
	PerPage int
	Sort    string
	Order   string
}

// CommentListResponse is the shape returned by GET /api/comments/:code.
type CommentListResponse struct {
	Comments []CommentResponse `json:"comments"`
	Total    int64             `json:"total"`
	Project  ProjectRef        `json:"project"`
}
