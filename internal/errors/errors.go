// Package errors defines the error taxonomy shared by services and handlers.
package errors

import (
	"errors"
	"fmt"
)

// ErrProjectNotFound covers both a missing project and one past its expiry;
// callers never learn which, on purpose.
var ErrProjectNotFound = errors.New("project not found or expired")

// ErrCommentNotFound is returned when a comment id matches no row.
var ErrCommentNotFound = errors.New("comment not found")

// ErrInvalidProjectCode is returned for codes that fail the XXX-XXX-XXX
// structural check before any query is issued.
var ErrInvalidProjectCode = errors.New("invalid project code format")

// ErrCodeGenerationFailed is returned when the generator exhausts its
// collision-retry budget.
var ErrCodeGenerationFailed = errors.New("failed to generate unique project code")

// ErrNoFieldsToUpdate is returned for partial updates carrying no fields.
var ErrNoFieldsToUpdate = errors.New("no fields to update")

// ErrCommentLimitReached is returned when a submission would exceed the
// project's max_comments cap.
var ErrCommentLimitReached = errors.New("project comment limit reached")

// ErrTooManyIDs is returned when a bulk status update names more than the
// allowed number of comments.
var ErrTooManyIDs = errors.New("too many comment ids in bulk update")

// ErrInvalidScreenshot is returned when a screenshot payload is not a
// decodable base64 image data URL within the size limit.
var ErrInvalidScreenshot = errors.New("invalid screenshot format or size")

// ValidationError carries itemized per-field failures for 400 responses.
type ValidationError struct {
	Details []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %d error(s)", len(e.Details))
}

// NewValidation builds a ValidationError from individual messages.
func NewValidation(details ...string) *ValidationError {
	return &ValidationError{Details: details}
}
