// Package screenshot turns base64 screenshot payloads into webp blobs ready
// for the object store.
package screenshot

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"regexp"
	"time"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"

	apperrors "github.com/jonathanvouilloz/extensionReview/internal/errors"
)

const (
	// MaxEncodedBytes bounds the decoded screenshot size (5 MB, matching the
	// request body ceiling of the public API).
	MaxEncodedBytes = 5 * 1024 * 1024

	// maxWidth is the widest capture kept as-is; anything wider is downscaled
	// preserving aspect ratio before the webp re-encode.
	maxWidth = 1920

	// webpQuality is the lossy encode quality for stored screenshots.
	webpQuality = 80
)

// ContentType is the content type of every stored screenshot.
const ContentType = "image/webp"

// CacheControl is the long-lived cache header attached to stored screenshots.
const CacheControl = "public, max-age=31536000"

// dataURLPattern matches the accepted data-URL prefixes.
var dataURLPattern = regexp.MustCompile(`^data:image/(png|jpeg|jpg|webp);base64,`)

// IsValidDataURL checks the payload shape and approximate decoded size
// without doing a full decode.
func IsValidDataURL(payload string) bool {
	if !dataURLPattern.MatchString(payload) {
		return false
	}
	// Base64 expands by 4/3; this over-counts slightly, which is fine for a
	// guard.
	return int64(len(payload))*3/4 <= MaxEncodedBytes
}

// Key builds the storage key for a comment's screenshot. The upload timestamp
// keeps keys unique across re-submissions for the same comment id.
func Key(commentID string, uploadedAt time.Time) string {
	return fmt.Sprintf("screenshots/%s-%d.webp", commentID, uploadedAt.UnixMilli())
}

// Process decodes a base64 data URL (png, jpeg or webp), downscales captures
// wider than 1920px and re-encodes the result as lossy webp.
func Process(payload string) ([]byte, error) {
	loc := dataURLPattern.FindStringIndex(payload)
	if loc == nil {
		return nil, apperrors.ErrInvalidScreenshot
	}

	raw, err := base64.StdEncoding.DecodeString(payload[loc[1]:])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidScreenshot, err)
	}
	if len(raw) == 0 || len(raw) > MaxEncodedBytes {
		return nil, apperrors.ErrInvalidScreenshot
	}

	img, err := decode(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidScreenshot, err)
	}

	if img.Bounds().Dx() > maxWidth {
		img = imaging.Resize(img, maxWidth, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := webp.Encode(&buf, img, &webp.Options{Quality: webpQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode screenshot as webp: %w", err)
	}
	return buf.Bytes(), nil
}

// decode sniffs the image format from the payload rather than trusting the
// data-URL label.
func decode(raw []byte) (image.Image, error) {
	switch {
	case bytes.HasPrefix(raw, []byte("\x89PNG")):
		return png.Decode(bytes.NewReader(raw))
	case bytes.HasPrefix(raw, []byte("\xff\xd8")):
		return jpeg.Decode(bytes.NewReader(raw))
	case len(raw) > 12 && bytes.Equal(raw[0:4], []byte("RIFF")) && bytes.Equal(raw[8:12], []byte("WEBP")):
		return webp.Decode(bytes.NewReader(raw))
	default:
		return nil, fmt.Errorf("unsupported image format")
	}
}
