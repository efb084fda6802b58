package screenshot

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"
	"time"

	"github.com/chai2010/webp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/jonathanvouilloz/extensionReview/internal/errors"
)

func pngDataURL(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestProcessEncodesWebp(t *testing.T) {
	out, err := Process(pngDataURL(t, 640, 480))
	require.NoError(t, err)

	img, err := webp.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 640, img.Bounds().Dx())
	assert.Equal(t, 480, img.Bounds().Dy())
}

func TestProcessDownscalesWideCaptures(t *testing.T) {
	out, err := Process(pngDataURL(t, 2400, 600))
	require.NoError(t, err)

	img, err := webp.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 1920, img.Bounds().Dx())
	assert.Equal(t, 480, img.Bounds().Dy(), "aspect ratio preserved")
}

func TestProcessRejectsBadPayloads(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"no data url prefix", base64.StdEncoding.EncodeToString([]byte("hi"))},
		{"wrong media type", "data:text/plain;base64,aGVsbG8="},
		{"broken base64", "data:image/png;base64,!!!not-base64!!!"},
		{"not an image", "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("plain text"))},
		{"empty body", "data:image/png;base64,"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Process(tt.payload)
			assert.ErrorIs(t, err, apperrors.ErrInvalidScreenshot)
		})
	}
}

func TestIsValidDataURL(t *testing.T) {
	assert.True(t, IsValidDataURL(pngDataURL(t, 10, 10)))
	assert.True(t, IsValidDataURL("data:image/webp;base64,AAAA"))
	assert.False(t, IsValidDataURL("data:application/json;base64,AAAA"))
	assert.False(t, IsValidDataURL("AAAA"))

	// Oversized payloads are refused on length alone.
	huge := "data:image/png;base64," + strings.Repeat("A", (MaxEncodedBytes/3)*4+1024)
	assert.False(t, IsValidDataURL(huge))
}

func TestKeyShape(t *testing.T) {
	at := time.UnixMilli(1700000000000)
	key := Key("123e4567-e89b-42d3-a456-426614174000", at)
	assert.Equal(t, "screenshots/123e4567-e89b-42d3-a456-426614174000-1700000000000.webp", key)
	assert.True(t, strings.HasPrefix(key, "screenshots/"))
	assert.True(t, strings.HasSuffix(key, ".webp"))
}
