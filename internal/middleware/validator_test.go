package middleware

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateImageContentType(t *testing.T) {
	tests := []struct {
		ct      string
		wantErr bool
	}{
		{"image/jpeg", false},
		{"image/png", false},
		{"image/webp", false},
		{"IMAGE/JPEG", false},
		{"image/jpeg; charset=binary", false},
		{"image/gif", true},
		{"application/pdf", true},
		{"", true},
	}
	for _, tt := range tests {
		err := ValidateImageContentType(tt.ct)
		if tt.wantErr {
			assert.Error(t, err, "content type %q", tt.ct)
		} else {
			assert.NoError(t, err, "content type %q", tt.ct)
		}
	}
}

func TestValidateImageSize(t *testing.T) {
	assert.Error(t, ValidateImageSize(0))
	assert.Error(t, ValidateImageSize(-1))
	assert.NoError(t, ValidateImageSize(1024))
	assert.NoError(t, ValidateImageSize(MaxImageBytes))
	assert.Error(t, ValidateImageSize(MaxImageBytes+1))
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "hello", SanitizeString("  hello  "))
	assert.Equal(t, "hello", SanitizeString("he\x00llo"))
	assert.Equal(t, "lá cà chua bị đốm", SanitizeString("lá cà chua bị đốm"))
	assert.Equal(t, "a\tb", SanitizeString("a\tb"))
	assert.Equal(t, "ab", SanitizeString("a\x1bb"))
}

func TestValidateAnalysisID(t *testing.T) {
	assert.NoError(t, ValidateAnalysisID("5d9f1c1e-0000-4000-8000-000000000001"))
	assert.Error(t, ValidateAnalysisID(""))
	assert.Error(t, ValidateAnalysisID("not-a-uuid"))
	assert.Error(t, ValidateAnalysisID(strings.Repeat("a", 36)))
}

func TestValidateLimit(t *testing.T) {
	assert.Equal(t, 20, ValidateLimit(0))
	assert.Equal(t, 20, ValidateLimit(-5))
	assert.Equal(t, 7, ValidateLimit(7))
	assert.Equal(t, 100, ValidateLimit(500))
}
