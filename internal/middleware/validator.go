package middleware

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Input validation and sanitization utilities

const (
	MaxImageBytes = 10 << 20 // 10 MiB upload cap
)

// Image content types the recognition vendor accepts.
var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// ValidateImageContentType checks the uploaded photo's content type
func ValidateImageContentType(contentType string) error {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	if !allowedImageTypes[ct] {
		return fmt.Errorf("invalid image type: %s (allowed: jpeg, png, webp)", contentType)
	}
	return nil
}

// ValidateImageSize rejects oversized uploads before they hit the pipeline
func ValidateImageSize(size int64) error {
	if size <= 0 {
		return fmt.Errorf("image is empty")
	}
	if size > MaxImageBytes {
		return fmt.Errorf("image too large: %d bytes (max %d)", size, MaxImageBytes)
	}
	return nil
}

// SanitizeString removes dangerous characters from strings
func SanitizeString(input string) string {
	// Remove null bytes
	input = strings.ReplaceAll(input, "\x00", "")

	// Remove control characters
	var result strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' {
			result.WriteRune(r)
		}
	}

	return strings.TrimSpace(result.String())
}

// ValidateAnalysisID validates stored-analysis ID format (UUID)
func ValidateAnalysisID(id string) error {
	if id == "" {
		return fmt.Errorf("analysis ID cannot be empty")
	}
	if utf8.RuneCountInString(id) != 36 || strings.Count(id, "-") != 4 {
		return fmt.Errorf("invalid analysis ID format")
	}
	return nil
}

// ValidateLimit validates pagination limit
func ValidateLimit(limit int) int {
	if limit <= 0 {
		return 20 // default
	}
	if limit > 100 {
		return 100 // max limit
	}
	return limit
}
