package middleware

import (
	"fmt"
	"regexp"
	"strings"
)

// Input validation utilities for the upload surface

// MaxUploadBytes caps a single uploaded report (multi-page PDFs included).
const MaxUploadBytes = 32 << 20 // 32MB

var emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// ValidateUploadType checks the declared media type before any pipeline
// stage runs. Only raster images and PDFs are accepted.
func ValidateUploadType(mimeType string) error {
	if strings.HasPrefix(mimeType, "image/") || mimeType == "application/pdf" {
		return nil
	}
	return fmt.Errorf("unsupported upload type: %s (allowed: image/*, application/pdf)", mimeType)
}

// ValidateEmail does a shallow shape check; deliverability is not our problem
func ValidateEmail(email string) error {
	if !emailRe.MatchString(email) {
		return fmt.Errorf("invalid email address")
	}
	return nil
}
