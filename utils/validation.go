package utils

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"sales-dashboard/errors"

	"github.com/google/uuid"
)

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9._\s-]`)

// SanitizeFilename cleans filename for safe logging and storage by removing
// dangerous characters and limiting length. It trims spaces and dots, removes
// parent directory references, and filters out non-alphanumeric characters
// except for safe punctuation.
func SanitizeFilename(filename string) string {
	sanitized := filepath.Base(filepath.ToSlash(filename))
	if sanitized == "." || sanitized == "/" {
		return ""
	}
	sanitized = strings.Trim(sanitized, " .")
	sanitized = strings.ReplaceAll(sanitized, "..", "")
	sanitized = unsafeChars.ReplaceAllString(sanitized, "")
	if len(sanitized) > 255 {
		sanitized = sanitized[:255]
	}
	return sanitized
}

// ValidateUpload checks an uploaded dataset's name and size and returns the
// sanitized filename. maxBytes <= 0 disables the size check.
func ValidateUpload(filename string, size, maxBytes int64) (string, error) {
	name := SanitizeFilename(filename)
	if name == "" {
		return "", errors.WrapError(errors.ErrInvalidInput, "invalid or unsafe filename")
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".xlsx":
	default:
		return "", errors.WrapError(errors.ErrUnsupportedFile, "please upload a CSV or Excel (.xlsx) file")
	}
	if size == 0 {
		return "", errors.WrapError(errors.ErrInvalidInput, "file is empty")
	}
	if maxBytes > 0 && size > maxBytes {
		return "", errors.WrapErrorf(errors.ErrInvalidInput, "file too large, maximum size is %d MB", maxBytes>>20)
	}
	return name, nil
}

// VerifyFileExists checks if file exists at the given path and is not a directory.
func VerifyFileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// GenerateRequestID creates a unique request identifier using UUID v4.
func GenerateRequestID() string {
	return uuid.New().String()
}
