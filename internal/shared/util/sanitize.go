package util

import (
	"errors"
	"strings"
)

// ErrBadFileName rejects resume and audio upload names that could escape
// the artifact store's key space.
var ErrBadFileName = errors.New("invalid file name")

// SanitizeFileName strips path separators from an upload name and rejects
// traversal sequences outright.
func SanitizeFileName(name string) (string, error) {
	if strings.Contains(name, "..") {
		return "", ErrBadFileName
	}
	cleaned := strings.TrimSpace(name)
	cleaned = strings.ReplaceAll(cleaned, "/", "_")
	cleaned = strings.ReplaceAll(cleaned, "\\", "_")
	if cleaned == "" {
		return "", ErrBadFileName
	}
	return cleaned, nil
}
