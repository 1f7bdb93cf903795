package api

import (
	"path/filepath"
	"slices"
	"strings"
)

// AcceptedExtensions lists the upload extensions the engine is fed.
var AcceptedExtensions = []string{".mp3", ".wav", ".m4a", ".flac"}

// Extension returns the lower-cased extension of filename including the dot.
// Leading dots of the base name do not start an extension, so ".wav" has none.
func Extension(filename string) string {
	base := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	trimmed := strings.TrimLeft(base, ".")
	if trimmed == "" {
		return ""
	}
	return strings.ToLower(filepath.Ext(trimmed))
}

// Supported reports whether ext is in AcceptedExtensions.
func Supported(ext string) bool {
	return slices.Contains(AcceptedExtensions, ext)
}
