// Package security guards file names that arrive from flags and HTTP forms.
package security

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ValidatePathWithinDirectory checks that filePath stays inside safeDir
// after cleaning. The check is lexical so it works for any FileSystem
// implementation; symlinks are not resolved.
func ValidatePathWithinDirectory(filePath, safeDir string) error {
	cleanPath := filepath.Clean(filePath)
	cleanDir := filepath.Clean(safeDir)
	if filepath.IsAbs(cleanPath) != filepath.IsAbs(cleanDir) {
		var err error
		if cleanPath, err = filepath.Abs(cleanPath); err != nil {
			return fmt.Errorf("failed to resolve absolute path: %w", err)
		}
		if cleanDir, err = filepath.Abs(cleanDir); err != nil {
			return fmt.Errorf("failed to resolve safe directory path: %w", err)
		}
	}

	relPath, err := filepath.Rel(cleanDir, cleanPath)
	if err != nil {
		return fmt.Errorf("path is outside safe directory: %w", err)
	}
	if relPath == ".." || strings.HasPrefix(relPath, ".."+string(filepath.Separator)) || filepath.IsAbs(relPath) {
		return fmt.Errorf("path traversal detected: %s attempts to escape %s", filePath, safeDir)
	}
	return nil
}

// ValidateSourceName accepts a bare file name: no directory components, no
// parent references and nothing that cleans to a different name.
func ValidateSourceName(name string) error {
	switch {
	case name == "" || name == "." || name == "..":
		return fmt.Errorf("invalid file name %q", name)
	case strings.ContainsAny(name, `/\`) || filepath.Base(name) != name:
		return fmt.Errorf("file name %q must not contain a directory", name)
	case strings.ContainsRune(name, 0):
		return fmt.Errorf("file name %q contains a NUL byte", name)
	}
	return nil
}
