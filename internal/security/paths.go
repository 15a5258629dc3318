// Package security guards the file paths that HTTP clients hand back to
// the server: staged uploads and bundled samples only.
package security

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// GPXExt is the only extension accepted for uploads and track paths.
const GPXExt = ".gpx"

// ErrNotGPX is returned for file names without the .gpx extension.
var ErrNotGPX = errors.New("only .gpx files are allowed")

// ValidatePathWithinDirectory reports an error if filePath resolves to a
// location outside safeDir. Symlinks are resolved on both sides, and for
// paths that do not exist yet the nearest existing parent is resolved.
func ValidatePathWithinDirectory(filePath, safeDir string) error {
	absPath, err := filepath.Abs(filepath.Clean(filePath))
	if err != nil {
		return fmt.Errorf("failed to resolve absolute path: %w", err)
	}
	absSafeDir, err := filepath.Abs(safeDir)
	if err != nil {
		return fmt.Errorf("failed to resolve safe directory path: %w", err)
	}

	canonicalPath := canonical(absPath)
	canonicalSafeDir, err := filepath.EvalSymlinks(absSafeDir)
	if err != nil {
		return fmt.Errorf("failed to resolve safe directory symlinks: %w", err)
	}

	rel, err := filepath.Rel(canonicalSafeDir, canonicalPath)
	if err != nil {
		return fmt.Errorf("path is outside safe directory: %w", err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return fmt.Errorf("path traversal detected: %s escapes %s", filePath, safeDir)
	}
	return nil
}

func canonical(absPath string) string {
	if resolved, err := filepath.EvalSymlinks(absPath); err == nil {
		return resolved
	}
	for check := absPath; ; {
		parent := filepath.Dir(check)
		if parent == check {
			return absPath
		}
		if resolved, err := filepath.EvalSymlinks(parent); err == nil {
			rest, _ := filepath.Rel(parent, absPath)
			return filepath.Join(resolved, rest)
		}
		check = parent
	}
}

// ValidatePathWithinAllowedDirs accepts filePath if it lies within any of
// allowedDirs.
func ValidatePathWithinAllowedDirs(filePath string, allowedDirs []string) error {
	if len(allowedDirs) == 0 {
		return errors.New("no allowed directories specified")
	}
	for _, dir := range allowedDirs {
		if err := ValidatePathWithinDirectory(filePath, dir); err == nil {
			return nil
		}
	}
	return fmt.Errorf("path must be within one of the allowed directories: %v", allowedDirs)
}

// ValidateTrackPath checks that path names a .gpx file inside one of
// allowedDirs.
func ValidateTrackPath(path string, allowedDirs []string) error {
	if err := ValidateGPXName(path); err != nil {
		return err
	}
	return ValidatePathWithinAllowedDirs(path, allowedDirs)
}

// ValidateGPXName checks the extension of an uploaded file name.
func ValidateGPXName(name string) error {
	if !strings.EqualFold(filepath.Ext(name), GPXExt) {
		return fmt.Errorf("%q: %w", name, ErrNotGPX)
	}
	return nil
}

// SanitizeFilename maps s onto ASCII letters, digits, dot, underscore and
// dash, collapsing other runs into a single underscore.
func SanitizeFilename(s string) string {
	const maxLen = 128
	var b strings.Builder
	lastUnderscore := false
	for _, r := range s {
		if b.Len() >= maxLen {
			break
		}
		switch {
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'),
			r == '.', r == '_', r == '-':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteRune('_')
				lastUnderscore = true
			}
		}
	}
	out := strings.Trim(b.String(), "._")
	if out == "" {
		return "unknown"
	}
	return out
}

// StagedName returns the on-disk name for an upload: the id prefix keeps
// two uploads with the same original name apart.
func StagedName(id, original string) string {
	base := strings.TrimSuffix(filepath.Base(original), filepath.Ext(original))
	return id + "_" + SanitizeFilename(base) + GPXExt
}
