// Package security confines file operations to the configured drawing
// directory.
package security

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// PathValidator checks that requested paths stay inside the drawing
// directory the server was started with.
type PathValidator struct {
	drawingDirectory string
}

// NewPathValidator creates a validator rooted at dir. The directory is
// not required to exist yet; validation is skipped until it does, so a
// server can be pointed at a directory created later.
func NewPathValidator(dir string) (*PathValidator, error) {
	if dir == "" {
		return nil, fmt.Errorf("drawing directory cannot be empty")
	}
	return &PathValidator{drawingDirectory: dir}, nil
}

// DrawingDirectory returns the configured root.
func (v *PathValidator) DrawingDirectory() string {
	return v.drawingDirectory
}

// ValidatePath rejects paths outside the drawing directory. Symlinked
// paths are resolved before the containment check so a link cannot step
// out of the root.
func (v *PathValidator) ValidatePath(path string) error {
	if path == "" {
		return fmt.Errorf("path cannot be empty")
	}
	if _, err := os.Stat(v.drawingDirectory); os.IsNotExist(err) {
		return nil
	}

	within, err := v.contains(path)
	if err != nil {
		return fmt.Errorf("path validation failed: %w", err)
	}
	if !within {
		return fmt.Errorf("path is outside drawing directory: %s", path)
	}
	return nil
}

// ValidateDirectory is ValidatePath plus a check that an existing target
// is actually a directory.
func (v *PathValidator) ValidateDirectory(dir string) error {
	if err := v.ValidatePath(dir); err != nil {
		return err
	}
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("cannot access directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", dir)
	}
	return nil
}

// NormalizePath resolves path to an absolute path, joining relative paths
// onto the drawing directory, and validates the result.
func (v *PathValidator) NormalizePath(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("path cannot be empty")
	}
	path = strings.ReplaceAll(path, "\x00", "")
	if !filepath.IsAbs(path) {
		path = filepath.Join(v.drawingDirectory, path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}
	if err := v.ValidatePath(abs); err != nil {
		return "", err
	}
	return abs, nil
}

func (v *PathValidator) contains(path string) (bool, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false, fmt.Errorf("failed to resolve path: %w", err)
	}
	absDir, err := filepath.Abs(v.drawingDirectory)
	if err != nil {
		return false, fmt.Errorf("failed to resolve drawing directory: %w", err)
	}

	cleanPath := filepath.Clean(abs)
	cleanDir := filepath.Clean(absDir)

	realPath := cleanPath
	if info, err := os.Lstat(cleanPath); err == nil && info.Mode()&os.ModeSymlink != 0 {
		if resolved, err := filepath.EvalSymlinks(cleanPath); err == nil {
			realPath = resolved
		}
	}
	realDir := cleanDir
	if resolved, err := filepath.EvalSymlinks(cleanDir); err == nil {
		realDir = resolved
	}

	return within(cleanPath, cleanDir, realDir) && within(realPath, cleanDir, realDir), nil
}

func within(path string, dirs ...string) bool {
	for _, dir := range dirs {
		if path == dir || strings.HasPrefix(path, dir+string(filepath.Separator)) {
			return true
		}
	}
	return false
}
