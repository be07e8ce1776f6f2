// Package fs provides the filesystem adapters behind the CLI: page files
// with front matter and project discovery.
package fs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// MarkerDir marks a project root.
const MarkerDir = ".booktree"

// ErrNoProject is returned when no enclosing directory holds MarkerDir.
var ErrNoProject = errors.New("no .booktree/ directory found")

// FindProjectRoot walks up from start looking for a directory containing
// MarkerDir.
func FindProjectRoot(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", start, err)
	}
	for {
		info, err := os.Stat(filepath.Join(dir, MarkerDir))
		if err == nil && info.IsDir() {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrNoProject
		}
		dir = parent
	}
}

// InitProject creates MarkerDir under root. It reports whether the project
// already existed.
func InitProject(root string) (bool, error) {
	marker := filepath.Join(root, MarkerDir)
	if info, err := os.Stat(marker); err == nil && info.IsDir() {
		return true, nil
	}
	if err := os.MkdirAll(marker, 0o755); err != nil {
		return false, fmt.Errorf("creating %s: %w", marker, err)
	}
	return false, nil
}
