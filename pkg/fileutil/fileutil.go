// Package fileutil provides asset path resolution helpers.
package fileutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FindFileCaseInsensitive searches dir for a regular file whose name matches
// filename ignoring case, and returns its actual path.
//
// Example:
//
//	path, err := FindFileCaseInsensitive("../res/Lesson2", "Background.BMP")
//	// finds "background.bmp", "BACKGROUND.BMP", ...
func FindFileCaseInsensitive(dir, filename string) (string, error) {
	searchName := strings.ToLower(filename)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.ToLower(entry.Name()) == searchName {
			return filepath.Join(dir, entry.Name()), nil
		}
	}

	return "", fmt.Errorf("file not found: %s (searched in %s)", filename, dir)
}

// ResolvePath returns path unchanged when it names an existing file.
// Otherwise it looks for a case-insensitive match of the base name in the
// same directory. When nothing matches, path is returned as is so that the
// caller's open reports the original name.
func ResolvePath(path string) string {
	if _, err := os.Stat(path); err == nil {
		return path
	}

	found, err := FindFileCaseInsensitive(filepath.Dir(path), filepath.Base(path))
	if err != nil {
		return path
	}
	return found
}
