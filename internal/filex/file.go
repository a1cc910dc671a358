// Package filex resolves and creates the client's local data directory.
package filex

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnsureDataDir makes sure dir exists with owner-only permissions and returns
// its absolute path. Relative paths are resolved against the working directory.
func EnsureDataDir(dir string) (string, error) {
	if !filepath.IsAbs(dir) {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getwd: %w", err)
		}
		dir = filepath.Join(cwd, dir)
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}

	return dir, nil
}

// DataFile returns the path of name inside the data directory, creating the
// directory when needed.
func DataFile(dir, name string) (string, error) {
	abs, err := EnsureDataDir(dir)
	if err != nil {
		return "", err
	}
	return filepath.Join(abs, name), nil
}
