// Package ioutils provides file system utilities for modpkg.
//
// This package contains:
//   - A bounded pool of goroutines that performs all artifact writes
//   - Safe creation of files below a target directory
//   - Directory creation and locking
package ioutils

import (
	"fmt"
	"os"

	securejoin "github.com/cyphar/filepath-securejoin"
)

// CreateFile creates (or truncates) the file name below dir.
//
// The name is joined with SecureJoin, so names containing ".." or
// absolute paths cannot escape dir. The directory must exist.
//
// Returns the opened file and its full path.
//
// Example:
//
//	f, path, err := CreateFile("/srv/minecraft/mods", "jei-1.12.2.jar")
//	// path = "/srv/minecraft/mods/jei-1.12.2.jar"
func CreateFile(dir, name string) (*os.File, string, error) {
	path, err := securejoin.SecureJoin(dir, name)
	if err != nil {
		return nil, "", fmt.Errorf("resolve %s in %s: %w", name, dir, err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, path, err
	}
	return f, path, nil
}

// EnsureDir creates a directory and all parent directories if they don't exist.
//
// Directories are created with mode 0755 (rwxr-xr-x).
// If the directory already exists, no error is returned.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}

// RemoveIfExists deletes path, ignoring a missing file.
func RemoveIfExists(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
