// Package security validates untrusted gadget names before they reach the filesystem.
package security

import (
	"errors"
	"path/filepath"
	"strings"
)

var (
	// ErrPathTraversal is returned when a path escapes its base directory.
	ErrPathTraversal = errors.New("path traversal detected")
	// ErrInvalidName is returned for empty names and names with separators or control characters.
	ErrInvalidName = errors.New("invalid gadget name")
)

// ValidateName checks that a gadget name is a single path segment.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" || name == "." || name == ".." {
		return ErrInvalidName
	}
	if strings.ContainsAny(name, `/\`) {
		return ErrInvalidName
	}
	for _, r := range name {
		if r < 0x20 || r == 0x7f {
			return ErrInvalidName
		}
	}
	return nil
}

// JoinUnder joins elems onto baseDir and verifies the result stays inside it.
func JoinUnder(baseDir string, elems ...string) (string, error) {
	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return "", err
	}
	joined := filepath.Join(append([]string{absBase}, elems...)...)
	rel, err := filepath.Rel(absBase, joined)
	if err != nil {
		return "", err
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", ErrPathTraversal
	}
	return joined, nil
}
