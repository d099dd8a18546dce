package util

import (
	"fmt"
	"path/filepath"
	"strings"
)

// RelKey converts an absolute file path into a slash-separated key
// relative to root. Manifests index by these keys, so they must come
// out identical on every operating system.
func RelKey(root, path string) (string, error) {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return "", err
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %s is outside root %s", path, root)
	}
	return filepath.ToSlash(rel), nil
}

// Within reports whether child resolves to a location inside parent.
// A path is inside itself.
func Within(parent, child string) (bool, error) {
	absParent, err := filepath.Abs(parent)
	if err != nil {
		return false, err
	}
	absChild, err := filepath.Abs(child)
	if err != nil {
		return false, err
	}
	rel, err := filepath.Rel(absParent, absChild)
	if err != nil {
		return false, nil
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return false, nil
	}
	return true, nil
}
