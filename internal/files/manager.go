package files

import (
	"fmt"
	"os"
	"path/filepath"
)

// Manager writes files below a root directory.
type Manager struct {
	root string
}

// NewManager creates a manager rooted at root. An empty root leaves
// relative paths relative to the working directory.
func NewManager(root string) *Manager {
	return &Manager{root: root}
}

// Path resolves rel against the root. Absolute paths are returned as is.
func (m *Manager) Path(rel string) string {
	if filepath.IsAbs(rel) || m.root == "" {
		return rel
	}
	return filepath.Join(m.root, rel)
}

// WriteFile replaces rel through a temporary sibling and a rename, so a
// reader never sees a partial file. It returns the resolved path.
func (m *Manager) WriteFile(rel string, data []byte) (string, error) {
	full := m.Path(rel)
	dir := filepath.Dir(full)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(full)+".*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file for %s: %w", full, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write %s: %w", full, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close %s: %w", full, err)
	}
	if err := os.Rename(tmp.Name(), full); err != nil {
		return "", fmt.Errorf("failed to move %s into place: %w", full, err)
	}
	return full, nil
}
