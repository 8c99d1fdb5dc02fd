package store

import (
	"fmt"
	"os"
	"path/filepath"

	errpkg "github.com/annaveselova/translation-service/internal/errors"
)

// ResultStore holds large translated text outside the metadata records so
// snapshots stay small. One plain-text file per task id.
type ResultStore struct {
	dir string
}

// NewResultStore creates the store, ensuring the directory exists.
func NewResultStore(dir string) (*ResultStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create results directory: %w", err)
	}
	return &ResultStore{dir: dir}, nil
}

// Path returns the on-disk location of a task's result file. Task records
// carry this as their result reference.
func (s *ResultStore) Path(taskID string) string {
	return filepath.Join(s.dir, taskID+".txt")
}

// Write persists the translated content for a task, replacing any prior content.
func (s *ResultStore) Write(taskID, text string) error {
	if err := os.WriteFile(s.Path(taskID), []byte(text), 0o644); err != nil {
		return fmt.Errorf("write result file: %w", err)
	}
	return nil
}

// Read returns the stored translated content.
func (s *ResultStore) Read(taskID string) (string, error) {
	data, err := os.ReadFile(s.Path(taskID))
	if err != nil {
		if os.IsNotExist(err) {
			return "", errpkg.ErrTaskNotFound
		}
		return "", fmt.Errorf("read result file: %w", err)
	}
	return string(data), nil
}

// Delete removes the stored content. Deleting a nonexistent result is a no-op.
func (s *ResultStore) Delete(taskID string) error {
	if err := os.Remove(s.Path(taskID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete result file: %w", err)
	}
	return nil
}
