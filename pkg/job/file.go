package job

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// FileStore keeps one JSON file per job in a directory.
type FileStore struct {
	dir string
}

// NewFileStore creates a store in dir. The directory is created if it does
// not exist.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &FileStore{dir: dir}, nil
}

// Save writes j, replacing the job of the same template.
func (s *FileStore) Save(ctx context.Context, j *Job) error {
	if err := j.prepare(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(j, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path(j.ID), data, 0644)
}

// Load reads the job with the given id.
func (s *FileStore) Load(ctx context.Context, id string) (*Job, error) {
	data, err := os.ReadFile(s.path(id))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return decode(data)
}

// List returns every job, newest first. Files that do not hold a job are
// skipped.
func (s *FileStore) List(ctx context.Context) ([]*Job, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	var jobs []*Job
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.dir, e.Name()))
		if err != nil {
			return nil, err
		}
		j, err := decode(data)
		if err != nil {
			continue
		}
		jobs = append(jobs, j)
	}
	slices.SortFunc(jobs, newestFirst)
	return jobs, nil
}

// Remove deletes the job with the given id.
func (s *FileStore) Remove(ctx context.Context, id string) error {
	err := os.Remove(s.path(id))
	if os.IsNotExist(err) {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return err
}

// path returns the file of a job. Ids are hex hashes, anything else is
// reduced to its base name.
func (s *FileStore) path(id string) string {
	return filepath.Join(s.dir, filepath.Base(id)+".json")
}

var _ Store = (*FileStore)(nil)
