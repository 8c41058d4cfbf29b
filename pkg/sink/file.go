package sink

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/gardar/plainmerge/pkg/rows"
)

// File writes artifacts to the path they are named with.
type File struct {
	Perm    os.FileMode // file mode of new files, 0644 when zero
	written []string
}

// NewFile returns a file sink.
func NewFile() *File {
	return &File{}
}

// Save writes content to name, creating missing directories.
func (s *File) Save(ctx context.Context, name string, content []byte, _ rows.RowData) error {
	if err := ctx.Err(); err != nil {
		return Wrap(name, err)
	}
	if err := os.MkdirAll(filepath.Dir(name), 0755); err != nil {
		return Wrap(name, err)
	}
	perm := s.Perm
	if perm == 0 {
		perm = 0644
	}
	if err := os.WriteFile(name, content, perm); err != nil {
		return Wrap(name, err)
	}
	s.written = append(s.written, name)
	return nil
}

// Written returns the paths written so far, in order.
func (s *File) Written() []string {
	return append([]string(nil), s.written...)
}

// Cleanup removes every file written so far. Callers use it to discard the
// artifacts of a run that failed part way.
func (s *File) Cleanup() error {
	var errs []error
	for _, name := range s.written {
		if err := os.Remove(name); err != nil && !os.IsNotExist(err) {
			errs = append(errs, err)
		}
	}
	s.written = nil
	return errors.Join(errs...)
}
