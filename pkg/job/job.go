// Package job persists merge jobs: the files, bindings and placements a user
// set up for a template, so a merge can be repeated or edited later.
//
// A job is keyed by a hash of its template path. Saving a job for a template
// that already has one replaces it. Stores list jobs newest first, which is
// what a history view shows.
package job

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/gardar/plainmerge/pkg/form"
	"github.com/gardar/plainmerge/pkg/render"
)

// ErrNotFound is returned for jobs a store does not hold.
var ErrNotFound = errors.New("job not found")

// Job is the saved configuration of one merge.
type Job struct {
	ID         string                    `json:"id"`
	PDFFile    string                    `json:"pdfFile"`
	ExcelFile  string                    `json:"excelFile"`
	CombinePDF bool                      `json:"combinePdf"`
	OutputPDF  string                    `json:"outputPdf,omitempty"`
	FormData   form.Binding              `json:"formData,omitempty"`
	Filename   string                    `json:"filename,omitempty"`
	CanvasData map[int]render.PageLayout `json:"canvasData,omitempty"`
	UpdatedAt  time.Time                 `json:"updatedAt"`
}

// ID returns the identifier of the job for the template at path.
func ID(path string) string {
	sum := sha256.Sum256([]byte(path))
	return hex.EncodeToString(sum[:])
}

// Validate checks the fields every merge needs.
func (j *Job) Validate() error {
	switch {
	case j.PDFFile == "":
		return errors.New("job has no template file")
	case j.ExcelFile == "":
		return errors.New("job has no data file")
	}
	for page := range j.CanvasData {
		if page < 1 {
			return fmt.Errorf("job has placements for invalid page %d", page)
		}
	}
	return nil
}

// Binding returns a copy of the job's form binding.
func (j *Job) Binding() form.Binding {
	b := make(form.Binding, len(j.FormData))
	for name, idx := range j.FormData {
		b[name] = idx
	}
	return b
}

// prepare fills in the derived fields before a save.
func (j *Job) prepare() error {
	if err := j.Validate(); err != nil {
		return err
	}
	j.ID = ID(j.PDFFile)
	if j.UpdatedAt.IsZero() {
		j.UpdatedAt = time.Now().UTC()
	}
	return nil
}

// LoadFile reads a job from a JSON file. Jobs written by hand may omit the id.
func LoadFile(path string) (*Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	j, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("invalid job file %s: %w", path, err)
	}
	if j.ID == "" && j.PDFFile != "" {
		j.ID = ID(j.PDFFile)
	}
	return j, nil
}

func decode(data []byte) (*Job, error) {
	var j Job
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, err
	}
	// Any negative column means unbound.
	for name, idx := range j.FormData {
		if idx < 0 {
			j.FormData[name] = form.Unbound
		}
	}
	return &j, nil
}

// Store persists jobs.
type Store interface {
	Save(ctx context.Context, j *Job) error
	Load(ctx context.Context, id string) (*Job, error)
	List(ctx context.Context) ([]*Job, error)
	Remove(ctx context.Context, id string) error
}

// newestFirst orders jobs for history views.
func newestFirst(a, b *Job) int {
	if c := b.UpdatedAt.Compare(a.UpdatedAt); c != 0 {
		return c
	}
	switch {
	case a.PDFFile < b.PDFFile:
		return -1
	case a.PDFFile > b.PDFFile:
		return 1
	}
	return 0
}
