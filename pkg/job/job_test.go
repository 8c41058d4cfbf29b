package job

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/gardar/plainmerge/pkg/form"
	"github.com/gardar/plainmerge/pkg/render"
)

func stores(t *testing.T) map[string]Store {
	t.Helper()
	fs, err := NewFileStore(filepath.Join(t.TempDir(), "jobs"))
	if err != nil {
		t.Fatal(err)
	}
	mr := miniredis.RunT(t)
	rs := NewRedisStore(RedisConfig{Addr: mr.Addr()})
	t.Cleanup(func() { rs.Close() })
	return map[string]Store{"file": fs, "redis": rs}
}

func sample(pdf string, updated time.Time) *Job {
	return &Job{
		PDFFile:   pdf,
		ExcelFile: "/data/customers.xlsx",
		FormData:  form.Binding{"name": 0, "agree": form.Unbound},
		Filename:  `[[{"id":0}]]`,
		CanvasData: map[int]render.PageLayout{
			1: {ReferenceWidth: 800, Placements: []render.Placement{{Kind: render.KindText, Index: 1, Left: 10, Top: 20}}},
		},
		UpdatedAt: updated,
	}
}

func TestStores(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			older := sample("/tpl/a.pdf", base)
			newer := sample("/tpl/b.pdf", base.Add(time.Hour))
			for _, j := range []*Job{older, newer} {
				if err := s.Save(ctx, j); err != nil {
					t.Fatalf("Save error: %v", err)
				}
			}
			if older.ID != ID("/tpl/a.pdf") {
				t.Errorf("ID = %q", older.ID)
			}

			got, err := s.Load(ctx, older.ID)
			if err != nil {
				t.Fatalf("Load error: %v", err)
			}
			if got.PDFFile != "/tpl/a.pdf" || got.FormData["name"] != 0 || got.FormData["agree"] != form.Unbound {
				t.Errorf("loaded %+v", got)
			}
			if l := got.CanvasData[1]; l.ReferenceWidth != 800 || len(l.Placements) != 1 || l.Placements[0].Top != 20 {
				t.Errorf("canvas data = %+v", got.CanvasData)
			}

			list, err := s.List(ctx)
			if err != nil {
				t.Fatal(err)
			}
			if len(list) != 2 || list[0].PDFFile != "/tpl/b.pdf" {
				t.Errorf("List is not newest first: %v", list)
			}

			// Saving the same template again replaces the job.
			older.UpdatedAt = base.Add(2 * time.Hour)
			older.CombinePDF = true
			if err := s.Save(ctx, older); err != nil {
				t.Fatal(err)
			}
			list, _ = s.List(ctx)
			if len(list) != 2 || list[0].PDFFile != "/tpl/a.pdf" || !list[0].CombinePDF {
				t.Errorf("after update: %v", list)
			}

			if err := s.Remove(ctx, newer.ID); err != nil {
				t.Fatalf("Remove error: %v", err)
			}
			if _, err := s.Load(ctx, newer.ID); !errors.Is(err, ErrNotFound) {
				t.Errorf("Load removed job error = %v", err)
			}
			if err := s.Remove(ctx, newer.ID); !errors.Is(err, ErrNotFound) {
				t.Errorf("Remove twice error = %v", err)
			}
		})
	}
}

func TestSaveValidates(t *testing.T) {
	for name, s := range stores(t) {
		if err := s.Save(context.Background(), &Job{ExcelFile: "x.csv"}); err == nil {
			t.Errorf("%s: job without template saved", name)
		}
	}
	j := sample("/tpl/a.pdf", time.Time{})
	j.CanvasData[0] = render.PageLayout{}
	if err := j.Validate(); err == nil {
		t.Error("page 0 accepted")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "job.json")
	data := `{
		"pdfFile": "/tpl/invoice.pdf",
		"excelFile": "/data/rows.csv",
		"combinePdf": false,
		"formData": {"name": 0, "email": -3},
		"filename": "[[{\"id\":0}]]",
		"canvasData": {"1": {"clientWidth": 600, "objects": [{"type": "textbox", "renderType": "qrcode", "index": 2, "left": 5, "top": 5}, {"type": "rect"}]}}
	}`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	j, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile error: %v", err)
	}
	if j.ID != ID("/tpl/invoice.pdf") {
		t.Errorf("ID = %q", j.ID)
	}
	if j.FormData["email"] != form.Unbound {
		t.Errorf("negative column kept: %v", j.FormData)
	}
	l := j.CanvasData[1]
	if l.ReferenceWidth != 600 || len(l.Placements) != 1 || l.Placements[0].Kind != render.KindQR {
		t.Errorf("canvas data = %+v", j.CanvasData)
	}

	b := j.Binding()
	b["name"] = 5
	if j.FormData["name"] != 0 {
		t.Error("Binding shares the job's map")
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("missing file loaded")
	}
}
