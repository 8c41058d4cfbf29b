package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gardar/plainmerge/internal/testpdf"
	"github.com/gardar/plainmerge/pkg/job"
	"github.com/gardar/plainmerge/pkg/render"
)

// fixture writes a template, a CSV file, a job file and a config into a
// temporary directory.
type fixture struct {
	dir, config, job string
}

func newFixture(t *testing.T, combine bool) fixture {
	t.Helper()
	dir := t.TempDir()
	write := func(name string, data []byte) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, data, 0644); err != nil {
			t.Fatal(err)
		}
		return path
	}

	pdf := write("invoice.pdf", testpdf.Build(
		[]testpdf.Page{testpdf.Letter("Invoice")},
		testpdf.Field{Name: "customer", Type: testpdf.TextField, Page: 1, Rect: [4]float64{72, 600, 300, 620}},
		testpdf.Field{Name: "plan", Type: testpdf.Combo, Page: 1, Rect: [4]float64{72, 560, 200, 576}, Options: []string{"basic", "pro"}},
	))
	csv := write("customers.csv", []byte("Name,Plan,Email\nAnna,pro,anna@example.com\nBjorn,gold,bjorn@example.com\n"))

	j := job.Job{
		PDFFile:    pdf,
		ExcelFile:  csv,
		CombinePDF: combine,
		OutputPDF:  filepath.Join(dir, "out", "invoice.pdf"),
		FormData:   map[string]int{"customer": 0, "plan": 1},
		Filename:   `[[{"id":0}]]`,
		CanvasData: map[int]render.PageLayout{1: {
			ReferenceWidth: 612,
			Placements:     []render.Placement{{Kind: render.KindText, Index: 2, Left: 72, Top: 300, Width: 300, Height: 20}},
		}},
	}
	data, err := json.Marshal(j)
	if err != nil {
		t.Fatal(err)
	}
	jobPath := write("job.json", data)
	config := write("config.yaml", []byte(fmt.Sprintf("row_limit: 10\nfont_dir: %q\njob_dir: %q\n",
		filepath.Join(dir, "fonts"), filepath.Join(dir, "jobs"))))
	return fixture{dir: dir, config: config, job: jobPath}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestRenderSeparate(t *testing.T) {
	fx := newFixture(t, false)
	out, err := execute(t, "--config", fx.config, "render", fx.job)
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	for _, name := range []string{"Anna.pdf", "Bjorn.pdf"} {
		if _, err := os.Stat(filepath.Join(fx.dir, "out", name)); err != nil {
			t.Errorf("missing output %s: %v", name, err)
		}
	}
	if !strings.Contains(out, "Wrote 2 file(s)") {
		t.Errorf("output = %q", out)
	}
	if !strings.Contains(out, "choice-mismatch plan") {
		t.Errorf("diagnostic not reported: %q", out)
	}
}

func TestRenderCombinedOverride(t *testing.T) {
	fx := newFixture(t, false)
	target := filepath.Join(fx.dir, "all.pdf")
	if _, err := execute(t, "--config", fx.config, "render", fx.job, "--combined", "--out", target); err != nil {
		t.Fatalf("render failed: %v", err)
	}
	data, err := os.ReadFile(target)
	if err != nil || !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Fatalf("combined output missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(fx.dir, "out")); !os.IsNotExist(err) {
		t.Error("separate files written in combined mode")
	}
}

func TestRenderFlagsExclusive(t *testing.T) {
	fx := newFixture(t, false)
	if _, err := execute(t, "--config", fx.config, "render", fx.job, "--combined", "--separate"); err == nil {
		t.Error("--combined with --separate accepted")
	}
}

func TestJobsCommands(t *testing.T) {
	fx := newFixture(t, true)
	out, err := execute(t, "--config", fx.config, "jobs", "save", fx.job)
	if err != nil {
		t.Fatalf("jobs save: %v", err)
	}
	id := job.ID(filepath.Join(fx.dir, "invoice.pdf"))
	if !strings.Contains(out, id) {
		t.Errorf("save output = %q", out)
	}

	out, err = execute(t, "--config", fx.config, "jobs", "list")
	if err != nil || !strings.Contains(out, id[:12]) {
		t.Errorf("jobs list = %q, %v", out, err)
	}

	// A stored job renders by id.
	if _, err := execute(t, "--config", fx.config, "render", id); err != nil {
		t.Fatalf("render by id: %v", err)
	}
	if _, err := os.Stat(filepath.Join(fx.dir, "out", "invoice.pdf")); err != nil {
		t.Errorf("combined output missing: %v", err)
	}

	if _, err := execute(t, "--config", fx.config, "jobs", "rm", id); err != nil {
		t.Fatalf("jobs rm: %v", err)
	}
	if _, err := execute(t, "--config", fx.config, "jobs", "show", id); err == nil {
		t.Error("removed job still shown")
	}
}

func TestInspectCommands(t *testing.T) {
	fx := newFixture(t, false)
	out, err := execute(t, "--config", fx.config, "fields", filepath.Join(fx.dir, "invoice.pdf"), "--json")
	if err != nil {
		t.Fatalf("fields: %v", err)
	}
	var fields []struct {
		Name    string   `json:"name"`
		Type    string   `json:"type"`
		Options []string `json:"options"`
	}
	if err := json.Unmarshal([]byte(out), &fields); err != nil {
		t.Fatalf("fields output is not JSON: %v\n%s", err, out)
	}
	if len(fields) != 2 || fields[0].Name != "customer" || fields[1].Type != "Dropdown" {
		t.Errorf("fields = %+v", fields)
	}

	out, err = execute(t, "--config", fx.config, "headers", filepath.Join(fx.dir, "customers.csv"))
	if err != nil {
		t.Fatalf("headers: %v", err)
	}
	if !strings.Contains(out, "0  Name") || !strings.Contains(out, "2  Email") {
		t.Errorf("headers = %q", out)
	}
}

func TestLoadConfig(t *testing.T) {
	cfg, err := loadConfig("")
	if err != nil || cfg.RowLimit == 0 || cfg.SMTP.Port != 587 {
		t.Errorf("defaults = %+v, %v", cfg, err)
	}

	path := filepath.Join(t.TempDir(), "c.yaml")
	os.WriteFile(path, []byte("row_limit: 10\nredis:\n  addr: localhost:6379\nsmtp:\n  host: mail.example.com\n  ssl: true\n"), 0644)
	cfg, err = loadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.RowLimit != 10 || cfg.Redis.Addr != "localhost:6379" || cfg.SMTP.Host != "mail.example.com" || !cfg.SMTP.SSL || cfg.SMTP.Port != 587 {
		t.Errorf("config = %+v", cfg)
	}

	os.WriteFile(path, []byte("row_limit: -1\n"), 0644)
	if _, err := loadConfig(path); err == nil {
		t.Error("negative row limit accepted")
	}
	if _, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("missing config accepted")
	}
}
