package main

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/gardar/plainmerge/pkg/job"
	"github.com/gardar/plainmerge/pkg/rows"
	"github.com/gardar/plainmerge/pkg/sink"
)

// Config is the YAML configuration file.
type Config struct {
	RowLimit int             `yaml:"row_limit"` // 0 reads every row
	FontDir  string          `yaml:"font_dir"`
	JobDir   string          `yaml:"job_dir"`
	Redis    job.RedisConfig `yaml:"redis"` // used instead of job_dir when addr is set
	SMTP     sink.SMTPConfig `yaml:"smtp"`
}

func defaultConfig() Config {
	base, err := os.UserConfigDir()
	if err != nil {
		base = "."
	}
	dir := filepath.Join(base, "plainmerge")
	return Config{
		RowLimit: rows.LicensedLimit,
		FontDir:  filepath.Join(dir, "fonts"),
		JobDir:   filepath.Join(dir, "jobs"),
		SMTP:     sink.SMTPConfig{Port: 587},
	}
}

// loadConfig reads the file at path over the defaults. An empty path returns
// the defaults.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.RowLimit < 0 {
		return cfg, fmt.Errorf("invalid row_limit %d", cfg.RowLimit)
	}
	return cfg, nil
}
