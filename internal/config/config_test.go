package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != ":8080" || cfg.Reveal.Threshold != 0.2 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "termfolio.yml")
	yml := `
addr: ":9000"
gin_mode: debug
smtp:
  host: mail.example.com
  user: me@example.com
reveal:
  threshold: 0.5
  once: true
`
	if err := os.WriteFile(path, []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("TERMFOLIO_SMTP__USER", "env@example.com")
	t.Setenv("TERMFOLIO_RATE__BURST", "7")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != ":9000" || cfg.GinMode != "debug" {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.SMTP.Host != "mail.example.com" || cfg.SMTP.Port != "587" {
		t.Fatalf("smtp = %+v", cfg.SMTP)
	}
	if cfg.SMTP.User != "env@example.com" {
		t.Fatalf("env override missing: %q", cfg.SMTP.User)
	}
	if cfg.Rate.Burst != 7 {
		t.Fatalf("burst = %d; want 7", cfg.Rate.Burst)
	}
	if !cfg.Reveal.Once || cfg.Reveal.Threshold != 0.5 {
		t.Fatalf("reveal = %+v", cfg.Reveal)
	}
}

func TestLoadLegacyEnv(t *testing.T) {
	t.Setenv("SMTP_USER", "legacy@example.com")
	t.Setenv("SMTP_HOST", "smtp.legacy.example")
	t.Setenv("ADMIN_PASSWORD", "hunter2")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.SMTP.User != "legacy@example.com" || cfg.SMTP.Host != "smtp.legacy.example" {
		t.Fatalf("smtp = %+v", cfg.SMTP)
	}
	if cfg.Admin.Password != "hunter2" {
		t.Fatalf("admin password not applied")
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Reveal.Threshold = 1.5
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "reveal.threshold") {
		t.Fatalf("Validate error = %v", err)
	}

	cfg = Default()
	cfg.GinMode = "loud"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected gin_mode error")
	}

	cfg = Default()
	cfg.Tracking.Skip = append(cfg.Tracking.Skip, "/static/[")
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "tracking.skip") {
		t.Fatalf("Validate error = %v", err)
	}
}
