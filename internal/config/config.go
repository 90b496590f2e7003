// Package config loads termfolio settings from defaults, an optional YAML
// file and TERMFOLIO_* environment variables, in that order.
package config

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/Zachkp/termfolio/internal/contact"
)

// EnvPrefix namespaces environment overrides, e.g. TERMFOLIO_SMTP__HOST.
const EnvPrefix = "TERMFOLIO_"

type Config struct {
	Addr         string             `koanf:"addr"`
	GinMode      string             `koanf:"gin_mode"`
	ContentPath  string             `koanf:"content_path"`
	WatchContent bool               `koanf:"watch_content"`
	DBPath       string             `koanf:"db_path"`
	ThemeFile    string             `koanf:"theme_file"`
	Contact      ContactConfig      `koanf:"contact"`
	SMTP         contact.SMTPConfig `koanf:"smtp"`
	Admin        AdminConfig        `koanf:"admin"`
	Rate         RateConfig         `koanf:"rate"`
	Reveal       RevealConfig       `koanf:"reveal"`
	Tracking     TrackingConfig     `koanf:"tracking"`
}

type ContactConfig struct {
	// Endpoint is where the terminal client posts messages.
	Endpoint string `koanf:"endpoint"`
	// Forward, when set, makes the server relay messages to another endpoint
	// instead of emailing them.
	Forward string `koanf:"forward"`
}

type AdminConfig struct {
	Username string `koanf:"username"`
	Password string `koanf:"password"`
}

type RateConfig struct {
	PerMinute float64 `koanf:"per_minute"`
	Burst     int     `koanf:"burst"`
}

type RevealConfig struct {
	Threshold float64 `koanf:"threshold"`
	Once      bool    `koanf:"once"`
}

type TrackingConfig struct {
	// Skip lists glob patterns of request paths that are not counted as
	// page views.
	Skip []string `koanf:"skip"`
}

var defaultTrackingSkip = []string{
	"/static/**", "/admin/**", "/api/**", "/section/*",
	"/favicon*", "/privacy", "/typewriter", "/healthz", "/contact-form",
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Addr:     ":8080",
		GinMode:  "release",
		DBPath:   "data/termfolio.db",
		Contact:  ContactConfig{Endpoint: "http://localhost:8080/api/contact"},
		SMTP:     contact.SMTPConfig{Host: "smtp.gmail.com", Port: "587"},
		Rate:     RateConfig{PerMinute: 5, Burst: 3},
		Reveal:   RevealConfig{Threshold: 0.2},
		Tracking: TrackingConfig{Skip: slices.Clone(defaultTrackingSkip)},
	}
}

// Load reads path when it exists, then overlays environment variables.
// Nested keys use a double underscore: TERMFOLIO_SMTP__HOST -> smtp.host.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := Default()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("reading config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("accessing config %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	// PORT is what most hosting platforms set.
	if port := os.Getenv("PORT"); port != "" && !k.Exists("addr") {
		cfg.Addr = ":" + port
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	applyLegacyEnv(cfg)
	return cfg, cfg.Validate()
}

// applyLegacyEnv fills unset fields from the plain SMTP_* and ADMIN_*
// variables older deployments already export.
func applyLegacyEnv(cfg *Config) {
	legacy := []struct {
		name string
		dst  *string
	}{
		{"SMTP_HOST", &cfg.SMTP.Host},
		{"SMTP_PORT", &cfg.SMTP.Port},
		{"SMTP_USER", &cfg.SMTP.User},
		{"SMTP_PASS", &cfg.SMTP.Pass},
		{"TO_EMAIL", &cfg.SMTP.To},
		{"ADMIN_USERNAME", &cfg.Admin.Username},
		{"ADMIN_PASSWORD", &cfg.Admin.Password},
	}
	defaults := Default()
	for _, l := range legacy {
		v := os.Getenv(l.name)
		if v == "" {
			continue
		}
		if *l.dst == "" || (l.name == "SMTP_HOST" && *l.dst == defaults.SMTP.Host) || (l.name == "SMTP_PORT" && *l.dst == defaults.SMTP.Port) {
			*l.dst = v
		}
	}
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("addr is required")
	}
	switch c.GinMode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("invalid gin_mode %q: must be one of debug, release, test", c.GinMode)
	}
	if c.Reveal.Threshold < 0 || c.Reveal.Threshold > 1 {
		return fmt.Errorf("reveal.threshold must be within [0, 1], got %v", c.Reveal.Threshold)
	}
	if c.Rate.PerMinute < 0 || c.Rate.Burst < 0 {
		return fmt.Errorf("rate limits must be non-negative")
	}
	for _, p := range c.Tracking.Skip {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("invalid tracking.skip pattern %q", p)
		}
	}
	return nil
}
