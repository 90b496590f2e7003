// Package content holds the portfolio data shown on every front-end: profile,
// about text, skills, projects and certifications.
package content

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed content.yaml
var defaultYAML []byte

type Link struct {
	Label string `yaml:"label"`
	URL   string `yaml:"url"`
}

type Profile struct {
	Name     string   `yaml:"name"`
	Handle   string   `yaml:"handle"`
	Tagline  string   `yaml:"tagline"`
	Roles    []string `yaml:"roles"`
	Resume   string   `yaml:"resume"`
	GitHub   string   `yaml:"github"`
	LinkedIn string   `yaml:"linkedin"`
	Email    string   `yaml:"email"`
}

type Skill struct {
	Name       string `yaml:"name"`
	Percentage int    `yaml:"percentage"`
}

type SkillGroup struct {
	Name   string  `yaml:"name"`
	Skills []Skill `yaml:"skills"`
}

type Project struct {
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	Filename    string   `yaml:"filename"`
	Tags        []string `yaml:"tags"`
	Details     []string `yaml:"details"`
	Code        string   `yaml:"code"`
	GitHub      string   `yaml:"github"`
}

type Certification struct {
	Title       string `yaml:"title"`
	Issuer      string `yaml:"issuer"`
	Description string `yaml:"description"`
	Year        string `yaml:"year"`
	Link        string `yaml:"link"`
}

// Portfolio is everything the site renders.
type Portfolio struct {
	Profile        Profile         `yaml:"profile"`
	About          string          `yaml:"about"`
	AboutCode      string          `yaml:"about_code"`
	SkillGroups    []SkillGroup    `yaml:"skills"`
	Tags           []string        `yaml:"tags"`
	Projects       []Project       `yaml:"projects"`
	Certifications []Certification `yaml:"certifications"`
}

// Default returns the embedded portfolio.
func Default() (*Portfolio, error) {
	return Parse(defaultYAML)
}

// Load reads a portfolio from path, or the embedded default when path is
// empty.
func Load(path string) (*Portfolio, error) {
	if path == "" {
		return Default()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read content %s: %w", path, err)
	}
	return Parse(raw)
}

// Parse decodes and validates YAML content.
func Parse(raw []byte) (*Portfolio, error) {
	var p Portfolio
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("parse content: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Validate rejects content the renderers cannot show.
func (p *Portfolio) Validate() error {
	var errs []error
	if p.Profile.Name == "" {
		errs = append(errs, errors.New("profile.name is required"))
	}
	if len(p.Profile.Roles) == 0 {
		errs = append(errs, errors.New("profile.roles needs at least one role"))
	}
	for _, g := range p.SkillGroups {
		for _, s := range g.Skills {
			if s.Percentage < 0 || s.Percentage > 100 {
				errs = append(errs, fmt.Errorf("skill %q: percentage %d out of range", s.Name, s.Percentage))
			}
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid content: %w", errors.Join(errs...))
	}
	return nil
}
