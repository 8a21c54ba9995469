// Package catalog imports project definitions from a YAML file.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/elonfeng/playsignal/internal/store"
)

// Catalog is the root of a catalog file.
type Catalog struct {
	Projects []Project `yaml:"projects"`
}

// Project describes a project with its stats and forms.
type Project struct {
	Slug        string `yaml:"slug"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	FeedURL     string `yaml:"feed_url"`
	Public      *bool  `yaml:"public"`
	Stats       []Stat `yaml:"stats"`
	Forms       []Form `yaml:"forms"`
}

// Stat describes a bounded stat. Key is how forms refer to it.
type Stat struct {
	Key      string   `yaml:"key"`
	Name     string   `yaml:"name"`
	Category string   `yaml:"category"`
	Min      float64  `yaml:"min"`
	Max      float64  `yaml:"max"`
	Weight   *float64 `yaml:"weight"`
}

// Form lists the stat keys it asks about, in order.
type Form struct {
	Name      string   `yaml:"name"`
	Active    *bool    `yaml:"active"`
	Questions []string `yaml:"questions"`
}

// Writer is the persistence Apply writes to.
type Writer interface {
	CreateProject(ctx context.Context, p *store.Project) error
	CreateStat(ctx context.Context, s *store.Stat) error
	CreateForm(ctx context.Context, f *store.Form) error
	AddQuestion(ctx context.Context, q *store.Question) error
}

// Load reads and validates a catalog file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and validates catalog YAML.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}
	return &c, nil
}

// Validate reports every problem in the catalog.
func (c *Catalog) Validate() error {
	var errs []error
	slugs := make(map[string]bool)
	for i, p := range c.Projects {
		if p.Slug == "" {
			errs = append(errs, fmt.Errorf("projects[%d]: slug is required", i))
			continue
		}
		if slugs[p.Slug] {
			errs = append(errs, fmt.Errorf("project %s: duplicate slug", p.Slug))
		}
		slugs[p.Slug] = true
		if p.Name == "" {
			errs = append(errs, fmt.Errorf("project %s: name is required", p.Slug))
		}

		keys := make(map[string]bool)
		for j, s := range p.Stats {
			if s.Key == "" {
				errs = append(errs, fmt.Errorf("project %s: stats[%d]: key is required", p.Slug, j))
				continue
			}
			if keys[s.Key] {
				errs = append(errs, fmt.Errorf("project %s: stat %s: duplicate key", p.Slug, s.Key))
			}
			keys[s.Key] = true
			if s.Min >= s.Max {
				errs = append(errs, fmt.Errorf("project %s: stat %s: min %g must be below max %g", p.Slug, s.Key, s.Min, s.Max))
			}
			if s.Weight != nil && *s.Weight < 0 {
				errs = append(errs, fmt.Errorf("project %s: stat %s: weight must not be negative", p.Slug, s.Key))
			}
		}

		for _, f := range p.Forms {
			if f.Name == "" {
				errs = append(errs, fmt.Errorf("project %s: form name is required", p.Slug))
			}
			asked := make(map[string]bool)
			for _, q := range f.Questions {
				if !keys[q] {
					errs = append(errs, fmt.Errorf("project %s: form %s: unknown stat %q", p.Slug, f.Name, q))
				}
				if asked[q] {
					errs = append(errs, fmt.Errorf("project %s: form %s: stat %q asked twice", p.Slug, f.Name, q))
				}
				asked[q] = true
			}
		}
	}
	return errors.Join(errs...)
}

// Apply writes the catalog. Record ids derive from slugs and keys, so
// applying the same catalog again updates rows in place. A question is keyed
// by its stat, so reordering a form only moves questions.
func (c *Catalog) Apply(ctx context.Context, w Writer) ([]store.Project, error) {
	applied := make([]store.Project, 0, len(c.Projects))
	for _, p := range c.Projects {
		proj := &store.Project{
			ID:          recordID("project", p.Slug),
			Slug:        p.Slug,
			Name:        p.Name,
			Description: p.Description,
			FeedURL:     p.FeedURL,
			Public:      boolOr(p.Public, true),
		}
		if err := w.CreateProject(ctx, proj); err != nil {
			return applied, err
		}

		statIDs := make(map[string]string, len(p.Stats))
		for i, s := range p.Stats {
			name := s.Name
			if name == "" {
				name = s.Key
			}
			weight := 1.0
			if s.Weight != nil {
				weight = *s.Weight
			}
			st := &store.Stat{
				ID:        recordID("stat", p.Slug, s.Key),
				ProjectID: proj.ID,
				Name:      name,
				Category:  s.Category,
				MinValue:  s.Min,
				MaxValue:  s.Max,
				Weight:    weight,
				Position:  i,
			}
			if err := w.CreateStat(ctx, st); err != nil {
				return applied, err
			}
			statIDs[s.Key] = st.ID
		}

		for _, f := range p.Forms {
			form := &store.Form{
				ID:        recordID("form", p.Slug, f.Name),
				ProjectID: proj.ID,
				Name:      f.Name,
				Active:    boolOr(f.Active, true),
			}
			if err := w.CreateForm(ctx, form); err != nil {
				return applied, err
			}
			for i, key := range f.Questions {
				q := &store.Question{
					ID:       recordID("question", p.Slug, f.Name, key),
					FormID:   form.ID,
					StatID:   statIDs[key],
					Position: i,
				}
				if err := w.AddQuestion(ctx, q); err != nil {
					return applied, err
				}
			}
		}
		applied = append(applied, *proj)
	}
	return applied, nil
}

var namespace = uuid.MustParse("7b3f6a52-0f5e-4d1c-9b62-5d0c9e6f8a11")

func recordID(kind string, parts ...string) string {
	name := kind
	for _, p := range parts {
		name += "\x00" + p
	}
	return uuid.NewSHA1(namespace, []byte(name)).String()
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
