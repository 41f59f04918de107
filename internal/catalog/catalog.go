// Package catalog holds the site's static content: profile, skill groups and
// the ordered project catalog. A Catalog is immutable once parsed.
package catalog

import (
	_ "embed"
	"fmt"
	"regexp"
	"slices"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"gopkg.in/yaml.v3"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/checksum"
)

//go:embed portfolio.yaml
var defaultContent []byte

var slugRe = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// Project is one catalog record.
type Project struct {
	ID           int    `yaml:"id" json:"id"`
	Slug         string `yaml:"slug" json:"slug"`
	Title        string `yaml:"title" json:"title"`
	Image        string `yaml:"image" json:"image,omitempty"`
	Tag          string `yaml:"tag" json:"tag"`
	Category     string `yaml:"category" json:"category"`
	Year         int    `yaml:"year" json:"year"`
	Featured     bool   `yaml:"featured" json:"featured"`
	Stack        string `yaml:"stack" json:"stack"`
	Description  string `yaml:"description" json:"description"`
	Problem      string `yaml:"problem" json:"problem"`
	Approach     string `yaml:"approach" json:"approach"`
	Architecture string `yaml:"architecture" json:"architecture"`
	Challenges   string `yaml:"challenges" json:"challenges"`
	Learned      string `yaml:"learned" json:"learned"`
	GitHub       string `yaml:"github" json:"github,omitempty"`
	Demo         string `yaml:"demo" json:"demo,omitempty"`
}

// Validate checks a single record. Uniqueness is checked by Parse.
func (p Project) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.ID, validation.Required, validation.Min(1)),
		validation.Field(&p.Slug, validation.Required, validation.Match(slugRe)),
		validation.Field(&p.Title, validation.Required),
		validation.Field(&p.Year, validation.Min(0)),
		validation.Field(&p.GitHub, is.URL),
		validation.Field(&p.Demo, is.URL),
	)
}

// Link is a labelled external link on the profile.
type Link struct {
	Label string `yaml:"label" json:"label"`
	URL   string `yaml:"url" json:"url"`
}

// Profile is the biography shown on the home page.
type Profile struct {
	Name     string `yaml:"name" json:"name"`
	Headline string `yaml:"headline" json:"headline"`
	Bio      string `yaml:"bio" json:"bio"`
	Image    string `yaml:"image" json:"image,omitempty"`
	Links    []Link `yaml:"links" json:"links"`
}

// SkillGroup is a titled list of skills.
type SkillGroup struct {
	Title  string   `yaml:"title" json:"title"`
	Skills []string `yaml:"skills" json:"skills"`
}

type document struct {
	Profile  Profile      `yaml:"profile"`
	Skills   []SkillGroup `yaml:"skills"`
	Projects []Project    `yaml:"projects"`
}

// Filter narrows List results. Zero values match everything.
type Filter struct {
	Category string
	Featured bool
}

// Catalog is a parsed, validated content snapshot.
type Catalog struct {
	profile  Profile
	skills   []SkillGroup
	projects []Project
	bySlug   map[string]int
	checksum string
}

// Parse decodes and validates a YAML content document.
func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("catalog: decode: %w", err)
	}

	bySlug := make(map[string]int, len(doc.Projects))
	ids := make(map[int]struct{}, len(doc.Projects))
	for i, p := range doc.Projects {
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("catalog: project %d (%s): %w", i, p.Slug, err)
		}
		if _, dup := bySlug[p.Slug]; dup {
			return nil, fmt.Errorf("catalog: duplicate slug %q: %w", p.Slug, apperr.ErrAlreadyExists)
		}
		if _, dup := ids[p.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate id %d: %w", p.ID, apperr.ErrAlreadyExists)
		}
		bySlug[p.Slug] = i
		ids[p.ID] = struct{}{}
	}

	return &Catalog{
		profile:  doc.Profile,
		skills:   doc.Skills,
		projects: doc.Projects,
		bySlug:   bySlug,
		checksum: checksum.Sum(data),
	}, nil
}

// Default returns the catalog compiled into the binary.
func Default() (*Catalog, error) {
	return Parse(defaultContent)
}

// DefaultSource returns the raw embedded document.
func DefaultSource() []byte {
	return slices.Clone(defaultContent)
}

// Lookup returns the project with slug, if any.
func (c *Catalog) Lookup(slug string) (Project, bool) {
	i, ok := c.bySlug[slug]
	if !ok {
		return Project{}, false
	}
	return c.projects[i], true
}

// Get is Lookup with apperr.ErrNotFound for a missing slug.
func (c *Catalog) Get(slug string) (Project, error) {
	p, ok := c.Lookup(slug)
	if !ok {
		return Project{}, fmt.Errorf("catalog: project %q: %w", slug, apperr.ErrNotFound)
	}
	return p, nil
}

// Projects returns every project in catalog order.
func (c *Catalog) Projects() []Project {
	return slices.Clone(c.projects)
}

// List returns the projects matching f, in catalog order.
func (c *Catalog) List(f Filter) []Project {
	out := make([]Project, 0, len(c.projects))
	for _, p := range c.projects {
		if f.Category != "" && p.Category != f.Category {
			continue
		}
		if f.Featured && !p.Featured {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Categories returns the distinct project categories in first-seen order.
func (c *Catalog) Categories() []string {
	var out []string
	for _, p := range c.projects {
		if p.Category != "" && !slices.Contains(out, p.Category) {
			out = append(out, p.Category)
		}
	}
	return out
}

// Profile returns the biography.
func (c *Catalog) Profile() Profile {
	p := c.profile
	p.Links = slices.Clone(p.Links)
	return p
}

// Skills returns the skill groups.
func (c *Catalog) Skills() []SkillGroup {
	return slices.Clone(c.skills)
}

// Checksum is the SHA-256 of the source document.
func (c *Catalog) Checksum() string {
	return c.checksum
}

// Len returns the number of projects.
func (c *Catalog) Len() int {
	return len(c.projects)
}
