// Package taxonomy loads the industry taxonomy that drives classification,
// scoring and extraction. A Taxonomy is built once and never mutated.
package taxonomy

import (
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// ErrConfigInvalid is returned when the taxonomy file is missing or malformed.
var ErrConfigInvalid = eris.New("taxonomy: invalid configuration")

// Company is a known company with optional aliases.
type Company struct {
	Name    string   `yaml:"name"`
	Aliases []string `yaml:"aliases"`
}

// UnmarshalYAML accepts either a bare company name or a mapping with
// name and aliases.
func (c *Company) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		c.Name = node.Value
		return nil
	}
	type plain Company
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*c = Company(p)
	return nil
}

// Industry is one taxonomy category.
type Industry struct {
	Name      string
	Priority  bool
	Companies []Company
	Aliases   []string
	Keywords  []string
}

type rawIndustry struct {
	Name      string    `yaml:"name"`
	Priority  *bool     `yaml:"priority"`
	Companies []Company `yaml:"companies"`
	Aliases   []string  `yaml:"aliases"`
	Keywords  []string  `yaml:"keywords"`
}

type document struct {
	Industries []rawIndustry  `yaml:"industries"`
	Extraction *rawExtraction `yaml:"extraction"`
}

// Taxonomy is the immutable industry taxonomy plus extraction settings.
type Taxonomy struct {
	industries []Industry
	index      map[string]int
	extraction Extraction
}

// Load reads and validates a taxonomy file.
func Load(path string) (*Taxonomy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(ErrConfigInvalid, "read %s: %v", path, err)
	}
	t, err := Parse(data)
	if err != nil {
		return nil, eris.Wrapf(err, "taxonomy: load %s", path)
	}
	return t, nil
}

// Parse builds a Taxonomy from YAML bytes.
func Parse(data []byte) (*Taxonomy, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, eris.Wrapf(ErrConfigInvalid, "parse: %v", err)
	}
	return build(doc)
}

func build(doc document) (*Taxonomy, error) {
	var errs []string
	if len(doc.Industries) == 0 {
		errs = append(errs, "at least one industry is required")
	}

	t := &Taxonomy{index: make(map[string]int, len(doc.Industries))}
	for i, raw := range doc.Industries {
		name := strings.TrimSpace(raw.Name)
		if name == "" {
			errs = append(errs, fmt.Sprintf("industries[%d]: name is required", i))
			continue
		}
		key := strings.ToLower(name)
		if _, dup := t.index[key]; dup {
			errs = append(errs, fmt.Sprintf("industries[%d]: duplicate industry %q", i, name))
			continue
		}
		for j, c := range raw.Companies {
			if strings.TrimSpace(c.Name) == "" {
				errs = append(errs, fmt.Sprintf("industries[%d].companies[%d]: name is required", i, j))
			}
		}

		ind := Industry{
			Name:      name,
			Priority:  raw.Priority == nil || *raw.Priority,
			Companies: raw.Companies,
			Aliases:   raw.Aliases,
			Keywords:  raw.Keywords,
		}
		t.index[key] = len(t.industries)
		t.industries = append(t.industries, ind)
	}

	if len(errs) > 0 {
		return nil, eris.Wrap(ErrConfigInvalid, strings.Join(errs, "; "))
	}

	t.extraction = doc.Extraction.resolve()
	return t, nil
}

// Industries returns the industries in declaration order.
func (t *Taxonomy) Industries() []Industry {
	out := make([]Industry, len(t.industries))
	copy(out, t.industries)
	return out
}

// Industry looks up an industry by name, case-insensitively.
func (t *Taxonomy) Industry(name string) (Industry, bool) {
	i, ok := t.index[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Industry{}, false
	}
	return t.industries[i], true
}

// IsPriority reports whether name is a known priority industry.
func (t *Taxonomy) IsPriority(name string) bool {
	ind, ok := t.Industry(name)
	return ok && ind.Priority
}

// Extraction returns the extraction settings with defaults applied.
func (t *Taxonomy) Extraction() Extraction {
	return t.extraction
}
