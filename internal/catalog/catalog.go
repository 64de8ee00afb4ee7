// Package catalog holds the read-only lists the journal offers to users:
// entry tags, conversation prompts and questions, and special date types.
package catalog

import (
	_ "embed"
	"fmt"
	"math/rand/v2"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultCatalog []byte

// Kind selects a conversation starter list
type Kind string

const (
	KindPrompt   Kind = "prompt"
	KindQuestion Kind = "question"
)

// Catalog is loaded once at startup and never mutated afterwards
type Catalog struct {
	Tags             []string          `yaml:"tags"`
	Prompts          []string          `yaml:"prompts"`
	Questions        []string          `yaml:"questions"`
	SpecialDateTypes map[string]string `yaml:"special_date_types"`
}

// Default returns the embedded catalog
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// Load reads a catalog from path, or the embedded default when path is empty
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML catalog and normalizes its tags
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	c.Tags = NormalizeTags(c.Tags)
	return &c, nil
}

// NormalizeTags trims, lowercases and deduplicates tags, keeping first-seen order
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || slices.Contains(out, t) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// FilterTags normalizes tags and, when the catalog defines any, keeps only known ones
func (c *Catalog) FilterTags(tags []string) []string {
	tags = NormalizeTags(tags)
	if len(c.Tags) == 0 {
		return tags
	}
	return slices.DeleteFunc(tags, func(t string) bool {
		return !slices.Contains(c.Tags, t)
	})
}

// SpecialDateLabel returns the display label of a special date type
func (c *Catalog) SpecialDateLabel(kind string) (string, bool) {
	label, ok := c.SpecialDateTypes[kind]
	return label, ok
}

// Random picks a conversation starter of the given kind
func (c *Catalog) Random(kind Kind) (string, error) {
	var list []string
	switch kind {
	case KindPrompt, "":
		list = c.Prompts
	case KindQuestion:
		list = c.Questions
	default:
		return "", fmt.Errorf("unknown prompt kind %q", kind)
	}
	if len(list) == 0 {
		return "", fmt.Errorf("no %s configured", kind)
	}
	return list[rand.IntN(len(list))], nil
}
