// Package classify assigns structural roles to raw report rows using a
// keyword vocabulary and bounded lookahead over the row stream.
package classify

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed keywords.yaml
var embeddedKeywords []byte

// CalculatedPhrase matches a named subtotal row ("Gross Profit",
// "Net cash provided by ...") and carries its semantic tag.
type CalculatedPhrase struct {
	Pattern string `yaml:"pattern"`
	Tag     string `yaml:"tag"`
}

// Vocabulary is the keyword table driving classification. Matching is
// case-insensitive on trimmed text throughout.
type Vocabulary struct {
	Calculated []CalculatedPhrase `yaml:"calculated"`
	GrandTotal []string           `yaml:"grand_total"`
	Noise      []string           `yaml:"noise"`
	GroupTags  map[string]string  `yaml:"group_tags"`
}

// NewVocabulary parses and validates a YAML vocabulary.
func NewVocabulary(data []byte) (*Vocabulary, error) {
	var v Vocabulary
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("failed to parse keyword vocabulary (check YAML syntax and field names): %w", err)
	}

	for i, phrase := range v.Calculated {
		if strings.TrimSpace(phrase.Pattern) == "" {
			return nil, fmt.Errorf("calculated phrase %d: pattern cannot be empty", i)
		}
		if strings.TrimSpace(phrase.Tag) == "" {
			return nil, fmt.Errorf("calculated phrase %d (%s): tag cannot be empty", i, phrase.Pattern)
		}
	}
	for i, kw := range v.GrandTotal {
		if strings.TrimSpace(kw) == "" {
			return nil, fmt.Errorf("grand_total entry %d cannot be empty", i)
		}
	}
	for name, tag := range v.GroupTags {
		if strings.TrimSpace(tag) == "" {
			return nil, fmt.Errorf("group_tags entry %q: tag cannot be empty", name)
		}
	}

	return &v, nil
}

// LoadEmbedded loads the built-in vocabulary.
func LoadEmbedded() (*Vocabulary, error) {
	v, err := NewVocabulary(embeddedKeywords)
	if err != nil {
		return nil, fmt.Errorf("failed to load embedded vocabulary: %w", err)
	}
	return v, nil
}

// LoadFromFile loads a vocabulary from a filesystem path.
func LoadFromFile(path string) (*Vocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read vocabulary file: %w", err)
	}
	v, err := NewVocabulary(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load vocabulary from %q: %w", path, err)
	}
	return v, nil
}

// calculatedMatch returns the tag for the first calculated phrase
// contained in the name, or "" when none matches.
func (v *Vocabulary) calculatedMatch(name string) string {
	lower := strings.ToLower(name)
	for _, phrase := range v.Calculated {
		if strings.Contains(lower, strings.ToLower(phrase.Pattern)) {
			return phrase.Tag
		}
	}
	return ""
}

// isGrandTotal reports whether the name is a bare grand-total keyword.
func (v *Vocabulary) isGrandTotal(name string) bool {
	trimmed := strings.ToLower(strings.TrimSpace(name))
	for _, kw := range v.GrandTotal {
		if trimmed == strings.ToLower(kw) {
			return true
		}
	}
	return false
}

// isNoise reports whether the name matches a known metadata pattern
// (accounting-basis stamps, page footers).
func (v *Vocabulary) isNoise(name string) bool {
	lower := strings.ToLower(name)
	for _, pattern := range v.Noise {
		if strings.Contains(lower, strings.ToLower(pattern)) {
			return true
		}
	}
	return false
}

// GroupTag returns the semantic category for a section or group name,
// or "" when the name has no known tag.
func (v *Vocabulary) GroupTag(name string) string {
	return v.GroupTags[strings.ToLower(strings.TrimSpace(name))]
}
