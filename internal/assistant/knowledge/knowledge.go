// Package knowledge holds the static description of the hotel website that
// grounds model prompts.
package knowledge

import (
	_ "embed"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed knowledge.yaml
var defaultDocument []byte

type Section struct {
	ID          string `yaml:"id" json:"id"`
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
}

type MenuItem struct {
	Label   string `yaml:"label" json:"label"`
	Section string `yaml:"section" json:"section"`
}

type UIElement struct {
	Name     string `yaml:"name" json:"name"`
	Location string `yaml:"location" json:"location"`
}

type Flow struct {
	Name  string   `yaml:"name" json:"name"`
	Steps []string `yaml:"steps" json:"steps"`
}

// Base is read-only after loading.
type Base struct {
	Hotel      string      `yaml:"hotel" json:"hotel"`
	Sections   []Section   `yaml:"sections" json:"sections"`
	Menu       []MenuItem  `yaml:"menu" json:"menu"`
	UIElements []UIElement `yaml:"ui_elements" json:"ui_elements"`
	Flows      []Flow      `yaml:"flows" json:"flows"`
}

// Default parses the embedded knowledge document.
func Default() (*Base, error) {
	return Parse(defaultDocument)
}

// Parse decodes and validates a knowledge document. Every menu item must
// point at a declared section.
func Parse(doc []byte) (*Base, error) {
	var kb Base
	if err := yaml.Unmarshal(doc, &kb); err != nil {
		return nil, fmt.Errorf("decode knowledge base: %w", err)
	}
	if kb.Hotel == "" {
		return nil, errors.New("knowledge base: hotel name is required")
	}
	if len(kb.Sections) == 0 {
		return nil, errors.New("knowledge base: at least one section is required")
	}

	ids := make(map[string]struct{}, len(kb.Sections))
	for _, s := range kb.Sections {
		ids[s.ID] = struct{}{}
	}
	for _, m := range kb.Menu {
		if _, ok := ids[m.Section]; !ok {
			return nil, fmt.Errorf("knowledge base: menu item %q points to unknown section %q", m.Label, m.Section)
		}
	}
	return &kb, nil
}

// SectionName resolves a section id to its display name.
func (b *Base) SectionName(id string) string {
	for _, s := range b.Sections {
		if s.ID == id {
			return s.Name
		}
	}
	return id
}
