// Package model defines the domain types used across the application.
package model

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// BirthdateLayout is the wire format of birthday dates in the config file.
const BirthdateLayout = "02/01/2006"

// Birthday is a single entry of the birthday table.
type Birthday struct {
	Name string
	Date time.Time
}

// Birthdays is the birthday table. It serializes as a YAML mapping of
// name to date string but keeps the document order, so "first configured"
// is well defined for tie-breaking.
type Birthdays []Birthday

// UnmarshalYAML decodes a YAML mapping into an ordered birthday table.
func (b *Birthdays) UnmarshalYAML(node *yaml.Node) error {
	if node.Tag == "!!null" {
		*b = nil
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("birthdays: expected a mapping, got %s", node.Tag)
	}
	out := make(Birthdays, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		name := node.Content[i].Value
		date, err := time.Parse(BirthdateLayout, node.Content[i+1].Value)
		if err != nil {
			return fmt.Errorf("birthdays: entry %q: %w", name, err)
		}
		out = append(out, Birthday{Name: name, Date: date})
	}
	*b = out
	return nil
}

// MarshalYAML encodes the table back to a mapping in the same order.
func (b Birthdays) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, e := range b {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: e.Name},
			&yaml.Node{Kind: yaml.ScalarNode, Value: e.Date.Format(BirthdateLayout)},
		)
	}
	return node, nil
}

// Names returns the configured names in document order.
func (b Birthdays) Names() []string {
	names := make([]string, len(b))
	for i, e := range b {
		names[i] = e.Name
	}
	return names
}

// Watchlist is the shared film watchlist document.
type Watchlist struct {
	Films []string `yaml:"films"`
}

// Contains reports whether the exact title is already on the list.
func (w *Watchlist) Contains(title string) bool {
	for _, f := range w.Films {
		if f == title {
			return true
		}
	}
	return false
}

// Add appends a title. It returns false if the title is already present.
func (w *Watchlist) Add(title string) bool {
	if w.Contains(title) {
		return false
	}
	w.Films = append(w.Films, title)
	return true
}

// Remove deletes a title, preserving the order of the remaining entries.
// It returns false if the title is not on the list.
func (w *Watchlist) Remove(title string) bool {
	for i, f := range w.Films {
		if f == title {
			w.Films = append(w.Films[:i], w.Films[i+1:]...)
			return true
		}
	}
	return false
}
