// Package template defines meme template metadata and its loader.
//
// A template names a visual layout with a fixed set of captionable slots.
// The slot list defines the caption cardinality for every generation
// against the template; historical examples may populate fewer slots than
// the template has, never more.
package template

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Geometry is the pixel-space box of one slot on the template image.
type Geometry struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Slot is one captionable region of a template.
type Slot struct {
	ID       int      `json:"id"`
	Label    string   `json:"label,omitempty"`
	Geometry Geometry `json:"geometry"`
}

// Example is one historical caption tuple, in slot order.
//
// It unmarshals from either a JSON array of strings or the legacy object
// form {"caption1": "...", "caption2": "..."}.
type Example []string

func (e *Example) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		var arr []string
		if err := json.Unmarshal(data, &arr); err != nil {
			return err
		}
		*e = arr
		return nil
	}

	var obj map[string]string
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	var out []string
	for i := 1; ; i++ {
		text, ok := obj[fmt.Sprintf("caption%d", i)]
		if !ok {
			break
		}
		out = append(out, text)
	}
	*e = out
	return nil
}

// Template describes one meme layout.
type Template struct {
	// Key is the unique identifier, assigned by the loader from the
	// collection key.
	Key string `json:"-"`

	Name        string    `json:"name"`
	Tags        []string  `json:"tags"`
	Explanation string    `json:"explanation"`
	Examples    []Example `json:"examples,omitempty"`
	Slots       []Slot    `json:"slots"`

	// File is the template image path, consumed by the external
	// compositor.
	File string `json:"file,omitempty"`
}

// SlotCount returns the caption cardinality this template requires.
func (t *Template) SlotCount() int {
	return len(t.Slots)
}

// Validate checks structural invariants: a key, at least one slot, and no
// example populating more fields than the template has slots.
func (t *Template) Validate() error {
	if t.Key == "" {
		return fmt.Errorf("template: missing key")
	}
	if len(t.Slots) == 0 {
		return fmt.Errorf("template %s: no slots", t.Key)
	}
	for i, ex := range t.Examples {
		if len(ex) > len(t.Slots) {
			return fmt.Errorf("template %s: example %d has %d captions for %d slots", t.Key, i, len(ex), len(t.Slots))
		}
	}
	return nil
}

// Searchable renders the template's descriptive text for the recommender
// index: tags, explanation, and every example's slot texts.
func (t *Template) Searchable() string {
	var parts []string
	parts = append(parts, strings.Join(t.Tags, " "))
	parts = append(parts, t.Explanation)
	for _, ex := range t.Examples {
		for i, text := range ex {
			parts = append(parts, fmt.Sprintf("caption%d: %s", i+1, text))
		}
	}
	return strings.Join(parts, " ")
}
