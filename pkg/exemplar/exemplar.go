// Package exemplar provides the read-only store of historical caption sets
// used as retrieval ground truth.
//
// Corpora are file-backed: one JSON array per template family, each entry
// holding the caption texts ("boxes") and popularity metadata. A corpus
// entry is eligible for a generation request only when its box count equals
// the requested slot count; filtering happens at corpus-selection time,
// before any index is built.
package exemplar

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Metadata carries provenance and popularity information for a document.
type Metadata struct {
	Title    string `json:"title,omitempty"`
	Author   string `json:"author,omitempty"`
	SourceID string `json:"source-id,omitempty"`

	// Popularity is the vote count from the scraped source. Source files
	// store it as either a number or a numeric string.
	Popularity int `json:"img-votes,omitempty"`
}

// UnmarshalJSON accepts img-votes as either a JSON number or a numeric
// string, which both occur in scraped corpus files.
func (m *Metadata) UnmarshalJSON(data []byte) error {
	type alias struct {
		Title    string          `json:"title"`
		Author   string          `json:"author"`
		SourceID string          `json:"source-id"`
		Votes    json.RawMessage `json:"img-votes"`
	}
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	m.Title = a.Title
	m.Author = a.Author
	m.SourceID = a.SourceID
	m.Popularity = 0
	if len(a.Votes) > 0 {
		s := strings.Trim(string(a.Votes), `"`)
		if s != "" && s != "null" {
			n, err := strconv.Atoi(s)
			if err != nil {
				return fmt.Errorf("exemplar: img-votes %q: %w", s, err)
			}
			m.Popularity = n
		}
	}
	return nil
}

// Document is one historical caption set.
type Document struct {
	// Boxes holds one caption text per slot, in slot order.
	Boxes []string `json:"boxes"`

	Metadata Metadata `json:"metadata"`
}

// Serialize renders a document for embedding: "slot{i}: {text}" for each
// populated slot, space-joined, in slot order.
func Serialize(d Document) string {
	var sb strings.Builder
	for i, text := range d.Boxes {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "slot%d: %s", i+1, text)
	}
	return sb.String()
}

// FilterBySlotCount returns the documents whose box count equals slots,
// preserving order. This is the eligibility rule for a generation request.
func FilterBySlotCount(docs []Document, slots int) []Document {
	var out []Document
	for _, d := range docs {
		if len(d.Boxes) == slots {
			out = append(out, d)
		}
	}
	return out
}
