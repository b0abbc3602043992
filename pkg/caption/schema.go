package caption

import (
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
)

// MaxSlots is the largest caption count a request may ask for.
const MaxSlots = 5

// Schema builds the output schema for exactly n captions: an object with
// required string fields caption1..captionN and nothing else.
func Schema(n int) *jsonschema.Schema {
	props := make(map[string]*jsonschema.Schema, n)
	required := make([]string, n)
	for i := 1; i <= n; i++ {
		name := fieldName(i)
		props[name] = &jsonschema.Schema{
			Type:        "string",
			Description: fmt.Sprintf("Caption text for slot %d", i),
		}
		required[i-1] = name
	}
	return &jsonschema.Schema{
		Type:                 "object",
		Properties:           props,
		Required:             required,
		AdditionalProperties: &jsonschema.Schema{Not: &jsonschema.Schema{}}, // false schema
	}
}

func fieldName(i int) string {
	return fmt.Sprintf("caption%d", i)
}

// Decode validates raw against the caption schema for n slots and returns
// the captions in slot order. It rejects missing fields, non-string
// values, and any field outside caption1..captionN.
func Decode(raw []byte, n int) ([]string, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, fmt.Errorf("caption: not a JSON object: %w", err)
	}

	out := make([]string, n)
	seen := 0
	for i := 1; i <= n; i++ {
		field, ok := obj[fieldName(i)]
		if !ok {
			return nil, fmt.Errorf("caption: missing field %s", fieldName(i))
		}
		var text string
		if err := json.Unmarshal(field, &text); err != nil {
			return nil, fmt.Errorf("caption: field %s is not a string", fieldName(i))
		}
		out[i-1] = text
		seen++
	}
	if len(obj) != seen {
		for k := range obj {
			known := false
			for i := 1; i <= n; i++ {
				if k == fieldName(i) {
					known = true
					break
				}
			}
			if !known {
				return nil, fmt.Errorf("caption: unexpected field %q", k)
			}
		}
	}
	return out, nil
}
