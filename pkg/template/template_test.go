package template

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestExampleUnmarshalForms(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"array", `["one", "two"]`, []string{"one", "two"}},
		{"object", `{"caption1": "one", "caption2": "two"}`, []string{"one", "two"}},
		{"object gap stops", `{"caption1": "one", "caption3": "three"}`, []string{"one"}},
		{"empty object", `{}`, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ex Example
			if err := json.Unmarshal([]byte(tt.in), &ex); err != nil {
				t.Fatal(err)
			}
			if len(ex) != len(tt.want) {
				t.Fatalf("got %v, want %v", ex, tt.want)
			}
			for i := range ex {
				if ex[i] != tt.want[i] {
					t.Errorf("got %v, want %v", ex, tt.want)
				}
			}
		})
	}
}

func TestValidateExampleWiderThanSlots(t *testing.T) {
	tpl := &Template{
		Key:      "two-buttons",
		Slots:    []Slot{{ID: 1}, {ID: 2}},
		Examples: []Example{{"a", "b", "c"}},
	}
	if err := tpl.Validate(); err == nil {
		t.Fatal("expected error for example wider than slot list")
	}

	tpl.Examples = []Example{{"a"}}
	if err := tpl.Validate(); err != nil {
		t.Fatalf("narrow example must be valid: %v", err)
	}
}

func TestSearchable(t *testing.T) {
	tpl := &Template{
		Key:         "drake",
		Tags:        []string{"choice", "preference"},
		Explanation: "rejecting one thing, approving another",
		Examples:    []Example{{"old way", "new way"}},
		Slots:       []Slot{{ID: 1}, {ID: 2}},
	}
	s := tpl.Searchable()
	for _, want := range []string{"choice", "preference", "rejecting", "caption1: old way", "caption2: new way"} {
		if !strings.Contains(s, want) {
			t.Errorf("Searchable() missing %q: %s", want, s)
		}
	}
}

func writeTemplates(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "templates.json")
	content := `{
		"drake": {
			"name": "Drake Hotline",
			"tags": ["choice"],
			"explanation": "reject then approve",
			"examples": [{"caption1": "bugs", "caption2": "features"}],
			"slots": [
				{"id": 1, "label": "top", "geometry": {"x": 300, "y": 0, "width": 300, "height": 300}},
				{"id": 2, "label": "bottom", "geometry": {"x": 300, "y": 300, "width": 300, "height": 300}}
			]
		}
	}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoaderFallbackFile(t *testing.T) {
	path := writeTemplates(t, t.TempDir())
	l, err := NewLoader("", path)
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()

	templates, err := l.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	tpl, ok := templates["drake"]
	if !ok {
		t.Fatal("drake template missing")
	}
	if tpl.Key != "drake" {
		t.Errorf("Key = %q", tpl.Key)
	}
	if tpl.SlotCount() != 2 {
		t.Errorf("SlotCount = %d, want 2", tpl.SlotCount())
	}
}

func TestLoaderStorePrimary(t *testing.T) {
	dir := t.TempDir()
	path := writeTemplates(t, dir)

	storeDir := filepath.Join(dir, "store")
	l, err := NewLoader(storeDir, path)
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()

	ctx := context.Background()
	seed := map[string]*Template{
		"two-buttons": {
			Name:        "Two Buttons",
			Tags:        []string{"dilemma"},
			Explanation: "sweating over two buttons",
			Slots:       []Slot{{ID: 1}, {ID: 2}, {ID: 3}},
		},
	}
	if err := l.Seed(ctx, seed); err != nil {
		t.Fatal(err)
	}

	templates, err := l.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	// Primary store wins over the fallback file.
	if _, ok := templates["two-buttons"]; !ok {
		t.Fatal("seeded template missing from store load")
	}
	if _, ok := templates["drake"]; ok {
		t.Error("fallback template leaked into primary store load")
	}
}

func TestLoaderEmptyStoreFallsBack(t *testing.T) {
	dir := t.TempDir()
	path := writeTemplates(t, dir)
	l, err := NewLoader(filepath.Join(dir, "store"), path)
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()

	templates, err := l.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := templates["drake"]; !ok {
		t.Fatal("empty store must fall back to file")
	}
}
