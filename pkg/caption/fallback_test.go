package caption

import "testing"

func TestParseLoose(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		n       int
		want    string
		wantErr bool
	}{
		{
			name: "fenced",
			raw:  "```json\n{\"caption1\": \"top\", \"caption2\": \"bottom\"}\n```",
			n:    2,
			want: "top",
		},
		{
			name: "bare fence",
			raw:  "```\n{\"caption1\": \"only\"}\n```",
			n:    1,
			want: "only",
		},
		{
			name: "prose around object",
			raw:  `Here you go: {"caption1": "only"} hope you like it`,
			n:    1,
			want: "only",
		},
		{
			name: "trailing comma repaired",
			raw:  `{"caption1": "a", "caption2": "b",}`,
			n:    2,
			want: "a",
		},
		{
			name:    "no object",
			raw:     "sorry, I cannot help with that",
			n:       1,
			wantErr: true,
		},
		{
			name:    "wrong field count survives nothing",
			raw:     "```json\n{\"caption1\": \"a\"}\n```",
			n:       2,
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseLoose(tt.raw, tt.n)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("parseLoose = %v, want error", got)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got[0] != tt.want {
				t.Errorf("caption1 = %q, want %q", got[0], tt.want)
			}
		})
	}
}
