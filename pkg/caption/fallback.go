package caption

import (
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// parseLoose recovers a caption object from a response that failed strict
// decoding: markdown code fences are stripped, the outermost brace pair is
// sliced out, and the remainder is repaired before one more strict decode.
// It never loosens the schema itself, only the framing around it.
func parseLoose(raw string, n int) ([]string, error) {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
		s = strings.TrimSpace(s)
	}

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return nil, fmt.Errorf("caption: no JSON object in response")
	}
	s = s[start : end+1]

	if out, err := Decode([]byte(s), n); err == nil {
		return out, nil
	}

	fixed, err := jsonrepair.JSONRepair(s)
	if err != nil {
		return nil, fmt.Errorf("caption: repair: %w", err)
	}
	return Decode([]byte(fixed), n)
}
