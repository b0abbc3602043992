package lang

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const googleDefaultBaseURL = "https://translate.googleapis.com"

// Google is a Translator backed by the public Google translate endpoint.
//
// The endpoint is unauthenticated and rate-limited; treat results as
// best-effort.
type Google struct {
	baseURL    string
	httpClient *http.Client
}

var _ Translator = (*Google)(nil)

// GoogleOption configures the Google translator.
type GoogleOption func(*Google)

// WithGoogleBaseURL overrides the endpoint base URL (used in tests).
func WithGoogleBaseURL(u string) GoogleOption {
	return func(g *Google) { g.baseURL = u }
}

// WithGoogleHTTPClient sets a custom HTTP client.
func WithGoogleHTTPClient(c *http.Client) GoogleOption {
	return func(g *Google) { g.httpClient = c }
}

// NewGoogle creates a Google translator.
func NewGoogle(opts ...GoogleOption) *Google {
	g := &Google{
		baseURL:    googleDefaultBaseURL,
		httpClient: http.DefaultClient,
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

func (g *Google) Translate(ctx context.Context, text string, source, target Language) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}
	if source == "" {
		source = Auto
	}

	q := url.Values{}
	q.Set("client", "gtx")
	q.Set("sl", string(source))
	q.Set("tl", string(target))
	q.Set("dt", "t")
	q.Set("q", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/translate_a/single?"+q.Encode(), nil)
	if err != nil {
		return "", err
	}
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("lang: translate request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("lang: translate status %d: %s", resp.StatusCode, body)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return parseGoogleResponse(raw)
}

// parseGoogleResponse extracts translated segments from the endpoint's
// nested-array payload: [[["translated","source",...],...],...].
func parseGoogleResponse(raw []byte) (string, error) {
	var payload []json.RawMessage
	if err := json.Unmarshal(raw, &payload); err != nil {
		return "", fmt.Errorf("lang: translate payload: %w", err)
	}
	if len(payload) == 0 {
		return "", fmt.Errorf("lang: empty translate payload")
	}

	var segments [][]json.RawMessage
	if err := json.Unmarshal(payload[0], &segments); err != nil {
		return "", fmt.Errorf("lang: translate segments: %w", err)
	}

	var sb strings.Builder
	for _, seg := range segments {
		if len(seg) == 0 {
			continue
		}
		var piece string
		if err := json.Unmarshal(seg[0], &piece); err != nil {
			continue
		}
		sb.WriteString(piece)
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("lang: no translated segments")
	}
	return sb.String(), nil
}
