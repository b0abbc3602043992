package lang_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DiscountLegolas/memegen/pkg/lang"
)

func TestDetect(t *testing.T) {
	d := lang.NewDetector()
	tests := []struct {
		text string
		want lang.Language
	}{
		{"the cat is sleeping on the couch again", lang.English},
		{"kedi yine koltukta uyuyor", lang.Turkish},
		{"", lang.English}, // inconclusive defaults to English
	}
	for _, tt := range tests {
		if got := d.Detect(tt.text); got != tt.want {
			t.Errorf("Detect(%q) = %s, want %s", tt.text, got, tt.want)
		}
	}
}

func TestGoogleTranslate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("tl"); got != "en" {
			t.Errorf("tl = %q, want en", got)
		}
		w.Write([]byte(`[[["hello world","merhaba dünya",null,null,10]],null,"tr"]`))
	}))
	defer srv.Close()

	g := lang.NewGoogle(lang.WithGoogleBaseURL(srv.URL))
	got, err := g.Translate(context.Background(), "merhaba dünya", lang.Auto, lang.English)
	if err != nil {
		t.Fatal(err)
	}
	if got != "hello world" {
		t.Errorf("Translate = %q, want %q", got, "hello world")
	}
}

func TestGoogleTranslateMultiSegment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[[["first part. ","a",null],["second part.","b",null]],null,"tr"]`))
	}))
	defer srv.Close()

	g := lang.NewGoogle(lang.WithGoogleBaseURL(srv.URL))
	got, err := g.Translate(context.Background(), "x", lang.Auto, lang.English)
	if err != nil {
		t.Fatal(err)
	}
	if got != "first part. second part." {
		t.Errorf("Translate = %q", got)
	}
}

func TestGoogleTranslateEmptyInput(t *testing.T) {
	g := lang.NewGoogle() // must not hit the network for empty input
	got, err := g.Translate(context.Background(), "   ", lang.Auto, lang.English)
	if err != nil {
		t.Fatal(err)
	}
	if got != "   " {
		t.Errorf("Translate = %q, want input unchanged", got)
	}
}

func TestGoogleTranslateErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	g := lang.NewGoogle(lang.WithGoogleBaseURL(srv.URL))
	if _, err := g.Translate(context.Background(), "text", lang.Auto, lang.English); err == nil {
		t.Fatal("expected error on non-200 status")
	}
}

func TestNoop(t *testing.T) {
	got, err := lang.Noop{}.Translate(context.Background(), "as is", lang.Auto, lang.Turkish)
	if err != nil || got != "as is" {
		t.Fatalf("Noop = %q, %v", got, err)
	}
}
