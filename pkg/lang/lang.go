// Package lang provides language detection and the best-effort translation
// collaborator used by the prompt composer.
//
// Detection is backed by a lingua model loaded once and reused across
// requests; construct one [Detector] at process start and pass it
// explicitly to components.
package lang

import (
	"context"

	"github.com/pemistahl/lingua-go"
)

// Language is a supported target language code.
type Language string

// Supported languages.
const (
	English Language = "en"
	Turkish Language = "tr"
)

// Detector identifies the language of free text.
// It is safe for concurrent use.
type Detector struct {
	detector lingua.LanguageDetector
}

// NewDetector loads the detection models for the supported languages.
// The returned handle is immutable; create it once at startup.
func NewDetector() *Detector {
	return &Detector{
		detector: lingua.NewLanguageDetectorBuilder().
			FromLanguages(lingua.English, lingua.Turkish).
			Build(),
	}
}

// Detect returns the most likely supported language of text, defaulting
// to English when detection is inconclusive.
func (d *Detector) Detect(text string) Language {
	detected, ok := d.detector.DetectLanguageOf(text)
	if !ok {
		return English
	}
	if detected == lingua.Turkish {
		return Turkish
	}
	return English
}

// Translator converts text between languages. Implementations are
// best-effort collaborators: callers should fall back to the original
// text on error rather than failing the request.
type Translator interface {
	// Translate converts text from source to target. Source "auto" asks
	// the implementation to detect the source language itself.
	Translate(ctx context.Context, text string, source, target Language) (string, error)
}

// Auto is the wildcard source language for [Translator.Translate].
const Auto Language = "auto"

// Noop is a Translator that returns its input unchanged. Useful in tests
// and for deployments without a translation backend.
type Noop struct{}

var _ Translator = Noop{}

func (Noop) Translate(_ context.Context, text string, _, _ Language) (string, error) {
	return text, nil
}
