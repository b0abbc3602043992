// Package caption turns a composed prompt into a validated, sanitized
// caption set.
//
// A Generator is one structured-output backend (OpenAI, Gemini, or a test
// stub). The Orchestrator drives a generator through schema validation, a
// single loose-parse fallback, and bounded retries with exponential
// backoff, and hands every accepted caption through the sanitizer.
package caption

import (
	"context"

	"github.com/google/jsonschema-go/jsonschema"
)

// SchemaRequest is one structured-generation call.
type SchemaRequest struct {
	// System is the system-role instruction.
	System string

	// Context is the retrieval grounding block; empty when nothing was
	// retrieved. Backends present it as an assistant/model turn before
	// the user prompt.
	Context string

	// Prompt is the user-facing instruction text.
	Prompt string

	// SchemaName names the output schema for backends that require one.
	SchemaName string

	// Schema constrains the output shape.
	Schema *jsonschema.Schema

	// Temperature is the sampling temperature.
	Temperature float64
}

// Result is one raw generation outcome, before validation.
type Result struct {
	// JSON is the backend's structured output, expected to satisfy the
	// request schema but not yet validated.
	JSON string
}

// Generator produces structured output from a schema request.
type Generator interface {
	Generate(ctx context.Context, req *SchemaRequest) (*Result, error)
}
