// Package embed provides a text embedding interface and implementations.
//
// An Embedder converts text into dense vector representations (embeddings)
// suitable for nearest-neighbor retrieval over meme caption exemplars and
// template descriptions.
//
// # Implementations
//
//   - [OpenAI] — OpenAI text-embedding-3-small / text-embedding-3-large,
//     also usable with any OpenAI-compatible router via WithBaseURL
//   - [Hash] — deterministic local embedder for tests and offline runs
//   - [Cached] — decorator persisting vectors in BadgerDB
//
// # Quick Start
//
//	e := embed.NewOpenAI("sk-xxx", embed.WithModel("text-embedding-3-small"))
//	vec, err := e.Embed(ctx, "two buttons, hard choice")
//
//	vecs, err := e.EmbedBatch(ctx, []string{"drake no", "drake yes"})
package embed

import (
	"context"
	"errors"
)

// Embedder converts text into dense float32 vectors.
//
// Vectors produced by different models (or model versions) are not
// comparable; callers that cache or index vectors must key them by
// [Embedder.Model].
type Embedder interface {
	// Embed returns the embedding vector for a single text.
	// An empty string is valid input and yields a defined, low-information
	// vector; callers must not assume non-degeneracy.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch returns embedding vectors for multiple texts, in input
	// order. Implementations may split large batches into smaller API
	// calls transparently. EmbedBatch([]string{t})[0] equals Embed(t).
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension returns the dimensionality of the output vectors.
	Dimension() int

	// Model returns the model identifier that versions the vector space.
	Model() string
}

// Common errors.
var (
	// ErrEmptyBatch is returned when EmbedBatch is called with no texts.
	ErrEmptyBatch = errors.New("embed: empty batch")
)
