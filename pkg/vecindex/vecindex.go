// Package vecindex provides a flat exact nearest-neighbor index over
// embedded documents.
//
// An [Index] is built once from a document corpus and queried many times.
// It is immutable after Build: concurrent queries need no locking, and
// rebuilding for the same corpus yields an equivalent index.
//
// Ranking is by ascending L2 distance with ties broken by original corpus
// order, matching a flat exact-search index. Cosine similarity is reported
// alongside for callers that want a display score.
package vecindex

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/DiscountLegolas/memegen/pkg/embed"
)

// Match is a single query result.
type Match[D any] struct {
	// Doc is the matched document.
	Doc D

	// Pos is the document's position in the original corpus.
	Pos int

	// Distance is the raw L2 distance between query and document vectors.
	Distance float32

	// Score is the cosine similarity in [-1, 1], for display ranking.
	Score float64
}

// Index is an immutable flat index over one corpus.
//
// The zero value is not usable; construct with [Build] or [BuildWeighted].
type Index[D any] struct {
	docs     []D
	vecs     [][]float32
	weights  []float64
	embedder embed.Embedder
}

// Build embeds serialize(doc) for every document and returns the index.
// An empty document list is valid and yields an explicitly empty index:
// queries against it return no results, not an error.
func Build[D any](ctx context.Context, embedder embed.Embedder, docs []D, serialize func(D) string) (*Index[D], error) {
	return BuildWeighted(ctx, embedder, docs, nil, serialize)
}

// BuildWeighted is [Build] with an optional per-document retrieval weight.
// A weight w > 1 divides the document's effective query distance by w,
// increasing its retrieval odds without duplicating its vector. A nil
// weights slice means all documents weigh 1. weights, when non-nil, must
// have the same length as docs.
func BuildWeighted[D any](ctx context.Context, embedder embed.Embedder, docs []D, weights []float64, serialize func(D) string) (*Index[D], error) {
	if weights != nil && len(weights) != len(docs) {
		return nil, fmt.Errorf("vecindex: %d docs but %d weights", len(docs), len(weights))
	}

	ix := &Index[D]{embedder: embedder}
	if len(docs) == 0 {
		return ix, nil
	}

	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = serialize(d)
	}
	vecs, err := embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("vecindex: embed corpus: %w", err)
	}

	ix.docs = append([]D(nil), docs...)
	ix.vecs = vecs
	if weights != nil {
		ix.weights = append([]float64(nil), weights...)
	}
	return ix, nil
}

// Len returns the number of indexed documents.
func (ix *Index[D]) Len() int {
	return len(ix.docs)
}

// Query embeds text and returns up to k matches ordered by ascending L2
// distance. Ties keep original corpus order. k larger than the corpus
// returns the whole corpus; k <= 0 or an empty index returns no results.
func (ix *Index[D]) Query(ctx context.Context, text string, k int) ([]Match[D], error) {
	if len(ix.docs) == 0 || k <= 0 {
		return nil, nil
	}

	q, err := ix.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("vecindex: embed query: %w", err)
	}

	matches := make([]Match[D], len(ix.docs))
	for i := range ix.docs {
		matches[i] = Match[D]{
			Doc:      ix.docs[i],
			Pos:      i,
			Distance: l2Distance(q, ix.vecs[i]),
			Score:    cosineSimilarity(q, ix.vecs[i]),
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return ix.effective(matches[i]) < ix.effective(matches[j])
	})

	if len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

// effective applies the document weight to its distance for ranking.
func (ix *Index[D]) effective(m Match[D]) float32 {
	if ix.weights == nil {
		return m.Distance
	}
	w := ix.weights[m.Pos]
	if w <= 1 {
		return m.Distance
	}
	return m.Distance / float32(w)
}

// l2Distance computes the Euclidean distance between two vectors.
// Mismatched dimensions yield +Inf (never comparable).
func l2Distance(a, b []float32) float32 {
	if len(a) != len(b) {
		return float32(math.Inf(1))
	}
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return float32(math.Sqrt(sum))
}

// cosineSimilarity computes the cosine similarity between two vectors.
// Returns 0 if either vector has zero norm or dimensions mismatch.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		ai, bi := float64(a[i]), float64(b[i])
		dot += ai * bi
		normA += ai * ai
		normB += bi * bi
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	// Clamp to [-1, 1] to handle floating point errors.
	if sim > 1 {
		sim = 1
	}
	if sim < -1 {
		sim = -1
	}
	return sim
}
