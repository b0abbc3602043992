// Package recommend ranks meme templates against a free-text query.
//
// One index is built across every template's descriptive text (tags,
// explanation, examples). The index is memoized, keyed by a digest of the
// template keys, their searchable content, and the embedding model, so
// repeated queries skip the embedding cost while any template edit
// triggers a rebuild; the observable ranking behavior is unchanged from a
// rebuild-per-call implementation.
package recommend

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"math"
	"sort"
	"sync"

	"github.com/DiscountLegolas/memegen/pkg/embed"
	"github.com/DiscountLegolas/memegen/pkg/template"
	"github.com/DiscountLegolas/memegen/pkg/vecindex"
)

// scorePrecision is the number of decimals scores are rounded to for
// stable display.
const scorePrecision = 3

// Scored pairs a template with its similarity score.
type Scored struct {
	Template *template.Template
	Score    float64
}

// Recommender ranks templates by semantic similarity.
// It is safe for concurrent use.
type Recommender struct {
	embedder embed.Embedder

	mu          sync.RWMutex
	fingerprint string
	index       *vecindex.Index[*template.Template]
}

// NewRecommender creates a recommender using the given embedder.
func NewRecommender(embedder embed.Embedder) *Recommender {
	return &Recommender{embedder: embedder}
}

// Recommend returns every template exactly once, ranked descending by
// similarity to query, scores rounded to 3 decimals. topN > 0 truncates
// the result; there is no minimum-score threshold.
func (r *Recommender) Recommend(ctx context.Context, templates map[string]*template.Template, query string, topN int) ([]Scored, error) {
	ix, err := r.indexFor(ctx, templates)
	if err != nil {
		return nil, err
	}

	matches, err := ix.Query(ctx, query, ix.Len())
	if err != nil {
		return nil, err
	}

	scored := make([]Scored, len(matches))
	for i, m := range matches {
		scored[i] = Scored{
			Template: m.Doc,
			Score:    roundScore(m.Score),
		}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if topN > 0 && len(scored) > topN {
		scored = scored[:topN]
	}
	return scored, nil
}

// indexFor returns the memoized index for the template set, rebuilding
// when the template keys, their searchable content, or the embedding
// model changed.
func (r *Recommender) indexFor(ctx context.Context, templates map[string]*template.Template) (*vecindex.Index[*template.Template], error) {
	keys := make([]string, 0, len(templates))
	for k := range templates {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	h := sha256.New()
	for _, k := range keys {
		io.WriteString(h, k)
		h.Write([]byte{0})
		io.WriteString(h, templates[k].Searchable())
		h.Write([]byte{0})
	}
	io.WriteString(h, r.embedder.Model())
	fp := hex.EncodeToString(h.Sum(nil))

	r.mu.RLock()
	if r.fingerprint == fp && r.index != nil {
		ix := r.index
		r.mu.RUnlock()
		return ix, nil
	}
	r.mu.RUnlock()

	// Build outside the lock: rebuilds are idempotent, so a concurrent
	// double build wastes work but cannot corrupt state.
	docs := make([]*template.Template, len(keys))
	for i, k := range keys {
		docs[i] = templates[k]
	}
	ix, err := vecindex.Build(ctx, r.embedder, docs, func(t *template.Template) string {
		return t.Searchable()
	})
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.fingerprint = fp
	r.index = ix
	r.mu.Unlock()
	return ix, nil
}

func roundScore(s float64) float64 {
	p := math.Pow10(scorePrecision)
	return math.Round(s*p) / p
}
