// Package retrieve fetches the nearest caption exemplars for a generation
// request.
//
// Corpus selection is a lookup step, not an indexed search: a template key
// resolves to its named or on-demand corpus, and "no template" requests
// use the union of all corpora with an explicit popularity boost. Eligible
// documents (box count == slot count) are chosen before indexing.
//
// Indices are memoized per (corpus identity, slot count, embedding model)
// and invalidated when the corpus files change, removing the repeated
// embedding cost of rebuild-per-call without changing ranking behavior.
// Rebuilds are idempotent, so concurrent misses may build redundantly but
// never corrupt state.
package retrieve

import (
	"context"
	"sync"

	"github.com/DiscountLegolas/memegen/pkg/embed"
	"github.com/DiscountLegolas/memegen/pkg/exemplar"
	"github.com/DiscountLegolas/memegen/pkg/vecindex"
)

// DefaultTopK is the number of exemplars retrieved when the caller does
// not specify k.
const DefaultTopK = 10

// Retriever performs similarity retrieval over exemplar corpora.
// It is safe for concurrent use.
type Retriever struct {
	store    *exemplar.Store
	embedder embed.Embedder

	mu    sync.RWMutex
	cache map[cacheKey]*cachedIndex
}

type cacheKey struct {
	corpus string
	slots  int
	model  string
}

type cachedIndex struct {
	fingerprint string
	index       *vecindex.Index[exemplar.Document]
}

// NewRetriever creates a retriever over the given store and embedder.
func NewRetriever(store *exemplar.Store, embedder embed.Embedder) *Retriever {
	return &Retriever{
		store:    store,
		embedder: embedder,
		cache:    make(map[cacheKey]*cachedIndex),
	}
}

// Retrieve returns up to k exemplars for one template's corpus, nearest
// first. Every returned document has exactly slots boxes. A missing corpus
// yields an empty result, never an error; embedding failures propagate.
func (r *Retriever) Retrieve(ctx context.Context, templateKey, query string, slots, k int) ([]exemplar.Document, error) {
	return r.search(ctx, func() exemplar.Pool { return r.store.PoolFor(templateKey, slots) }, templateKey, query, slots, k)
}

// RetrieveUnion is Retrieve over the union of all corpora, used for
// generation without a template. The most popular documents carry a
// retrieval boost.
func (r *Retriever) RetrieveUnion(ctx context.Context, query string, slots, k int) ([]exemplar.Document, error) {
	return r.search(ctx, func() exemplar.Pool { return r.store.UnionPool(slots) }, "union", query, slots, k)
}

func (r *Retriever) search(ctx context.Context, selectPool func() exemplar.Pool, corpusID, query string, slots, k int) ([]exemplar.Document, error) {
	if k <= 0 {
		k = DefaultTopK
	}

	ix, err := r.indexFor(ctx, selectPool, corpusID, slots)
	if err != nil {
		return nil, err
	}

	matches, err := ix.Query(ctx, query, k)
	if err != nil {
		return nil, err
	}
	docs := make([]exemplar.Document, len(matches))
	for i, m := range matches {
		docs[i] = m.Doc
	}
	return docs, nil
}

func (r *Retriever) indexFor(ctx context.Context, selectPool func() exemplar.Pool, corpusID string, slots int) (*vecindex.Index[exemplar.Document], error) {
	key := cacheKey{corpus: corpusID, slots: slots, model: r.embedder.Model()}
	fp := r.store.Fingerprint()

	r.mu.RLock()
	if c, ok := r.cache[key]; ok && c.fingerprint == fp {
		ix := c.index
		r.mu.RUnlock()
		return ix, nil
	}
	r.mu.RUnlock()

	pool := selectPool()
	ix, err := vecindex.BuildWeighted(ctx, r.embedder, pool.Docs, pool.Weights, exemplar.Serialize)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.cache[key] = &cachedIndex{fingerprint: fp, index: ix}
	r.mu.Unlock()
	return ix, nil
}
