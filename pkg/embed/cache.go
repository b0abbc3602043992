package embed

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/vmihailenco/msgpack/v5"
)

// Cached is an [Embedder] decorator that persists vectors in BadgerDB.
// Cache keys include the inner embedder's model name, so vectors from
// different models never collide.
//
// Cache read or write failures are not fatal: the inner embedder is
// consulted and the result returned; only inner embedder errors propagate.
type Cached struct {
	inner Embedder
	db    *badger.DB
}

var _ Embedder = (*Cached)(nil)

// NewCached opens (or creates) a badger database at dir and wraps inner
// with it. Pass an empty dir to run badger in memory-only mode, which is
// useful in tests.
func NewCached(inner Embedder, dir string) (*Cached, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("embed: open cache: %w", err)
	}
	return &Cached{inner: inner, db: db}, nil
}

func (c *Cached) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (c *Cached) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, ErrEmptyBatch
	}

	vecs := make([][]float32, len(texts))
	var missTexts []string
	var missIdx []int
	for i, t := range texts {
		if v, ok := c.get(t); ok {
			vecs[i] = v
			continue
		}
		missTexts = append(missTexts, t)
		missIdx = append(missIdx, i)
	}

	if len(missTexts) > 0 {
		fresh, err := c.inner.EmbedBatch(ctx, missTexts)
		if err != nil {
			return nil, err
		}
		for j, v := range fresh {
			vecs[missIdx[j]] = v
			c.put(missTexts[j], v)
		}
	}
	return vecs, nil
}

func (c *Cached) Dimension() int {
	return c.inner.Dimension()
}

func (c *Cached) Model() string {
	return c.inner.Model()
}

// Close closes the underlying badger database.
func (c *Cached) Close() error {
	return c.db.Close()
}

func (c *Cached) key(text string) []byte {
	sum := sha256.Sum256([]byte(text))
	return []byte("emb:" + c.inner.Model() + ":" + hex.EncodeToString(sum[:]))
}

func (c *Cached) get(text string) ([]float32, bool) {
	var raw []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(c.key(text))
		if err != nil {
			return err
		}
		raw, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if !errors.Is(err, badger.ErrKeyNotFound) {
			// Corrupt or unavailable cache entries fall through to the
			// inner embedder.
			return nil, false
		}
		return nil, false
	}
	var vec []float32
	if err := msgpack.Unmarshal(raw, &vec); err != nil {
		return nil, false
	}
	return vec, true
}

func (c *Cached) put(text string, vec []float32) {
	raw, err := msgpack.Marshal(vec)
	if err != nil {
		return
	}
	_ = c.db.Update(func(txn *badger.Txn) error {
		return txn.Set(c.key(text), raw)
	})
}
