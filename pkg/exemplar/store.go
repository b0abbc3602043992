package exemplar

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

const (
	// boostCount is how many of the most popular union-pool documents
	// receive a retrieval boost.
	boostCount = 10

	// boostWeight is the retrieval weight applied to boosted documents.
	boostWeight = 2.0
)

// Store reads exemplar corpora from a directory of per-template JSON files.
//
// A missing or malformed corpus file is never fatal: the affected pool
// degrades to empty (logged at warn level), because a generation request
// can proceed without exemplars but not without a generator.
//
// Store is read-only and safe for concurrent use.
type Store struct {
	dir     string
	aliases map[string]string
	logger  *slog.Logger
}

// NewStore creates a store over dir. The optional aliases map resolves a
// template key to a corpus file name for corpora whose file name does not
// follow the "<key>.json" convention.
func NewStore(dir string, aliases map[string]string) *Store {
	if aliases == nil {
		aliases = map[string]string{}
	}
	return &Store{dir: dir, aliases: aliases, logger: slog.Default()}
}

// Pool is a candidate set of eligible documents for one generation request,
// with optional per-document retrieval weights.
type Pool struct {
	// ID identifies the corpus selection ("corpus key" or "union").
	ID string

	// SlotCount is the slot count every document in the pool matches.
	SlotCount int

	// Docs are the eligible documents.
	Docs []Document

	// Weights are optional retrieval weights parallel to Docs; nil means
	// all documents weigh 1.
	Weights []float64
}

// corpusFile resolves a template key to its corpus file path.
func (s *Store) corpusFile(key string) string {
	if f, ok := s.aliases[key]; ok {
		return filepath.Join(s.dir, f)
	}
	name := strings.ReplaceAll(strings.TrimSpace(key), " ", "-")
	return filepath.Join(s.dir, name+".json")
}

// Corpus loads every document for a template key. Missing or malformed
// files degrade to an empty corpus.
func (s *Store) Corpus(key string) []Document {
	return s.load(s.corpusFile(key))
}

func (s *Store) load(path string) []Document {
	raw, err := os.ReadFile(path)
	if err != nil {
		s.logger.Warn("exemplar corpus unavailable", "path", path, "err", err)
		return nil
	}
	var docs []Document
	if err := json.Unmarshal(raw, &docs); err != nil {
		s.logger.Warn("exemplar corpus malformed", "path", path, "err", err)
		return nil
	}
	return docs
}

// PoolFor returns the eligible pool for one template's corpus: documents
// whose box count equals slots, in corpus order.
func (s *Store) PoolFor(key string, slots int) Pool {
	return Pool{
		ID:        key,
		SlotCount: slots,
		Docs:      FilterBySlotCount(s.Corpus(key), slots),
	}
}

// UnionPool returns the eligible pool across every corpus file in the
// store directory, for "no template" generation. The top-10 most popular
// documents carry an explicit retrieval weight instead of being duplicated
// into the pool, keeping the index free of redundant vectors while still
// raising their retrieval odds.
func (s *Store) UnionPool(slots int) Pool {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		s.logger.Warn("exemplar dir unavailable", "dir", s.dir, "err", err)
		return Pool{ID: "union", SlotCount: slots}
	}

	var docs []Document
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		docs = append(docs, s.load(filepath.Join(s.dir, e.Name()))...)
	}
	docs = FilterBySlotCount(docs, slots)

	pool := Pool{ID: "union", SlotCount: slots, Docs: docs}
	if len(docs) == 0 {
		return pool
	}

	// Rank positions by popularity (stable, so equal votes keep corpus
	// order) and boost the top entries.
	byVotes := make([]int, len(docs))
	for i := range byVotes {
		byVotes[i] = i
	}
	sort.SliceStable(byVotes, func(a, b int) bool {
		return docs[byVotes[a]].Metadata.Popularity > docs[byVotes[b]].Metadata.Popularity
	})

	weights := make([]float64, len(docs))
	for i := range weights {
		weights[i] = 1
	}
	for i := 0; i < boostCount && i < len(byVotes); i++ {
		weights[byVotes[i]] = boostWeight
	}
	pool.Weights = weights
	return pool
}

// Fingerprint identifies the current corpus file set for cache
// invalidation: file names with sizes and modification times.
func (s *Store) Fingerprint() string {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return ""
	}
	var sb strings.Builder
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		sb.WriteString(e.Name())
		sb.WriteByte('=')
		sb.WriteString(strconv.FormatInt(info.Size(), 10))
		sb.WriteByte('@')
		sb.WriteString(strconv.FormatInt(info.ModTime().UnixNano(), 10))
		sb.WriteByte(';')
	}
	return sb.String()
}
