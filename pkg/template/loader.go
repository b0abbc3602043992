package template

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	badger "github.com/dgraph-io/badger/v4"
)

const keyPrefix = "tpl:"

// Loader loads the template collection from a BadgerDB store with a static
// JSON file as fallback.
//
// A primary-store failure never propagates: Load falls back to the file
// and only returns an error when both sources are unusable.
type Loader struct {
	db       *badger.DB
	fallback string
	logger   *slog.Logger
}

// NewLoader creates a loader. storeDir is the BadgerDB directory; pass an
// empty string to skip the primary store and read the fallback file only.
// fallbackFile is the static JSON collection, required.
func NewLoader(storeDir, fallbackFile string) (*Loader, error) {
	l := &Loader{fallback: fallbackFile, logger: slog.Default()}
	if storeDir != "" {
		db, err := badger.Open(badger.DefaultOptions(storeDir).WithLogger(nil))
		if err != nil {
			// Primary unavailable: degrade to file-only, per the loading
			// contract.
			l.logger.Warn("template store unavailable, using fallback file", "dir", storeDir, "err", err)
		} else {
			l.db = db
		}
	}
	return l, nil
}

// Close releases the primary store, if open.
func (l *Loader) Close() error {
	if l.db == nil {
		return nil
	}
	return l.db.Close()
}

// Load returns the template collection keyed by template key. The primary
// store is consulted first; any failure or an empty store falls back to
// the static file.
func (l *Loader) Load(ctx context.Context) (map[string]*Template, error) {
	if l.db != nil {
		templates, err := l.loadStore(ctx)
		if err != nil {
			l.logger.Warn("template store read failed, using fallback file", "err", err)
		} else if len(templates) > 0 {
			return templates, nil
		}
	}
	return l.loadFile()
}

// Seed writes templates into the primary store. It is a no-op without a
// primary store.
func (l *Loader) Seed(ctx context.Context, templates map[string]*Template) error {
	if l.db == nil {
		return nil
	}
	return l.db.Update(func(txn *badger.Txn) error {
		for key, t := range templates {
			raw, err := json.Marshal(t)
			if err != nil {
				return fmt.Errorf("template: marshal %s: %w", key, err)
			}
			if err := txn.Set([]byte(keyPrefix+key), raw); err != nil {
				return err
			}
		}
		return nil
	})
}

func (l *Loader) loadStore(ctx context.Context) (map[string]*Template, error) {
	templates := make(map[string]*Template)
	err := l.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(keyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()
			key := strings.TrimPrefix(string(item.Key()), keyPrefix)
			raw, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			var t Template
			if err := json.Unmarshal(raw, &t); err != nil {
				return fmt.Errorf("template: decode %s: %w", key, err)
			}
			t.Key = key
			if err := t.Validate(); err != nil {
				return err
			}
			templates[key] = &t
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return templates, nil
}

func (l *Loader) loadFile() (map[string]*Template, error) {
	raw, err := os.ReadFile(l.fallback)
	if err != nil {
		return nil, fmt.Errorf("template: fallback file: %w", err)
	}
	var collection map[string]*Template
	if err := json.Unmarshal(raw, &collection); err != nil {
		return nil, fmt.Errorf("template: fallback file: %w", err)
	}
	for key, t := range collection {
		t.Key = key
		if err := t.Validate(); err != nil {
			return nil, err
		}
	}
	return collection, nil
}
