// Package kvstore implements common.ContractStore on BadgerDB, a
// single-table key-value layout: one key per contract plus a secondary
// index key per holder. Analytical queries are full prefix scans with
// in-process aggregation, which is exactly the trade-off the benchmark
// is meant to expose.
package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"

	"github.com/dgraph-io/badger/v4"

	"github.com/veilmark/soulbench/common"
)

const (
	contractPrefix = "contract:"
	holderPrefix   = "holder:"
)

// Config holds the knobs for opening a Badger-backed store.
type Config struct {
	// Path is the directory for database files. Ignored when InMemory
	// is set.
	Path string

	// InMemory disables disk persistence. Used by tests and quick runs.
	InMemory bool

	// SyncWrites forces fsync on every write.
	SyncWrites bool

	// Logger receives Badger's internal log output. Nil silences it.
	Logger *slog.Logger
}

// Store is a ContractStore backed by BadgerDB.
type Store struct {
	db     *badger.DB
	closed atomic.Bool
}

// Open opens or creates the database described by cfg.
func Open(cfg Config) (*Store, error) {
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if cfg.Path == "" {
			return nil, errors.New("kvstore: path is required for a persistent store")
		}
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, fmt.Errorf("kvstore: create directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites)

	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("kvstore: open badger database: %w", err)
	}
	return &Store{db: db}, nil
}

func contractKey(id string) []byte {
	return []byte(contractPrefix + id)
}

func holderKey(holder, id string) []byte {
	return []byte(holderPrefix + holder + ":" + id)
}

func (s *Store) guard(ctx context.Context, id string) error {
	if s.closed.Load() {
		return common.ErrStoreClosed
	}
	if id == "" {
		return common.ErrEmptyID
	}
	return ctx.Err()
}

// maxTxnRetries bounds the conflict-retry loop on write transactions.
const maxTxnRetries = 10

// runUpdate retries the transaction on conflict. Concurrent writers
// touching the same key conflict routinely under Badger's optimistic
// concurrency control; the operation itself has not failed, so callers
// see either success or a non-conflict error.
func (s *Store) runUpdate(fn func(txn *badger.Txn) error) error {
	var err error
	for i := 0; i < maxTxnRetries; i++ {
		if err = s.db.Update(fn); !errors.Is(err, badger.ErrConflict) {
			return err
		}
	}
	return err
}

func (s *Store) Create(ctx context.Context, c common.SoulContract) error {
	if err := s.guard(ctx, c.ID); err != nil {
		return err
	}
	value, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("kvstore: encode contract %s: %w", c.ID, err)
	}

	return s.runUpdate(func(txn *badger.Txn) error {
		if _, err := txn.Get(contractKey(c.ID)); err == nil {
			return common.ErrContractExists
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		if err := txn.Set(contractKey(c.ID), value); err != nil {
			return err
		}
		return txn.Set(holderKey(c.HolderName, c.ID), nil)
	})
}

func (s *Store) Get(ctx context.Context, id string) (common.SoulContract, error) {
	var c common.SoulContract
	if err := s.guard(ctx, id); err != nil {
		return c, err
	}

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(contractKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return common.ErrContractNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &c)
		})
	})
	return c, err
}

func (s *Store) Update(ctx context.Context, c common.SoulContract) error {
	if err := s.guard(ctx, c.ID); err != nil {
		return err
	}
	value, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("kvstore: encode contract %s: %w", c.ID, err)
	}

	return s.runUpdate(func(txn *badger.Txn) error {
		item, err := txn.Get(contractKey(c.ID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return common.ErrContractNotFound
		}
		if err != nil {
			return err
		}

		// Move the holder index entry if the holder changed.
		var old common.SoulContract
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &old)
		}); err != nil {
			return err
		}
		if old.HolderName != c.HolderName {
			if err := txn.Delete(holderKey(old.HolderName, c.ID)); err != nil {
				return err
			}
			if err := txn.Set(holderKey(c.HolderName, c.ID), nil); err != nil {
				return err
			}
		}

		return txn.Set(contractKey(c.ID), value)
	})
}

func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.guard(ctx, id); err != nil {
		return err
	}

	return s.runUpdate(func(txn *badger.Txn) error {
		item, err := txn.Get(contractKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return common.ErrContractNotFound
		}
		if err != nil {
			return err
		}

		var old common.SoulContract
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &old)
		}); err != nil {
			return err
		}

		if err := txn.Delete(holderKey(old.HolderName, id)); err != nil {
			return err
		}
		return txn.Delete(contractKey(id))
	})
}

func (s *Store) ListByHolder(ctx context.Context, holder string) ([]common.SoulContract, error) {
	if s.closed.Load() {
		return nil, common.ErrStoreClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prefix := []byte(holderPrefix + holder + ":")
	var out []common.SoulContract

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			id := string(it.Item().Key()[len(prefix):])

			item, err := txn.Get(contractKey(id))
			if errors.Is(err, badger.ErrKeyNotFound) {
				// Dangling index entry, skip it.
				continue
			}
			if err != nil {
				return err
			}
			var c common.SoulContract
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &c)
			}); err != nil {
				return err
			}
			out = append(out, c)
		}
		return nil
	})
	return out, err
}

// TotalsByStatus scans every contract and aggregates in process. There
// is no server-side aggregation in a key-value layout.
func (s *Store) TotalsByStatus(ctx context.Context) ([]common.StatusTotal, error) {
	if s.closed.Load() {
		return nil, common.ErrStoreClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	counts := make(map[common.ContractStatus]int64)
	totals := make(map[common.ContractStatus]float64)

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(contractPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var c common.SoulContract
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &c)
			}); err != nil {
				return err
			}
			counts[c.Status]++
			totals[c.Status] += c.Price
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := make([]common.StatusTotal, 0, len(counts))
	for _, status := range common.Statuses() {
		if counts[status] == 0 {
			continue
		}
		out = append(out, common.StatusTotal{
			Status:     status,
			Count:      counts[status],
			TotalPrice: totals[status],
		})
	}
	return out, nil
}

func (s *Store) Count(ctx context.Context) (int64, error) {
	if s.closed.Load() {
		return 0, common.ErrStoreClosed
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	var n int64
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(contractPrefix)
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}

func (s *Store) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.db.Close()
}

// badgerLogger adapts slog to Badger's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}
