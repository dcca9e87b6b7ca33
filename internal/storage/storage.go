package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
)

// Storage keys
const (
	keyOptions   = "options"
	searchPrefix = "search/"
)

// ErrNotFound is returned for a journal id that was never recorded.
var ErrNotFound = errors.New("storage: not found")

// SearchRecord is one journaled search.
type SearchRecord struct {
	ID      uuid.UUID     `json:"id"`
	FEN     string        `json:"fen"`
	Move    string        `json:"move"`
	Score   int           `json:"score"`
	Depth   int           `json:"depth"`
	Nodes   uint64        `json:"nodes"`
	Elapsed time.Duration `json:"elapsed"`
	Time    time.Time     `json:"time"`
}

// Store wraps BadgerDB for the engine's persisted options and its search
// journal. Journal values are zstd-compressed JSON.
type Store struct {
	db      *badger.DB
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// Open opens or creates a store in dir.
func Open(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil // Disable logging

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", dir, err)
	}
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		db.Close()
		return nil, err
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db, encoder: encoder, decoder: decoder}, nil
}

// OpenDefault opens the store under the platform data directory.
func OpenDefault() (*Store, error) {
	dir, err := DatabaseDir()
	if err != nil {
		return nil, err
	}
	return Open(dir)
}

// Close closes the database
func (s *Store) Close() error {
	s.encoder.Close()
	s.decoder.Close()
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveOptions replaces the persisted option values.
func (s *Store) SaveOptions(values map[string]string) error {
	data, err := json.Marshal(values)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyOptions), data)
	})
}

// SaveOption updates a single persisted option.
func (s *Store) SaveOption(name, value string) error {
	values, err := s.LoadOptions()
	if err != nil {
		return err
	}
	values[name] = value
	return s.SaveOptions(values)
}

// LoadOptions returns the persisted option values, empty if none were saved.
func (s *Store) LoadOptions() (map[string]string, error) {
	values := make(map[string]string)

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyOptions))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &values)
		})
	})
	return values, err
}

// RecordSearch journals rec, assigning an ID and time when unset.
func (s *Store) RecordSearch(rec SearchRecord) (SearchRecord, error) {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.Time.IsZero() {
		rec.Time = time.Now()
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return rec, err
	}
	packed := s.encoder.EncodeAll(data, nil)
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(searchKey(rec.ID), packed)
	})
	return rec, err
}

// Search returns the journaled search with the given id.
func (s *Store) Search(id uuid.UUID) (SearchRecord, error) {
	var rec SearchRecord
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(searchKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("search %s: %w", id, ErrNotFound)
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return s.decode(val, &rec)
		})
	})
	return rec, err
}

// RecentSearches returns up to n journaled searches, newest first.
func (s *Store) RecentSearches(n int) ([]SearchRecord, error) {
	var out []SearchRecord
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(searchPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var rec SearchRecord
			if err := it.Item().Value(func(val []byte) error {
				return s.decode(val, &rec)
			}); err != nil {
				return err
			}
			out = append(out, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Time.After(out[j].Time) })
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out, nil
}

func (s *Store) decode(val []byte, rec *SearchRecord) error {
	data, err := s.decoder.DecodeAll(val, nil)
	if err != nil {
		return fmt.Errorf("decompress search record: %w", err)
	}
	return json.Unmarshal(data, rec)
}

func searchKey(id uuid.UUID) []byte {
	return []byte(searchPrefix + id.String())
}
