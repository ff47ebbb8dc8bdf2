// Package store implements a flat-file JSON record store: named
// collections of id-keyed records persisted as a single document.
// Every mutating operation durably rewrites the whole snapshot before
// returning, so the on-disk document is always a committed state.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Well-known collection names.
const (
	Users        = "users"
	Products     = "products"
	Categories   = "categories"
	Transactions = "transactions"
)

// Record is a single stored document, keyed by its "id" field.
type Record = map[string]interface{}

// ErrNotFound indicates the record id does not exist in the collection.
var ErrNotFound = errors.New("record not found")

// StorageError wraps a failed durable write. When it is returned the
// in-memory state has been restored, so memory and disk still agree.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return fmt.Sprintf("store %s: %v", e.Op, e.Err) }
func (e *StorageError) Unwrap() error { return e.Err }

// Store owns all records exclusively: callers always receive copies and
// every mutation re-fetches by id. A single mutex enforces the
// one-writer-at-a-time discipline across all collections.
type Store struct {
	mu   sync.Mutex
	path string
	data map[string][]Record
}

// Open loads the document at path, or initializes an empty store (and
// writes it) when the file does not exist yet.
func Open(path string) (*Store, error) {
	s := &Store{
		path: path,
		data: map[string][]Record{
			Users:        {},
			Products:     {},
			Categories:   {},
			Transactions: {},
		},
	}

	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(raw, &s.data); err != nil {
			return nil, fmt.Errorf("parse store document %s: %w", path, err)
		}
	case os.IsNotExist(err):
		if err := s.persistLocked(); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("read store document %s: %w", path, err)
	}

	return s, nil
}

// Get returns the records of a collection in insertion order. An absent
// collection reads as empty.
func (s *Store) Get(collection string) []Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.data[collection]
	out := make([]Record, 0, len(list))
	for _, rec := range list {
		out = append(out, cloneRecord(rec))
	}
	return out
}

// FindByID returns the record with the given id, or ErrNotFound.
func (s *Store) FindByID(collection, id string) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, rec := s.findLocked(collection, id)
	if rec == nil {
		return nil, ErrNotFound
	}
	return cloneRecord(rec), nil
}

// Add appends the record to the collection and persists the snapshot.
// The caller supplies a pre-populated "id" field.
func (s *Store) Add(collection string, rec Record) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[collection] = append(s.data[collection], cloneRecord(rec))
	if err := s.persistLocked(); err != nil {
		// Undo the append so memory matches the still-authoritative disk state.
		s.data[collection] = s.data[collection][:len(s.data[collection])-1]
		return nil, err
	}
	return cloneRecord(rec), nil
}

// Update shallow-merges the patch into the record with the given id:
// fields present in the patch replace wholly, unspecified fields
// survive. Returns the merged record, or ErrNotFound.
func (s *Store) Update(collection, id string, patch Record) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, existing := s.findLocked(collection, id)
	if existing == nil {
		return nil, ErrNotFound
	}

	merged := cloneRecord(existing)
	for k, v := range patch {
		merged[k] = v
	}

	s.data[collection][idx] = merged
	if err := s.persistLocked(); err != nil {
		s.data[collection][idx] = existing
		return nil, err
	}
	return cloneRecord(merged), nil
}

// Remove deletes the record in place and persists. Returns the removed
// record, or ErrNotFound.
func (s *Store) Remove(collection, id string) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, existing := s.findLocked(collection, id)
	if existing == nil {
		return nil, ErrNotFound
	}

	list := s.data[collection]
	s.data[collection] = append(list[:idx:idx], list[idx+1:]...)
	if err := s.persistLocked(); err != nil {
		restored := make([]Record, 0, len(list))
		restored = append(restored, s.data[collection][:idx]...)
		restored = append(restored, existing)
		restored = append(restored, s.data[collection][idx:]...)
		s.data[collection] = restored
		return nil, err
	}
	return cloneRecord(existing), nil
}

func (s *Store) findLocked(collection, id string) (int, Record) {
	for i, rec := range s.data[collection] {
		if v, ok := rec["id"].(string); ok && v == id {
			return i, rec
		}
	}
	return -1, nil
}

// persistLocked writes the whole snapshot to a temp file in the target
// directory, fsyncs it, and renames it over the document. The rename
// makes the switch atomic: a failed write leaves the prior document
// authoritative.
func (s *Store) persistLocked() error {
	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return &StorageError{Op: "encode", Err: err}
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return &StorageError{Op: "create temp", Err: err}
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return &StorageError{Op: "write", Err: err}
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return &StorageError{Op: "sync", Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return &StorageError{Op: "close", Err: err}
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return &StorageError{Op: "rename", Err: err}
	}
	return nil
}

func cloneRecord(rec Record) Record {
	out := make(Record, len(rec))
	for k, v := range rec {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		return cloneRecord(t)
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}
