// Package cache provides pluggable storage for attacker-node evaluations
// keyed by Zobrist hash. A tinueEvaluate call (road search plus a tak-threat
// search) is the expensive part of a proof-number search; a Store lets that
// work survive across Search instances, not just within one.
package cache

import (
	"encoding/binary"
	"encoding/json"

	"github.com/dgraph-io/badger/v4"

	"github.com/corvidae/takproof/pkg/board"
)

// AttackerOutcome is the persisted form of an attacker-node evaluation: a
// road win if one exists, else the set of tak threats.
type AttackerOutcome struct {
	HasRoad    bool
	Road       board.GameMove
	TakThreats []board.GameMove
}

// Store persists AttackerOutcome values keyed by Zobrist hash.
type Store interface {
	Get(hash board.ZobristHash) (AttackerOutcome, bool)
	Put(hash board.ZobristHash, outcome AttackerOutcome)
	Close() error
}

// MemStore is an in-memory Store. Not safe for concurrent use; a Search is
// single-threaded over its own board.
type MemStore struct {
	m map[board.ZobristHash]AttackerOutcome
}

// NewMemStore returns an empty in-memory Store.
func NewMemStore() *MemStore {
	return &MemStore{m: make(map[board.ZobristHash]AttackerOutcome)}
}

func (s *MemStore) Get(hash board.ZobristHash) (AttackerOutcome, bool) {
	o, ok := s.m[hash]
	return o, ok
}

func (s *MemStore) Put(hash board.ZobristHash, outcome AttackerOutcome) {
	s.m[hash] = outcome
}

func (s *MemStore) Close() error { return nil }

// BadgerStore persists attacker outcomes in a Badger key-value database, so
// repeated tinue runs over related or identical positions (the same
// opening explored from multiple commands, or a resumed analysis) reuse
// proof work instead of recomputing it.
type BadgerStore struct {
	db *badger.DB
}

// OpenBadgerStore opens (creating if needed) a Badger database at dir.
func OpenBadgerStore(dir string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &BadgerStore{db: db}, nil
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}

func (s *BadgerStore) Get(hash board.ZobristHash) (AttackerOutcome, bool) {
	var outcome AttackerOutcome
	found := false

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(keyFor(hash))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &outcome)
		})
	})
	if err != nil {
		return AttackerOutcome{}, false
	}
	return outcome, found
}

// Put stores outcome, silently dropping it on a marshal or write failure;
// the cache is an optimization, never a correctness requirement.
func (s *BadgerStore) Put(hash board.ZobristHash, outcome AttackerOutcome) {
	data, err := json.Marshal(outcome)
	if err != nil {
		return
	}
	_ = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(keyFor(hash), data)
	})
}

func keyFor(hash board.ZobristHash) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(hash))
	return b[:]
}
