// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package state

import (
	"bytes"
	"slices"
	"strings"
	"sync"

	"github.com/animica/execution/go/chain"
)

//go:generate mockgen -source store.go -destination store_mock.go -package state

const ErrNotFound = chain.ConstError("not found")

// Write is a single update of a store. A nil value deletes the key.
type Write struct {
	Key   []byte
	Value []byte
}

// Store is the key/value adapter to the persistent state. It is the source
// of truth for all state not present in a journal and the sole durable sink
// of completed blocks. Implementations must be safe for concurrent reads.
type Store interface {
	// Get returns the value stored for the key or ErrNotFound.
	Get(key []byte) ([]byte, error)
	// BatchCommit atomically applies the given writes.
	BatchCommit(writes []Write) error
	// ForEach visits all entries whose key starts with the given prefix in
	// ascending key order. The visited slices are only valid during the call.
	ForEach(prefix []byte, visit func(key, value []byte) error) error
	Close() error
}

// memoryStore is an in-memory Store used for tests and tooling.
type memoryStore struct {
	mu    sync.RWMutex
	store map[string][]byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() Store {
	return &memoryStore{store: map[string][]byte{}}
}

func (s *memoryStore) Get(key []byte) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.store[string(key)]
	if !ok {
		return nil, ErrNotFound
	}
	return bytes.Clone(value), nil
}

func (s *memoryStore) BatchCommit(writes []Write) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, w := range writes {
		if w.Value == nil {
			delete(s.store, string(w.Key))
		} else {
			s.store[string(w.Key)] = bytes.Clone(w.Value)
		}
	}
	return nil
}

func (s *memoryStore) ForEach(prefix []byte, visit func(key, value []byte) error) error {
	s.mu.RLock()
	keys := make([]string, 0, len(s.store))
	for key := range s.store {
		if strings.HasPrefix(key, string(prefix)) {
			keys = append(keys, key)
		}
	}
	slices.Sort(keys)
	values := make([][]byte, len(keys))
	for i, key := range keys {
		values[i] = s.store[key]
	}
	s.mu.RUnlock()

	for i, key := range keys {
		if err := visit([]byte(key), values[i]); err != nil {
			return err
		}
	}
	return nil
}

func (s *memoryStore) Close() error {
	return nil
}
