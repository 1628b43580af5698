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
	"errors"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// cachedStore wraps a Store with an LRU cache of read results, including
// misses. The cache is updated with every committed batch.
type cachedStore struct {
	store Store
	cache *lru.Cache[string, cachedValue]
}

type cachedValue struct {
	value []byte
	found bool
}

// NewCachedStore adds a read cache of the given number of entries to a
// store. Closing the cached store closes the wrapped store.
func NewCachedStore(store Store, size int) (Store, error) {
	cache, err := lru.New[string, cachedValue](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create store cache: %w", err)
	}
	return &cachedStore{store: store, cache: cache}, nil
}

func (s *cachedStore) Get(key []byte) ([]byte, error) {
	if entry, found := s.cache.Get(string(key)); found {
		if !entry.found {
			return nil, ErrNotFound
		}
		return bytes.Clone(entry.value), nil
	}
	value, err := s.store.Get(key)
	if errors.Is(err, ErrNotFound) {
		s.cache.Add(string(key), cachedValue{})
		return nil, err
	}
	if err != nil {
		return nil, err
	}
	s.cache.Add(string(key), cachedValue{value: bytes.Clone(value), found: true})
	return value, nil
}

func (s *cachedStore) BatchCommit(writes []Write) error {
	if err := s.store.BatchCommit(writes); err != nil {
		s.cache.Purge()
		return err
	}
	for _, w := range writes {
		if w.Value == nil {
			s.cache.Add(string(w.Key), cachedValue{})
		} else {
			s.cache.Add(string(w.Key), cachedValue{value: bytes.Clone(w.Value), found: true})
		}
	}
	return nil
}

func (s *cachedStore) ForEach(prefix []byte, visit func(key, value []byte) error) error {
	return s.store.ForEach(prefix, visit)
}

func (s *cachedStore) Close() error {
	s.cache.Purge()
	return s.store.Close()
}
