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
	"fmt"
	"slices"

	"github.com/animica/execution/go/chain"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/trie"
)

// Root computes the state root of the state held by the store after
// applying the given writes. The root is the hash of a trie mapping the
// keccak256 hash of each canonical state key to its canonical value.
func Root(store Store, writes []Write) (chain.Hash, error) {
	entries := map[string][]byte{}
	for _, prefix := range statePrefixes {
		err := store.ForEach(prefix, func(key, value []byte) error {
			entries[string(key)] = bytes.Clone(value)
			return nil
		})
		if err != nil {
			return chain.Hash{}, fmt.Errorf("failed to iterate state: %w", err)
		}
	}
	for _, w := range writes {
		if w.Value == nil {
			delete(entries, string(w.Key))
		} else {
			entries[string(w.Key)] = w.Value
		}
	}

	type leaf struct {
		hash  []byte
		value []byte
	}
	leaves := make([]leaf, 0, len(entries))
	for key, value := range entries {
		if len(value) == 0 {
			continue
		}
		leaves = append(leaves, leaf{crypto.Keccak256([]byte(key)), value})
	}
	slices.SortFunc(leaves, func(a, b leaf) int {
		return bytes.Compare(a.hash, b.hash)
	})

	st := trie.NewStackTrie(nil)
	for _, l := range leaves {
		if err := st.Update(l.hash, l.value); err != nil {
			return chain.Hash{}, fmt.Errorf("failed to build state trie: %w", err)
		}
	}
	return chain.Hash(st.Hash()), nil
}
