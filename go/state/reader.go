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
	"errors"
	"fmt"

	"github.com/animica/execution/go/chain"
)

// storeReader adapts a Store holding the canonical state layout to the
// Reader interface.
type storeReader struct {
	store Store
}

// NewStateReader creates a Reader on the committed state held by the store.
func NewStateReader(store Store) Reader {
	return storeReader{store: store}
}

func (r storeReader) ReadAccount(addr chain.Address) (Account, bool, error) {
	data, err := r.store.Get(accountKey(addr))
	if errors.Is(err, ErrNotFound) {
		return Account{}, false, nil
	}
	if err != nil {
		return Account{}, false, fmt.Errorf("failed to read account %v: %w", addr, err)
	}
	account, err := decodeAccount(data)
	if err != nil {
		return Account{}, false, fmt.Errorf("failed to decode account %v: %w", addr, err)
	}
	return account, true, nil
}

func (r storeReader) ReadCode(addr chain.Address) (chain.Code, error) {
	data, err := r.store.Get(codeKey(addr))
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read code of %v: %w", addr, err)
	}
	return chain.Code(data), nil
}

func (r storeReader) ReadStorage(addr chain.Address, key chain.Key) (chain.Word, error) {
	data, err := r.store.Get(storageKey(addr, key))
	if errors.Is(err, ErrNotFound) {
		return chain.Word{}, nil
	}
	if err != nil {
		return chain.Word{}, fmt.Errorf("failed to read storage %v/%v: %w", addr, key, err)
	}
	word, err := decodeWord(data)
	if err != nil {
		return chain.Word{}, fmt.Errorf("failed to decode storage %v/%v: %w", addr, key, err)
	}
	return word, nil
}
