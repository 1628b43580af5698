// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package block

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/animica/execution/go/chain"
	"github.com/animica/execution/go/state"
)

// GenesisAccount describes the initial content of an account.
type GenesisAccount struct {
	Balance chain.Value              `json:"balance"`
	Nonce   uint64                   `json:"nonce,omitempty"`
	Code    chain.Code               `json:"code,omitempty"`
	Storage map[chain.Key]chain.Word `json:"storage,omitempty"`
}

// Genesis describes the state before the first block.
type Genesis struct {
	ChainID uint64                           `json:"chainId"`
	Alloc   map[chain.Address]GenesisAccount `json:"alloc"`
}

// LoadGenesis reads a genesis description from a JSON file.
func LoadGenesis(path string) (*Genesis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var genesis Genesis
	if err := json.Unmarshal(data, &genesis); err != nil {
		return nil, fmt.Errorf("failed to parse genesis %s: %w", path, err)
	}
	return &genesis, nil
}

// Commit writes the genesis state into the given store and returns the
// resulting state root.
func (g *Genesis) Commit(store state.Store) (chain.Hash, error) {
	journal := state.NewJournal(state.NewStateReader(store))
	for addr, account := range g.Alloc {
		journal.SetBalance(addr, account.Balance)
		journal.SetNonce(addr, account.Nonce)
		if len(account.Code) > 0 {
			journal.SetCode(addr, account.Code)
		}
		for key, value := range account.Storage {
			journal.SetStorage(addr, key, value)
		}
	}
	if err := journal.Err(); err != nil {
		return chain.Hash{}, fmt.Errorf("failed to read state: %w", err)
	}
	writes, err := journal.Writes()
	if err != nil {
		return chain.Hash{}, err
	}
	root, err := state.Root(store, writes)
	if err != nil {
		return chain.Hash{}, err
	}
	if err := store.BatchCommit(writes); err != nil {
		return chain.Hash{}, fmt.Errorf("failed to commit genesis: %w", err)
	}
	return root, nil
}
