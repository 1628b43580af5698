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
)

// ChangeSet is the exported overlay of a journal, listing the final value of
// every key written. Entries are sorted by address and key.
type ChangeSet struct {
	Accounts []AccountChange
	Codes    []CodeChange
	Storage  []StorageChange
}

type AccountChange struct {
	Address chain.Address
	Account Account
}

type CodeChange struct {
	Address chain.Address
	Code    chain.Code
}

type StorageChange struct {
	Address chain.Address
	Key     chain.Key
	Value   chain.Word
}

// IsEmpty is true if no changes are recorded.
func (c *ChangeSet) IsEmpty() bool {
	return len(c.Accounts) == 0 && len(c.Codes) == 0 && len(c.Storage) == 0
}

// Changes exports the current overlay of the journal.
func (j *Journal) Changes() ChangeSet {
	var res ChangeSet
	for addr, account := range j.accounts {
		res.Accounts = append(res.Accounts, AccountChange{Address: addr, Account: account})
	}
	for addr, code := range j.codes {
		res.Codes = append(res.Codes, CodeChange{Address: addr, Code: code})
	}
	for slot, value := range j.storage {
		res.Storage = append(res.Storage, StorageChange{Address: slot.addr, Key: slot.key, Value: value})
	}
	slices.SortFunc(res.Accounts, func(a, b AccountChange) int {
		return bytes.Compare(a.Address[:], b.Address[:])
	})
	slices.SortFunc(res.Codes, func(a, b CodeChange) int {
		return bytes.Compare(a.Address[:], b.Address[:])
	})
	slices.SortFunc(res.Storage, func(a, b StorageChange) int {
		if c := bytes.Compare(a.Address[:], b.Address[:]); c != 0 {
			return c
		}
		return bytes.Compare(a.Key[:], b.Key[:])
	})
	return res
}

// ApplyChanges performs the given changes as journaled writes. Changes of
// other journals can thereby be merged into this journal and undone by
// reverting an enclosing scope.
func (j *Journal) ApplyChanges(changes ChangeSet) {
	for _, change := range changes.Accounts {
		j.setAccount(change.Address, change.Account)
	}
	for _, change := range changes.Codes {
		j.SetCode(change.Address, change.Code)
	}
	for _, change := range changes.Storage {
		j.SetStorage(change.Address, change.Key, change.Value)
	}
}

// Fork creates an independent journal reading the same committed state and
// starting with a copy of this journal's overlay.
func (j *Journal) Fork() *Journal {
	res := NewJournal(j.reader)
	res.ApplyChanges(j.Changes())
	return res
}

// Writes produces the canonical store batch for the journal's overlay,
// sorted by key. Empty code and zero storage values are translated into
// deletions.
func (j *Journal) Writes() ([]Write, error) {
	changes := j.Changes()
	res := make([]Write, 0, len(changes.Accounts)+len(changes.Codes)+len(changes.Storage))
	for _, change := range changes.Accounts {
		data, err := encodeAccount(change.Account)
		if err != nil {
			return nil, fmt.Errorf("failed to encode account %v: %w", change.Address, err)
		}
		res = append(res, Write{Key: accountKey(change.Address), Value: data})
	}
	for _, change := range changes.Codes {
		var value []byte
		if len(change.Code) > 0 {
			value = bytes.Clone(change.Code)
		}
		res = append(res, Write{Key: codeKey(change.Address), Value: value})
	}
	for _, change := range changes.Storage {
		var value []byte
		if change.Value != (chain.Word{}) {
			data, err := encodeWord(change.Value)
			if err != nil {
				return nil, fmt.Errorf("failed to encode storage %v/%v: %w", change.Address, change.Key, err)
			}
			value = data
		}
		res = append(res, Write{Key: storageKey(change.Address, change.Key), Value: value})
	}
	slices.SortFunc(res, func(a, b Write) int {
		return bytes.Compare(a.Key, b.Key)
	})
	return res, nil
}
