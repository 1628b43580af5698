// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package conflict records the state keys observed and modified by
// speculative transaction executions and detects overlaps between them.
package conflict

import (
	"fmt"

	"github.com/animica/execution/go/chain"
	"github.com/animica/execution/go/state"
)

// KeyKind distinguishes the parts of the state a Key refers to.
type KeyKind uint8

const (
	AccountKey KeyKind = iota
	CodeKey
	StorageKey
)

// Key identifies an account, the code of an account or a single storage
// slot. Balance and nonce share the account key.
type Key struct {
	Kind    KeyKind
	Address chain.Address
	Slot    chain.Key
}

func AccountKeyOf(addr chain.Address) Key {
	return Key{Kind: AccountKey, Address: addr}
}

func CodeKeyOf(addr chain.Address) Key {
	return Key{Kind: CodeKey, Address: addr}
}

func StorageKeyOf(addr chain.Address, slot chain.Key) Key {
	return Key{Kind: StorageKey, Address: addr, Slot: slot}
}

func (k Key) String() string {
	switch k.Kind {
	case AccountKey:
		return fmt.Sprintf("account(%v)", k.Address)
	case CodeKey:
		return fmt.Sprintf("code(%v)", k.Address)
	default:
		return fmt.Sprintf("storage(%v/%v)", k.Address, k.Slot)
	}
}

// Set is a set of state keys.
type Set map[Key]struct{}

func (s Set) Add(k Key) {
	s[k] = struct{}{}
}

func (s Set) Contains(k Key) bool {
	_, found := s[k]
	return found
}

// Intersects is true if the two sets share at least one key.
func (s Set) Intersects(other Set) bool {
	small, large := s, other
	if len(small) > len(large) {
		small, large = large, small
	}
	for k := range small {
		if large.Contains(k) {
			return true
		}
	}
	return false
}

// AddAll adds all keys of the other set.
func (s Set) AddAll(other Set) {
	for k := range other {
		s.Add(k)
	}
}

// RWSet is the read and write set of a single transaction execution.
type RWSet struct {
	Reads  Set
	Writes Set
}

// WritesOf lists the keys modified by the given changes.
func WritesOf(changes state.ChangeSet) Set {
	res := make(Set, len(changes.Accounts)+len(changes.Codes)+len(changes.Storage))
	for _, change := range changes.Accounts {
		res.Add(AccountKeyOf(change.Address))
	}
	for _, change := range changes.Codes {
		res.Add(CodeKeyOf(change.Address))
	}
	for _, change := range changes.Storage {
		res.Add(StorageKeyOf(change.Address, change.Key))
	}
	return res
}
