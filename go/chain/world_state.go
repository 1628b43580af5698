// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package chain

import "fmt"

//go:generate mockgen -source world_state.go -destination world_state_mock.go -package chain

// WorldState is an interface to access and manipulate the state of the
// chain as seen by the execution of a transaction. All reads return the
// most recent visible value; all writes are pending until the enclosing
// scope is committed.
type WorldState interface {
	AccountExists(Address) bool

	GetBalance(Address) Value
	SetBalance(Address, Value)

	GetNonce(Address) uint64
	SetNonce(Address, uint64)

	GetCode(Address) Code
	GetCodeHash(Address) Hash
	SetCode(Address, Code)

	GetStorage(Address, Key) Word
	SetStorage(Address, Key, Word) StorageStatus
}

// ScopeID identifies a checkpoint in a state journal. Scopes nest; each
// transaction runs in its own scope and executables may open sub-scopes.
type ScopeID int

// StateView is the WorldState handed to executables. On top of plain state
// access it allows code to open nested scopes which can be committed or
// reverted atomically.
type StateView interface {
	WorldState

	// OpenScope creates a new checkpoint nested in all currently open ones.
	OpenScope() ScopeID
	// CommitScope keeps all changes made since the given scope was opened
	// and closes it, together with all scopes nested in it.
	CommitScope(ScopeID) error
	// RevertScope undoes all changes made since the given scope was opened
	// and closes it, together with all scopes nested in it.
	RevertScope(ScopeID) error
}

// StorageStatus is an enum utilized to indicate the effect of a storage
// slot update on the respective slot. It is used by executables to price
// storage writes.
type StorageStatus int

const (
	// <current> -> <new>, X, Z being distinct non-zero values
	StorageAssigned StorageStatus = iota // X -> X
	StorageAdded                         // 0 -> Z
	StorageDeleted                       // X -> 0
	StorageModified                      // X -> Z
)

func (s StorageStatus) String() string {
	switch s {
	case StorageAssigned:
		return "StorageAssigned"
	case StorageAdded:
		return "StorageAdded"
	case StorageDeleted:
		return "StorageDeleted"
	case StorageModified:
		return "StorageModified"
	default:
		return fmt.Sprintf("StorageStatus(%d)", int(s))
	}
}
