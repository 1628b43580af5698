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
	"github.com/animica/execution/go/chain"
	"github.com/ethereum/go-ethereum/crypto"
)

// ErrInvalidScope is returned for scope ids which are unknown or have
// already been closed.
const ErrInvalidScope = chain.ConstError("invalid scope")

// Journal is an overlay on a committed state recording every mutation as an
// undoable entry. Scopes are checkpoints into the linear list of entries;
// reverting a scope undoes all entries recorded since it was opened, in
// reverse order.
//
// Reads observe the nearest pending write or fall through to the
// underlying reader. Writes never reach the reader; the accumulated
// overlay is exported through Writes and Changes.
//
// A Journal is not safe for concurrent mutation. Its Read* methods may be
// used concurrently as long as no mutation is happening.
type Journal struct {
	reader Reader

	accounts map[chain.Address]Account
	codes    map[chain.Address]chain.Code
	storage  map[slotKey]chain.Word

	entries   []entry
	scopes    []scope
	nextScope chain.ScopeID

	err error
}

type slotKey struct {
	addr chain.Address
	key  chain.Key
}

type scope struct {
	id   chain.ScopeID
	mark int
}

type entryKind uint8

const (
	accountChange entryKind = iota
	codeChange
	storageChange
)

// entry records the overlay state of a single key before a mutation.
// inOverlay is false if the key had no overlay value, in which case undoing
// the entry removes it from the overlay again.
type entry struct {
	kind      entryKind
	inOverlay bool
	addr      chain.Address
	key       chain.Key
	account   Account
	code      chain.Code
	word      chain.Word
}

// NewJournal creates an empty journal on top of the given committed state.
func NewJournal(reader Reader) *Journal {
	return &Journal{
		reader:   reader,
		accounts: map[chain.Address]Account{},
		codes:    map[chain.Address]chain.Code{},
		storage:  map[slotKey]chain.Word{},
	}
}

// Err returns the first error encountered while reading from the
// underlying state. Such errors are fatal for the block being executed.
func (j *Journal) Err() error {
	return j.err
}

func (j *Journal) recordError(err error) {
	if err != nil && j.err == nil {
		j.err = err
	}
}

// Depth returns the number of open scopes.
func (j *Journal) Depth() int {
	return len(j.scopes)
}

func (j *Journal) OpenScope() chain.ScopeID {
	j.nextScope++
	j.scopes = append(j.scopes, scope{id: j.nextScope, mark: len(j.entries)})
	return j.nextScope
}

func (j *Journal) CommitScope(id chain.ScopeID) error {
	pos, err := j.findScope(id)
	if err != nil {
		return err
	}
	j.scopes = j.scopes[:pos]
	if len(j.scopes) == 0 {
		// Nothing can be reverted anymore.
		clear(j.entries)
		j.entries = j.entries[:0]
	}
	return nil
}

func (j *Journal) RevertScope(id chain.ScopeID) error {
	pos, err := j.findScope(id)
	if err != nil {
		return err
	}
	mark := j.scopes[pos].mark
	for i := len(j.entries) - 1; i >= mark; i-- {
		j.undo(&j.entries[i])
		j.entries[i] = entry{}
	}
	j.entries = j.entries[:mark]
	j.scopes = j.scopes[:pos]
	return nil
}

func (j *Journal) findScope(id chain.ScopeID) (int, error) {
	for i := len(j.scopes) - 1; i >= 0; i-- {
		if j.scopes[i].id == id {
			return i, nil
		}
	}
	return 0, ErrInvalidScope
}

func (j *Journal) undo(e *entry) {
	switch e.kind {
	case accountChange:
		if e.inOverlay {
			j.accounts[e.addr] = e.account
		} else {
			delete(j.accounts, e.addr)
		}
	case codeChange:
		if e.inOverlay {
			j.codes[e.addr] = e.code
		} else {
			delete(j.codes, e.addr)
		}
	case storageChange:
		slot := slotKey{e.addr, e.key}
		if e.inOverlay {
			j.storage[slot] = e.word
		} else {
			delete(j.storage, slot)
		}
	}
}

// --- reads ---

func (j *Journal) ReadAccount(addr chain.Address) (Account, bool, error) {
	if account, found := j.accounts[addr]; found {
		return account, true, nil
	}
	return j.reader.ReadAccount(addr)
}

func (j *Journal) ReadCode(addr chain.Address) (chain.Code, error) {
	if code, found := j.codes[addr]; found {
		return code, nil
	}
	return j.reader.ReadCode(addr)
}

func (j *Journal) ReadStorage(addr chain.Address, key chain.Key) (chain.Word, error) {
	if word, found := j.storage[slotKey{addr, key}]; found {
		return word, nil
	}
	return j.reader.ReadStorage(addr, key)
}

func (j *Journal) getAccount(addr chain.Address) (Account, bool) {
	account, found, err := j.ReadAccount(addr)
	j.recordError(err)
	return account, found
}

func (j *Journal) AccountExists(addr chain.Address) bool {
	_, found := j.getAccount(addr)
	return found
}

func (j *Journal) GetBalance(addr chain.Address) chain.Value {
	account, _ := j.getAccount(addr)
	return account.Balance
}

func (j *Journal) GetNonce(addr chain.Address) uint64 {
	account, _ := j.getAccount(addr)
	return account.Nonce
}

func (j *Journal) GetCode(addr chain.Address) chain.Code {
	code, err := j.ReadCode(addr)
	j.recordError(err)
	return code
}

func (j *Journal) GetCodeHash(addr chain.Address) chain.Hash {
	code := j.GetCode(addr)
	if len(code) == 0 {
		return chain.Hash{}
	}
	return chain.Hash(crypto.Keccak256Hash(code))
}

func (j *Journal) GetStorage(addr chain.Address, key chain.Key) chain.Word {
	word, err := j.ReadStorage(addr, key)
	j.recordError(err)
	return word
}

// --- writes ---

// record appends an undo entry. Outside of any scope, there is nothing a
// change could be reverted to.
func (j *Journal) record(e entry) {
	if len(j.scopes) > 0 {
		j.entries = append(j.entries, e)
	}
}

func (j *Journal) SetBalance(addr chain.Address, value chain.Value) {
	account, _ := j.getAccount(addr)
	account.Balance = value
	j.setAccount(addr, account)
}

func (j *Journal) SetNonce(addr chain.Address, nonce uint64) {
	account, _ := j.getAccount(addr)
	account.Nonce = nonce
	j.setAccount(addr, account)
}

func (j *Journal) setAccount(addr chain.Address, account Account) {
	prev, inOverlay := j.accounts[addr]
	j.record(entry{
		kind:      accountChange,
		inOverlay: inOverlay,
		addr:      addr,
		account:   prev,
	})
	j.accounts[addr] = account
}

func (j *Journal) SetCode(addr chain.Address, code chain.Code) {
	prev, inOverlay := j.codes[addr]
	j.record(entry{
		kind:      codeChange,
		inOverlay: inOverlay,
		addr:      addr,
		code:      prev,
	})
	j.codes[addr] = append(chain.Code(nil), code...)
}

func (j *Journal) SetStorage(addr chain.Address, key chain.Key, value chain.Word) chain.StorageStatus {
	current := j.GetStorage(addr, key)
	slot := slotKey{addr, key}
	prev, inOverlay := j.storage[slot]
	j.record(entry{
		kind:      storageChange,
		inOverlay: inOverlay,
		addr:      addr,
		key:       key,
		word:      prev,
	})
	j.storage[slot] = value
	return chain.GetStorageStatus(current, value)
}
