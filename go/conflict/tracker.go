// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package conflict

import (
	"github.com/animica/execution/go/chain"
	"github.com/animica/execution/go/state"
)

// Tracker is a state.Reader recording all keys read through it. It is
// placed between a speculative journal and the shared state so that only
// reads of state not written by the transaction itself are recorded.
//
// A Tracker is used by a single goroutine.
type Tracker struct {
	reader state.Reader
	reads  Set
}

func NewTracker(reader state.Reader) *Tracker {
	return &Tracker{reader: reader, reads: Set{}}
}

// Reads returns the keys read so far.
func (t *Tracker) Reads() Set {
	return t.reads
}

func (t *Tracker) ReadAccount(addr chain.Address) (state.Account, bool, error) {
	t.reads.Add(AccountKeyOf(addr))
	return t.reader.ReadAccount(addr)
}

func (t *Tracker) ReadCode(addr chain.Address) (chain.Code, error) {
	t.reads.Add(CodeKeyOf(addr))
	return t.reader.ReadCode(addr)
}

func (t *Tracker) ReadStorage(addr chain.Address, key chain.Key) (chain.Word, error) {
	t.reads.Add(StorageKeyOf(addr, key))
	return t.reader.ReadStorage(addr, key)
}
