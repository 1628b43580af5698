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
	"fmt"

	"github.com/animica/execution/go/chain"
)

// Detector checks transactions of a group in block order against all
// earlier transactions of the same group. A transaction conflicts if it
// read a key written by an earlier transaction, or wrote a key read or
// written by an earlier transaction. Later transactions never cause a
// conflict of an earlier one.
type Detector struct {
	reads  Set
	writes Set
}

func NewDetector() *Detector {
	return &Detector{reads: Set{}, writes: Set{}}
}

// Check reports ErrConflictDetected if the given set overlaps with the sets
// of the transactions recorded so far.
func (d *Detector) Check(rw RWSet) error {
	for k := range rw.Reads {
		if d.writes.Contains(k) {
			return fmt.Errorf("%w: read of %v written earlier", chain.ErrConflictDetected, k)
		}
	}
	for k := range rw.Writes {
		if d.writes.Contains(k) || d.reads.Contains(k) {
			return fmt.Errorf("%w: write of %v accessed earlier", chain.ErrConflictDetected, k)
		}
	}
	return nil
}

// Record adds the sets of a transaction as executed. Transactions have to
// be recorded in block order.
func (d *Detector) Record(rw RWSet) {
	d.reads.AddAll(rw.Reads)
	d.writes.AddAll(rw.Writes)
}

// Conflicts reports whether the transaction with the given index in the
// list conflicts with any earlier one.
func Conflicts(sets []RWSet, index int) bool {
	d := NewDetector()
	for _, rw := range sets[:index] {
		d.Record(rw)
	}
	return d.Check(sets[index]) != nil
}
