// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package gas implements the per-transaction gas accounting.
package gas

import (
	"math/bits"

	"github.com/animica/execution/go/chain"
	"github.com/animica/execution/go/params"
)

// ErrAlreadyFinalized is returned when a meter is used after Finalize.
const ErrAlreadyFinalized = chain.ConstError("gas meter already finalized")

// Meter tracks the gas consumption of a single transaction against its
// limit. Consumption never decreases and never exceeds the limit. Refunds
// are collected in a counter saturating at the maximum refund and applied
// exactly once by Finalize.
//
// A Meter is owned by a single transaction and is not safe for concurrent
// use.
type Meter struct {
	limit     chain.Gas
	consumed  chain.Gas
	refund    chain.Gas
	quotient  uint64
	maxRefund chain.Gas
	finalized bool
}

// NewMeter creates a meter for a transaction with the given gas limit.
func NewMeter(limit chain.Gas, p params.Params) *Meter {
	quotient := p.RefundQuotient
	if quotient == 0 {
		quotient = 1
	}
	return &Meter{
		limit:     limit,
		quotient:  quotient,
		maxRefund: p.MaxRefund,
	}
}

// Charge consumes the given amount of gas. If the limit would be exceeded,
// all the remaining gas is consumed and ErrOutOfGas is returned.
func (m *Meter) Charge(amount chain.Gas) error {
	if m.finalized {
		return ErrAlreadyFinalized
	}
	sum, carry := bits.Add64(uint64(m.consumed), uint64(amount), 0)
	if carry != 0 || chain.Gas(sum) > m.limit {
		m.consumed = m.limit
		return chain.ErrOutOfGas
	}
	m.consumed = chain.Gas(sum)
	return nil
}

// Refund registers gas to be returned to the sender at the end of the
// transaction. The counter saturates at the maximum refund.
func (m *Meter) Refund(amount chain.Gas) {
	if m.finalized {
		return
	}
	sum, carry := bits.Add64(uint64(m.refund), uint64(amount), 0)
	if carry != 0 || chain.Gas(sum) > m.maxRefund {
		m.refund = m.maxRefund
		return
	}
	m.refund = chain.Gas(sum)
}

// DiscardRefund drops all refunds collected so far. It is used when the
// effects the refunds were granted for are reverted.
func (m *Meter) DiscardRefund() {
	if !m.finalized {
		m.refund = 0
	}
}

// Exhaust consumes all remaining gas.
func (m *Meter) Exhaust() {
	if !m.finalized {
		m.consumed = m.limit
	}
}

// Limit returns the gas the meter was created with.
func (m *Meter) Limit() chain.Gas {
	return m.limit
}

func (m *Meter) Remaining() chain.Gas {
	return m.limit - m.consumed
}

func (m *Meter) Consumed() chain.Gas {
	return m.consumed
}

// PendingRefund returns the refund collected so far, before capping.
func (m *Meter) PendingRefund() chain.Gas {
	return m.refund
}

// Finalize applies the refund and returns the gas used by the transaction.
// The applied refund is min(refund, consumed/quotient, maxRefund). The
// meter may only be finalized once; further calls return
// ErrAlreadyFinalized and the meter rejects any further charges.
func (m *Meter) Finalize() (chain.Gas, error) {
	if m.finalized {
		return 0, ErrAlreadyFinalized
	}
	m.finalized = true
	applied := min(m.refund, m.consumed/chain.Gas(m.quotient), m.maxRefund)
	return m.consumed - applied, nil
}
