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

// ConstError is an error type that can be used to define immutable
// error constants.
type ConstError string

func (e ConstError) Error() string {
	return string(e)
}

const (
	// ErrOutOfGas signals that a transaction tried to consume more gas than
	// its limit allows.
	ErrOutOfGas = ConstError("out of gas")

	// ErrInsufficientBalance signals that an account can not cover a debit.
	ErrInsufficientBalance = ConstError("insufficient balance")

	// ErrRevert signals a contract-triggered abort of a call.
	ErrRevert = ConstError("execution reverted")

	// ErrConflictDetected signals overlapping read/write sets between
	// speculative executions. It never leaves the scheduler.
	ErrConflictDetected = ConstError("conflict detected")

	// ErrEncoding signals malformed input to a codec or a program.
	ErrEncoding = ConstError("encoding error")

	// ErrNonDeterministic signals behavior threatening identical results on
	// all nodes. It is fatal for the whole block.
	ErrNonDeterministic = ConstError("non-deterministic execution")

	ErrInvalidNonce         = ConstError("nonce mismatch")
	ErrGasUintOverflow      = ConstError("gas uint64 overflow")
	ErrBlockGasLimitReached = ConstError("block gas limit reached")
	ErrDivergence           = ConstError("optimistic result diverges from serial execution")
)
