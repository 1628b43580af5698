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

import (
	"errors"
	"fmt"
	"testing"
)

func TestConstError_Error(t *testing.T) {
	const myError = ConstError("this is a constant error")

	if myError.Error() != "this is a constant error" {
		t.Errorf("expected 'this is a constant error', got '%s'", myError.Error())
	}
	if !errors.Is(myError, ConstError("this is a constant error")) {
		t.Errorf("expected true, got false")
	}
}

func TestConstError_WrappedErrorsCanBeIdentified(t *testing.T) {
	all := []error{
		ErrOutOfGas,
		ErrInsufficientBalance,
		ErrRevert,
		ErrConflictDetected,
		ErrEncoding,
		ErrNonDeterministic,
		ErrInvalidNonce,
		ErrGasUintOverflow,
		ErrBlockGasLimitReached,
		ErrDivergence,
	}
	for i, want := range all {
		wrapped := fmt.Errorf("context: %w", want)
		for j, other := range all {
			if got := errors.Is(wrapped, other); got != (i == j) {
				t.Errorf("errors.Is(%v, %v) = %t", wrapped, other, got)
			}
		}
	}
}
