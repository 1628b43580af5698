// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package processor

import (
	"fmt"
	"math"

	"github.com/animica/execution/go/chain"
)

// GasPool tracks the amount of gas available to the transactions of a block.
type GasPool uint64

// AddGas makes gas available for execution.
func (gp *GasPool) AddGas(amount chain.Gas) *GasPool {
	if uint64(*gp) > math.MaxUint64-uint64(amount) {
		panic("gas pool pushed above uint64")
	}
	*(*uint64)(gp) += uint64(amount)
	return gp
}

// SubGas deducts the given amount from the pool if enough gas is
// available and returns an error otherwise.
func (gp *GasPool) SubGas(amount chain.Gas) error {
	if uint64(*gp) < uint64(amount) {
		return fmt.Errorf("%w: have %d, want %d", chain.ErrBlockGasLimitReached, uint64(*gp), amount)
	}
	*(*uint64)(gp) -= uint64(amount)
	return nil
}

// Gas returns the amount of gas remaining in the pool.
func (gp *GasPool) Gas() chain.Gas {
	return chain.Gas(*gp)
}

func (gp *GasPool) String() string {
	return fmt.Sprintf("%d", *gp)
}
