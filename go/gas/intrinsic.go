// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package gas

import (
	"math"

	"github.com/animica/execution/go/chain"
	"github.com/animica/execution/go/params"
)

// IntrinsicGas computes the gas charged for a transaction before any of its
// logic is executed. It only depends on the kind, the input and the access
// list of the transaction.
func IntrinsicGas(tx *chain.Transaction, p params.Params) (chain.Gas, error) {
	var gas uint64
	if tx.Kind == chain.Deploy {
		gas = uint64(p.TxGasContractCreation)
	} else {
		gas = uint64(p.TxGas)
	}

	dataLen := uint64(len(tx.Input))
	if dataLen > 0 {
		var nz uint64
		for _, b := range tx.Input {
			if b != 0 {
				nz++
			}
		}
		var err error
		if gas, err = addProduct(gas, nz, uint64(p.TxDataNonZeroGas)); err != nil {
			return 0, err
		}
		if gas, err = addProduct(gas, dataLen-nz, uint64(p.TxDataZeroGas)); err != nil {
			return 0, err
		}
	}

	if p.AccessListsEnabled() && len(tx.AccessList) > 0 {
		var keys uint64
		for _, tuple := range tx.AccessList {
			keys += uint64(len(tuple.Keys))
		}
		var err error
		if gas, err = addProduct(gas, uint64(len(tx.AccessList)), uint64(p.TxAccessListAddressGas)); err != nil {
			return 0, err
		}
		if gas, err = addProduct(gas, keys, uint64(p.TxAccessListStorageKeyGas)); err != nil {
			return 0, err
		}
	}
	return chain.Gas(gas), nil
}

// addProduct computes gas + count*price, failing on uint64 overflow.
func addProduct(gas, count, price uint64) (uint64, error) {
	if price != 0 && (math.MaxUint64-gas)/price < count {
		return 0, chain.ErrGasUintOverflow
	}
	return gas + count*price, nil
}
