// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package params provides the immutable protocol parameters used by all
// execution components. A Params value is a snapshot; it is passed by value
// into every constructor and never modified during the execution of a block.
package params

import (
	"errors"
	"fmt"

	"github.com/animica/execution/go/chain"
)

// Params is the set of gas tables and limits of a protocol version.
type Params struct {
	Version ProtocolVersion `toml:"version"`

	// Intrinsic gas.
	TxGas                     chain.Gas `toml:"tx_gas"`
	TxGasContractCreation     chain.Gas `toml:"tx_gas_contract_creation"`
	TxDataZeroGas             chain.Gas `toml:"tx_data_zero_gas"`
	TxDataNonZeroGas          chain.Gas `toml:"tx_data_non_zero_gas"`
	TxAccessListAddressGas    chain.Gas `toml:"tx_access_list_address_gas"`
	TxAccessListStorageKeyGas chain.Gas `toml:"tx_access_list_storage_key_gas"`

	// Deployments.
	CodeDepositGas chain.Gas `toml:"code_deposit_gas"`
	MaxCodeSize    int       `toml:"max_code_size"`

	// Refunds are capped by both consumed/RefundQuotient and MaxRefund.
	RefundQuotient uint64    `toml:"refund_quotient"`
	MaxRefund      chain.Gas `toml:"max_refund"`

	// Costs charged by programs.
	StorageReadGas     chain.Gas `toml:"storage_read_gas"`
	StorageSetGas      chain.Gas `toml:"storage_set_gas"`
	StorageResetGas    chain.Gas `toml:"storage_reset_gas"`
	StorageClearRefund chain.Gas `toml:"storage_clear_refund"`
	LogGas             chain.Gas `toml:"log_gas"`
	LogTopicGas        chain.Gas `toml:"log_topic_gas"`
	LogDataWordGas     chain.Gas `toml:"log_data_word_gas"`
	TransferGas        chain.Gas `toml:"transfer_gas"`

	// Treasury receives the base fee part of all transaction fees. With the
	// zero address, base fees are burned.
	Treasury chain.Address `toml:"treasury"`
}

// Default returns the parameters of the latest protocol version.
func Default() Params {
	p, _ := ForVersion(LatestVersion)
	return p
}

// ForVersion returns the parameter set defined for the given version.
func ForVersion(version ProtocolVersion) (Params, error) {
	p := Params{
		Version:               V1_Genesis,
		TxGas:                 21_000,
		TxGasContractCreation: 53_000,
		TxDataZeroGas:         4,
		TxDataNonZeroGas:      16,
		CodeDepositGas:        200,
		MaxCodeSize:           24_576,
		RefundQuotient:        5,
		MaxRefund:             4_800_000,
		StorageReadGas:        800,
		StorageSetGas:         20_000,
		StorageResetGas:       5_000,
		StorageClearRefund:    4_800,
		LogGas:                375,
		LogTopicGas:           375,
		LogDataWordGas:        256,
		TransferGas:           9_000,
	}
	switch version {
	case V1_Genesis:
		return p, nil
	case V2_AccessLists:
		p.Version = V2_AccessLists
		p.TxAccessListAddressGas = 2_400
		p.TxAccessListStorageKeyGas = 1_900
		return p, nil
	default:
		return Params{}, fmt.Errorf("%w: %v", ErrUnsupportedVersion, version)
	}
}

// ErrUnsupportedVersion is returned for versions without a parameter set.
const ErrUnsupportedVersion = chain.ConstError("unsupported protocol version")

// Validate checks the consistency of the parameters.
func (p Params) Validate() error {
	var errs []error
	if p.RefundQuotient == 0 {
		errs = append(errs, errors.New("refund quotient must be positive"))
	}
	if p.TxGas == 0 || p.TxGasContractCreation == 0 {
		errs = append(errs, errors.New("intrinsic base costs must be positive"))
	}
	if p.MaxCodeSize <= 0 {
		errs = append(errs, errors.New("max code size must be positive"))
	}
	if p.StorageClearRefund > p.StorageResetGas {
		errs = append(errs, errors.New("storage clear refund exceeds storage reset cost"))
	}
	return errors.Join(errs...)
}

// AccessListsEnabled reports whether access lists are priced.
func (p Params) AccessListsEnabled() bool {
	return p.Version >= V2_AccessLists
}
