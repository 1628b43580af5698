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
	"encoding/json"
	"fmt"
)

// Status is the outcome of a transaction as recorded in its receipt.
type Status uint8

const (
	StatusSuccess Status = iota + 1
	StatusRevert
	StatusOutOfGas
	StatusInsufficientBalance
	StatusInvalidNonce
	StatusFailed
	StatusEncodingError
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "SUCCESS"
	case StatusRevert:
		return "REVERT"
	case StatusOutOfGas:
		return "OUT_OF_GAS"
	case StatusInsufficientBalance:
		return "INSUFFICIENT_BALANCE"
	case StatusInvalidNonce:
		return "INVALID_NONCE"
	case StatusFailed:
		return "FAILED"
	case StatusEncodingError:
		return "ENCODING_ERROR"
	default:
		return fmt.Sprintf("Status(%d)", s)
	}
}

// IsValid is true for all statuses with a defined meaning.
func (s Status) IsValid() bool {
	return StatusSuccess <= s && s <= StatusEncodingError
}

func (s Status) MarshalJSON() ([]byte, error) {
	if !s.IsValid() {
		return nil, &json.UnsupportedValueError{Str: s.String()}
	}
	return json.Marshal(s.String())
}

// Bloom is a 2048-bit bloom filter over the addresses and topics of a
// sequence of logs.
type Bloom [256]byte

func (b Bloom) MarshalText() ([]byte, error) {
	return bytesToText(b[:])
}

func (b *Bloom) UnmarshalText(data []byte) error {
	return textToBytes(b[:], data)
}

// Receipt is the immutable record of the execution of a transaction.
// Only Status, CumulativeGasUsed, GasUsed, Bloom and Logs are part of the
// canonical encoding; the remaining fields are derived.
type Receipt struct {
	Status            Status   `json:"status"`
	GasUsed           Gas      `json:"gasUsed"`
	CumulativeGasUsed Gas      `json:"cumulativeGasUsed"`
	Bloom             Bloom    `json:"logsBloom"`
	Logs              []Log    `json:"logs"`
	ContractAddress   *Address `json:"contractAddress,omitempty"`
	TxIndex           int      `json:"transactionIndex"`
}
