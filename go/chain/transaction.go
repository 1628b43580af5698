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

// Kind distinguishes the different sorts of transactions.
type Kind uint8

const (
	Transfer Kind = iota
	Deploy
	Call
)

func (k Kind) String() string {
	switch k {
	case Transfer:
		return "transfer"
	case Deploy:
		return "deploy"
	case Call:
		return "call"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

func (k Kind) MarshalJSON() ([]byte, error) {
	if k > Call {
		return nil, &json.UnsupportedValueError{Str: k.String()}
	}
	return json.Marshal(k.String())
}

func (k *Kind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "transfer":
		*k = Transfer
	case "deploy":
		*k = Deploy
	case "call":
		*k = Call
	default:
		return fmt.Errorf("unknown transaction kind %q", s)
	}
	return nil
}

// Transaction summarizes the parameters of a transaction to be executed.
type Transaction struct {
	Kind       Kind          `json:"kind"`
	Sender     Address       `json:"sender"`
	Recipient  *Address      `json:"recipient,omitempty"` // nil for deployments
	Nonce      uint64        `json:"nonce"`
	Value      Value         `json:"value"`
	Input      Data          `json:"input,omitempty"`
	GasLimit   Gas           `json:"gasLimit"`
	GasPrice   Value         `json:"gasPrice"`
	AccessList []AccessTuple `json:"accessList,omitempty"`
}

// AccessTuple lists the storage keys of an address declared up front by a
// transaction.
type AccessTuple struct {
	Address Address `json:"address"`
	Keys    []Key   `json:"keys"`
}

// Validate checks the structural consistency of the transaction. It does
// not look at any state.
func (tx *Transaction) Validate() error {
	switch tx.Kind {
	case Transfer, Call:
		if tx.Recipient == nil {
			return fmt.Errorf("%w: %v transaction without recipient", ErrEncoding, tx.Kind)
		}
	case Deploy:
		if tx.Recipient != nil {
			return fmt.Errorf("%w: deploy transaction with recipient", ErrEncoding)
		}
		if len(tx.Input) == 0 {
			return fmt.Errorf("%w: deploy transaction without code", ErrEncoding)
		}
	default:
		return fmt.Errorf("%w: unknown transaction kind %v", ErrEncoding, tx.Kind)
	}
	return nil
}

// BlockParameters are the header fields of a block visible to the
// execution of its transactions.
type BlockParameters struct {
	ChainID    uint64  `json:"chainId"`
	Number     uint64  `json:"number"`
	Coinbase   Address `json:"coinbase"`
	GasLimit   Gas     `json:"gasLimit"`
	ParentRoot Hash    `json:"parentRoot"`
	// BaseFee is the price per unit of gas not paid to the coinbase. It is
	// credited to the treasury, or burned if there is none.
	BaseFee Value `json:"baseFee"`
}

// Block is a decoded block: a header and an ordered list of transactions.
type Block struct {
	BlockParameters
	Transactions []Transaction `json:"transactions"`
}
