// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package state implements the journaled view on the chain state used
// during the execution of a block, together with the key/value stores
// holding the committed state.
package state

import (
	"bytes"
	"fmt"
	"math/big"

	"github.com/animica/execution/go/chain"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
)

// Account is the committed record of an account. The code of an account is
// kept separately.
type Account struct {
	Nonce   uint64
	Balance chain.Value
}

// Reader provides read access to committed state. Implementations must be
// safe for concurrent use when no writes are happening.
type Reader interface {
	ReadAccount(chain.Address) (Account, bool, error)
	ReadCode(chain.Address) (chain.Code, error)
	ReadStorage(chain.Address, chain.Key) (chain.Word, error)
}

// Key prefixes of the canonical state layout.
const (
	accountPrefix = 0x01
	codePrefix    = 0x02
	storagePrefix = 0x03
)

var statePrefixes = [][]byte{{accountPrefix}, {codePrefix}, {storagePrefix}}

func accountKey(addr chain.Address) []byte {
	res := make([]byte, 0, 1+len(addr))
	res = append(res, accountPrefix)
	return append(res, addr[:]...)
}

func codeKey(addr chain.Address) []byte {
	res := make([]byte, 0, 1+len(addr))
	res = append(res, codePrefix)
	return append(res, addr[:]...)
}

func storageKey(addr chain.Address, key chain.Key) []byte {
	res := make([]byte, 0, 1+len(addr)+len(key))
	res = append(res, storagePrefix)
	res = append(res, addr[:]...)
	return append(res, key[:]...)
}

type encodedAccount struct {
	Nonce   uint64
	Balance *big.Int
}

func encodeAccount(a Account) ([]byte, error) {
	return rlp.EncodeToBytes(encodedAccount{Nonce: a.Nonce, Balance: a.Balance.ToBig()})
}

func decodeAccount(data []byte) (Account, error) {
	var enc encodedAccount
	if err := rlp.DecodeBytes(data, &enc); err != nil {
		return Account{}, fmt.Errorf("%w: invalid account record: %v", chain.ErrEncoding, err)
	}
	balance, overflow := uint256.FromBig(enc.Balance)
	if overflow {
		return Account{}, fmt.Errorf("%w: account balance exceeds 256 bits", chain.ErrEncoding)
	}
	return Account{Nonce: enc.Nonce, Balance: chain.ValueFromUint256(balance)}, nil
}

// encodeWord produces the canonical encoding of a storage value. Zero
// values are not encoded; they are represented by the absence of the slot.
func encodeWord(w chain.Word) ([]byte, error) {
	return rlp.EncodeToBytes(bytes.TrimLeft(w[:], "\x00"))
}

func decodeWord(data []byte) (chain.Word, error) {
	var raw []byte
	if err := rlp.DecodeBytes(data, &raw); err != nil {
		return chain.Word{}, fmt.Errorf("%w: invalid storage record: %v", chain.ErrEncoding, err)
	}
	if len(raw) == 0 || len(raw) > 32 || raw[0] == 0 {
		return chain.Word{}, fmt.Errorf("%w: non-canonical storage value %x", chain.ErrEncoding, raw)
	}
	var res chain.Word
	copy(res[32-len(raw):], raw)
	return res, nil
}
