// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package receipt

import (
	"sync"

	"github.com/animica/execution/go/chain"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rlp"
	"golang.org/x/crypto/sha3"
)

// LogsBloom computes the bloom filter over the addresses and topics of the
// given logs.
func LogsBloom(logs []chain.Log) chain.Bloom {
	var bloom types.Bloom
	for _, log := range logs {
		bloom.Add(log.Address[:])
		for _, topic := range log.Topics {
			bloom.Add(topic[:])
		}
	}
	return chain.Bloom(bloom)
}

// LogsHash computes the keccak256 hash of the canonical encoding of the
// given log sequence. The order of the logs is part of the hash.
func LogsHash(logs []chain.Log) (chain.Hash, error) {
	data, err := rlp.EncodeToBytes(toEncodedLogs(logs))
	if err != nil {
		return chain.Hash{}, err
	}
	return keccak256(data), nil
}

// Hash computes the keccak256 hash of the canonical encoding of a receipt.
func Hash(receipt chain.Receipt) (chain.Hash, error) {
	data, err := Encode(receipt)
	if err != nil {
		return chain.Hash{}, err
	}
	return keccak256(data), nil
}

var keccakHasherPool = sync.Pool{New: func() any { return sha3.NewLegacyKeccak256() }}

type keccakHasher interface {
	Reset()
	Write(in []byte) (int, error)
	Read(out []byte) (int, error)
}

func keccak256(data []byte) chain.Hash {
	hasher := keccakHasherPool.Get().(keccakHasher)
	hasher.Reset()
	hasher.Write(data)
	var res chain.Hash
	hasher.Read(res[:])
	keccakHasherPool.Put(hasher)
	return res
}
