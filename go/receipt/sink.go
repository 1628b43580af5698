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
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/animica/execution/go/chain"
	"github.com/animica/execution/go/state"
	"github.com/golang/snappy"
)

// Sink consumes the receipts of applied blocks.
type Sink interface {
	// Consume receives the ordered receipts of a block and its receipts
	// root.
	Consume(block uint64, receipts []chain.Receipt, root chain.Hash) error
}

// BlockReceipts are the receipts of a single block.
type BlockReceipts struct {
	Number   uint64
	Receipts []chain.Receipt
	Root     chain.Hash
}

// MemorySink keeps all consumed receipts in memory.
type MemorySink struct {
	mu     sync.Mutex
	blocks []BlockReceipts
}

func (s *MemorySink) Consume(block uint64, receipts []chain.Receipt, root chain.Hash) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blocks = append(s.blocks, BlockReceipts{
		Number:   block,
		Receipts: append([]chain.Receipt(nil), receipts...),
		Root:     root,
	})
	return nil
}

// Blocks returns the receipts consumed so far in consumption order.
func (s *MemorySink) Blocks() []BlockReceipts {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]BlockReceipts(nil), s.blocks...)
}

const (
	receiptPrefix     = 0x10
	receiptRootPrefix = 0x11
)

// StoreSink persists the canonical encoding of receipts, compressed using
// snappy, under their block number and transaction index. The receipts
// root is stored per block.
type StoreSink struct {
	store state.Store
}

func NewStoreSink(store state.Store) *StoreSink {
	return &StoreSink{store: store}
}

func receiptKey(block uint64, index int) []byte {
	res := make([]byte, 1+8+4)
	res[0] = receiptPrefix
	binary.BigEndian.PutUint64(res[1:], block)
	binary.BigEndian.PutUint32(res[9:], uint32(index))
	return res
}

func receiptRootKey(block uint64) []byte {
	res := make([]byte, 1+8)
	res[0] = receiptRootPrefix
	binary.BigEndian.PutUint64(res[1:], block)
	return res
}

func (s *StoreSink) Consume(block uint64, receipts []chain.Receipt, root chain.Hash) error {
	writes := make([]state.Write, 0, len(receipts)+1)
	for i, r := range receipts {
		data, err := Encode(r)
		if err != nil {
			return fmt.Errorf("failed to encode receipt %d of block %d: %w", i, block, err)
		}
		writes = append(writes, state.Write{Key: receiptKey(block, i), Value: snappy.Encode(nil, data)})
	}
	writes = append(writes, state.Write{Key: receiptRootKey(block), Value: root[:]})
	return s.store.BatchCommit(writes)
}

// Load restores the receipts of a block. Derived fields not covered by the
// canonical encoding, except the transaction index, are not restored.
func (s *StoreSink) Load(block uint64) (BlockReceipts, error) {
	res := BlockReceipts{Number: block}
	rootData, err := s.store.Get(receiptRootKey(block))
	if err != nil {
		return res, fmt.Errorf("failed to load receipts root of block %d: %w", block, err)
	}
	if len(rootData) != len(res.Root) {
		return res, fmt.Errorf("%w: invalid receipts root of block %d", chain.ErrEncoding, block)
	}
	copy(res.Root[:], rootData)

	prefix := receiptKey(block, 0)[:9]
	err = s.store.ForEach(prefix, func(key, value []byte) error {
		data, err := snappy.Decode(nil, value)
		if err != nil {
			return fmt.Errorf("%w: %v", chain.ErrEncoding, err)
		}
		r, err := Decode(data)
		if err != nil {
			return err
		}
		r.TxIndex = int(binary.BigEndian.Uint32(key[9:]))
		res.Receipts = append(res.Receipts, r)
		return nil
	})
	if err != nil {
		return res, fmt.Errorf("failed to load receipts of block %d: %w", block, err)
	}
	return res, nil
}
