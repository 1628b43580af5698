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
	"errors"
	"fmt"
	"slices"

	"github.com/animica/execution/go/chain"
	"github.com/golang/snappy"
)

// EventRecord is a log emitted by a successful transaction together with its
// position in the chain.
type EventRecord struct {
	Block    uint64
	TxIndex  int
	LogIndex int
	Log      chain.Log
}

// LogFilter selects event records. The zero filter matches every record.
type LogFilter struct {
	// Address, if set, must equal the emitting address.
	Address *chain.Address
	// Topics holds one selector per topic position. An empty selector is a
	// wildcard, a selector with multiple entries matches any of them. A log
	// with fewer topics than selectors does not match.
	Topics [][]chain.Hash
	// FromBlock and ToBlock bound the block range, both inclusive.
	FromBlock *uint64
	ToBlock   *uint64
	// Limit caps the number of returned records if positive.
	Limit int
}

func (f *LogFilter) containsBlock(block uint64) bool {
	if f.FromBlock != nil && block < *f.FromBlock {
		return false
	}
	if f.ToBlock != nil && block > *f.ToBlock {
		return false
	}
	return true
}

// Matches reports whether the log passes the address and topic selectors.
func (f *LogFilter) Matches(log chain.Log) bool {
	if f.Address != nil && *f.Address != log.Address {
		return false
	}
	if len(f.Topics) > len(log.Topics) {
		return false
	}
	for i, selector := range f.Topics {
		if len(selector) > 0 && !slices.Contains(selector, log.Topics[i]) {
			return false
		}
	}
	return true
}

var errLimitReached = errors.New("limit reached")

// collect appends the matching logs of a block's receipts to res. It
// returns errLimitReached once the filter's limit is hit.
func (f *LogFilter) collect(res []EventRecord, block uint64, receipts []chain.Receipt) ([]EventRecord, error) {
	for _, r := range receipts {
		for i, log := range r.Logs {
			if !f.Matches(log) {
				continue
			}
			res = append(res, EventRecord{Block: block, TxIndex: r.TxIndex, LogIndex: i, Log: log.Clone()})
			if f.Limit > 0 && len(res) >= f.Limit {
				return res, errLimitReached
			}
		}
	}
	return res, nil
}

// Logs returns the event records matching the filter ordered by block,
// transaction and log index.
func (s *MemorySink) Logs(filter LogFilter) ([]EventRecord, error) {
	blocks := s.Blocks()
	slices.SortStableFunc(blocks, func(a, b BlockReceipts) int {
		switch {
		case a.Number < b.Number:
			return -1
		case a.Number > b.Number:
			return 1
		}
		return 0
	})
	var res []EventRecord
	for _, b := range blocks {
		if !filter.containsBlock(b.Number) {
			continue
		}
		var err error
		res, err = filter.collect(res, b.Number, b.Receipts)
		if errors.Is(err, errLimitReached) {
			break
		}
	}
	return res, nil
}

// Logs returns the persisted event records matching the filter ordered by
// block, transaction and log index.
func (s *StoreSink) Logs(filter LogFilter) ([]EventRecord, error) {
	var res []EventRecord
	err := s.store.ForEach([]byte{receiptPrefix}, func(key, value []byte) error {
		if len(key) != 1+8+4 {
			return fmt.Errorf("%w: invalid receipt key %x", chain.ErrEncoding, key)
		}
		block := binary.BigEndian.Uint64(key[1:])
		if !filter.containsBlock(block) {
			return nil
		}
		data, err := snappy.Decode(nil, value)
		if err != nil {
			return fmt.Errorf("%w: %v", chain.ErrEncoding, err)
		}
		r, err := Decode(data)
		if err != nil {
			return err
		}
		r.TxIndex = int(binary.BigEndian.Uint32(key[9:]))
		res, err = filter.collect(res, block, []chain.Receipt{r})
		return err
	})
	if err != nil && !errors.Is(err, errLimitReached) {
		return nil, fmt.Errorf("failed to read logs: %w", err)
	}
	return res, nil
}
