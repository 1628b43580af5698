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
	"fmt"

	"github.com/animica/execution/go/chain"
	"github.com/ethereum/go-ethereum/rlp"
)

type encodedReceipt struct {
	Status            uint8
	CumulativeGasUsed uint64
	GasUsed           uint64
	Bloom             chain.Bloom
	Logs              []encodedLog
}

type encodedLog struct {
	Address chain.Address
	Topics  []chain.Hash
	Data    []byte
}

func toEncodedLogs(logs []chain.Log) []encodedLog {
	res := make([]encodedLog, 0, len(logs))
	for _, log := range logs {
		topics := log.Topics
		if topics == nil {
			topics = []chain.Hash{}
		}
		res = append(res, encodedLog{Address: log.Address, Topics: topics, Data: log.Data})
	}
	return res
}

// Encode produces the canonical encoding of a receipt.
func Encode(receipt chain.Receipt) ([]byte, error) {
	if !receipt.Status.IsValid() {
		return nil, fmt.Errorf("%w: invalid receipt status %v", chain.ErrEncoding, receipt.Status)
	}
	data, err := rlp.EncodeToBytes(encodedReceipt{
		Status:            uint8(receipt.Status),
		CumulativeGasUsed: uint64(receipt.CumulativeGasUsed),
		GasUsed:           uint64(receipt.GasUsed),
		Bloom:             receipt.Bloom,
		Logs:              toEncodedLogs(receipt.Logs),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", chain.ErrEncoding, err)
	}
	return data, nil
}

// Decode parses the canonical encoding of a receipt. Non-canonical
// encodings, trailing data, unknown statuses, logs on failed receipts and
// blooms not matching the logs are rejected with ErrEncoding. Derived
// fields not covered by the encoding are left at their zero values.
func Decode(data []byte) (chain.Receipt, error) {
	var enc encodedReceipt
	if err := rlp.DecodeBytes(data, &enc); err != nil {
		return chain.Receipt{}, fmt.Errorf("%w: %v", chain.ErrEncoding, err)
	}
	status := chain.Status(enc.Status)
	if !status.IsValid() {
		return chain.Receipt{}, fmt.Errorf("%w: invalid receipt status %d", chain.ErrEncoding, enc.Status)
	}
	if status != chain.StatusSuccess && len(enc.Logs) > 0 {
		return chain.Receipt{}, fmt.Errorf("%w: logs on receipt with status %v", chain.ErrEncoding, status)
	}
	if enc.GasUsed > enc.CumulativeGasUsed {
		return chain.Receipt{}, fmt.Errorf("%w: gas used exceeds cumulative gas used", chain.ErrEncoding)
	}
	logs := make([]chain.Log, 0, len(enc.Logs))
	for _, log := range enc.Logs {
		logs = append(logs, chain.Log{Address: log.Address, Topics: log.Topics, Data: log.Data})
	}
	if LogsBloom(logs) != enc.Bloom {
		return chain.Receipt{}, fmt.Errorf("%w: bloom does not match logs", chain.ErrEncoding)
	}
	return chain.Receipt{
		Status:            status,
		GasUsed:           chain.Gas(enc.GasUsed),
		CumulativeGasUsed: chain.Gas(enc.CumulativeGasUsed),
		Bloom:             enc.Bloom,
		Logs:              logs,
	}, nil
}
