// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package receipt builds the receipts of executed transactions and
// provides their canonical encoding.
//
// The canonical encoding of a receipt is the RLP list
//
//	[status, cumulativeGasUsed, gasUsed, bloom, [[address, [topics...], data]...]]
//
// RLP admits a single encoding per value: integers are minimal big-endian
// byte strings and lengths use the shortest form. Decoding rejects any
// other representation.
package receipt

import (
	"github.com/animica/execution/go/chain"
)

// Build creates the receipt of a transaction. The logs are copied and the
// bloom is derived from them. Receipts of unsuccessful transactions carry
// no logs.
func Build(status chain.Status, gasUsed, cumulative chain.Gas, logs []chain.Log) chain.Receipt {
	res := chain.Receipt{
		Status:            status,
		GasUsed:           gasUsed,
		CumulativeGasUsed: cumulative,
		Logs:              []chain.Log{},
	}
	if status == chain.StatusSuccess {
		for _, log := range logs {
			res.Logs = append(res.Logs, log.Clone())
		}
	}
	res.Bloom = LogsBloom(res.Logs)
	return res
}
