// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package processor

import (
	"context"
	"fmt"

	"github.com/animica/execution/go/chain"
	"github.com/animica/execution/go/receipt"
	"github.com/animica/execution/go/state"
	"github.com/ethereum/go-ethereum/log"
)

// BlockResult summarizes the execution of all transactions of a block.
type BlockResult struct {
	Receipts []chain.Receipt
	// BaseFees is the sum of the base fee parts of all transaction fees,
	// Tips the sum of the tips owed to the coinbase.
	BaseFees chain.Value
	Tips     chain.Value
	GasUsed  chain.Gas
}

// ResultBuilder assembles the result of a block from the outcomes of its
// transactions, processed in block order. It owns the block's gas pool.
type ResultBuilder struct {
	pool     GasPool
	result   BlockResult
	reserved chain.Gas
}

func NewResultBuilder(block chain.BlockParameters) *ResultBuilder {
	return &ResultBuilder{
		pool: GasPool(block.GasLimit),
		result: BlockResult{
			Receipts: []chain.Receipt{},
		},
	}
}

// Reserve takes the gas limit of the next transaction from the block's gas
// pool. Running out of block gas is fatal for the block.
func (b *ResultBuilder) Reserve(tx chain.Transaction) error {
	if err := b.pool.SubGas(tx.GasLimit); err != nil {
		return err
	}
	b.reserved = tx.GasLimit
	return nil
}

// Add appends the receipt of the transaction for which gas was reserved
// last and returns its unused gas to the pool.
func (b *ResultBuilder) Add(outcome Outcome) error {
	if outcome.GasUsed > b.reserved {
		return fmt.Errorf("%w: transaction used %d gas of %d reserved", chain.ErrGasUintOverflow, outcome.GasUsed, b.reserved)
	}
	b.pool.AddGas(b.reserved - outcome.GasUsed)
	b.reserved = 0

	cumulative := b.result.GasUsed + outcome.GasUsed
	if cumulative < b.result.GasUsed {
		return fmt.Errorf("%w: cumulative gas used", chain.ErrGasUintOverflow)
	}
	baseFees, overflow := chain.AddOverflow(b.result.BaseFees, outcome.BaseFee)
	if overflow {
		return fmt.Errorf("%w: block base fees", chain.ErrGasUintOverflow)
	}
	tips, overflow := chain.AddOverflow(b.result.Tips, outcome.Tip)
	if overflow {
		return fmt.Errorf("%w: block tips", chain.ErrGasUintOverflow)
	}

	r := receipt.Build(outcome.Status, outcome.GasUsed, cumulative, outcome.Logs)
	r.TxIndex = len(b.result.Receipts)
	r.ContractAddress = outcome.ContractAddress
	b.result.Receipts = append(b.result.Receipts, r)
	b.result.GasUsed = cumulative
	b.result.BaseFees = baseFees
	b.result.Tips = tips
	return nil
}

// Result returns the result of all transactions added so far.
func (b *ResultBuilder) Result() BlockResult {
	return b.result
}

// SerialExecutor runs the transactions of a block one after another. Its
// result is the reference every other executor has to reproduce.
type SerialExecutor struct {
	processor *Processor
	log       log.Logger
}

func NewSerialExecutor(processor *Processor) *SerialExecutor {
	return &SerialExecutor{
		processor: processor,
		log:       log.New("module", "serial"),
	}
}

// Execute applies all transactions of the block to the journal. Per
// transaction failures are reported in the receipts; the returned error is
// set for failures aborting the whole block, in which case the journal is
// left in an unspecified state and must be discarded.
func (e *SerialExecutor) Execute(ctx context.Context, block chain.Block, journal *state.Journal) (BlockResult, error) {
	builder := NewResultBuilder(block.BlockParameters)
	for i, tx := range block.Transactions {
		if err := ctx.Err(); err != nil {
			return BlockResult{}, err
		}
		if err := builder.Reserve(tx); err != nil {
			return BlockResult{}, fmt.Errorf("transaction %d: %w", i, err)
		}
		outcome, err := e.processor.Apply(block.BlockParameters, tx, journal)
		if err != nil {
			return BlockResult{}, fmt.Errorf("transaction %d: %w", i, err)
		}
		if err := builder.Add(outcome); err != nil {
			return BlockResult{}, fmt.Errorf("transaction %d: %w", i, err)
		}
	}
	res := builder.Result()
	e.log.Debug("Executed block", "number", block.Number, "txs", len(res.Receipts), "gasUsed", res.GasUsed)
	return res, nil
}
