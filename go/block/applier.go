// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package block applies blocks of transactions to a persistent state.
package block

import (
	"context"
	"fmt"

	"github.com/animica/execution/go/chain"
	"github.com/animica/execution/go/processor"
	"github.com/animica/execution/go/receipt"
	"github.com/animica/execution/go/state"
	"github.com/ethereum/go-ethereum/log"
)

//go:generate mockgen -source applier.go -destination executor_mock.go -package block

// Executor runs the transactions of a block on a journal. Implementations
// must produce identical results and journal contents for the same block
// and state.
type Executor interface {
	Execute(ctx context.Context, block chain.Block, journal *state.Journal) (processor.BlockResult, error)
}

// ErrParentRootMismatch is returned for blocks not building on the current
// state.
const ErrParentRootMismatch = chain.ConstError("parent root mismatch")

// Result is the outcome of applying a block.
type Result struct {
	Receipts     []chain.Receipt
	GasUsed      chain.Gas
	BaseFees     chain.Value
	Tips         chain.Value
	StateRoot    chain.Hash
	ReceiptsRoot chain.Hash
}

// Applier applies blocks to the state held by a store. Blocks are applied
// atomically: either all effects of a block are persisted or none. An
// Applier must not be used concurrently.
type Applier struct {
	store    state.Store
	executor Executor
	sink     receipt.Sink
	treasury chain.Address
	root     *chain.Hash
	log      log.Logger
}

// NewApplier creates an applier using the given executor. The sink is
// optional. Base fees are credited to the treasury, or burned if the
// treasury is the zero address.
func NewApplier(store state.Store, executor Executor, sink receipt.Sink, treasury chain.Address) *Applier {
	return &Applier{
		store:    store,
		executor: executor,
		sink:     sink,
		treasury: treasury,
		log:      log.New("module", "block"),
	}
}

// Root returns the state root of the current state.
func (a *Applier) Root() (chain.Hash, error) {
	if a.root == nil {
		root, err := state.Root(a.store, nil)
		if err != nil {
			return chain.Hash{}, err
		}
		a.root = &root
	}
	return *a.root, nil
}

// Apply executes the block and persists its effects. Blocks with a parent
// root not matching the current state are rejected; a zero parent root
// skips this check. Failures before the state is persisted leave the
// state unchanged.
func (a *Applier) Apply(ctx context.Context, block chain.Block) (*Result, error) {
	if block.ParentRoot != (chain.Hash{}) {
		root, err := a.Root()
		if err != nil {
			return nil, err
		}
		if root != block.ParentRoot {
			return nil, fmt.Errorf("%w: block %d builds on %v, state is %v", ErrParentRootMismatch, block.Number, block.ParentRoot, root)
		}
	}

	journal := state.NewJournal(state.NewStateReader(a.store))
	res, err := a.executor.Execute(ctx, block, journal)
	if err != nil {
		return nil, fmt.Errorf("failed to execute block %d: %w", block.Number, err)
	}

	if err := credit(journal, block.Coinbase, res.Tips); err != nil {
		return nil, fmt.Errorf("failed to credit coinbase: %w", err)
	}
	if a.treasury != (chain.Address{}) {
		if err := credit(journal, a.treasury, res.BaseFees); err != nil {
			return nil, fmt.Errorf("failed to credit treasury: %w", err)
		}
	}
	if err := journal.Err(); err != nil {
		return nil, fmt.Errorf("failed to read state: %w", err)
	}

	writes, err := journal.Writes()
	if err != nil {
		return nil, err
	}
	stateRoot, err := state.Root(a.store, writes)
	if err != nil {
		return nil, err
	}
	receiptsRoot, err := receipt.DeriveRoot(res.Receipts)
	if err != nil {
		return nil, err
	}

	if err := a.store.BatchCommit(writes); err != nil {
		a.root = nil
		return nil, fmt.Errorf("failed to persist block %d: %w", block.Number, err)
	}
	a.root = &stateRoot

	if a.sink != nil {
		if err := a.sink.Consume(block.Number, res.Receipts, receiptsRoot); err != nil {
			return nil, fmt.Errorf("failed to deliver receipts of block %d: %w", block.Number, err)
		}
	}

	a.log.Info("Applied block", "number", block.Number, "txs", len(res.Receipts),
		"gasUsed", res.GasUsed, "tips", res.Tips, "baseFees", res.BaseFees, "root", stateRoot)
	return &Result{
		Receipts:     res.Receipts,
		GasUsed:      res.GasUsed,
		BaseFees:     res.BaseFees,
		Tips:         res.Tips,
		StateRoot:    stateRoot,
		ReceiptsRoot: receiptsRoot,
	}, nil
}

func credit(journal *state.Journal, addr chain.Address, amount chain.Value) error {
	if amount.IsZero() {
		return nil
	}
	balance, overflow := chain.AddOverflow(journal.GetBalance(addr), amount)
	if overflow {
		return fmt.Errorf("%w: balance of %v", chain.ErrGasUintOverflow, addr)
	}
	journal.SetBalance(addr, balance)
	return nil
}
