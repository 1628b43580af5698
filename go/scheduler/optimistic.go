// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package scheduler provides an optimistic parallel block executor. Its
// results are identical to those of the serial executor in the processor
// package for every block.
//
// Transactions are processed in waves of consecutive transactions. Within a
// wave, each transaction is first executed speculatively against the state
// as of the start of the wave, recording the keys it reads and writes. The
// speculative results are then reconciled in block order: a result is
// merged if the transaction does not conflict with any earlier transaction
// of the wave, otherwise the transaction is executed again on the updated
// state.
package scheduler

import (
	"bytes"
	"context"
	"fmt"
	"runtime"

	"github.com/animica/execution/go/chain"
	"github.com/animica/execution/go/conflict"
	"github.com/animica/execution/go/processor"
	"github.com/animica/execution/go/receipt"
	"github.com/animica/execution/go/state"
	"github.com/ethereum/go-ethereum/log"
	"golang.org/x/sync/errgroup"
)

// Config controls the degree of parallelism of the optimistic executor.
type Config struct {
	// Workers is the maximum number of transactions executed concurrently.
	// Zero selects the number of available CPUs.
	Workers int
	// WaveSize is the number of transactions speculated together. Zero
	// selects twice the number of workers.
	WaveSize int
	// Validate enables the comparison of every block result with the
	// result of the serial executor.
	Validate bool
}

// Stats summarizes the work performed for the last executed block.
type Stats struct {
	Waves        int
	Speculated   int
	Merged       int
	Reexecuted   int
	Transactions int
}

// Optimistic is a block executor running transactions speculatively in
// parallel. An Optimistic executor processes a single block at a time.
type Optimistic struct {
	processor *processor.Processor
	workers   int
	waveSize  int
	validate  bool
	stats     Stats
	log       log.Logger
}

func NewOptimistic(p *processor.Processor, config Config) *Optimistic {
	workers := config.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	waveSize := config.WaveSize
	if waveSize <= 0 {
		waveSize = 2 * workers
	}
	return &Optimistic{
		processor: p,
		workers:   workers,
		waveSize:  waveSize,
		validate:  config.Validate,
		log:       log.New("module", "scheduler"),
	}
}

// Stats returns the statistics of the last executed block.
func (o *Optimistic) Stats() Stats {
	return o.stats
}

// proposal is the speculative result of a single transaction.
type proposal struct {
	outcome processor.Outcome
	changes state.ChangeSet
	rw      conflict.RWSet
	err     error
}

// Execute applies all transactions of the block to the journal. The journal
// is only read during the speculative phase of a wave and only modified
// while reconciling the results of a wave.
func (o *Optimistic) Execute(ctx context.Context, block chain.Block, journal *state.Journal) (processor.BlockResult, error) {
	var oracle *state.Journal
	if o.validate {
		oracle = journal.Fork()
	}

	res, err := o.execute(ctx, block, journal)
	if err != nil {
		return processor.BlockResult{}, err
	}

	o.log.Debug("Executed block", "number", block.Number, "txs", len(block.Transactions),
		"waves", o.stats.Waves, "merged", o.stats.Merged, "reexecuted", o.stats.Reexecuted)

	if oracle != nil {
		if err := o.compareWithSerial(ctx, block, oracle, journal, res); err != nil {
			return processor.BlockResult{}, err
		}
	}
	return res, nil
}

func (o *Optimistic) execute(ctx context.Context, block chain.Block, journal *state.Journal) (processor.BlockResult, error) {
	o.stats = Stats{Transactions: len(block.Transactions)}
	builder := processor.NewResultBuilder(block.BlockParameters)
	for start := 0; start < len(block.Transactions); start += o.waveSize {
		end := min(start+o.waveSize, len(block.Transactions))
		wave := block.Transactions[start:end]

		proposals, err := o.speculate(ctx, block.BlockParameters, wave, journal)
		if err != nil {
			return processor.BlockResult{}, err
		}
		if err := o.reconcile(block.BlockParameters, start, wave, proposals, journal, builder); err != nil {
			return processor.BlockResult{}, err
		}
		o.stats.Waves++
	}
	return builder.Result(), nil
}

// speculate runs all transactions of the wave concurrently against the
// unmodified journal.
func (o *Optimistic) speculate(
	ctx context.Context,
	block chain.BlockParameters,
	wave []chain.Transaction,
	journal *state.Journal,
) ([]proposal, error) {
	proposals := make([]proposal, len(wave))
	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(o.workers)
	for i := range wave {
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			proposals[i] = o.run(block, wave[i], journal)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	o.stats.Speculated += len(wave)
	return proposals, nil
}

// run executes a single transaction on a private journal over the given
// state, tracking the keys it accesses.
func (o *Optimistic) run(block chain.BlockParameters, tx chain.Transaction, base state.Reader) (res proposal) {
	defer func() {
		if r := recover(); r != nil {
			res = proposal{err: fmt.Errorf("speculative execution panicked: %v", r)}
		}
	}()
	tracker := conflict.NewTracker(base)
	view := state.NewJournal(tracker)
	outcome, err := o.processor.Apply(block, tx, view)
	if err != nil {
		return proposal{err: err}
	}
	changes := view.Changes()
	return proposal{
		outcome: outcome,
		changes: changes,
		rw: conflict.RWSet{
			Reads:  tracker.Reads(),
			Writes: conflict.WritesOf(changes),
		},
	}
}

// reconcile merges the proposals of a wave into the journal in block order,
// re-executing transactions whose speculative result is invalid.
func (o *Optimistic) reconcile(
	block chain.BlockParameters,
	offset int,
	wave []chain.Transaction,
	proposals []proposal,
	journal *state.Journal,
	builder *processor.ResultBuilder,
) error {
	detector := conflict.NewDetector()
	for i, tx := range wave {
		if err := builder.Reserve(tx); err != nil {
			return fmt.Errorf("transaction %d: %w", offset+i, err)
		}

		p := proposals[i]
		if p.err == nil {
			p.err = detector.Check(p.rw)
		}
		if p.err != nil {
			o.log.Trace("Re-executing transaction", "index", offset+i, "reason", p.err)
			p = o.run(block, tx, journal)
			if p.err != nil {
				return fmt.Errorf("transaction %d: %w", offset+i, p.err)
			}
			o.stats.Reexecuted++
		} else {
			o.stats.Merged++
		}

		journal.ApplyChanges(p.changes)
		detector.Record(p.rw)
		if err := builder.Add(p.outcome); err != nil {
			return fmt.Errorf("transaction %d: %w", offset+i, err)
		}
	}
	return journal.Err()
}

// compareWithSerial runs the block on the oracle journal using the serial
// executor and checks that receipts and state changes match.
func (o *Optimistic) compareWithSerial(
	ctx context.Context,
	block chain.Block,
	oracle *state.Journal,
	journal *state.Journal,
	got processor.BlockResult,
) error {
	want, err := processor.NewSerialExecutor(o.processor).Execute(ctx, block, oracle)
	if err != nil {
		return fmt.Errorf("%w: serial execution failed: %v", chain.ErrDivergence, err)
	}
	if err := compareResults(want, got); err != nil {
		return err
	}
	wantWrites, err := oracle.Writes()
	if err != nil {
		return err
	}
	gotWrites, err := journal.Writes()
	if err != nil {
		return err
	}
	if len(wantWrites) != len(gotWrites) {
		return fmt.Errorf("%w: %d state writes, serial execution produced %d", chain.ErrDivergence, len(gotWrites), len(wantWrites))
	}
	for i := range wantWrites {
		if !bytes.Equal(wantWrites[i].Key, gotWrites[i].Key) || !bytes.Equal(wantWrites[i].Value, gotWrites[i].Value) {
			return fmt.Errorf("%w: state write of key %x differs", chain.ErrDivergence, gotWrites[i].Key)
		}
	}
	return nil
}

func compareResults(want, got processor.BlockResult) error {
	if want.GasUsed != got.GasUsed {
		return fmt.Errorf("%w: gas used %d, serial %d", chain.ErrDivergence, got.GasUsed, want.GasUsed)
	}
	if want.BaseFees != got.BaseFees || want.Tips != got.Tips {
		return fmt.Errorf("%w: fees %v/%v, serial %v/%v", chain.ErrDivergence, got.BaseFees, got.Tips, want.BaseFees, want.Tips)
	}
	if len(want.Receipts) != len(got.Receipts) {
		return fmt.Errorf("%w: %d receipts, serial %d", chain.ErrDivergence, len(got.Receipts), len(want.Receipts))
	}
	for i := range want.Receipts {
		wantHash, err := receipt.Hash(want.Receipts[i])
		if err != nil {
			return err
		}
		gotHash, err := receipt.Hash(got.Receipts[i])
		if err != nil {
			return err
		}
		if wantHash != gotHash {
			return fmt.Errorf("%w: receipt %d is %v, serial %v", chain.ErrDivergence, i, gotHash, wantHash)
		}
	}
	return nil
}
