// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package main

import (
	"fmt"
	"io"
	"time"

	"github.com/animica/execution/go/block"
	"github.com/animica/execution/go/chain"
	"github.com/animica/execution/go/processor"
	"github.com/animica/execution/go/receipt"
	"github.com/animica/execution/go/scheduler"
	"github.com/dsnet/golib/unitconv"
	"github.com/urfave/cli/v2"
)

var ApplyBlockCmd = cli.Command{
	Action: doApplyBlock,
	Name:   "apply-block",
	Usage:  "Apply a block of transactions to a state",
	Flags: []cli.Flag{
		&GenesisFlag.flag,
		&BlockFlag.flag,
		&ParamsFlag.flag,
		&DatabaseFlag.flag,
		&CacheFlag.flag,
		&SchedulerFlag.flag,
		&WorkersFlag.flag,
		&WaveFlag.flag,
		&ValidateFlag.flag,
	},
}

func doApplyBlock(context *cli.Context) error {
	var blk chain.Block
	if err := readJSON(BlockFlag.Fetch(context), &blk); err != nil {
		return err
	}
	kind, err := SchedulerFlag.Fetch(context)
	if err != nil {
		return err
	}
	p, err := loadParams(context)
	if err != nil {
		return err
	}
	proc, err := newProcessor(p)
	if err != nil {
		return err
	}

	var executor block.Executor
	switch kind {
	case "optimistic":
		executor = scheduler.NewOptimistic(proc, scheduler.Config{
			Workers:  WorkersFlag.Fetch(context),
			WaveSize: WaveFlag.Fetch(context),
			Validate: ValidateFlag.Fetch(context),
		})
	default:
		executor = processor.NewSerialExecutor(proc)
	}

	store, err := openStore(context)
	if err != nil {
		return err
	}
	defer store.Close()

	start := time.Now()
	applier := block.NewApplier(store, executor, newSink(context, store), proc.Params().Treasury)
	res, err := applier.Apply(context.Context, blk)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	out := context.App.Writer
	if err := printResult(out, res); err != nil {
		return err
	}
	rate := float64(len(blk.Transactions)) / elapsed.Seconds()
	fmt.Fprintf(out, "executed %d transactions in %v (~%stx/s)\n",
		len(blk.Transactions), elapsed.Round(time.Microsecond), unitconv.FormatPrefix(rate, unitconv.SI, 0))
	if optimistic, ok := executor.(*scheduler.Optimistic); ok {
		stats := optimistic.Stats()
		fmt.Fprintf(out, "waves: %d, merged: %d, re-executed: %d\n", stats.Waves, stats.Merged, stats.Reexecuted)
	}
	return nil
}

func printResult(out io.Writer, res *block.Result) error {
	for i, r := range res.Receipts {
		hash, err := receipt.Hash(r)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "tx %d: status %v, gas used %d, logs %d, receipt %v", i, r.Status, r.GasUsed, len(r.Logs), hash)
		if r.ContractAddress != nil {
			fmt.Fprintf(out, ", contract %v", *r.ContractAddress)
		}
		fmt.Fprintln(out)
	}
	fmt.Fprintf(out, "gas used: %d\n", res.GasUsed)
	fmt.Fprintf(out, "tips: %v\n", res.Tips)
	fmt.Fprintf(out, "base fees: %v\n", res.BaseFees)
	fmt.Fprintf(out, "state root: %v\n", res.StateRoot)
	fmt.Fprintf(out, "receipts root: %v\n", res.ReceiptsRoot)
	return nil
}
