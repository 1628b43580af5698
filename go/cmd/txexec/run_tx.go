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

	"github.com/animica/execution/go/block"
	"github.com/animica/execution/go/chain"
	"github.com/animica/execution/go/processor"
	"github.com/urfave/cli/v2"
)

var RunTxCmd = cli.Command{
	Action: doRunTx,
	Name:   "run-tx",
	Usage:  "Run a single transaction on the genesis state",
	Flags: []cli.Flag{
		&GenesisFlag.flag,
		&TransactionFlag.flag,
		&ParamsFlag.flag,
	},
}

func doRunTx(context *cli.Context) error {
	var tx chain.Transaction
	if err := readJSON(TransactionFlag.Fetch(context), &tx); err != nil {
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
	store, err := openStore(context)
	if err != nil {
		return err
	}
	defer store.Close()

	blk := chain.Block{
		BlockParameters: chain.BlockParameters{
			Number:   1,
			GasLimit: tx.GasLimit,
		},
		Transactions: []chain.Transaction{tx},
	}
	applier := block.NewApplier(store, processor.NewSerialExecutor(proc), nil, proc.Params().Treasury)
	res, err := applier.Apply(context.Context, blk)
	if err != nil {
		return fmt.Errorf("failed to run transaction: %w", err)
	}
	return printResult(context.App.Writer, res)
}
