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
	"encoding/json"
	"fmt"
	"os"

	"github.com/animica/execution/go/block"
	"github.com/animica/execution/go/params"
	"github.com/animica/execution/go/processor"
	"github.com/animica/execution/go/programs"
	"github.com/animica/execution/go/receipt"
	"github.com/animica/execution/go/state"
	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"
)

func setupLogging(context *cli.Context) error {
	verbosity := VerbosityFlag.Fetch(context)
	if verbosity < 0 || verbosity > 5 {
		return fmt.Errorf("invalid verbosity %d", verbosity)
	}
	handler := log.NewTerminalHandlerWithLevel(os.Stderr, log.FromLegacyLevel(verbosity), true)
	log.SetDefault(log.NewLogger(handler))
	return nil
}

func loadParams(context *cli.Context) (params.Params, error) {
	if path := ParamsFlag.Fetch(context); path != "" {
		return params.Load(path)
	}
	return params.Default(), nil
}

func newProcessor(p params.Params) (*processor.Processor, error) {
	resolver, err := programs.NewResolver(programs.Default(), p)
	if err != nil {
		return nil, err
	}
	return processor.NewProcessor(p, resolver), nil
}

// openStore opens the state store selected by the command line and
// commits the genesis state into it if one is given.
func openStore(context *cli.Context) (state.Store, error) {
	var store state.Store
	if path := DatabaseFlag.Fetch(context); path != "" {
		db, err := state.OpenLevelDbStore(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open database %s: %w", path, err)
		}
		store = db
	} else {
		store = state.NewMemoryStore()
	}

	if size := CacheFlag.Fetch(context); size > 0 {
		cached, err := state.NewCachedStore(store, size)
		if err != nil {
			store.Close()
			return nil, err
		}
		store = cached
	}

	if path := GenesisFlag.Fetch(context); path != "" {
		genesis, err := block.LoadGenesis(path)
		if err != nil {
			store.Close()
			return nil, err
		}
		root, err := genesis.Commit(store)
		if err != nil {
			store.Close()
			return nil, err
		}
		log.Info("Committed genesis", "chainId", genesis.ChainID, "accounts", len(genesis.Alloc), "root", root)
	}
	return store, nil
}

// newSink persists receipts next to the state if a database is used.
func newSink(context *cli.Context, store state.Store) receipt.Sink {
	if DatabaseFlag.Fetch(context) == "" {
		return nil
	}
	return receipt.NewStoreSink(store)
}

func readJSON(path string, target any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}
