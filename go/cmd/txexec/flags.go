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
	"runtime"

	"github.com/urfave/cli/v2"
)

type verbosityFlagType struct {
	flag cli.IntFlag
}

var VerbosityFlag = verbosityFlagType{
	cli.IntFlag{
		Name:  "verbosity",
		Usage: "logging verbosity: 0=critical, 1=error, 2=warn, 3=info, 4=debug, 5=trace",
		Value: 2,
	},
}

func (f *verbosityFlagType) Fetch(context *cli.Context) int {
	return context.Int(f.flag.Name)
}

type fileFlagType struct {
	flag cli.StringFlag
}

var GenesisFlag = fileFlagType{
	cli.StringFlag{
		Name:      "genesis",
		Usage:     "JSON file describing the initial state",
		TakesFile: true,
	},
}

var TransactionFlag = fileFlagType{
	cli.StringFlag{
		Name:      "tx",
		Usage:     "JSON file describing the transaction to run",
		TakesFile: true,
		Required:  true,
	},
}

var BlockFlag = fileFlagType{
	cli.StringFlag{
		Name:      "block",
		Usage:     "JSON file describing the block to apply",
		TakesFile: true,
		Required:  true,
	},
}

var ParamsFlag = fileFlagType{
	cli.StringFlag{
		Name:      "params",
		Usage:     "TOML file with protocol parameters, defaults to the latest version",
		TakesFile: true,
	},
}

var DatabaseFlag = fileFlagType{
	cli.StringFlag{
		Name:      "db",
		Usage:     "LevelDB directory holding the state, in-memory if not set",
		TakesFile: true,
	},
}

func (f *fileFlagType) Fetch(context *cli.Context) string {
	return context.String(f.flag.Name)
}

type schedulerFlagType struct {
	flag cli.StringFlag
}

var SchedulerFlag = schedulerFlagType{
	cli.StringFlag{
		Name:  "scheduler",
		Usage: "block executor to use: serial or optimistic",
		Value: "serial",
	},
}

func (f *schedulerFlagType) Fetch(context *cli.Context) (string, error) {
	switch value := context.String(f.flag.Name); value {
	case "serial", "optimistic":
		return value, nil
	default:
		return "", fmt.Errorf("invalid scheduler %q, use one of: serial, optimistic", value)
	}
}

type intFlagType struct {
	flag cli.IntFlag
}

var WorkersFlag = intFlagType{
	cli.IntFlag{
		Name:    "workers",
		Aliases: []string{"j"},
		Usage:   "number of transactions executed simultaneously by the optimistic scheduler",
		Value:   runtime.NumCPU(),
	},
}

var WaveFlag = intFlagType{
	cli.IntFlag{
		Name:  "wave",
		Usage: "number of transactions speculated together, 0 for twice the number of workers",
	},
}

var CacheFlag = intFlagType{
	cli.IntFlag{
		Name:  "cache",
		Usage: "number of state entries cached in memory, 0 to disable",
		Value: 1 << 16,
	},
}

func (f *intFlagType) Fetch(context *cli.Context) int {
	return context.Int(f.flag.Name)
}

type validateFlagType struct {
	flag cli.BoolFlag
}

var ValidateFlag = validateFlagType{
	cli.BoolFlag{
		Name:  "validate",
		Usage: "compare the results of the optimistic scheduler with a serial execution",
	},
}

func (f *validateFlagType) Fetch(context *cli.Context) bool {
	return context.Bool(f.flag.Name)
}
