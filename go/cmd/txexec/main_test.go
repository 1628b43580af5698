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
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/animica/execution/go/chain"
	"github.com/animica/execution/go/receipt"
	"github.com/animica/execution/go/state"
)

const testGenesis = `{
	"chainId": 1,
	"alloc": {
		"0x0100000000000000000000000000000000000000": {"balance": "1000"},
		"0x0200000000000000000000000000000000000000": {"balance": "1000000000"},
		"0xc000000000000000000000000000000000000000": {"nonce": 1, "code": "kvstore"}
	}
}`

const testTransfer = `{
	"kind": "transfer",
	"sender": "0x0100000000000000000000000000000000000000",
	"recipient": "0x0300000000000000000000000000000000000000",
	"nonce": 0,
	"value": "100",
	"gasLimit": 21000,
	"gasPrice": "0"
}`

// The input sets slot 0x01..00 to 0x02..00.
const testBlock = `{
	"number": 1,
	"gasLimit": 10000000,
	"coinbase": "0xcb00000000000000000000000000000000000000",
	"transactions": [
		{
			"kind": "transfer",
			"sender": "0x0100000000000000000000000000000000000000",
			"recipient": "0x0300000000000000000000000000000000000000",
			"nonce": 0,
			"value": "100",
			"gasLimit": 21000,
			"gasPrice": "0"
		},
		{
			"kind": "call",
			"sender": "0x0200000000000000000000000000000000000000",
			"recipient": "0xc000000000000000000000000000000000000000",
			"nonce": 0,
			"value": "0",
			"input": "0x0101000000000000000000000000000000000000000000000000000000000000000200000000000000000000000000000000000000000000000000000000000000",
			"gasLimit": 100000,
			"gasPrice": "1"
		}
	]
}`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	err := app.Run(append([]string{"txexec", "--verbosity", "0"}, args...))
	return out.String(), err
}

func TestRunTx_SimpleTransfer(t *testing.T) {
	genesis := writeFile(t, "genesis.json", testGenesis)
	tx := writeFile(t, "tx.json", testTransfer)

	out, err := run(t, "run-tx", "--genesis", genesis, "--tx", tx)
	if err != nil {
		t.Fatalf("command failed: %v", err)
	}
	if !strings.Contains(out, "tx 0: status SUCCESS, gas used 21000, logs 0") {
		t.Errorf("unexpected output:\n%s", out)
	}
	if !strings.Contains(out, "state root: 0x") {
		t.Errorf("state root missing in output:\n%s", out)
	}
}

func TestRunTx_MissingTransactionFile(t *testing.T) {
	if _, err := run(t, "run-tx", "--tx", filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Errorf("expected error for missing transaction file")
	}
}

func TestApplyBlock_SchedulersAgree(t *testing.T) {
	genesis := writeFile(t, "genesis.json", testGenesis)
	block := writeFile(t, "block.json", testBlock)

	serial, err := run(t, "apply-block", "--genesis", genesis, "--block", block)
	if err != nil {
		t.Fatalf("serial execution failed: %v", err)
	}
	optimistic, err := run(t, "apply-block", "--genesis", genesis, "--block", block,
		"--scheduler", "optimistic", "--workers", "2", "--wave", "2", "--validate")
	if err != nil {
		t.Fatalf("optimistic execution failed: %v", err)
	}

	for _, line := range []string{"tx 0: status SUCCESS", "tx 1: status SUCCESS", "state root:", "receipts root:"} {
		if !strings.Contains(serial, line) {
			t.Errorf("missing %q in output:\n%s", line, serial)
		}
	}
	if want, got := rootLines(serial), rootLines(optimistic); want != got {
		t.Errorf("schedulers disagree:\n%s\nvs\n%s", want, got)
	}
	if !strings.Contains(optimistic, "waves: 1") {
		t.Errorf("missing scheduler statistics:\n%s", optimistic)
	}
}

func TestApplyBlock_PersistsIntoDatabase(t *testing.T) {
	genesis := writeFile(t, "genesis.json", testGenesis)
	block := writeFile(t, "block.json", testBlock)
	db := t.TempDir()

	if _, err := run(t, "apply-block", "--genesis", genesis, "--block", block, "--db", db); err != nil {
		t.Fatalf("failed to apply block: %v", err)
	}
	// applying the same block again fails the nonce checks of both transactions
	out, err := run(t, "apply-block", "--block", block, "--db", db)
	if err != nil {
		t.Fatalf("failed to apply block: %v", err)
	}
	if !strings.Contains(out, "tx 0: status INVALID_NONCE") || !strings.Contains(out, "tx 1: status INVALID_NONCE") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestApplyBlock_StoresReceiptsInDatabase(t *testing.T) {
	genesis := writeFile(t, "genesis.json", testGenesis)
	block := writeFile(t, "block.json", testBlock)
	db := t.TempDir()

	out, err := run(t, "apply-block", "--genesis", genesis, "--block", block, "--db", db)
	if err != nil {
		t.Fatalf("failed to apply block: %v", err)
	}

	store, err := state.OpenLevelDbStore(db)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer store.Close()
	loaded, err := receipt.NewStoreSink(store).Load(1)
	if err != nil {
		t.Fatalf("failed to load receipts: %v", err)
	}
	if len(loaded.Receipts) != 2 {
		t.Fatalf("unexpected number of receipts %d", len(loaded.Receipts))
	}
	for i, r := range loaded.Receipts {
		if r.Status != chain.StatusSuccess {
			t.Errorf("unexpected status of receipt %d: %v", i, r.Status)
		}
	}
	if !strings.Contains(out, "receipts root: "+loaded.Root.String()) {
		t.Errorf("stored receipts root %v not in output:\n%s", loaded.Root, out)
	}
}

func TestApplyBlock_PrintsFeeSplit(t *testing.T) {
	genesis := writeFile(t, "genesis.json", testGenesis)
	block := writeFile(t, "block.json", testBlock)
	out, err := run(t, "apply-block", "--genesis", genesis, "--block", block)
	if err != nil {
		t.Fatalf("failed to apply block: %v", err)
	}
	// without a base fee, the complete fee is a tip
	for _, line := range []string{"\ntips: ", "\nbase fees: 0\n"} {
		if !strings.Contains(out, line) {
			t.Errorf("missing %q in output:\n%s", line, out)
		}
	}
	if strings.Contains(out, "\ntips: 0\n") {
		t.Errorf("expected a non-zero tip:\n%s", out)
	}
}

func TestApplyBlock_RejectsUnknownScheduler(t *testing.T) {
	block := writeFile(t, "block.json", testBlock)
	if _, err := run(t, "apply-block", "--block", block, "--scheduler", "magic"); err == nil {
		t.Errorf("expected error for unknown scheduler")
	}
}

func rootLines(out string) string {
	var res []string
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "state root") || strings.HasPrefix(line, "receipts root") || strings.HasPrefix(line, "tx ") {
			res = append(res, line)
		}
	}
	return strings.Join(res, "\n")
}
