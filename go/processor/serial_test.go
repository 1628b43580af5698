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
	"errors"
	"testing"

	"github.com/animica/execution/go/chain"
	"github.com/animica/execution/go/receipt"
)

func transferTx(sender, recipient chain.Address, nonce uint64, value uint64) chain.Transaction {
	return chain.Transaction{
		Kind:      chain.Transfer,
		Sender:    sender,
		Recipient: &recipient,
		Nonce:     nonce,
		Value:     chain.NewValue(value),
		GasLimit:  30_000,
		GasPrice:  chain.NewValue(2),
	}
}

func TestSerialExecutor_ProducesReceiptsInBlockOrder(t *testing.T) {
	a, b, c := chain.Address{1}, chain.Address{2}, chain.Address{3}
	journal := newTestJournal(map[chain.Address]uint64{a: 1_000_000, b: 10})

	block := chain.Block{
		BlockParameters: chain.BlockParameters{Number: 1, GasLimit: 1_000_000, Coinbase: chain.Address{0xcc}},
		Transactions: []chain.Transaction{
			transferTx(a, b, 0, 100),
			transferTx(b, c, 0, 5),  // can not pay for gas
			transferTx(a, c, 5, 1),  // wrong nonce
			transferTx(a, c, 1, 50), // fine
		},
	}

	res, err := NewSerialExecutor(newTestProcessor(nil)).Execute(context.Background(), block, journal)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []struct {
		status     chain.Status
		gasUsed    chain.Gas
		cumulative chain.Gas
	}{
		{chain.StatusSuccess, 21_000, 21_000},
		{chain.StatusInsufficientBalance, 0, 21_000},
		{chain.StatusInvalidNonce, 0, 21_000},
		{chain.StatusSuccess, 21_000, 42_000},
	}
	if len(res.Receipts) != len(want) {
		t.Fatalf("unexpected number of receipts, wanted %d, got %d", len(want), len(res.Receipts))
	}
	for i, w := range want {
		r := res.Receipts[i]
		if r.Status != w.status || r.GasUsed != w.gasUsed || r.CumulativeGasUsed != w.cumulative || r.TxIndex != i {
			t.Errorf("unexpected receipt %d: %+v", i, r)
		}
	}
	if want, got := chain.Gas(42_000), res.GasUsed; want != got {
		t.Errorf("unexpected block gas, wanted %d, got %d", want, got)
	}
	if want, got := chain.NewValue(84_000), res.Tips; want != got {
		t.Errorf("unexpected fees, wanted %v, got %v", want, got)
	}
	if want, got := chain.NewValue(1_000_000-150-84_000), journal.GetBalance(a); want != got {
		t.Errorf("unexpected balance of a, wanted %v, got %v", want, got)
	}
	if want, got := chain.NewValue(50), journal.GetBalance(c); want != got {
		t.Errorf("unexpected balance of c, wanted %v, got %v", want, got)
	}
}

func TestSerialExecutor_ReceiptsMatchBuilder(t *testing.T) {
	a, b := chain.Address{1}, chain.Address{2}
	journal := newTestJournal(map[chain.Address]uint64{a: 1_000_000})
	block := chain.Block{
		BlockParameters: chain.BlockParameters{GasLimit: 100_000},
		Transactions:    []chain.Transaction{transferTx(a, b, 0, 1)},
	}

	res, err := NewSerialExecutor(newTestProcessor(nil)).Execute(context.Background(), block, journal)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := receipt.Build(chain.StatusSuccess, 21_000, 21_000, nil)
	got, err := receipt.Hash(res.Receipts[0])
	if err != nil {
		t.Fatalf("failed to hash receipt: %v", err)
	}
	if wantHash, _ := receipt.Hash(want); wantHash != got {
		t.Errorf("unexpected receipt hash, wanted %v, got %v", wantHash, got)
	}
}

func TestSerialExecutor_BlockGasLimitIsFatal(t *testing.T) {
	a, b := chain.Address{1}, chain.Address{2}
	journal := newTestJournal(map[chain.Address]uint64{a: 1_000_000})

	block := chain.Block{
		BlockParameters: chain.BlockParameters{GasLimit: 50_000},
		Transactions: []chain.Transaction{
			transferTx(a, b, 0, 1),
			transferTx(a, b, 1, 1),
		},
	}
	// after the first transaction 29,000 gas remain, the second needs 30,000
	_, err := NewSerialExecutor(newTestProcessor(nil)).Execute(context.Background(), block, journal)
	if !errors.Is(err, chain.ErrBlockGasLimitReached) {
		t.Errorf("expected block gas limit error, got %v", err)
	}
}

func TestSerialExecutor_UnusedGasIsReturnedToPool(t *testing.T) {
	a, b := chain.Address{1}, chain.Address{2}
	journal := newTestJournal(map[chain.Address]uint64{a: 1_000_000})

	block := chain.Block{
		BlockParameters: chain.BlockParameters{GasLimit: 60_000},
		Transactions: []chain.Transaction{
			transferTx(a, b, 0, 1),
			transferTx(a, b, 1, 1),
		},
	}
	res, err := NewSerialExecutor(newTestProcessor(nil)).Execute(context.Background(), block, journal)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want, got := chain.Gas(42_000), res.GasUsed; want != got {
		t.Errorf("unexpected gas used, wanted %d, got %d", want, got)
	}
}

func TestSerialExecutor_HonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	block := chain.Block{
		BlockParameters: chain.BlockParameters{GasLimit: 100_000},
		Transactions:    []chain.Transaction{transferTx(chain.Address{1}, chain.Address{2}, 0, 1)},
	}
	_, err := NewSerialExecutor(newTestProcessor(nil)).Execute(ctx, block, newTestJournal(nil))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected cancellation, got %v", err)
	}
}

func TestResultBuilder_KeepsContractAddress(t *testing.T) {
	builder := NewResultBuilder(chain.BlockParameters{GasLimit: 100_000})
	if err := builder.Reserve(chain.Transaction{GasLimit: 60_000}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	address := chain.Address{7}
	if err := builder.Add(Outcome{Status: chain.StatusSuccess, GasUsed: 55_000, ContractAddress: &address, Tip: chain.NewValue(3)}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	res := builder.Result()
	if res.Receipts[0].ContractAddress == nil || *res.Receipts[0].ContractAddress != address {
		t.Errorf("contract address missing in receipt")
	}
	if err := builder.Reserve(chain.Transaction{GasLimit: 45_000}); err != nil {
		t.Errorf("unused gas should be available again: %v", err)
	}
	if err := builder.Add(Outcome{GasUsed: 50_000, Status: chain.StatusSuccess}); !errors.Is(err, chain.ErrGasUintOverflow) {
		t.Errorf("outcome exceeding its reservation should be rejected, got %v", err)
	}
}
