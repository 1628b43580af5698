// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package programs

import (
	"errors"
	"math"
	"testing"

	"github.com/animica/execution/go/chain"
	"github.com/animica/execution/go/gas"
	"github.com/animica/execution/go/params"
	"github.com/animica/execution/go/state"
)

var contract = chain.Address{0xc0}

func runKvStore(t *testing.T, view chain.StateView, input chain.Data, limit chain.Gas) (chain.Outcome, *gas.Meter, error) {
	t.Helper()
	return runKvStoreWith(t, params.Default(), view, input, limit)
}

func runKvStoreWith(t *testing.T, p params.Params, view chain.StateView, input chain.Data, limit chain.Gas) (chain.Outcome, *gas.Meter, error) {
	t.Helper()
	program, err := newKvStore(p)
	if err != nil {
		t.Fatalf("failed to create program: %v", err)
	}
	meter := gas.NewMeter(limit, p)
	ctx := chain.RunContext{
		Sender:    chain.Address{1},
		Recipient: contract,
		Input:     input,
		Code:      chain.Code(KvStoreName),
	}
	outcome, err := program.Run(ctx, meter, view)
	return outcome, meter, err
}

func newJournal() *state.Journal {
	return state.NewJournal(state.NewStateReader(state.NewMemoryStore()))
}

func TestKvStore_SetAndGet(t *testing.T) {
	journal := newJournal()
	p := params.Default()

	input := new(Input).Set(chain.Key{1}, chain.Word{2}).Get(chain.Key{1}).Build()
	outcome, meter, err := runKvStore(t, journal, input, 100_000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !outcome.Success {
		t.Fatalf("expected success")
	}
	if got := journal.GetStorage(contract, chain.Key{1}); got != (chain.Word{2}) {
		t.Errorf("unexpected storage value %v", got)
	}
	want := chain.Word{2}
	if string(outcome.Output) != string(want[:]) {
		t.Errorf("unexpected output %x", outcome.Output)
	}
	if want, got := 2*p.StorageReadGas+p.StorageSetGas, meter.Consumed(); want != got {
		t.Errorf("unexpected gas consumption, wanted %d, got %d", want, got)
	}
}

func TestKvStore_StorageCosts(t *testing.T) {
	p := params.Default()
	tests := map[string]struct {
		initial chain.Word
		input   chain.Data
		cost    chain.Gas
		refund  chain.Gas
	}{
		"add": {
			input: new(Input).Set(chain.Key{1}, chain.Word{1}).Build(),
			cost:  p.StorageReadGas + p.StorageSetGas,
		},
		"modify": {
			initial: chain.Word{1},
			input:   new(Input).Set(chain.Key{1}, chain.Word{2}).Build(),
			cost:    p.StorageReadGas + p.StorageResetGas,
		},
		"assign": {
			initial: chain.Word{1},
			input:   new(Input).Set(chain.Key{1}, chain.Word{1}).Build(),
			cost:    p.StorageReadGas,
		},
		"clear": {
			initial: chain.Word{1},
			input:   new(Input).Clear(chain.Key{1}).Build(),
			cost:    p.StorageReadGas + p.StorageResetGas,
			refund:  p.StorageClearRefund,
		},
		"clear empty": {
			input: new(Input).Clear(chain.Key{1}).Build(),
			cost:  p.StorageReadGas,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			journal := newJournal()
			journal.SetStorage(contract, chain.Key{1}, test.initial)

			_, meter, err := runKvStore(t, journal, test.input, 100_000)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if want, got := test.cost, meter.Consumed(); want != got {
				t.Errorf("unexpected cost, wanted %d, got %d", want, got)
			}
			if want, got := test.refund, meter.PendingRefund(); want != got {
				t.Errorf("unexpected refund, wanted %d, got %d", want, got)
			}
		})
	}
}

func TestKvStore_Log(t *testing.T) {
	p := params.Default()
	data := make([]byte, 33)
	input := new(Input).Log(chain.Hash{7}, data).Build()

	outcome, meter, err := runKvStore(t, newJournal(), input, 100_000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(outcome.Logs) != 1 {
		t.Fatalf("expected one log, got %d", len(outcome.Logs))
	}
	log := outcome.Logs[0]
	if log.Address != contract || len(log.Topics) != 1 || log.Topics[0] != (chain.Hash{7}) || len(log.Data) != 33 {
		t.Errorf("unexpected log %v", log)
	}
	if want, got := p.LogGas+p.LogTopicGas+2*p.LogDataWordGas, meter.Consumed(); want != got {
		t.Errorf("unexpected cost, wanted %d, got %d", want, got)
	}
}

func TestKvStore_CostsExceedingGasRangeRunOutOfGas(t *testing.T) {
	huge := func(modify func(*params.Params)) params.Params {
		p := params.Default()
		modify(&p)
		return p
	}
	tests := map[string]struct {
		params params.Params
		input  chain.Data
	}{
		"log data words": {
			params: huge(func(p *params.Params) { p.LogDataWordGas = math.MaxUint64 / 2 }),
			input:  new(Input).Log(chain.Hash{1}, make([]byte, 96)).Build(),
		},
		"log fixed costs": {
			params: huge(func(p *params.Params) { p.LogGas, p.LogTopicGas = math.MaxUint64, 1 }),
			input:  new(Input).Log(chain.Hash{1}, nil).Build(),
		},
		"set": {
			params: huge(func(p *params.Params) { p.StorageSetGas = math.MaxUint64 }),
			input:  new(Input).Set(chain.Key{2}, chain.Word{1}).Build(),
		},
		"clear": {
			params: huge(func(p *params.Params) { p.StorageResetGas = math.MaxUint64 }),
			input:  new(Input).Clear(chain.Key{1}).Build(),
		},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			journal := newJournal()
			journal.SetStorage(contract, chain.Key{1}, chain.Word{2})
			_, meter, err := runKvStoreWith(t, test.params, journal, test.input, 100_000)
			if !errors.Is(err, chain.ErrOutOfGas) {
				t.Errorf("expected out of gas, got %v", err)
			}
			if want, got := chain.Gas(100_000), meter.Consumed(); want != got {
				t.Errorf("all gas should be consumed, wanted %d, got %d", want, got)
			}
		})
	}
}

func TestKvStore_Revert(t *testing.T) {
	input := new(Input).Set(chain.Key{1}, chain.Word{1}).Revert().Set(chain.Key{2}, chain.Word{1}).Build()
	outcome, _, err := runKvStore(t, newJournal(), input, 100_000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Success {
		t.Errorf("expected revert")
	}
}

func TestKvStore_BurnBeyondLimitRunsOutOfGas(t *testing.T) {
	_, meter, err := runKvStore(t, newJournal(), new(Input).Burn(1000).Burn(10_000).Build(), 5_000)
	if !errors.Is(err, chain.ErrOutOfGas) {
		t.Errorf("expected out of gas, got %v", err)
	}
	if want, got := chain.Gas(5_000), meter.Consumed(); want != got {
		t.Errorf("all gas should be consumed, wanted %d, got %d", want, got)
	}
}

func TestKvStore_Transfer(t *testing.T) {
	journal := newJournal()
	journal.SetBalance(contract, chain.NewValue(100))

	input := new(Input).Transfer(chain.Address{5}, chain.NewValue(30)).Build()
	if _, _, err := runKvStore(t, journal, input, 100_000); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want, got := chain.NewValue(70), journal.GetBalance(contract); want != got {
		t.Errorf("unexpected contract balance, wanted %v, got %v", want, got)
	}
	if want, got := chain.NewValue(30), journal.GetBalance(chain.Address{5}); want != got {
		t.Errorf("unexpected recipient balance, wanted %v, got %v", want, got)
	}

	input = new(Input).Transfer(chain.Address{5}, chain.NewValue(71)).Build()
	if _, _, err := runKvStore(t, journal, input, 100_000); !errors.Is(err, chain.ErrInsufficientBalance) {
		t.Errorf("expected insufficient balance, got %v", err)
	}
}

func TestKvStore_MalformedInputIsEncodingError(t *testing.T) {
	tests := map[string]chain.Data{
		"unknown op":      {0xff},
		"zero op":         {0x00},
		"truncated set":   new(Input).Set(chain.Key{1}, chain.Word{1}).Build()[:40],
		"truncated log":   new(Input).Log(chain.Hash{1}, []byte{1, 2, 3}).Build()[:35],
		"truncated burn":  {byte(OpBurn), 1, 2},
		"truncated clear": {byte(OpClear)},
	}
	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			journal := newJournal()
			_, _, err := runKvStore(t, journal, input, 100_000)
			if !errors.Is(err, chain.ErrEncoding) {
				t.Errorf("expected encoding error, got %v", err)
			}
		})
	}
}

func TestKvStore_EmptyInputSucceeds(t *testing.T) {
	outcome, meter, err := runKvStore(t, newJournal(), nil, 100)
	if err != nil || !outcome.Success || meter.Consumed() != 0 {
		t.Errorf("empty input should succeed without cost, got %v, %v, %d", outcome, err, meter.Consumed())
	}
}

func TestOpCode_String(t *testing.T) {
	if want, got := "TRANSFER", OpTransfer.String(); want != got {
		t.Errorf("unexpected name, wanted %s, got %s", want, got)
	}
	if want, got := "op(0x20)", OpCode(0x20).String(); want != got {
		t.Errorf("unexpected name, wanted %s, got %s", want, got)
	}
}
