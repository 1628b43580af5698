// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package gas

import (
	"errors"
	"math"
	"testing"

	"github.com/animica/execution/go/chain"
	"github.com/animica/execution/go/params"
)

func TestIntrinsicGas(t *testing.T) {
	recipient := &chain.Address{1}
	tests := map[string]struct {
		tx   chain.Transaction
		want chain.Gas
	}{
		"plain transfer": {
			tx:   chain.Transaction{Kind: chain.Transfer, Recipient: recipient},
			want: 21_000,
		},
		"fixed-size fields are not priced": {
			tx: chain.Transaction{
				Kind:      chain.Transfer,
				Sender:    chain.Address{0xff, 19: 0xff},
				Recipient: recipient,
				Nonce:     1 << 60,
				Value:     chain.NewValue(1<<62, 1, 2, 3),
				GasLimit:  1 << 50,
				GasPrice:  chain.NewValue(1 << 40),
			},
			want: 21_000,
		},
		"call with input": {
			tx:   chain.Transaction{Kind: chain.Call, Recipient: recipient, Input: []byte{0, 1, 2, 0}},
			want: 21_000 + 2*16 + 2*4,
		},
		"deploy": {
			tx:   chain.Transaction{Kind: chain.Deploy, Input: []byte("kv")},
			want: 53_000 + 2*16,
		},
		"access list": {
			tx: chain.Transaction{
				Kind:      chain.Call,
				Recipient: recipient,
				AccessList: []chain.AccessTuple{
					{Address: chain.Address{1}, Keys: []chain.Key{{1}, {2}}},
					{Address: chain.Address{2}},
				},
			},
			want: 21_000 + 2*2400 + 2*1900,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := IntrinsicGas(&test.tx, params.Default())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != test.want {
				t.Errorf("unexpected intrinsic gas, wanted %d, got %d", test.want, got)
			}
		})
	}
}

func TestIntrinsicGas_AccessListsAreFreeBeforeTheirVersion(t *testing.T) {
	p, err := params.ForVersion(params.V1_Genesis)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tx := chain.Transaction{
		Kind:       chain.Transfer,
		Recipient:  &chain.Address{1},
		AccessList: []chain.AccessTuple{{Address: chain.Address{1}, Keys: []chain.Key{{1}}}},
	}
	got, err := IntrinsicGas(&tx, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 21_000 {
		t.Errorf("unexpected intrinsic gas %d", got)
	}
}

func TestIntrinsicGas_OverflowIsDetected(t *testing.T) {
	p := params.Default()
	p.TxDataNonZeroGas = math.MaxUint64 / 2
	tx := chain.Transaction{Kind: chain.Call, Recipient: &chain.Address{1}, Input: []byte{1, 1, 1}}
	if _, err := IntrinsicGas(&tx, p); !errors.Is(err, chain.ErrGasUintOverflow) {
		t.Errorf("expected overflow error, got %v", err)
	}
}
