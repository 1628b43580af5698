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
	"encoding/binary"
	"fmt"
	"math/bits"

	"github.com/animica/execution/go/chain"
	"github.com/animica/execution/go/params"
)

// KvStoreName is the name, and thereby the code, of the key/value store
// program.
const KvStoreName = "kvstore"

func init() {
	RegisterProgram(KvStoreName, newKvStore)
}

// OpCode identifies an operation of the key/value store program.
type OpCode byte

const (
	// SET key[32] value[32]
	OpSet OpCode = iota + 1
	// CLEAR key[32]
	OpClear
	// LOG topic[32] length[2] data[length]
	OpLog
	// REVERT
	OpRevert
	// BURN gas[8]
	OpBurn
	// TRANSFER address[20] value[32]
	OpTransfer
	// GET key[32], appends the value to the output
	OpGet
)

func (op OpCode) String() string {
	switch op {
	case OpSet:
		return "SET"
	case OpClear:
		return "CLEAR"
	case OpLog:
		return "LOG"
	case OpRevert:
		return "REVERT"
	case OpBurn:
		return "BURN"
	case OpTransfer:
		return "TRANSFER"
	case OpGet:
		return "GET"
	default:
		return fmt.Sprintf("op(0x%02x)", byte(op))
	}
}

// kvStore is a program maintaining a key/value store in the storage of its
// account. Its input is a sequence of operations, executed in order. All
// gas costs are taken from the protocol parameters.
type kvStore struct {
	params params.Params
}

func newKvStore(p params.Params) (chain.Executable, error) {
	return kvStore{params: p}, nil
}

func (k kvStore) Run(ctx chain.RunContext, meter chain.GasMeter, view chain.StateView) (chain.Outcome, error) {
	res := chain.Outcome{Success: true}
	in := input{data: ctx.Input}
	for !in.done() {
		op := OpCode(in.next())
		switch op {
		case OpSet:
			key, value := chain.Key(in.bytes(32)), chain.Word(in.bytes(32))
			if err := in.err; err != nil {
				return chain.Outcome{}, err
			}
			if err := k.store(ctx.Recipient, key, value, meter, view); err != nil {
				return chain.Outcome{}, err
			}
		case OpClear:
			key := chain.Key(in.bytes(32))
			if err := in.err; err != nil {
				return chain.Outcome{}, err
			}
			if err := k.store(ctx.Recipient, key, chain.Word{}, meter, view); err != nil {
				return chain.Outcome{}, err
			}
		case OpGet:
			key := chain.Key(in.bytes(32))
			if err := in.err; err != nil {
				return chain.Outcome{}, err
			}
			if err := meter.Charge(k.params.StorageReadGas); err != nil {
				return chain.Outcome{}, err
			}
			value := view.GetStorage(ctx.Recipient, key)
			res.Output = append(res.Output, value[:]...)
		case OpLog:
			topic := chain.Hash(in.bytes(32))
			length := binary.BigEndian.Uint16(in.bytes(2))
			data := in.bytes(int(length))
			if err := in.err; err != nil {
				return chain.Outcome{}, err
			}
			words := chain.SizeInWords(uint64(length))
			if err := charge(meter, words, k.params.LogDataWordGas, k.params.LogGas, k.params.LogTopicGas); err != nil {
				return chain.Outcome{}, err
			}
			res.Logs = append(res.Logs, chain.Log{
				Address: ctx.Recipient,
				Topics:  []chain.Hash{topic},
				Data:    append(chain.Data(nil), data...),
			})
		case OpRevert:
			return chain.Outcome{Success: false}, nil
		case OpBurn:
			amount := binary.BigEndian.Uint64(in.bytes(8))
			if err := in.err; err != nil {
				return chain.Outcome{}, err
			}
			if err := meter.Charge(chain.Gas(amount)); err != nil {
				return chain.Outcome{}, err
			}
		case OpTransfer:
			recipient := chain.Address(in.bytes(20))
			value := chain.Value(in.bytes(32))
			if err := in.err; err != nil {
				return chain.Outcome{}, err
			}
			if err := meter.Charge(k.params.TransferGas); err != nil {
				return chain.Outcome{}, err
			}
			if err := transfer(view, ctx.Recipient, recipient, value); err != nil {
				return chain.Outcome{}, err
			}
		default:
			return chain.Outcome{}, fmt.Errorf("%w: unknown operation %v at offset %d", chain.ErrEncoding, op, in.pos-1)
		}
	}
	return res, nil
}

// store updates a storage slot, charging for the write and registering the
// refund for cleared slots.
func (k kvStore) store(addr chain.Address, key chain.Key, value chain.Word, meter chain.GasMeter, view chain.StateView) error {
	current := view.GetStorage(addr, key)
	var write chain.Gas
	switch chain.GetStorageStatus(current, value) {
	case chain.StorageAdded:
		write = k.params.StorageSetGas
	case chain.StorageModified, chain.StorageDeleted:
		write = k.params.StorageResetGas
	}
	if err := charge(meter, 0, 0, k.params.StorageReadGas, write); err != nil {
		return err
	}
	if view.SetStorage(addr, key, value) == chain.StorageDeleted {
		meter.Refund(k.params.StorageClearRefund)
	}
	return nil
}

// charge consumes count*price plus the fixed costs. A total exceeding the
// gas range can never be paid and exhausts the meter.
func charge(meter chain.GasMeter, count uint64, price chain.Gas, fixed ...chain.Gas) error {
	hi, total := bits.Mul64(count, uint64(price))
	carry := hi
	for _, cost := range fixed {
		var c uint64
		total, c = bits.Add64(total, uint64(cost), 0)
		carry |= c
	}
	if carry != 0 {
		_ = meter.Charge(meter.Remaining())
		return fmt.Errorf("%w: cost exceeds gas range", chain.ErrOutOfGas)
	}
	return meter.Charge(chain.Gas(total))
}

func transfer(view chain.StateView, from, to chain.Address, value chain.Value) error {
	balance, underflow := chain.SubUnderflow(view.GetBalance(from), value)
	if underflow {
		return fmt.Errorf("%w: program %v can not transfer %v", chain.ErrInsufficientBalance, from, value)
	}
	if from == to {
		return nil
	}
	received, overflow := chain.AddOverflow(view.GetBalance(to), value)
	if overflow {
		return fmt.Errorf("balance overflow of %v", to)
	}
	view.SetBalance(from, balance)
	view.SetBalance(to, received)
	return nil
}

// input is a cursor over the operations of a program input. Reading past
// the end of the input sets err and yields zero bytes.
type input struct {
	data []byte
	pos  int
	err  error
}

func (i *input) done() bool {
	return i.pos >= len(i.data)
}

func (i *input) next() byte {
	return i.bytes(1)[0]
}

func (i *input) bytes(n int) []byte {
	if i.err != nil || len(i.data)-i.pos < n {
		if i.err == nil {
			i.err = fmt.Errorf("%w: truncated input at offset %d", chain.ErrEncoding, i.pos)
		}
		return make([]byte, n)
	}
	res := i.data[i.pos : i.pos+n]
	i.pos += n
	return res
}

// Input assembles the input of the key/value store program.
type Input struct {
	data []byte
}

func (b *Input) Set(key chain.Key, value chain.Word) *Input {
	b.data = append(b.data, byte(OpSet))
	b.data = append(b.data, key[:]...)
	b.data = append(b.data, value[:]...)
	return b
}

func (b *Input) Clear(key chain.Key) *Input {
	b.data = append(b.data, byte(OpClear))
	b.data = append(b.data, key[:]...)
	return b
}

func (b *Input) Get(key chain.Key) *Input {
	b.data = append(b.data, byte(OpGet))
	b.data = append(b.data, key[:]...)
	return b
}

func (b *Input) Log(topic chain.Hash, data []byte) *Input {
	b.data = append(b.data, byte(OpLog))
	b.data = append(b.data, topic[:]...)
	b.data = binary.BigEndian.AppendUint16(b.data, uint16(len(data)))
	b.data = append(b.data, data...)
	return b
}

func (b *Input) Revert() *Input {
	b.data = append(b.data, byte(OpRevert))
	return b
}

func (b *Input) Burn(gas chain.Gas) *Input {
	b.data = append(b.data, byte(OpBurn))
	b.data = binary.BigEndian.AppendUint64(b.data, uint64(gas))
	return b
}

func (b *Input) Transfer(to chain.Address, value chain.Value) *Input {
	b.data = append(b.data, byte(OpTransfer))
	b.data = append(b.data, to[:]...)
	b.data = append(b.data, value[:]...)
	return b
}

// Build returns the assembled input.
func (b *Input) Build() chain.Data {
	return append(chain.Data(nil), b.data...)
}
