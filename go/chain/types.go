// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package chain

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math/big"
	"math/bits"
	"strings"

	"github.com/holiman/uint256"
)

// Address represents the 160-bit (20 bytes) address of an account.
type Address [20]byte

// Key represents the 256-bit (32 bytes) key of a storage slot.
type Key [32]byte

// Word represents the 256-bit (32 byte) value of a storage slot.
type Word [32]byte

// Value represents an amount of chain currency.
type Value [32]byte

// Hash represents the 256-bit (32 bytes) hash of a code, a receipt, a topic
// or similar sequence of cryptographic summary information.
type Hash [32]byte

// Code represents the code reference installed on a contract account.
type Code []byte

// Data represents the input or output of contract invocations.
type Data []byte

// Gas represents the type used to represent gas values. Gas is unsigned;
// all arithmetic on it has to be overflow checked.
type Gas uint64

func (a Address) String() string {
	return fmt.Sprintf("0x%x", a[:])
}

func (a Address) MarshalText() ([]byte, error) {
	return bytesToText(a[:])
}

func (a *Address) UnmarshalText(data []byte) error {
	return textToBytes(a[:], data)
}

func (k Key) String() string {
	return fmt.Sprintf("0x%x", k[:])
}

func (k Key) MarshalText() ([]byte, error) {
	return bytesToText(k[:])
}

func (k *Key) UnmarshalText(data []byte) error {
	return textToBytes(k[:], data)
}

func (w Word) String() string {
	return fmt.Sprintf("0x%x", w[:])
}

func (w Word) MarshalText() ([]byte, error) {
	return bytesToText(w[:])
}

func (w *Word) UnmarshalText(data []byte) error {
	return textToBytes(w[:], data)
}

func (h Hash) String() string {
	return fmt.Sprintf("0x%x", h[:])
}

func (h Hash) MarshalText() ([]byte, error) {
	return bytesToText(h[:])
}

func (h *Hash) UnmarshalText(data []byte) error {
	return textToBytes(h[:], data)
}

func (d Data) MarshalText() ([]byte, error) {
	return bytesToText(d)
}

func (d *Data) UnmarshalText(data []byte) error {
	s := string(data)
	if !strings.HasPrefix(s, "0x") {
		return fmt.Errorf("invalid format, does not start with 0x: %v", s)
	}
	res, err := hex.DecodeString(s[2:])
	if err != nil {
		return err
	}
	*d = res
	return nil
}

func (c Code) MarshalText() ([]byte, error) {
	return []byte(c), nil
}

func (c *Code) UnmarshalText(data []byte) error {
	*c = bytes.Clone(data)
	return nil
}

func (v Value) ToBig() *big.Int {
	return new(big.Int).SetBytes(v[:])
}

func (v Value) ToUint256() *uint256.Int {
	return new(uint256.Int).SetBytes(v[:])
}

func (v Value) String() string {
	return v.ToUint256().Dec()
}

func (v Value) Cmp(o Value) int {
	return bytes.Compare(v[:], o[:])
}

func (v Value) IsZero() bool {
	return v == Value{}
}

// NewValue creates a new Value instance from up to 4 uint64 arguments. The
// arguments are given in the order from most significant to least significant
// by padding leading zeros as needed. No argument results in a value of zero.
func NewValue(args ...uint64) (result Value) {
	if len(args) > 4 {
		panic("Too many arguments")
	}
	offset := 4 - len(args)
	for i := 0; i < len(args) && i < 4; i++ {
		start := (offset * 8) + i*8
		end := start + 8
		binary.BigEndian.PutUint64(result[start:end], args[i])
	}
	return
}

// ValueFromUint256 converts a *uint256.Int to a Value.
// If the input is nil, it returns 0.
func ValueFromUint256(value *uint256.Int) (result Value) {
	if value == nil {
		return result
	}
	return value.Bytes32()
}

// AddOverflow computes a+b and reports whether the 256-bit result wrapped.
func AddOverflow(a, b Value) (z Value, overflow bool) {
	res, carry := bits.Add64(a.getInternalUint64(0), b.getInternalUint64(0), 0)
	binary.BigEndian.PutUint64(z[24:32], res)

	res, carry = bits.Add64(a.getInternalUint64(1), b.getInternalUint64(1), carry)
	binary.BigEndian.PutUint64(z[16:24], res)

	res, carry = bits.Add64(a.getInternalUint64(2), b.getInternalUint64(2), carry)
	binary.BigEndian.PutUint64(z[8:16], res)

	res, carry = bits.Add64(a.getInternalUint64(3), b.getInternalUint64(3), carry)
	binary.BigEndian.PutUint64(z[0:8], res)

	return z, carry != 0
}

// SubUnderflow computes a-b and reports whether the result borrowed past zero.
func SubUnderflow(a, b Value) (z Value, underflow bool) {
	res, borrow := bits.Sub64(a.getInternalUint64(0), b.getInternalUint64(0), 0)
	binary.BigEndian.PutUint64(z[24:32], res)

	res, borrow = bits.Sub64(a.getInternalUint64(1), b.getInternalUint64(1), borrow)
	binary.BigEndian.PutUint64(z[16:24], res)

	res, borrow = bits.Sub64(a.getInternalUint64(2), b.getInternalUint64(2), borrow)
	binary.BigEndian.PutUint64(z[8:16], res)

	res, borrow = bits.Sub64(a.getInternalUint64(3), b.getInternalUint64(3), borrow)
	binary.BigEndian.PutUint64(z[0:8], res)

	return z, borrow != 0
}

// MulOverflow computes v*s and reports whether the product exceeds 256 bits.
func (v Value) MulOverflow(s uint64) (Value, bool) {
	res, overflow := new(uint256.Int).MulOverflow(v.ToUint256(), uint256.NewInt(s))
	return ValueFromUint256(res), overflow
}

// MarshalText renders the value as a decimal number.
func (v Value) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText accepts a decimal number or a 0x-prefixed hex number of at
// most 32 bytes.
func (v *Value) UnmarshalText(data []byte) error {
	s := string(data)
	if len(s) == 0 {
		return fmt.Errorf("invalid format, empty value")
	}
	if strings.HasPrefix(s, "0x") {
		raw, err := hex.DecodeString(padHex(s[2:]))
		if err != nil {
			return err
		}
		if len(raw) > len(v) {
			return fmt.Errorf("invalid format, value exceeds %d bytes", len(v))
		}
		*v = Value{}
		copy(v[len(v)-len(raw):], raw)
		return nil
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return fmt.Errorf("invalid decimal value %q", s)
		}
	}
	res, err := uint256.FromDecimal(s)
	if err != nil {
		return fmt.Errorf("invalid decimal value %q: %w", s, err)
	}
	*v = ValueFromUint256(res)
	return nil
}

func padHex(s string) string {
	if len(s)%2 == 1 {
		return "0" + s
	}
	return s
}

func bytesToText(data []byte) ([]byte, error) {
	return []byte(fmt.Sprintf("0x%x", data)), nil
}

func textToBytes(trg []byte, data []byte) error {
	s := string(data)
	if !strings.HasPrefix(s, "0x") {
		return fmt.Errorf("invalid format, does not start with 0x: %v", s)
	}
	data, err := hex.DecodeString(s[2:])
	if err != nil {
		return err
	}
	if want, got := len(trg), len(data); want != got {
		return fmt.Errorf("invalid format, wanted %d bytes, got %d", want, got)
	}
	copy(trg[:], data)
	return nil
}

func (v Value) getInternalUint64(index int) uint64 {
	start := 24 - index*8
	end := start + 8
	return binary.BigEndian.Uint64(v[start:end])
}
