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

import "math"

// GetStorageStatus obtains the status of updating a storage slot holding
// the current value to the new value.
func GetStorageStatus(current, new Word) StorageStatus {
	var zero = Word{}
	switch {
	case current == new:
		return StorageAssigned
	case current == zero:
		return StorageAdded
	case new == zero:
		return StorageDeleted
	default:
		return StorageModified
	}
}

// SizeInWords returns the number of words required to store the given size,
// checking that size+32 does not overflow uint64.
func SizeInWords(size uint64) uint64 {
	if size > math.MaxUint64-31 {
		return math.MaxUint64/32 + 1
	}
	return (size + 31) / 32
}

// WordFromUint64 returns the big-endian word representation of v.
func WordFromUint64(v uint64) (res Word) {
	for i := 0; i < 8; i++ {
		res[31-i] = byte(v >> (8 * i))
	}
	return res
}
