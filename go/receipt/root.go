// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package receipt

import (
	"bytes"

	"github.com/animica/execution/go/chain"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/trie"
)

// encodedList is a types.DerivableList over pre-encoded receipts.
type encodedList [][]byte

func (l encodedList) Len() int {
	return len(l)
}

func (l encodedList) EncodeIndex(i int, w *bytes.Buffer) {
	w.Write(l[i])
}

// DeriveRoot computes the receipts root of a block: the root of a trie
// mapping the RLP encoded index of each receipt to its canonical encoding.
func DeriveRoot(receipts []chain.Receipt) (chain.Hash, error) {
	list := make(encodedList, 0, len(receipts))
	for _, r := range receipts {
		data, err := Encode(r)
		if err != nil {
			return chain.Hash{}, err
		}
		list = append(list, data)
	}
	return chain.Hash(types.DeriveSha(list, trie.NewStackTrie(nil))), nil
}
