// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package state

import (
	"errors"
	"testing"

	"github.com/animica/execution/go/chain"
	"go.uber.org/mock/gomock"
)

func newTestJournal(t *testing.T) (*Journal, Store) {
	t.Helper()
	store := NewMemoryStore()
	return NewJournal(NewStateReader(store)), store
}

func TestJournal_ReadsFallThroughToCommittedState(t *testing.T) {
	store := NewMemoryStore()
	base := NewJournal(NewStateReader(store))
	base.SetBalance(chain.Address{1}, chain.NewValue(100))
	base.SetStorage(chain.Address{1}, chain.Key{2}, chain.Word{3})
	writes, err := base.Writes()
	if err != nil {
		t.Fatalf("failed to produce writes: %v", err)
	}
	if err := store.BatchCommit(writes); err != nil {
		t.Fatalf("failed to commit: %v", err)
	}

	j := NewJournal(NewStateReader(store))
	if want, got := chain.NewValue(100), j.GetBalance(chain.Address{1}); want != got {
		t.Errorf("unexpected balance, wanted %v, got %v", want, got)
	}
	if want, got := (chain.Word{3}), j.GetStorage(chain.Address{1}, chain.Key{2}); want != got {
		t.Errorf("unexpected storage, wanted %v, got %v", want, got)
	}
	if !j.AccountExists(chain.Address{1}) || j.AccountExists(chain.Address{2}) {
		t.Errorf("unexpected account existence")
	}
}

func TestJournal_RevertRestoresPriorValues(t *testing.T) {
	j, _ := newTestJournal(t)
	addr := chain.Address{1}
	j.SetBalance(addr, chain.NewValue(10))
	j.SetStorage(addr, chain.Key{1}, chain.Word{1})

	id := j.OpenScope()
	j.SetBalance(addr, chain.NewValue(20))
	j.SetNonce(addr, 5)
	j.SetStorage(addr, chain.Key{1}, chain.Word{2})
	j.SetCode(addr, chain.Code("kvstore"))
	if err := j.RevertScope(id); err != nil {
		t.Fatalf("failed to revert: %v", err)
	}

	if want, got := chain.NewValue(10), j.GetBalance(addr); want != got {
		t.Errorf("unexpected balance, wanted %v, got %v", want, got)
	}
	if got := j.GetNonce(addr); got != 0 {
		t.Errorf("unexpected nonce %d", got)
	}
	if want, got := (chain.Word{1}), j.GetStorage(addr, chain.Key{1}); want != got {
		t.Errorf("unexpected storage, wanted %v, got %v", want, got)
	}
	if code := j.GetCode(addr); len(code) != 0 {
		t.Errorf("unexpected code %v", code)
	}
}

func TestJournal_RevertRestoresAbsence(t *testing.T) {
	j, _ := newTestJournal(t)
	addr := chain.Address{1}

	id := j.OpenScope()
	j.SetStorage(addr, chain.Key{1}, chain.Word{})
	j.SetBalance(addr, chain.NewValue())
	if !j.AccountExists(addr) {
		t.Fatalf("account should exist after being written")
	}
	if err := j.RevertScope(id); err != nil {
		t.Fatalf("failed to revert: %v", err)
	}

	if j.AccountExists(addr) {
		t.Errorf("account must not exist after revert")
	}
	changes := j.Changes()
	if !changes.IsEmpty() {
		t.Errorf("absent keys must not be restored as zero values, got %+v", changes)
	}
	writes, err := j.Writes()
	if err != nil {
		t.Fatalf("failed to produce writes: %v", err)
	}
	if len(writes) != 0 {
		t.Errorf("unexpected writes %v", writes)
	}
}

func TestJournal_NestedScopes(t *testing.T) {
	j, _ := newTestJournal(t)
	addr := chain.Address{1}
	key := chain.Key{1}

	outer := j.OpenScope()
	j.SetStorage(addr, key, chain.Word{1})
	inner := j.OpenScope()
	j.SetStorage(addr, key, chain.Word{2})
	if err := j.RevertScope(inner); err != nil {
		t.Fatalf("failed to revert inner scope: %v", err)
	}
	if want, got := (chain.Word{1}), j.GetStorage(addr, key); want != got {
		t.Errorf("unexpected value after inner revert, wanted %v, got %v", want, got)
	}

	inner = j.OpenScope()
	j.SetStorage(addr, key, chain.Word{3})
	if err := j.CommitScope(inner); err != nil {
		t.Fatalf("failed to commit inner scope: %v", err)
	}
	if err := j.RevertScope(outer); err != nil {
		t.Fatalf("failed to revert outer scope: %v", err)
	}
	if want, got := (chain.Word{}), j.GetStorage(addr, key); want != got {
		t.Errorf("reverting the outer scope must undo committed inner scopes, got %v", got)
	}
}

func TestJournal_RevertDropsScopesOpenedLater(t *testing.T) {
	j, _ := newTestJournal(t)
	outer := j.OpenScope()
	inner := j.OpenScope()
	if err := j.RevertScope(outer); err != nil {
		t.Fatalf("failed to revert: %v", err)
	}
	if j.Depth() != 0 {
		t.Errorf("unexpected depth %d", j.Depth())
	}
	if err := j.CommitScope(inner); !errors.Is(err, ErrInvalidScope) {
		t.Errorf("expected invalid scope, got %v", err)
	}
	if err := j.RevertScope(outer); !errors.Is(err, ErrInvalidScope) {
		t.Errorf("expected invalid scope, got %v", err)
	}
	if err := j.RevertScope(chain.ScopeID(42)); !errors.Is(err, ErrInvalidScope) {
		t.Errorf("expected invalid scope, got %v", err)
	}
}

func TestJournal_CommitKeepsChanges(t *testing.T) {
	j, _ := newTestJournal(t)
	addr := chain.Address{1}
	id := j.OpenScope()
	j.SetNonce(addr, 7)
	if err := j.CommitScope(id); err != nil {
		t.Fatalf("failed to commit: %v", err)
	}
	if got := j.GetNonce(addr); got != 7 {
		t.Errorf("unexpected nonce %d", got)
	}
}

func TestJournal_SetStorageReportsStatus(t *testing.T) {
	j, _ := newTestJournal(t)
	addr := chain.Address{1}
	key := chain.Key{1}
	steps := []struct {
		value chain.Word
		want  chain.StorageStatus
	}{
		{chain.Word{1}, chain.StorageAdded},
		{chain.Word{1}, chain.StorageAssigned},
		{chain.Word{2}, chain.StorageModified},
		{chain.Word{}, chain.StorageDeleted},
	}
	for _, step := range steps {
		if got := j.SetStorage(addr, key, step.value); got != step.want {
			t.Errorf("unexpected status for %v, wanted %v, got %v", step.value, step.want, got)
		}
	}
}

func TestJournal_CodeHash(t *testing.T) {
	j, _ := newTestJournal(t)
	addr := chain.Address{1}
	if got := j.GetCodeHash(addr); got != (chain.Hash{}) {
		t.Errorf("unexpected hash of missing code %v", got)
	}
	j.SetCode(addr, chain.Code("kvstore"))
	if got := j.GetCodeHash(addr); got == (chain.Hash{}) {
		t.Errorf("code hash must not be zero")
	}
}

func TestJournal_ApplyChangesMergesOtherJournal(t *testing.T) {
	base, _ := newTestJournal(t)
	base.SetBalance(chain.Address{1}, chain.NewValue(10))

	speculative := NewJournal(base)
	speculative.SetBalance(chain.Address{1}, chain.NewValue(5))
	speculative.SetCode(chain.Address{2}, chain.Code("kvstore"))
	speculative.SetStorage(chain.Address{2}, chain.Key{1}, chain.Word{9})

	if got := base.GetBalance(chain.Address{1}); got != chain.NewValue(10) {
		t.Fatalf("speculative writes leaked into the base journal")
	}

	id := base.OpenScope()
	base.ApplyChanges(speculative.Changes())
	if got := base.GetBalance(chain.Address{1}); got != chain.NewValue(5) {
		t.Errorf("unexpected balance %v", got)
	}
	if got := base.GetStorage(chain.Address{2}, chain.Key{1}); got != (chain.Word{9}) {
		t.Errorf("unexpected storage %v", got)
	}
	if err := base.RevertScope(id); err != nil {
		t.Fatalf("failed to revert: %v", err)
	}
	if got := base.GetBalance(chain.Address{1}); got != chain.NewValue(10) {
		t.Errorf("merged changes must be revertible, got %v", got)
	}
}

func TestJournal_WritesAreSortedAndCanonical(t *testing.T) {
	j, _ := newTestJournal(t)
	j.SetStorage(chain.Address{2}, chain.Key{1}, chain.Word{})
	j.SetStorage(chain.Address{1}, chain.Key{1}, chain.WordFromUint64(1))
	j.SetBalance(chain.Address{3}, chain.NewValue(1))
	j.SetCode(chain.Address{1}, nil)

	writes, err := j.Writes()
	if err != nil {
		t.Fatalf("failed to produce writes: %v", err)
	}
	if len(writes) != 4 {
		t.Fatalf("unexpected number of writes %d", len(writes))
	}
	for i := 1; i < len(writes); i++ {
		if string(writes[i-1].Key) >= string(writes[i].Key) {
			t.Errorf("writes are not sorted: %x >= %x", writes[i-1].Key, writes[i].Key)
		}
	}
	if writes[1].Value != nil {
		t.Errorf("empty code must be a deletion")
	}
	if writes[3].Value != nil {
		t.Errorf("zero storage must be a deletion")
	}
	if want, got := "\x01", string(writes[2].Value); want != got {
		t.Errorf("storage values must be minimally encoded, got %x", got)
	}
}

func TestJournal_ReadErrorsAreRecorded(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := NewMockStore(ctrl)
	injected := errors.New("injected")
	store.EXPECT().Get(gomock.Any()).Return(nil, injected).AnyTimes()

	j := NewJournal(NewStateReader(store))
	if got := j.GetBalance(chain.Address{1}); got != (chain.Value{}) {
		t.Errorf("unexpected balance %v", got)
	}
	if !errors.Is(j.Err(), injected) {
		t.Errorf("expected read error to be recorded, got %v", j.Err())
	}
	j.GetStorage(chain.Address{1}, chain.Key{})
	if !errors.Is(j.Err(), injected) {
		t.Errorf("first error must be retained, got %v", j.Err())
	}
}

func TestJournal_ForkIsIndependent(t *testing.T) {
	j, _ := newTestJournal(t)
	j.SetBalance(chain.Address{1}, chain.NewValue(10))

	fork := j.Fork()
	if got := fork.GetBalance(chain.Address{1}); got != chain.NewValue(10) {
		t.Errorf("fork must start with the overlay of its origin, got %v", got)
	}
	fork.SetBalance(chain.Address{1}, chain.NewValue(3))
	j.SetNonce(chain.Address{2}, 1)

	if got := j.GetBalance(chain.Address{1}); got != chain.NewValue(10) {
		t.Errorf("writes to the fork leaked into its origin, got %v", got)
	}
	if fork.AccountExists(chain.Address{2}) {
		t.Errorf("writes to the origin leaked into the fork")
	}
}
