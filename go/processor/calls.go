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
	"errors"
	"fmt"
	"math"
	"math/bits"

	"github.com/animica/execution/go/chain"
	"github.com/animica/execution/go/gas"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

func handleNonce(tx chain.Transaction, state chain.WorldState) error {
	stateNonce := state.GetNonce(tx.Sender)
	if stateNonce != tx.Nonce {
		return fmt.Errorf("%w: address %v, tx: %d state: %d", chain.ErrInvalidNonce, tx.Sender, tx.Nonce, stateNonce)
	}
	if stateNonce == math.MaxUint64 {
		return fmt.Errorf("%w: nonce of %v exhausted", chain.ErrInvalidNonce, tx.Sender)
	}
	return nil
}

// buyGas debits gasLimit*gasPrice from the sender after checking that the
// sender can also cover the transferred value.
func buyGas(tx chain.Transaction, state chain.WorldState) error {
	cost, overflow := tx.GasPrice.MulOverflow(uint64(tx.GasLimit))
	if overflow {
		return chain.ErrInsufficientBalance
	}
	total, overflow := chain.AddOverflow(cost, tx.Value)
	if overflow {
		return chain.ErrInsufficientBalance
	}
	balance := state.GetBalance(tx.Sender)
	if balance.Cmp(total) < 0 {
		return fmt.Errorf("%w: address %v have %v want %v", chain.ErrInsufficientBalance, tx.Sender, balance, total)
	}
	remaining, _ := chain.SubUnderflow(balance, cost)
	state.SetBalance(tx.Sender, remaining)
	return nil
}

// refundGas returns the price of the unused gas to the sender.
func refundGas(tx chain.Transaction, unused chain.Gas, state chain.WorldState) error {
	if unused == 0 {
		return nil
	}
	refund, overflow := tx.GasPrice.MulOverflow(uint64(unused))
	if overflow {
		return fmt.Errorf("%w: refund of %d gas", chain.ErrGasUintOverflow, unused)
	}
	if refund.IsZero() {
		return nil
	}
	balance, overflow := chain.AddOverflow(state.GetBalance(tx.Sender), refund)
	if overflow {
		return fmt.Errorf("%w: balance of %v", chain.ErrGasUintOverflow, tx.Sender)
	}
	state.SetBalance(tx.Sender, balance)
	return nil
}

func canTransferValue(state chain.WorldState, value chain.Value, sender chain.Address) bool {
	if value.IsZero() {
		return true
	}
	return state.GetBalance(sender).Cmp(value) >= 0
}

// transferValue moves value between accounts. It must only be called after
// canTransferValue succeeded.
func transferValue(state chain.WorldState, value chain.Value, sender, recipient chain.Address) error {
	if value.IsZero() {
		// still creates the recipient
		if !state.AccountExists(recipient) {
			state.SetBalance(recipient, chain.Value{})
		}
		return nil
	}
	if sender == recipient {
		return nil
	}
	senderBalance, underflow := chain.SubUnderflow(state.GetBalance(sender), value)
	if underflow {
		return chain.ErrInsufficientBalance
	}
	recipientBalance, overflow := chain.AddOverflow(state.GetBalance(recipient), value)
	if overflow {
		return fmt.Errorf("%w: balance of %v", chain.ErrGasUintOverflow, recipient)
	}
	state.SetBalance(sender, senderBalance)
	state.SetBalance(recipient, recipientBalance)
	return nil
}

func (p *Processor) executeCall(
	block chain.BlockParameters,
	tx chain.Transaction,
	meter *gas.Meter,
	view chain.StateView,
) (executionResult, error) {
	recipient := *tx.Recipient
	if !canTransferValue(view, tx.Value, tx.Sender) {
		return executionResult{status: chain.StatusInsufficientBalance}, nil
	}
	if err := transferValue(view, tx.Value, tx.Sender, recipient); err != nil {
		status, err := classify(err, meter)
		return executionResult{status: status}, err
	}

	code := view.GetCode(recipient)
	if tx.Kind == chain.Transfer || len(code) == 0 {
		return executionResult{status: chain.StatusSuccess}, nil
	}

	executable, err := p.resolver.Resolve(code)
	if err != nil {
		p.log.Debug("Failed to resolve code", "recipient", recipient, "err", err)
		meter.Exhaust()
		return executionResult{status: chain.StatusFailed}, nil
	}

	outcome, err := run(executable, chain.RunContext{
		Block:     block,
		Sender:    tx.Sender,
		Recipient: recipient,
		Value:     tx.Value,
		Input:     tx.Input,
		Code:      code,
		GasPrice:  tx.GasPrice,
	}, meter, view)
	if err != nil {
		status, err := classify(err, meter)
		return executionResult{status: status}, err
	}
	if !outcome.Success {
		return executionResult{status: chain.StatusRevert}, nil
	}
	return executionResult{
		status: chain.StatusSuccess,
		logs:   outcome.Logs,
		output: outcome.Output,
	}, nil
}

func (p *Processor) executeDeploy(
	tx chain.Transaction,
	meter *gas.Meter,
	view chain.StateView,
) (executionResult, error) {
	failed := func() (executionResult, error) {
		meter.Exhaust()
		return executionResult{status: chain.StatusFailed}, nil
	}

	code := chain.Code(tx.Input)
	if len(code) > p.params.MaxCodeSize {
		return failed()
	}
	if _, err := p.resolver.Resolve(code); err != nil {
		p.log.Debug("Deploying unknown code", "sender", tx.Sender, "err", err)
		return failed()
	}

	hi, deposit := bits.Mul64(uint64(p.params.CodeDepositGas), uint64(len(code)))
	if hi != 0 {
		meter.Exhaust()
		return executionResult{status: chain.StatusOutOfGas}, nil
	}
	if err := meter.Charge(chain.Gas(deposit)); err != nil {
		return executionResult{status: chain.StatusOutOfGas}, nil
	}

	address := createAddress(tx.Sender, tx.Nonce)
	if view.GetNonce(address) != 0 || len(view.GetCode(address)) != 0 {
		p.log.Debug("Contract address collision", "address", address)
		return failed()
	}
	if !canTransferValue(view, tx.Value, tx.Sender) {
		return executionResult{status: chain.StatusInsufficientBalance}, nil
	}

	view.SetNonce(address, 1)
	if err := transferValue(view, tx.Value, tx.Sender, address); err != nil {
		status, err := classify(err, meter)
		return executionResult{status: status}, err
	}
	view.SetCode(address, code)
	return executionResult{status: chain.StatusSuccess, contract: &address}, nil
}

// run invokes the executable, converting panics into faults. The executable
// may only close scopes it opened itself.
func run(
	executable chain.Executable,
	ctx chain.RunContext,
	meter chain.GasMeter,
	view chain.StateView,
) (outcome chain.Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			outcome = chain.Outcome{}
			err = fmt.Errorf("executable panicked: %v", r)
		}
	}()
	return executable.Run(ctx, meter, &scopeGuard{StateView: view})
}

// errForeignScope is reported to executables closing a scope they did not
// open. It fails the transaction.
var errForeignScope = errors.New("scope was not opened by the executable")

// scopeGuard restricts scope operations to the scopes opened through it.
type scopeGuard struct {
	chain.StateView
	opened map[chain.ScopeID]struct{}
}

func (g *scopeGuard) OpenScope() chain.ScopeID {
	id := g.StateView.OpenScope()
	if g.opened == nil {
		g.opened = map[chain.ScopeID]struct{}{}
	}
	g.opened[id] = struct{}{}
	return id
}

func (g *scopeGuard) CommitScope(id chain.ScopeID) error {
	if err := g.close(id); err != nil {
		return err
	}
	return g.StateView.CommitScope(id)
}

func (g *scopeGuard) RevertScope(id chain.ScopeID) error {
	if err := g.close(id); err != nil {
		return err
	}
	return g.StateView.RevertScope(id)
}

func (g *scopeGuard) close(id chain.ScopeID) error {
	if _, found := g.opened[id]; !found {
		return fmt.Errorf("%w: %d", errForeignScope, id)
	}
	delete(g.opened, id)
	return nil
}

func createAddress(sender chain.Address, nonce uint64) chain.Address {
	return chain.Address(crypto.CreateAddress(common.Address(sender), nonce))
}
