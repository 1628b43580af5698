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

	"github.com/animica/execution/go/chain"
	"github.com/animica/execution/go/gas"
	"github.com/animica/execution/go/params"
	"github.com/ethereum/go-ethereum/log"
)

// Resolver maps the code installed on an account to the logic running it.
type Resolver interface {
	Resolve(chain.Code) (chain.Executable, error)
}

// Outcome is the result of applying a single transaction. It contains
// everything needed to build the transaction's receipt and to account for
// its fee.
type Outcome struct {
	Status          chain.Status
	GasUsed         chain.Gas
	Logs            []chain.Log
	Output          chain.Data
	ContractAddress *chain.Address
	// The fee GasUsed * GasPrice paid by the sender is split into the base
	// fee part, priced at the block's base fee, and the tip owed to the
	// coinbase.
	BaseFee chain.Value
	Tip     chain.Value
}

// Fee returns the total fee paid by the sender.
func (o Outcome) Fee() chain.Value {
	fee, _ := chain.AddOverflow(o.BaseFee, o.Tip)
	return fee
}

// Processor applies individual transactions to a state view. It is the
// canonical implementation of the transaction state machine
//
//	Pending -> Charging -> Executing -> {Committing | Reverting} -> Finalized
//
// shared by all block executors. A Processor holds no per-transaction state
// and can be used concurrently on independent state views.
type Processor struct {
	params   params.Params
	resolver Resolver
	log      log.Logger
}

func NewProcessor(p params.Params, resolver Resolver) *Processor {
	return &Processor{
		params:   p,
		resolver: resolver,
		log:      log.New("module", "processor"),
	}
}

// Params returns the parameters the processor was created with.
func (p *Processor) Params() params.Params {
	return p.params
}

// Apply runs the given transaction on the state view. Every failure of the
// transaction itself is reported through the status of the outcome; the
// returned error is only set for failures which must abort the block.
func (p *Processor) Apply(
	block chain.BlockParameters,
	tx chain.Transaction,
	view chain.StateView,
) (Outcome, error) {
	outcome, err := p.apply(block, tx, view)
	if err != nil {
		return Outcome{}, err
	}
	if checker, ok := view.(interface{ Err() error }); ok {
		if err := checker.Err(); err != nil {
			return Outcome{}, fmt.Errorf("failed to access state: %w", err)
		}
	}
	p.log.Trace("Applied transaction", "sender", tx.Sender, "nonce", tx.Nonce, "kind", tx.Kind,
		"status", outcome.Status, "gasUsed", outcome.GasUsed, "fee", outcome.Fee())
	return outcome, nil
}

func (p *Processor) apply(
	block chain.BlockParameters,
	tx chain.Transaction,
	view chain.StateView,
) (Outcome, error) {
	if err := tx.Validate(); err != nil {
		return Outcome{Status: chain.StatusEncodingError}, nil
	}

	// Charging: checks failing here leave the state untouched.
	if err := handleNonce(tx, view); err != nil {
		return Outcome{Status: chain.StatusInvalidNonce}, nil
	}
	if err := buyGas(tx, view); err != nil {
		return Outcome{Status: chain.StatusInsufficientBalance}, nil
	}
	view.SetNonce(tx.Sender, tx.Nonce+1)

	meter := gas.NewMeter(tx.GasLimit, p.params)
	status := chain.StatusSuccess
	var result executionResult
	intrinsic, err := gas.IntrinsicGas(&tx, p.params)
	if err == nil {
		err = meter.Charge(intrinsic)
	}
	if err != nil {
		meter.Exhaust()
		status = chain.StatusOutOfGas
	} else {
		// Executing
		result, err = p.execute(block, tx, meter, view)
		if err != nil {
			return Outcome{}, err
		}
		status = result.status
	}

	// Finalized
	gasUsed, err := meter.Finalize()
	if err != nil {
		return Outcome{}, err
	}
	if err := refundGas(tx, meter.Limit()-gasUsed, view); err != nil {
		return Outcome{}, err
	}
	baseFee, tip, err := splitFee(block.BaseFee, tx.GasPrice, gasUsed)
	if err != nil {
		return Outcome{}, err
	}

	res := Outcome{
		Status:  status,
		GasUsed: gasUsed,
		BaseFee: baseFee,
		Tip:     tip,
	}
	if status == chain.StatusSuccess {
		res.Logs = result.logs
		res.Output = result.output
		res.ContractAddress = result.contract
	}
	return res, nil
}

// splitFee divides the fee gasUsed*gasPrice into the part priced at the
// base fee and the remaining tip. A gas price below the base fee pays no
// tip; the base part never exceeds the fee actually paid.
func splitFee(baseFee, gasPrice chain.Value, gasUsed chain.Gas) (base, tip chain.Value, err error) {
	total, overflow := gasPrice.MulOverflow(uint64(gasUsed))
	if overflow {
		return base, tip, fmt.Errorf("%w: fee of %d gas at price %v", chain.ErrGasUintOverflow, gasUsed, gasPrice)
	}
	if baseFee.Cmp(gasPrice) > 0 {
		baseFee = gasPrice
	}
	base, _ = baseFee.MulOverflow(uint64(gasUsed))
	tip, _ = chain.SubUnderflow(total, base)
	return base, tip, nil
}

type executionResult struct {
	status   chain.Status
	logs     []chain.Log
	output   chain.Data
	contract *chain.Address
}

// execute runs the transaction in its own scope, committing its effects on
// success and reverting them otherwise.
func (p *Processor) execute(
	block chain.BlockParameters,
	tx chain.Transaction,
	meter *gas.Meter,
	view chain.StateView,
) (executionResult, error) {
	scope := view.OpenScope()

	var (
		result executionResult
		err    error
	)
	switch tx.Kind {
	case chain.Deploy:
		result, err = p.executeDeploy(tx, meter, view)
	default:
		result, err = p.executeCall(block, tx, meter, view)
	}
	if err != nil {
		// block-fatal, the scope is dropped together with the block
		return executionResult{}, err
	}

	if result.status == chain.StatusSuccess {
		if err := view.CommitScope(scope); err != nil {
			return executionResult{}, fmt.Errorf("failed to commit transaction scope: %w", err)
		}
		return result, nil
	}

	// Reverting
	if err := view.RevertScope(scope); err != nil {
		return executionResult{}, fmt.Errorf("failed to revert transaction scope: %w", err)
	}
	meter.DiscardRefund()
	return executionResult{status: result.status}, nil
}

// classify maps an error reported by an executable to the status of the
// transaction. Errors signaling non-determinism are returned as block-fatal.
func classify(err error, meter *gas.Meter) (chain.Status, error) {
	switch {
	case errors.Is(err, chain.ErrNonDeterministic):
		return 0, err
	case errors.Is(err, chain.ErrRevert):
		return chain.StatusRevert, nil
	case errors.Is(err, chain.ErrOutOfGas):
		meter.Exhaust()
		return chain.StatusOutOfGas, nil
	case errors.Is(err, chain.ErrEncoding):
		meter.Exhaust()
		return chain.StatusEncodingError, nil
	case errors.Is(err, chain.ErrInsufficientBalance):
		return chain.StatusInsufficientBalance, nil
	default:
		meter.Exhaust()
		return chain.StatusFailed, nil
	}
}
