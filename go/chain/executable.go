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

//go:generate mockgen -source executable.go -destination executable_mock.go -package chain

// Executable is the capability of running contract logic. It is invoked
// once per call with the context of the call, the gas meter of the
// transaction and the state view the call may observe and mutate.
//
// Implementations must be deterministic: the result may only depend on the
// given context, the state reachable through the view, and the gas charged
// through the meter.
//
// A returned Outcome with Success == false signals a contract-triggered
// revert. A non-nil error signals a fault; ErrOutOfGas, ErrEncoding and
// ErrNonDeterministic are classified by the executor, any other error is a
// generic failure of the transaction.
type Executable interface {
	Run(RunContext, GasMeter, StateView) (Outcome, error)
}

// GasMeter is the view on a transaction's gas accounting exposed to
// executables.
type GasMeter interface {
	// Charge consumes the given amount of gas or fails with ErrOutOfGas.
	Charge(Gas) error
	// Refund registers gas to be returned when the transaction finalizes.
	Refund(Gas)
	// Remaining returns the gas still available.
	Remaining() Gas
	// Consumed returns the gas consumed so far.
	Consumed() Gas
}

// RunContext summarizes the parameters of a single invocation of an
// Executable.
type RunContext struct {
	Block     BlockParameters
	Sender    Address
	Recipient Address
	Value     Value
	Input     Data
	Code      Code
	GasPrice  Value
}

// Outcome is the result of running an Executable.
type Outcome struct {
	Success bool
	Output  Data
	Logs    []Log
}

// Log is an event emitted by an executable.
type Log struct {
	Address Address `json:"address"`
	Topics  []Hash  `json:"topics"`
	Data    Data    `json:"data"`
}

// Clone returns a deep copy of the log.
func (l Log) Clone() Log {
	res := Log{Address: l.Address, Data: append(Data(nil), l.Data...)}
	if l.Topics != nil {
		res.Topics = append([]Hash{}, l.Topics...)
	}
	return res
}
