// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package chain is a generated GoMock package.
package chain

import (
	reflect "reflect"

	gomock "go.uber.org/mock/gomock"
)

// MockExecutable is a mock of Executable interface.
type MockExecutable struct {
	ctrl     *gomock.Controller
	recorder *MockExecutableMockRecorder
}

// MockExecutableMockRecorder is the mock recorder for MockExecutable.
type MockExecutableMockRecorder struct {
	mock *MockExecutable
}

// NewMockExecutable creates a new mock instance.
func NewMockExecutable(ctrl *gomock.Controller) *MockExecutable {
	mock := &MockExecutable{ctrl: ctrl}
	mock.recorder = &MockExecutableMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockExecutable) EXPECT() *MockExecutableMockRecorder {
	return m.recorder
}

// Run mocks base method.
func (m *MockExecutable) Run(arg0 RunContext, arg1 GasMeter, arg2 StateView) (Outcome, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Run", arg0, arg1, arg2)
	ret0, _ := ret[0].(Outcome)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// Run indicates an expected call of Run.
func (mr *MockExecutableMockRecorder) Run(arg0, arg1, arg2 any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Run", reflect.TypeOf((*MockExecutable)(nil).Run), arg0, arg1, arg2)
}

// MockGasMeter is a mock of GasMeter interface.
type MockGasMeter struct {
	ctrl     *gomock.Controller
	recorder *MockGasMeterMockRecorder
}

// MockGasMeterMockRecorder is the mock recorder for MockGasMeter.
type MockGasMeterMockRecorder struct {
	mock *MockGasMeter
}

// NewMockGasMeter creates a new mock instance.
func NewMockGasMeter(ctrl *gomock.Controller) *MockGasMeter {
	mock := &MockGasMeter{ctrl: ctrl}
	mock.recorder = &MockGasMeterMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockGasMeter) EXPECT() *MockGasMeterMockRecorder {
	return m.recorder
}

// Charge mocks base method.
func (m *MockGasMeter) Charge(arg0 Gas) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Charge", arg0)
	ret0, _ := ret[0].(error)
	return ret0
}

// Charge indicates an expected call of Charge.
func (mr *MockGasMeterMockRecorder) Charge(arg0 any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Charge", reflect.TypeOf((*MockGasMeter)(nil).Charge), arg0)
}

// Refund mocks base method.
func (m *MockGasMeter) Refund(arg0 Gas) {
	m.ctrl.T.Helper()
	m.ctrl.Call(m, "Refund", arg0)
}

// Refund indicates an expected call of Refund.
func (mr *MockGasMeterMockRecorder) Refund(arg0 any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Refund", reflect.TypeOf((*MockGasMeter)(nil).Refund), arg0)
}

// Remaining mocks base method.
func (m *MockGasMeter) Remaining() Gas {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Remaining")
	ret0, _ := ret[0].(Gas)
	return ret0
}

// Remaining indicates an expected call of Remaining.
func (mr *MockGasMeterMockRecorder) Remaining() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Remaining", reflect.TypeOf((*MockGasMeter)(nil).Remaining))
}

// Consumed mocks base method.
func (m *MockGasMeter) Consumed() Gas {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Consumed")
	ret0, _ := ret[0].(Gas)
	return ret0
}

// Consumed indicates an expected call of Consumed.
func (mr *MockGasMeterMockRecorder) Consumed() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Consumed", reflect.TypeOf((*MockGasMeter)(nil).Consumed))
}
