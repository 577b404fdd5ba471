package mocks

import (
	"context"
	"reflect"

	"github.com/golang/mock/gomock"
)

// MockDestinationValidator is a mock of DestinationValidator interface
type MockDestinationValidator struct {
	ctrl     *gomock.Controller
	recorder *MockDestinationValidatorMockRecorder
}

// MockDestinationValidatorMockRecorder is the mock recorder for MockDestinationValidator
type MockDestinationValidatorMockRecorder struct {
	mock *MockDestinationValidator
}

// NewMockDestinationValidator creates a new mock instance
func NewMockDestinationValidator(ctrl *gomock.Controller) *MockDestinationValidator {
	mock := &MockDestinationValidator{ctrl: ctrl}
	mock.recorder = &MockDestinationValidatorMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use
func (m *MockDestinationValidator) EXPECT() *MockDestinationValidatorMockRecorder {
	return m.recorder
}

// ValidateTarget mocks base method
func (m *MockDestinationValidator) ValidateTarget(ctx context.Context, target string) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "ValidateTarget", ctx, target)
	ret0, _ := ret[0].(error)
	return ret0
}

// ValidateTarget indicates an expected call of ValidateTarget
func (mr *MockDestinationValidatorMockRecorder) ValidateTarget(ctx, target interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ValidateTarget", reflect.TypeOf((*MockDestinationValidator)(nil).ValidateTarget), ctx, target)
}
