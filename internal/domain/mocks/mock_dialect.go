package mocks

import (
	"context"
	"net/http"
	"reflect"

	"github.com/golang/mock/gomock"
	"github.com/hookline/hookline/internal/domain"
)

// MockDialect is a mock of Dialect interface
type MockDialect struct {
	ctrl     *gomock.Controller
	recorder *MockDialectMockRecorder
}

// MockDialectMockRecorder is the mock recorder for MockDialect
type MockDialectMockRecorder struct {
	mock *MockDialect
}

// NewMockDialect creates a new mock instance
func NewMockDialect(ctrl *gomock.Controller) *MockDialect {
	mock := &MockDialect{ctrl: ctrl}
	mock.recorder = &MockDialectMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use
func (m *MockDialect) EXPECT() *MockDialectMockRecorder {
	return m.recorder
}

// ExternalizeData mocks base method
func (m *MockDialect) ExternalizeData(ctx context.Context, data interface{}, event domain.Event) ([]byte, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "ExternalizeData", ctx, data, event)
	ret0, _ := ret[0].([]byte)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// ExternalizeData indicates an expected call of ExternalizeData
func (mr *MockDialectMockRecorder) ExternalizeData(ctx, data, event interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ExternalizeData", reflect.TypeOf((*MockDialect)(nil).ExternalizeData), ctx, data, event)
}

// PrepareRequest mocks base method
func (m *MockDialect) PrepareRequest(ctx context.Context, pair *domain.ShipmentPair) (*http.Request, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "PrepareRequest", ctx, pair)
	ret0, _ := ret[0].(*http.Request)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// PrepareRequest indicates an expected call of PrepareRequest
func (mr *MockDialectMockRecorder) PrepareRequest(ctx, pair interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "PrepareRequest", reflect.TypeOf((*MockDialect)(nil).PrepareRequest), ctx, pair)
}

// MockDialectRegistry is a mock of DialectRegistry interface
type MockDialectRegistry struct {
	ctrl     *gomock.Controller
	recorder *MockDialectRegistryMockRecorder
}

// MockDialectRegistryMockRecorder is the mock recorder for MockDialectRegistry
type MockDialectRegistryMockRecorder struct {
	mock *MockDialectRegistry
}

// NewMockDialectRegistry creates a new mock instance
func NewMockDialectRegistry(ctrl *gomock.Controller) *MockDialectRegistry {
	mock := &MockDialectRegistry{ctrl: ctrl}
	mock.recorder = &MockDialectRegistryMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use
func (m *MockDialectRegistry) EXPECT() *MockDialectRegistryMockRecorder {
	return m.recorder
}

// Register mocks base method
func (m *MockDialectRegistry) Register(id string, dialect domain.Dialect) {
	m.ctrl.T.Helper()
	m.ctrl.Call(m, "Register", id, dialect)
}

// Register indicates an expected call of Register
func (mr *MockDialectRegistryMockRecorder) Register(id, dialect interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Register", reflect.TypeOf((*MockDialectRegistry)(nil).Register), id, dialect)
}

// Lookup mocks base method
func (m *MockDialectRegistry) Lookup(id string) (domain.Dialect, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Lookup", id)
	ret0, _ := ret[0].(domain.Dialect)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// Lookup indicates an expected call of Lookup
func (mr *MockDialectRegistryMockRecorder) Lookup(id interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Lookup", reflect.TypeOf((*MockDialectRegistry)(nil).Lookup), id)
}

// MockExternalizer is a mock of Externalizer interface
type MockExternalizer struct {
	ctrl     *gomock.Controller
	recorder *MockExternalizerMockRecorder
}

// MockExternalizerMockRecorder is the mock recorder for MockExternalizer
type MockExternalizerMockRecorder struct {
	mock *MockExternalizer
}

// NewMockExternalizer creates a new mock instance
func NewMockExternalizer(ctrl *gomock.Controller) *MockExternalizer {
	mock := &MockExternalizer{ctrl: ctrl}
	mock.recorder = &MockExternalizerMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use
func (m *MockExternalizer) EXPECT() *MockExternalizerMockRecorder {
	return m.recorder
}

// Externalize mocks base method
func (m *MockExternalizer) Externalize(ctx context.Context, payload interface{}, opts domain.ExternalizeOptions) ([]byte, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Externalize", ctx, payload, opts)
	ret0, _ := ret[0].([]byte)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// Externalize indicates an expected call of Externalize
func (mr *MockExternalizerMockRecorder) Externalize(ctx, payload, opts interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Externalize", reflect.TypeOf((*MockExternalizer)(nil).Externalize), ctx, payload, opts)
}
