package mocks

import (
	"context"
	"reflect"

	"github.com/golang/mock/gomock"
	"github.com/hookline/hookline/internal/domain"
)

// MockAttemptRepository is a mock of AttemptRepository interface
type MockAttemptRepository struct {
	ctrl     *gomock.Controller
	recorder *MockAttemptRepositoryMockRecorder
}

// MockAttemptRepositoryMockRecorder is the mock recorder for MockAttemptRepository
type MockAttemptRepositoryMockRecorder struct {
	mock *MockAttemptRepository
}

// NewMockAttemptRepository creates a new mock instance
func NewMockAttemptRepository(ctrl *gomock.Controller) *MockAttemptRepository {
	mock := &MockAttemptRepository{ctrl: ctrl}
	mock.recorder = &MockAttemptRepositoryMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use
func (m *MockAttemptRepository) EXPECT() *MockAttemptRepositoryMockRecorder {
	return m.recorder
}

// Create mocks base method
func (m *MockAttemptRepository) Create(ctx context.Context, attempt *domain.DeliveryAttempt) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Create", ctx, attempt)
	ret0, _ := ret[0].(error)
	return ret0
}

// Create indicates an expected call of Create
func (mr *MockAttemptRepositoryMockRecorder) Create(ctx, attempt interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Create", reflect.TypeOf((*MockAttemptRepository)(nil).Create), ctx, attempt)
}

// GetByID mocks base method
func (m *MockAttemptRepository) GetByID(ctx context.Context, site, subscriptionID, id string) (*domain.DeliveryAttempt, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetByID", ctx, site, subscriptionID, id)
	ret0, _ := ret[0].(*domain.DeliveryAttempt)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// GetByID indicates an expected call of GetByID
func (mr *MockAttemptRepositoryMockRecorder) GetByID(ctx, site, subscriptionID, id interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetByID", reflect.TypeOf((*MockAttemptRepository)(nil).GetByID), ctx, site, subscriptionID, id)
}

// ListBySubscription mocks base method
func (m *MockAttemptRepository) ListBySubscription(ctx context.Context, site, subscriptionID string) ([]*domain.DeliveryAttempt, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "ListBySubscription", ctx, site, subscriptionID)
	ret0, _ := ret[0].([]*domain.DeliveryAttempt)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// ListBySubscription indicates an expected call of ListBySubscription
func (mr *MockAttemptRepositoryMockRecorder) ListBySubscription(ctx, site, subscriptionID interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ListBySubscription", reflect.TypeOf((*MockAttemptRepository)(nil).ListBySubscription), ctx, site, subscriptionID)
}

// CountBySubscription mocks base method
func (m *MockAttemptRepository) CountBySubscription(ctx context.Context, site, subscriptionID string) (int, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "CountBySubscription", ctx, site, subscriptionID)
	ret0, _ := ret[0].(int)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// CountBySubscription indicates an expected call of CountBySubscription
func (mr *MockAttemptRepositoryMockRecorder) CountBySubscription(ctx, site, subscriptionID interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "CountBySubscription", reflect.TypeOf((*MockAttemptRepository)(nil).CountBySubscription), ctx, site, subscriptionID)
}

// Resolve mocks base method
func (m *MockAttemptRepository) Resolve(ctx context.Context, attempt *domain.DeliveryAttempt) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Resolve", ctx, attempt)
	ret0, _ := ret[0].(error)
	return ret0
}

// Resolve indicates an expected call of Resolve
func (mr *MockAttemptRepositoryMockRecorder) Resolve(ctx, attempt interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Resolve", reflect.TypeOf((*MockAttemptRepository)(nil).Resolve), ctx, attempt)
}

// Delete mocks base method
func (m *MockAttemptRepository) Delete(ctx context.Context, site, subscriptionID, id string) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Delete", ctx, site, subscriptionID, id)
	ret0, _ := ret[0].(error)
	return ret0
}

// Delete indicates an expected call of Delete
func (mr *MockAttemptRepositoryMockRecorder) Delete(ctx, site, subscriptionID, id interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Delete", reflect.TypeOf((*MockAttemptRepository)(nil).Delete), ctx, site, subscriptionID, id)
}

// DeleteBySubscription mocks base method
func (m *MockAttemptRepository) DeleteBySubscription(ctx context.Context, site, subscriptionID string) (int, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "DeleteBySubscription", ctx, site, subscriptionID)
	ret0, _ := ret[0].(int)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// DeleteBySubscription indicates an expected call of DeleteBySubscription
func (mr *MockAttemptRepositoryMockRecorder) DeleteBySubscription(ctx, site, subscriptionID interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "DeleteBySubscription", reflect.TypeOf((*MockAttemptRepository)(nil).DeleteBySubscription), ctx, site, subscriptionID)
}
