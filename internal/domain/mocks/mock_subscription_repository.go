package mocks

import (
	"context"
	"reflect"

	"github.com/golang/mock/gomock"
	"github.com/hookline/hookline/internal/domain"
)

// MockSubscriptionRepository is a mock of SubscriptionRepository interface
type MockSubscriptionRepository struct {
	ctrl     *gomock.Controller
	recorder *MockSubscriptionRepositoryMockRecorder
}

// MockSubscriptionRepositoryMockRecorder is the mock recorder for MockSubscriptionRepository
type MockSubscriptionRepositoryMockRecorder struct {
	mock *MockSubscriptionRepository
}

// NewMockSubscriptionRepository creates a new mock instance
func NewMockSubscriptionRepository(ctrl *gomock.Controller) *MockSubscriptionRepository {
	mock := &MockSubscriptionRepository{ctrl: ctrl}
	mock.recorder = &MockSubscriptionRepositoryMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use
func (m *MockSubscriptionRepository) EXPECT() *MockSubscriptionRepositoryMockRecorder {
	return m.recorder
}

// Create mocks base method
func (m *MockSubscriptionRepository) Create(ctx context.Context, sub *domain.Subscription) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Create", ctx, sub)
	ret0, _ := ret[0].(error)
	return ret0
}

// Create indicates an expected call of Create
func (mr *MockSubscriptionRepositoryMockRecorder) Create(ctx, sub interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Create", reflect.TypeOf((*MockSubscriptionRepository)(nil).Create), ctx, sub)
}

// GetByID mocks base method
func (m *MockSubscriptionRepository) GetByID(ctx context.Context, site, id string) (*domain.Subscription, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetByID", ctx, site, id)
	ret0, _ := ret[0].(*domain.Subscription)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// GetByID indicates an expected call of GetByID
func (mr *MockSubscriptionRepositoryMockRecorder) GetByID(ctx, site, id interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetByID", reflect.TypeOf((*MockSubscriptionRepository)(nil).GetByID), ctx, site, id)
}

// List mocks base method
func (m *MockSubscriptionRepository) List(ctx context.Context, site string) ([]*domain.Subscription, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "List", ctx, site)
	ret0, _ := ret[0].([]*domain.Subscription)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// List indicates an expected call of List
func (mr *MockSubscriptionRepositoryMockRecorder) List(ctx, site interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "List", reflect.TypeOf((*MockSubscriptionRepository)(nil).List), ctx, site)
}

// Update mocks base method
func (m *MockSubscriptionRepository) Update(ctx context.Context, sub *domain.Subscription) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Update", ctx, sub)
	ret0, _ := ret[0].(error)
	return ret0
}

// Update indicates an expected call of Update
func (mr *MockSubscriptionRepositoryMockRecorder) Update(ctx, sub interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Update", reflect.TypeOf((*MockSubscriptionRepository)(nil).Update), ctx, sub)
}

// Delete mocks base method
func (m *MockSubscriptionRepository) Delete(ctx context.Context, site, id string) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Delete", ctx, site, id)
	ret0, _ := ret[0].(error)
	return ret0
}

// Delete indicates an expected call of Delete
func (mr *MockSubscriptionRepositoryMockRecorder) Delete(ctx, site, id interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Delete", reflect.TypeOf((*MockSubscriptionRepository)(nil).Delete), ctx, site, id)
}

// ListByOwner mocks base method
func (m *MockSubscriptionRepository) ListByOwner(ctx context.Context, site, ownerID string) ([]*domain.Subscription, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "ListByOwner", ctx, site, ownerID)
	ret0, _ := ret[0].([]*domain.Subscription)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// ListByOwner indicates an expected call of ListByOwner
func (mr *MockSubscriptionRepositoryMockRecorder) ListByOwner(ctx, site, ownerID interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ListByOwner", reflect.TypeOf((*MockSubscriptionRepository)(nil).ListByOwner), ctx, site, ownerID)
}

// IncrementPreconditionFailures mocks base method
func (m *MockSubscriptionRepository) IncrementPreconditionFailures(ctx context.Context, site, id string) (int, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "IncrementPreconditionFailures", ctx, site, id)
	ret0, _ := ret[0].(int)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// IncrementPreconditionFailures indicates an expected call of IncrementPreconditionFailures
func (mr *MockSubscriptionRepositoryMockRecorder) IncrementPreconditionFailures(ctx, site, id interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "IncrementPreconditionFailures", reflect.TypeOf((*MockSubscriptionRepository)(nil).IncrementPreconditionFailures), ctx, site, id)
}

// ResetPreconditionFailures mocks base method
func (m *MockSubscriptionRepository) ResetPreconditionFailures(ctx context.Context, site, id string) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "ResetPreconditionFailures", ctx, site, id)
	ret0, _ := ret[0].(error)
	return ret0
}

// ResetPreconditionFailures indicates an expected call of ResetPreconditionFailures
func (mr *MockSubscriptionRepositoryMockRecorder) ResetPreconditionFailures(ctx, site, id interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ResetPreconditionFailures", reflect.TypeOf((*MockSubscriptionRepository)(nil).ResetPreconditionFailures), ctx, site, id)
}
