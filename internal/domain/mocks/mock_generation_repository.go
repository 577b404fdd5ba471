package mocks

import (
	"context"
	"reflect"

	"github.com/golang/mock/gomock"
	"github.com/hookline/hookline/internal/domain"
)

// MockConfigGenerationRepository is a mock of ConfigGenerationRepository interface
type MockConfigGenerationRepository struct {
	ctrl     *gomock.Controller
	recorder *MockConfigGenerationRepositoryMockRecorder
}

// MockConfigGenerationRepositoryMockRecorder is the mock recorder for MockConfigGenerationRepository
type MockConfigGenerationRepositoryMockRecorder struct {
	mock *MockConfigGenerationRepository
}

// NewMockConfigGenerationRepository creates a new mock instance
func NewMockConfigGenerationRepository(ctrl *gomock.Controller) *MockConfigGenerationRepository {
	mock := &MockConfigGenerationRepository{ctrl: ctrl}
	mock.recorder = &MockConfigGenerationRepositoryMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use
func (m *MockConfigGenerationRepository) EXPECT() *MockConfigGenerationRepositoryMockRecorder {
	return m.recorder
}

// Get mocks base method
func (m *MockConfigGenerationRepository) Get(ctx context.Context, key string) (*domain.ConfigGeneration, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Get", ctx, key)
	ret0, _ := ret[0].(*domain.ConfigGeneration)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// Get indicates an expected call of Get
func (mr *MockConfigGenerationRepositoryMockRecorder) Get(ctx, key interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Get", reflect.TypeOf((*MockConfigGenerationRepository)(nil).Get), ctx, key)
}

// Put mocks base method
func (m *MockConfigGenerationRepository) Put(ctx context.Context, gen *domain.ConfigGeneration) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Put", ctx, gen)
	ret0, _ := ret[0].(error)
	return ret0
}

// Put indicates an expected call of Put
func (mr *MockConfigGenerationRepositoryMockRecorder) Put(ctx, gen interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Put", reflect.TypeOf((*MockConfigGenerationRepository)(nil).Put), ctx, gen)
}
