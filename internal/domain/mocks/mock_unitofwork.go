package mocks

import (
	"context"
	"database/sql"
	"reflect"

	"github.com/golang/mock/gomock"
	"github.com/hookline/hookline/internal/domain"
)

// MockUnitOfWork is a mock of UnitOfWork interface
type MockUnitOfWork struct {
	ctrl     *gomock.Controller
	recorder *MockUnitOfWorkMockRecorder
}

// MockUnitOfWorkMockRecorder is the mock recorder for MockUnitOfWork
type MockUnitOfWorkMockRecorder struct {
	mock *MockUnitOfWork
}

// NewMockUnitOfWork creates a new mock instance
func NewMockUnitOfWork(ctrl *gomock.Controller) *MockUnitOfWork {
	mock := &MockUnitOfWork{ctrl: ctrl}
	mock.recorder = &MockUnitOfWorkMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use
func (m *MockUnitOfWork) EXPECT() *MockUnitOfWorkMockRecorder {
	return m.recorder
}

// ID mocks base method
func (m *MockUnitOfWork) ID() string {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "ID")
	ret0, _ := ret[0].(string)
	return ret0
}

// ID indicates an expected call of ID
func (mr *MockUnitOfWorkMockRecorder) ID() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ID", reflect.TypeOf((*MockUnitOfWork)(nil).ID))
}

// SitePath mocks base method
func (m *MockUnitOfWork) SitePath() string {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "SitePath")
	ret0, _ := ret[0].(string)
	return ret0
}

// SitePath indicates an expected call of SitePath
func (mr *MockUnitOfWorkMockRecorder) SitePath() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "SitePath", reflect.TypeOf((*MockUnitOfWork)(nil).SitePath))
}

// Note mocks base method
func (m *MockUnitOfWork) Note() string {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Note")
	ret0, _ := ret[0].(string)
	return ret0
}

// Note indicates an expected call of Note
func (mr *MockUnitOfWorkMockRecorder) Note() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Note", reflect.TypeOf((*MockUnitOfWork)(nil).Note))
}

// SetNote mocks base method
func (m *MockUnitOfWork) SetNote(note string) {
	m.ctrl.T.Helper()
	m.ctrl.Call(m, "SetNote", note)
}

// SetNote indicates an expected call of SetNote
func (mr *MockUnitOfWorkMockRecorder) SetNote(note interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "SetNote", reflect.TypeOf((*MockUnitOfWork)(nil).SetNote), note)
}

// Tx mocks base method
func (m *MockUnitOfWork) Tx() *sql.Tx {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Tx")
	ret0, _ := ret[0].(*sql.Tx)
	return ret0
}

// Tx indicates an expected call of Tx
func (mr *MockUnitOfWorkMockRecorder) Tx() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Tx", reflect.TypeOf((*MockUnitOfWork)(nil).Tx))
}

// Join mocks base method
func (m *MockUnitOfWork) Join(resource domain.TxnResource) {
	m.ctrl.T.Helper()
	m.ctrl.Call(m, "Join", resource)
}

// Join indicates an expected call of Join
func (mr *MockUnitOfWorkMockRecorder) Join(resource interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Join", reflect.TypeOf((*MockUnitOfWork)(nil).Join), resource)
}

// Resource mocks base method
func (m *MockUnitOfWork) Resource(key string) (domain.TxnResource, bool) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Resource", key)
	ret0, _ := ret[0].(domain.TxnResource)
	ret1, _ := ret[1].(bool)
	return ret0, ret1
}

// Resource indicates an expected call of Resource
func (mr *MockUnitOfWorkMockRecorder) Resource(key interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Resource", reflect.TypeOf((*MockUnitOfWork)(nil).Resource), key)
}

// SetResource mocks base method
func (m *MockUnitOfWork) SetResource(key string, resource domain.TxnResource) {
	m.ctrl.T.Helper()
	m.ctrl.Call(m, "SetResource", key, resource)
}

// SetResource indicates an expected call of SetResource
func (mr *MockUnitOfWorkMockRecorder) SetResource(key, resource interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "SetResource", reflect.TypeOf((*MockUnitOfWork)(nil).SetResource), key, resource)
}

// Commit mocks base method
func (m *MockUnitOfWork) Commit(ctx context.Context) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Commit", ctx)
	ret0, _ := ret[0].(error)
	return ret0
}

// Commit indicates an expected call of Commit
func (mr *MockUnitOfWorkMockRecorder) Commit(ctx interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Commit", reflect.TypeOf((*MockUnitOfWork)(nil).Commit), ctx)
}

// Rollback mocks base method
func (m *MockUnitOfWork) Rollback(ctx context.Context) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Rollback", ctx)
	ret0, _ := ret[0].(error)
	return ret0
}

// Rollback indicates an expected call of Rollback
func (mr *MockUnitOfWorkMockRecorder) Rollback(ctx interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Rollback", reflect.TypeOf((*MockUnitOfWork)(nil).Rollback), ctx)
}

// Active mocks base method
func (m *MockUnitOfWork) Active() bool {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Active")
	ret0, _ := ret[0].(bool)
	return ret0
}

// Active indicates an expected call of Active
func (mr *MockUnitOfWorkMockRecorder) Active() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Active", reflect.TypeOf((*MockUnitOfWork)(nil).Active))
}

// MockUnitOfWorkFactory is a mock of UnitOfWorkFactory interface
type MockUnitOfWorkFactory struct {
	ctrl     *gomock.Controller
	recorder *MockUnitOfWorkFactoryMockRecorder
}

// MockUnitOfWorkFactoryMockRecorder is the mock recorder for MockUnitOfWorkFactory
type MockUnitOfWorkFactoryMockRecorder struct {
	mock *MockUnitOfWorkFactory
}

// NewMockUnitOfWorkFactory creates a new mock instance
func NewMockUnitOfWorkFactory(ctrl *gomock.Controller) *MockUnitOfWorkFactory {
	mock := &MockUnitOfWorkFactory{ctrl: ctrl}
	mock.recorder = &MockUnitOfWorkFactoryMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use
func (m *MockUnitOfWorkFactory) EXPECT() *MockUnitOfWorkFactoryMockRecorder {
	return m.recorder
}

// Begin mocks base method
func (m *MockUnitOfWorkFactory) Begin(ctx context.Context, site string) (domain.UnitOfWork, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Begin", ctx, site)
	ret0, _ := ret[0].(domain.UnitOfWork)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// Begin indicates an expected call of Begin
func (mr *MockUnitOfWorkFactoryMockRecorder) Begin(ctx, site interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Begin", reflect.TypeOf((*MockUnitOfWorkFactory)(nil).Begin), ctx, site)
}

// BeginDetached mocks base method
func (m *MockUnitOfWorkFactory) BeginDetached(site string) domain.UnitOfWork {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "BeginDetached", site)
	ret0, _ := ret[0].(domain.UnitOfWork)
	return ret0
}

// BeginDetached indicates an expected call of BeginDetached
func (mr *MockUnitOfWorkFactoryMockRecorder) BeginDetached(site interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "BeginDetached", reflect.TypeOf((*MockUnitOfWorkFactory)(nil).BeginDetached), site)
}

// MockConnectionProvider is a mock of ConnectionProvider interface
type MockConnectionProvider struct {
	ctrl     *gomock.Controller
	recorder *MockConnectionProviderMockRecorder
}

// MockConnectionProviderMockRecorder is the mock recorder for MockConnectionProvider
type MockConnectionProviderMockRecorder struct {
	mock *MockConnectionProvider
}

// NewMockConnectionProvider creates a new mock instance
func NewMockConnectionProvider(ctrl *gomock.Controller) *MockConnectionProvider {
	mock := &MockConnectionProvider{ctrl: ctrl}
	mock.recorder = &MockConnectionProviderMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use
func (m *MockConnectionProvider) EXPECT() *MockConnectionProviderMockRecorder {
	return m.recorder
}

// Connection mocks base method
func (m *MockConnectionProvider) Connection(ctx context.Context, site string) (*sql.DB, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Connection", ctx, site)
	ret0, _ := ret[0].(*sql.DB)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// Connection indicates an expected call of Connection
func (mr *MockConnectionProviderMockRecorder) Connection(ctx, site interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Connection", reflect.TypeOf((*MockConnectionProvider)(nil).Connection), ctx, site)
}
