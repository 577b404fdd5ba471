package mocks

import (
	"reflect"

	"github.com/golang/mock/gomock"
	"github.com/hookline/hookline/internal/domain"
)

// MockAuthenticator is a mock of Authenticator interface
type MockAuthenticator struct {
	ctrl     *gomock.Controller
	recorder *MockAuthenticatorMockRecorder
}

// MockAuthenticatorMockRecorder is the mock recorder for MockAuthenticator
type MockAuthenticatorMockRecorder struct {
	mock *MockAuthenticator
}

// NewMockAuthenticator creates a new mock instance
func NewMockAuthenticator(ctrl *gomock.Controller) *MockAuthenticator {
	mock := &MockAuthenticator{ctrl: ctrl}
	mock.recorder = &MockAuthenticatorMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use
func (m *MockAuthenticator) EXPECT() *MockAuthenticatorMockRecorder {
	return m.recorder
}

// PrincipalByID mocks base method
func (m *MockAuthenticator) PrincipalByID(id string) (*domain.Principal, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "PrincipalByID", id)
	ret0, _ := ret[0].(*domain.Principal)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// PrincipalByID indicates an expected call of PrincipalByID
func (mr *MockAuthenticatorMockRecorder) PrincipalByID(id interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "PrincipalByID", reflect.TypeOf((*MockAuthenticator)(nil).PrincipalByID), id)
}

// UnauthenticatedPrincipal mocks base method
func (m *MockAuthenticator) UnauthenticatedPrincipal() *domain.Principal {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "UnauthenticatedPrincipal")
	ret0, _ := ret[0].(*domain.Principal)
	return ret0
}

// UnauthenticatedPrincipal indicates an expected call of UnauthenticatedPrincipal
func (mr *MockAuthenticatorMockRecorder) UnauthenticatedPrincipal() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "UnauthenticatedPrincipal", reflect.TypeOf((*MockAuthenticator)(nil).UnauthenticatedPrincipal))
}

// MockPermissionSource is a mock of PermissionSource interface
type MockPermissionSource struct {
	ctrl     *gomock.Controller
	recorder *MockPermissionSourceMockRecorder
}

// MockPermissionSourceMockRecorder is the mock recorder for MockPermissionSource
type MockPermissionSourceMockRecorder struct {
	mock *MockPermissionSource
}

// NewMockPermissionSource creates a new mock instance
func NewMockPermissionSource(ctrl *gomock.Controller) *MockPermissionSource {
	mock := &MockPermissionSource{ctrl: ctrl}
	mock.recorder = &MockPermissionSourceMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use
func (m *MockPermissionSource) EXPECT() *MockPermissionSourceMockRecorder {
	return m.recorder
}

// PermissionByID mocks base method
func (m *MockPermissionSource) PermissionByID(id string) *domain.Permission {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "PermissionByID", id)
	ret0, _ := ret[0].(*domain.Permission)
	return ret0
}

// PermissionByID indicates an expected call of PermissionByID
func (mr *MockPermissionSourceMockRecorder) PermissionByID(id interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "PermissionByID", reflect.TypeOf((*MockPermissionSource)(nil).PermissionByID), id)
}

// MockSecurityPolicy is a mock of SecurityPolicy interface
type MockSecurityPolicy struct {
	ctrl     *gomock.Controller
	recorder *MockSecurityPolicyMockRecorder
}

// MockSecurityPolicyMockRecorder is the mock recorder for MockSecurityPolicy
type MockSecurityPolicyMockRecorder struct {
	mock *MockSecurityPolicy
}

// NewMockSecurityPolicy creates a new mock instance
func NewMockSecurityPolicy(ctrl *gomock.Controller) *MockSecurityPolicy {
	mock := &MockSecurityPolicy{ctrl: ctrl}
	mock.recorder = &MockSecurityPolicyMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use
func (m *MockSecurityPolicy) EXPECT() *MockSecurityPolicyMockRecorder {
	return m.recorder
}

// HasPermission mocks base method
func (m *MockSecurityPolicy) HasPermission(permissionID string, object interface{}, interaction *domain.Interaction) bool {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "HasPermission", permissionID, object, interaction)
	ret0, _ := ret[0].(bool)
	return ret0
}

// HasPermission indicates an expected call of HasPermission
func (mr *MockSecurityPolicyMockRecorder) HasPermission(permissionID, object, interaction interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "HasPermission", reflect.TypeOf((*MockSecurityPolicy)(nil).HasPermission), permissionID, object, interaction)
}

// MockAuthProvider is a mock of AuthProvider interface
type MockAuthProvider struct {
	ctrl     *gomock.Controller
	recorder *MockAuthProviderMockRecorder
}

// MockAuthProviderMockRecorder is the mock recorder for MockAuthProvider
type MockAuthProviderMockRecorder struct {
	mock *MockAuthProvider
}

// NewMockAuthProvider creates a new mock instance
func NewMockAuthProvider(ctrl *gomock.Controller) *MockAuthProvider {
	mock := &MockAuthProvider{ctrl: ctrl}
	mock.recorder = &MockAuthProviderMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use
func (m *MockAuthProvider) EXPECT() *MockAuthProviderMockRecorder {
	return m.recorder
}

// AuthenticatorsFor mocks base method
func (m *MockAuthProvider) AuthenticatorsFor(data interface{}) []domain.Authenticator {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "AuthenticatorsFor", data)
	ret0, _ := ret[0].([]domain.Authenticator)
	return ret0
}

// AuthenticatorsFor indicates an expected call of AuthenticatorsFor
func (mr *MockAuthProviderMockRecorder) AuthenticatorsFor(data interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "AuthenticatorsFor", reflect.TypeOf((*MockAuthProvider)(nil).AuthenticatorsFor), data)
}

// PermissionSourcesFor mocks base method
func (m *MockAuthProvider) PermissionSourcesFor(data interface{}) []domain.PermissionSource {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "PermissionSourcesFor", data)
	ret0, _ := ret[0].([]domain.PermissionSource)
	return ret0
}

// PermissionSourcesFor indicates an expected call of PermissionSourcesFor
func (mr *MockAuthProviderMockRecorder) PermissionSourcesFor(data interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "PermissionSourcesFor", reflect.TypeOf((*MockAuthProvider)(nil).PermissionSourcesFor), data)
}
