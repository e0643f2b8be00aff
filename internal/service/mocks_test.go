package service_test

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"interactive-maps-server/internal/model"
	"interactive-maps-server/internal/security"
)

// ===== MOCKS =====

type MockTokenService struct {
	mock.Mock
}

func (m *MockTokenService) Generate(subjectID, name string) (*model.TokensPair, error) {
	args := m.Called(subjectID, name)
	if pair, ok := args.Get(0).(*model.TokensPair); ok {
		return pair, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTokenService) Verify(token string) (*security.Claims, error) {
	args := m.Called(token)
	if claims, ok := args.Get(0).(*security.Claims); ok {
		return claims, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTokenService) Refresh(refreshToken string) (*model.TokensPair, error) {
	args := m.Called(refreshToken)
	if pair, ok := args.Get(0).(*model.TokensPair); ok {
		return pair, args.Error(1)
	}
	return nil, args.Error(1)
}

type MockAccessCodeService struct {
	mock.Mock
}

func (m *MockAccessCodeService) ValidateCode(ctx context.Context, code string) (bool, error) {
	args := m.Called(ctx, code)
	return args.Bool(0), args.Error(1)
}

func (m *MockAccessCodeService) CurrentActiveCode(ctx context.Context) (*model.AccessCode, error) {
	args := m.Called(ctx)
	if code, ok := args.Get(0).(*model.AccessCode); ok {
		return code, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAccessCodeService) SyncCode(ctx context.Context, externalCode string) (*model.AccessCode, bool, error) {
	args := m.Called(ctx, externalCode)
	if code, ok := args.Get(0).(*model.AccessCode); ok {
		return code, args.Bool(1), args.Error(2)
	}
	return nil, args.Bool(1), args.Error(2)
}

func (m *MockAccessCodeService) Stats(ctx context.Context) (*model.AccessCodeStats, error) {
	args := m.Called(ctx)
	if stats, ok := args.Get(0).(*model.AccessCodeStats); ok {
		return stats, args.Error(1)
	}
	return nil, args.Error(1)
}

type MockIdentitySource struct {
	mock.Mock
}

func (m *MockIdentitySource) FetchAccessToken(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockIdentitySource) CurrentCode(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockIdentitySource) LookupByName(ctx context.Context, name string) (*model.MapAccess, error) {
	args := m.Called(ctx, name)
	if record, ok := args.Get(0).(*model.MapAccess); ok {
		return record, args.Error(1)
	}
	return nil, args.Error(1)
}

type MockSyncReadiness struct {
	mock.Mock
}

func (m *MockSyncReadiness) Ready() error {
	args := m.Called()
	return args.Error(0)
}

// ==== STORE STUB ====

type failingStore struct {
	err error
}

func (s failingStore) FindActive(ctx context.Context) (*model.AccessCode, error) { return nil, s.err }

func (s failingStore) IsActive(ctx context.Context, code string) (bool, error) { return false, s.err }

func (s failingStore) Reconcile(ctx context.Context, code string, now time.Time) (*model.AccessCode, bool, error) {
	return nil, false, s.err
}

func (s failingStore) Stats(ctx context.Context) (*model.AccessCodeStats, error) { return nil, s.err }
