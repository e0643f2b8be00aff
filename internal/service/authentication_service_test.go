package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"interactive-maps-server/internal/model"
	"interactive-maps-server/internal/security"
	"interactive-maps-server/internal/service"
)

type authFixture struct {
	tokens    *MockTokenService
	codes     *MockAccessCodeService
	identity  *MockIdentitySource
	readiness *MockSyncReadiness
	service   *service.AuthenticationService
}

func newAuthFixture() *authFixture {
	f := &authFixture{
		tokens:    new(MockTokenService),
		codes:     new(MockAccessCodeService),
		identity:  new(MockIdentitySource),
		readiness: new(MockSyncReadiness),
	}
	f.service = service.NewAuthenticationService(f.tokens, f.codes, f.identity, f.readiness, zap.NewNop())
	return f
}

func (f *authFixture) assertExpectations(t *testing.T) {
	f.tokens.AssertExpectations(t)
	f.codes.AssertExpectations(t)
	f.identity.AssertExpectations(t)
	f.readiness.AssertExpectations(t)
}

func TestLoginWithCode_Success(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()
	pair := &model.TokensPair{AccessToken: "access", RefreshToken: "refresh"}

	f.readiness.On("Ready").Return(nil)
	f.codes.On("ValidateCode", ctx, "ABC123").Return(true, nil)
	f.identity.On("LookupByName", ctx, "ABC123").Return(&model.MapAccess{ID: "4876876000000123001", Name: "ABC123"}, nil)
	f.tokens.On("Generate", "4876876000000123001", "ABC123").Return(pair, nil)

	got, err := f.service.LoginWithCode(ctx, "ABC123")
	require.NoError(t, err)
	assert.Equal(t, pair, got)
	f.assertExpectations(t)
}

func TestLoginWithCode_StoreNotReady(t *testing.T) {
	f := newAuthFixture()
	cause := fmt.Errorf("%w: identity source down", model.ErrCodeStoreNotReady)

	f.readiness.On("Ready").Return(cause)

	got, err := f.service.LoginWithCode(context.Background(), "ABC123")
	assert.ErrorIs(t, err, model.ErrCodeStoreNotReady)
	assert.Nil(t, got)
	f.codes.AssertNotCalled(t, "ValidateCode", mock.Anything, mock.Anything)
	f.tokens.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
}

func TestLoginWithCode_InactiveCode(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()

	f.readiness.On("Ready").Return(nil)
	f.codes.On("ValidateCode", ctx, "OLD-CODE").Return(false, nil)

	got, err := f.service.LoginWithCode(ctx, "OLD-CODE")
	assert.ErrorIs(t, err, model.ErrUnauthorized)
	assert.Nil(t, got)
	f.identity.AssertNotCalled(t, "LookupByName", mock.Anything, mock.Anything)
	f.tokens.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
}

func TestLoginWithCode_StoreFailure(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()

	f.readiness.On("Ready").Return(nil)
	f.codes.On("ValidateCode", ctx, "ABC123").Return(false, errors.New("connection refused"))

	_, err := f.service.LoginWithCode(ctx, "ABC123")
	assert.ErrorIs(t, err, model.ErrInternal)
	assert.NotErrorIs(t, err, model.ErrUnauthorized)
}

func TestLoginWithCode_IdentityErrors(t *testing.T) {
	tests := []struct {
		name      string
		lookupErr error
		want      error
	}{
		{name: "record missing", lookupErr: fmt.Errorf("lookup map access: %w", model.ErrNotFound), want: model.ErrNotFound},
		{name: "identity refuses credentials", lookupErr: fmt.Errorf("lookup map access: %w", model.ErrUnauthorized), want: model.ErrUnauthorized},
		{name: "transport failure", lookupErr: errors.New("dial tcp: timeout"), want: model.ErrInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAuthFixture()
			ctx := context.Background()

			f.readiness.On("Ready").Return(nil)
			f.codes.On("ValidateCode", ctx, "ABC123").Return(true, nil)
			f.identity.On("LookupByName", ctx, "ABC123").Return(nil, tt.lookupErr)

			got, err := f.service.LoginWithCode(ctx, "ABC123")
			assert.ErrorIs(t, err, tt.want)
			assert.Nil(t, got)
			f.tokens.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
		})
	}
}

func TestLoginWithCode_GenerateFailure(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()

	f.readiness.On("Ready").Return(nil)
	f.codes.On("ValidateCode", ctx, "ABC123").Return(true, nil)
	f.identity.On("LookupByName", ctx, "ABC123").Return(&model.MapAccess{ID: "1", Name: "ABC123"}, nil)
	f.tokens.On("Generate", "1", "ABC123").Return(nil, errors.New("signing failed"))

	_, err := f.service.LoginWithCode(ctx, "ABC123")
	assert.ErrorIs(t, err, model.ErrInternal)
}

func TestRefreshTokens_Delegates(t *testing.T) {
	f := newAuthFixture()
	pair := &model.TokensPair{AccessToken: "a2", RefreshToken: "r2"}

	f.tokens.On("Refresh", "r1").Return(pair, nil)
	f.tokens.On("Refresh", "bad").Return(nil, model.ErrInvalidToken)

	got, err := f.service.RefreshTokens("r1")
	require.NoError(t, err)
	assert.Equal(t, pair, got)

	_, err = f.service.RefreshTokens("bad")
	assert.ErrorIs(t, err, model.ErrInvalidToken)
}

func TestVerifyToken_Delegates(t *testing.T) {
	f := newAuthFixture()
	claims := &security.Claims{SubjectID: "1", Name: "ABC123"}

	f.tokens.On("Verify", "a1").Return(claims, nil)

	got, err := f.service.VerifyToken("a1")
	require.NoError(t, err)
	assert.Equal(t, claims, got)
}
