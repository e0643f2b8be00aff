package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"interactive-maps-server/internal/model"
	"interactive-maps-server/internal/ports"
	"interactive-maps-server/internal/security"
)

type AuthenticationService struct {
	tokens    ports.TokenService
	codes     ports.AccessCodeService
	identity  ports.IdentitySource
	readiness ports.SyncReadiness
	logger    *zap.Logger
}

func NewAuthenticationService(
	tokens ports.TokenService,
	codes ports.AccessCodeService,
	identity ports.IdentitySource,
	readiness ports.SyncReadiness,
	logger *zap.Logger,
) *AuthenticationService {
	return &AuthenticationService{
		tokens:    tokens,
		codes:     codes,
		identity:  identity,
		readiness: readiness,
		logger:    logger,
	}
}

// LoginWithCode exchanges an access code for a session token pair.
//
// The code must match the active stored code and resolve to a record in the
// identity source. The record's id and Name become the token identity.
//
// Returns:
//   - model.ErrCodeStoreNotReady before the first successful synchronization
//   - model.ErrUnauthorized when the code is not the active one, or the identity source refuses us
//   - model.ErrNotFound when the identity source has no record for the code
//   - model.ErrInternal for any other failure
func (s *AuthenticationService) LoginWithCode(ctx context.Context, code string) (*model.TokensPair, error) {
	if err := s.readiness.Ready(); err != nil {
		s.logger.Warn("login rejected, access code store not ready", zap.Error(err))
		return nil, err
	}

	ok, err := s.codes.ValidateCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: validate code: %v", model.ErrInternal, err)
	}
	if !ok {
		s.logger.Info("login rejected, code is not active")
		return nil, model.ErrUnauthorized
	}

	record, err := s.identity.LookupByName(ctx, code)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) || errors.Is(err, model.ErrUnauthorized) {
			s.logger.Warn("identity lookup rejected login", zap.Error(err))
			return nil, err
		}
		return nil, fmt.Errorf("%w: identity lookup: %v", model.ErrInternal, err)
	}

	tokens, err := s.tokens.Generate(record.ID, record.Name)
	if err != nil {
		return nil, fmt.Errorf("%w: generate tokens: %v", model.ErrInternal, err)
	}

	s.logger.Info("login succeeded", zap.String("subject_id", record.ID))
	return tokens, nil
}

// RefreshTokens : full rotation of the pair for the identity in refreshToken
func (s *AuthenticationService) RefreshTokens(refreshToken string) (*model.TokensPair, error) {
	return s.tokens.Refresh(refreshToken)
}

func (s *AuthenticationService) VerifyToken(token string) (*security.Claims, error) {
	return s.tokens.Verify(token)
}
