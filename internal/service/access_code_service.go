package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"interactive-maps-server/internal/model"
	"interactive-maps-server/internal/ports"
)

type AccessCodeService struct {
	store  ports.AccessCodeStore
	logger *zap.Logger
	now    func() time.Time
}

func NewAccessCodeService(store ports.AccessCodeStore, logger *zap.Logger) *AccessCodeService {
	return &AccessCodeService{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// ValidateCode : true only when code is the active one. Every call reads the store.
func (s *AccessCodeService) ValidateCode(ctx context.Context, code string) (bool, error) {
	if code == "" {
		return false, nil
	}

	ok, err := s.store.IsActive(ctx, code)
	if err != nil {
		return false, fmt.Errorf("code validation failed: %w", err)
	}
	return ok, nil
}

func (s *AccessCodeService) CurrentActiveCode(ctx context.Context) (*model.AccessCode, error) {
	return s.store.FindActive(ctx)
}

// SyncCode : makes externalCode the active code unless it already is.
// Returns the active row and whether a rotation happened.
func (s *AccessCodeService) SyncCode(ctx context.Context, externalCode string) (*model.AccessCode, bool, error) {
	if strings.TrimSpace(externalCode) == "" {
		return nil, false, errors.New("external code is empty")
	}

	code, rotated, err := s.store.Reconcile(ctx, externalCode, s.now().UTC())
	if err != nil {
		return nil, false, fmt.Errorf("reconcile failed: %w", err)
	}

	if rotated {
		s.logger.Info("access code rotated",
			zap.Int64("code_id", code.ID),
			zap.Time("active_since", code.CreatedAt),
		)
	} else {
		s.logger.Debug("access code unchanged", zap.Int64("code_id", code.ID))
	}

	return code, rotated, nil
}

func (s *AccessCodeService) Stats(ctx context.Context) (*model.AccessCodeStats, error) {
	return s.store.Stats(ctx)
}
