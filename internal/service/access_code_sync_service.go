package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"interactive-maps-server/config"
	"interactive-maps-server/internal/model"
	"interactive-maps-server/internal/ports"
)

// AccessCodeSyncService : keeps the stored access code aligned with the identity source.
//
// The store starts UNINITIALIZED. A successful Bootstrap moves it to SYNCED, after
// which Run polls on a fixed interval. Poll failures are logged and retried on the
// next tick; they never leave SYNCED.
type AccessCodeSyncService struct {
	codes          ports.AccessCodeService
	identity       ports.IdentitySource
	interval       time.Duration
	bootstrapDelay time.Duration
	logger         *zap.Logger
	now            func() time.Time

	mu           sync.RWMutex
	state        model.SyncState
	lastErr      error
	lastSyncedAt time.Time
}

func NewAccessCodeSyncService(
	codes ports.AccessCodeService,
	identity ports.IdentitySource,
	cfg *config.SyncConfig,
	logger *zap.Logger,
) *AccessCodeSyncService {
	accessCodeSyncState.Set(0)
	return &AccessCodeSyncService{
		codes:          codes,
		identity:       identity,
		interval:       cfg.Interval,
		bootstrapDelay: cfg.BootstrapDelay,
		logger:         logger,
		now:            time.Now,
	}
}

// Run : delayed bootstrap, then one sync per interval until ctx is cancelled
func (s *AccessCodeSyncService) Run(ctx context.Context) error {
	s.logger.Info("access code sync scheduler started",
		zap.Duration("interval", s.interval),
		zap.Duration("bootstrap_delay", s.bootstrapDelay),
	)

	timer := time.NewTimer(s.bootstrapDelay)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("access code sync scheduler stopped")
			return ctx.Err()
		case <-timer.C:
		}

		if s.State() == model.SyncStateUninitialized {
			if err := s.Bootstrap(ctx); err != nil {
				s.logger.Error("access code bootstrap failed, retrying on next tick", zap.Error(err))
			}
		} else {
			s.PollOnce(ctx)
		}

		timer.Reset(s.interval)
	}
}

// Bootstrap : first synchronization; the error is kept so that logins report it
func (s *AccessCodeSyncService) Bootstrap(ctx context.Context) error {
	code, err := s.identity.CurrentCode(ctx)
	if err != nil {
		accessCodeSyncTotal.WithLabelValues(syncResultFetchError).Inc()
		s.fail(err)
		return fmt.Errorf("bootstrap: %w", err)
	}

	if err := s.reconcile(ctx, code); err != nil {
		s.fail(err)
		return fmt.Errorf("bootstrap: %w", err)
	}

	s.logger.Info("access code store initialized")
	return nil
}

// PollOnce : one synchronization cycle; failures leave the store untouched
func (s *AccessCodeSyncService) PollOnce(ctx context.Context) {
	code, err := s.identity.CurrentCode(ctx)
	if err != nil {
		accessCodeSyncTotal.WithLabelValues(syncResultFetchError).Inc()
		s.logger.Warn("access code poll failed, keeping current code", zap.Error(err))
		return
	}

	if err := s.reconcile(ctx, code); err != nil {
		s.logger.Error("access code poll could not update the store", zap.Error(err))
	}
}

func (s *AccessCodeSyncService) reconcile(ctx context.Context, code string) error {
	_, rotated, err := s.codes.SyncCode(ctx, code)
	if err != nil {
		accessCodeSyncTotal.WithLabelValues(syncResultStoreError).Inc()
		return err
	}

	if rotated {
		accessCodeSyncTotal.WithLabelValues(syncResultRotated).Inc()
		accessCodeRotationsTotal.Inc()
	} else {
		accessCodeSyncTotal.WithLabelValues(syncResultUnchanged).Inc()
	}

	now := s.now().UTC()

	s.mu.Lock()
	s.state = model.SyncStateSynced
	s.lastErr = nil
	s.lastSyncedAt = now
	s.mu.Unlock()

	accessCodeSyncState.Set(1)
	accessCodeLastSync.Set(float64(now.Unix()))
	return nil
}

func (s *AccessCodeSyncService) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = err
}

// Ready : nil once bootstrapped, otherwise wraps model.ErrCodeStoreNotReady
func (s *AccessCodeSyncService) Ready() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.state == model.SyncStateSynced {
		return nil
	}
	if s.lastErr != nil {
		return fmt.Errorf("%w: %v", model.ErrCodeStoreNotReady, s.lastErr)
	}
	return model.ErrCodeStoreNotReady
}

func (s *AccessCodeSyncService) State() model.SyncState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *AccessCodeSyncService) LastSyncedAt() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.lastSyncedAt.IsZero() {
		return nil
	}
	at := s.lastSyncedAt
	return &at
}
