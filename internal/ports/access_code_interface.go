package ports

import (
	"context"
	"time"

	"interactive-maps-server/internal/model"
)

// AccessCodeStore : durable record of issued access codes.
// Reconcile must compare, expire and insert as one atomic unit.
type AccessCodeStore interface {
	FindActive(ctx context.Context) (*model.AccessCode, error)
	IsActive(ctx context.Context, code string) (bool, error)
	Reconcile(ctx context.Context, code string, now time.Time) (*model.AccessCode, bool, error)
	Stats(ctx context.Context) (*model.AccessCodeStats, error)
}

type AccessCodeService interface {
	ValidateCode(ctx context.Context, code string) (bool, error)
	CurrentActiveCode(ctx context.Context) (*model.AccessCode, error)
	SyncCode(ctx context.Context, externalCode string) (*model.AccessCode, bool, error)
	Stats(ctx context.Context) (*model.AccessCodeStats, error)
}

// SyncReadiness : reports whether the access code store has been bootstrapped
type SyncReadiness interface {
	Ready() error
}

// SyncStatus : read-only view of the synchronization scheduler
type SyncStatus interface {
	SyncReadiness
	State() model.SyncState
	LastSyncedAt() *time.Time
}
