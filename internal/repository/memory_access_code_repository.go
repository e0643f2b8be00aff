package repository

import (
	"context"
	"sync"
	"time"

	"interactive-maps-server/internal/model"
)

// MemoryAccessCodeRepository : in-process store for tests and local runs.
// The mutex plays the role of the database transaction.
type MemoryAccessCodeRepository struct {
	mu     sync.Mutex
	codes  []model.AccessCode
	nextID int64
}

func NewMemoryAccessCodeRepository() *MemoryAccessCodeRepository {
	return &MemoryAccessCodeRepository{nextID: 1}
}

func (r *MemoryAccessCodeRepository) FindActive(ctx context.Context) (*model.AccessCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if active := r.active(); active != nil {
		code := *active
		return &code, nil
	}
	return nil, nil
}

func (r *MemoryAccessCodeRepository) IsActive(ctx context.Context, code string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	active := r.active()
	return active != nil && active.Code == code, nil
}

func (r *MemoryAccessCodeRepository) Reconcile(ctx context.Context, code string, now time.Time) (*model.AccessCode, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	active := r.active()
	if active != nil && active.Code == code {
		current := *active
		return &current, false, nil
	}

	if active != nil {
		expiredAt := now
		active.ExpiredAt = &expiredAt
	}

	created := model.AccessCode{
		ID:        r.nextID,
		Code:      code,
		CreatedAt: now,
	}
	r.nextID++
	r.codes = append(r.codes, created)

	return &created, true, nil
}

func (r *MemoryAccessCodeRepository) Stats(ctx context.Context) (*model.AccessCodeStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stats := &model.AccessCodeStats{TotalCodesInHistory: len(r.codes)}
	if active := r.active(); active != nil {
		since := active.CreatedAt
		stats.HasActiveCode = true
		stats.ActiveSince = &since
	}
	return stats, nil
}

// History : copy of every row, oldest first
func (r *MemoryAccessCodeRepository) History() []model.AccessCode {
	r.mu.Lock()
	defer r.mu.Unlock()

	history := make([]model.AccessCode, len(r.codes))
	copy(history, r.codes)
	return history
}

func (r *MemoryAccessCodeRepository) active() *model.AccessCode {
	for i := range r.codes {
		if r.codes[i].IsActive() {
			return &r.codes[i]
		}
	}
	return nil
}
