package ports

import (
	"context"
	"time"
)

// BearerTokenCache : Redis layer for the identity source bearer token
type BearerTokenCache interface {
	SetBearerToken(ctx context.Context, token string, ttl time.Duration) error
	GetBearerToken(ctx context.Context) (string, error)
	DeleteBearerToken(ctx context.Context) error
}
