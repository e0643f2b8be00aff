package ports

import (
	"context"

	"interactive-maps-server/internal/model"
)

// IdentitySource : external source of record for map access codes
type IdentitySource interface {
	FetchAccessToken(ctx context.Context) (string, error)
	CurrentCode(ctx context.Context) (string, error)
	LookupByName(ctx context.Context, name string) (*model.MapAccess, error)
}
