package ports

import (
	"context"

	"interactive-maps-server/internal/model"
	"interactive-maps-server/internal/security"
)

type AuthenticationService interface {
	LoginWithCode(ctx context.Context, code string) (*model.TokensPair, error)
	RefreshTokens(refreshToken string) (*model.TokensPair, error)
	VerifyToken(token string) (*security.Claims, error)
}
