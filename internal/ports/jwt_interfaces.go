package ports

import (
	"interactive-maps-server/internal/model"
	"interactive-maps-server/internal/security"
)

// TokenService : stateless mint/verify/refresh of signed session tokens
type TokenService interface {
	Generate(subjectID, name string) (*model.TokensPair, error)
	Verify(token string) (*security.Claims, error)
	Refresh(refreshToken string) (*model.TokensPair, error)
}
