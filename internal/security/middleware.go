package security

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"interactive-maps-server/internal/util"
)

type contextKey string

const (
	UserContextKey contextKey = "user"

	AccessTokenCookie  = "access_token"
	RefreshTokenCookie = "refresh_token"

	bearerPrefix = "Bearer "
)

// TokenVerifier : the part of the token service the middleware needs
type TokenVerifier interface {
	Verify(token string) (*Claims, error)
}

// AuthMiddleware rejects requests without a valid access token before they reach the handler.
// Expired and invalid tokens produce the same response.
func AuthMiddleware(verifier TokenVerifier, logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(handleAuthentication(verifier, logger, next))
	}
}

func handleAuthentication(verifier TokenVerifier, logger *zap.Logger, next http.Handler) func(writer http.ResponseWriter, request *http.Request) {
	return func(writer http.ResponseWriter, request *http.Request) {
		token, ok := ExtractToken(request)
		if !ok {
			util.HandleError(writer, "authorization token missing", http.StatusUnauthorized)
			return
		}

		claims, err := verifier.Verify(token)
		if err != nil {
			logger.Debug("token rejected",
				zap.String("path", request.URL.Path),
				zap.Error(err),
			)
			util.HandleError(writer, "invalid or expired token", http.StatusUnauthorized)
			return
		}

		req := request.WithContext(context.WithValue(request.Context(), UserContextKey, claims))
		next.ServeHTTP(writer, req)
	}
}

// ExtractToken : access_token cookie first, then the Authorization bearer header
func ExtractToken(request *http.Request) (string, bool) {
	if cookie, err := request.Cookie(AccessTokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value, true
	}

	authorizationHeader := request.Header.Get("Authorization")
	if !strings.HasPrefix(authorizationHeader, bearerPrefix) {
		return "", false
	}

	token := strings.TrimSpace(strings.TrimPrefix(authorizationHeader, bearerPrefix))
	if token == "" {
		return "", false
	}
	return token, true
}

func GetClaimsFromContext(ctx context.Context) (*Claims, error) {
	claims, ok := ctx.Value(UserContextKey).(*Claims)
	if !ok || claims == nil {
		return nil, fmt.Errorf("user is not authenticated")
	}
	return claims, nil
}
