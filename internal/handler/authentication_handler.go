package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"interactive-maps-server/config"
	"interactive-maps-server/internal/model"
	"interactive-maps-server/internal/model/requestresponse"
	"interactive-maps-server/internal/ports"
	"interactive-maps-server/internal/security"
	"interactive-maps-server/internal/util"
)

const (
	authSuccessMessage = "Authentication successful. Tokens are stored in cookies."
	maxLoginBodySize   = 4 << 10
)

type AuthenticationHandler struct {
	auth    ports.AuthenticationService
	codes   ports.AccessCodeService
	status  ports.SyncStatus
	cookies config.CookieConfig
	logger  *zap.Logger
}

func NewAuthenticationHandler(
	auth ports.AuthenticationService,
	codes ports.AccessCodeService,
	status ports.SyncStatus,
	cookies config.CookieConfig,
	logger *zap.Logger,
) *AuthenticationHandler {
	return &AuthenticationHandler{
		auth:    auth,
		codes:   codes,
		status:  status,
		cookies: cookies,
		logger:  logger,
	}
}

// Login godoc
// @Summary Log in with an access code
// @Description Exchanges the current map access code for a session. Tokens are returned in cookies only.
// @Tags Authentication
// @Accept json
// @Produce json
// @Param body body requestresponse.LoginRequest true "Access code"
// @Success 200 {object} requestresponse.AuthResponseMessage
// @Failure 400 {object} requestresponse.ErrorResponse "Malformed body or empty code"
// @Failure 413 {object} requestresponse.ErrorResponse "Body larger than 4 KiB"
// @Failure 401 {object} requestresponse.ErrorResponse "Code is not the active one"
// @Failure 404 {object} requestresponse.ErrorResponse "No map access record for the code"
// @Failure 503 {object} requestresponse.ErrorResponse "Access codes not synchronized yet"
// @Failure 500 {object} requestresponse.ErrorResponse
// @Router /api/auth/login [post]
func (h *AuthenticationHandler) Login(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxLoginBodySize)

	var req requestresponse.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			util.HandleError(w, "request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		util.HandleError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	if strings.TrimSpace(req.Code) == "" {
		util.HandleError(w, "code is required", http.StatusBadRequest)
		return
	}

	tokens, err := h.auth.LoginWithCode(r.Context(), req.Code)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrCodeStoreNotReady):
			util.HandleError(w, "access codes are not available yet, try again later", http.StatusServiceUnavailable)
		case errors.Is(err, model.ErrUnauthorized):
			util.HandleError(w, "invalid access code", http.StatusUnauthorized)
		case errors.Is(err, model.ErrNotFound):
			util.HandleError(w, "map access not found", http.StatusNotFound)
		default:
			h.logger.Error("login failed", zap.Error(err))
			util.HandleError(w, "internal server error", http.StatusInternalServerError)
		}
		return
	}

	h.setTokenCookies(w, tokens)
	util.WriteJSON(w, http.StatusOK, requestresponse.AuthResponseMessage{
		Message:         authSuccessMessage,
		TokensInCookies: true,
	})
}

// Refresh godoc
// @Summary Rotate the session tokens
// @Description Reads the refresh_token cookie and replaces both cookies with a new pair.
// @Tags Authentication
// @Produce json
// @Success 200 {object} requestresponse.AuthResponseMessage
// @Failure 400 {object} requestresponse.ErrorResponse "Missing, invalid or expired refresh token"
// @Router /api/auth/refresh [get]
func (h *AuthenticationHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(security.RefreshTokenCookie)
	if err != nil || cookie.Value == "" {
		util.HandleError(w, "refresh token missing", http.StatusBadRequest)
		return
	}

	tokens, err := h.auth.RefreshTokens(cookie.Value)
	if err != nil {
		h.logger.Debug("refresh rejected", zap.Error(err))
		util.HandleError(w, "failed to refresh tokens", http.StatusBadRequest)
		return
	}

	h.setTokenCookies(w, tokens)
	util.WriteJSON(w, http.StatusOK, requestresponse.AuthResponseMessage{
		Message:         authSuccessMessage,
		TokensInCookies: true,
	})
}

// Logout godoc
// @Summary End the session
// @Description Clears both token cookies. Issued tokens stay valid until they expire.
// @Tags Authentication
// @Produce json
// @Success 200 {object} requestresponse.LogoutResponse
// @Router /api/auth/logout [post]
func (h *AuthenticationHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, h.expiredCookie(security.AccessTokenCookie))
	http.SetCookie(w, h.expiredCookie(security.RefreshTokenCookie))

	util.WriteJSON(w, http.StatusOK, requestresponse.LogoutResponse{Message: "Logout successful"})
}

// Me godoc
// @Summary Current identity
// @Description Returns the claims of the access token.
// @Tags Authentication
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} requestresponse.CurrentUserResponse
// @Failure 401 {object} requestresponse.ErrorResponse
// @Router /api/auth/me [get]
func (h *AuthenticationHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, err := security.GetClaimsFromContext(r.Context())
	if err != nil {
		util.HandleError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	resp := requestresponse.CurrentUserResponse{
		ID:   claims.SubjectID,
		Name: claims.Name,
	}
	if claims.ExpiresAt != nil {
		resp.ExpiresAt = claims.ExpiresAt.Unix()
	}

	util.WriteJSON(w, http.StatusOK, resp)
}

// CodeStatus godoc
// @Summary Access code synchronization status
// @Description Reports whether an access code is active and when it was last synchronized. The code itself is never returned.
// @Tags Authentication
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} requestresponse.CodeStatusResponse
// @Failure 401 {object} requestresponse.ErrorResponse
// @Failure 500 {object} requestresponse.ErrorResponse
// @Router /api/auth/code-status [get]
func (h *AuthenticationHandler) CodeStatus(w http.ResponseWriter, r *http.Request) {
	stats, err := h.codes.Stats(r.Context())
	if err != nil {
		h.logger.Error("code status failed", zap.Error(err))
		util.HandleError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	active, err := h.codes.CurrentActiveCode(r.Context())
	if err != nil {
		h.logger.Error("code status failed", zap.Error(err))
		util.HandleError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	var activeID *int64
	if active != nil && active.IsActive() {
		activeID = &active.ID
	}

	util.WriteJSON(w, http.StatusOK, requestresponse.CodeStatusResponse{
		ActiveCodeID:        activeID,
		HasActiveCode:       stats.HasActiveCode,
		ActiveSince:         stats.ActiveSince,
		TotalCodesInHistory: stats.TotalCodesInHistory,
		SyncState:           h.status.State().String(),
		LastSyncedAt:        h.status.LastSyncedAt(),
	})
}

func (h *AuthenticationHandler) setTokenCookies(w http.ResponseWriter, tokens *model.TokensPair) {
	http.SetCookie(w, h.tokenCookie(security.AccessTokenCookie, tokens.AccessToken))
	http.SetCookie(w, h.tokenCookie(security.RefreshTokenCookie, tokens.RefreshToken))
}

func (h *AuthenticationHandler) tokenCookie(name, value string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: h.cookies.HTTPOnly,
		Secure:   h.cookies.Secure,
		SameSite: h.cookies.SameSiteMode(),
	}
}

func (h *AuthenticationHandler) expiredCookie(name string) *http.Cookie {
	cookie := h.tokenCookie(name, "")
	cookie.MaxAge = -1
	return cookie
}
