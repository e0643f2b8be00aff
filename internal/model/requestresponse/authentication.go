package requestresponse

import "time"

// LoginRequest : access code exchanged for a session
type LoginRequest struct {
	Code string `json:"code" example:"MAPS-2024-ABC123"`
}

// AuthResponseMessage : tokens are delivered in cookies, never in the body
type AuthResponseMessage struct {
	Message         string `json:"message" example:"Authentication successful. Tokens are stored in cookies."`
	TokensInCookies bool   `json:"tokens_in_cookies" example:"true"`
}

// LogoutResponse : response to session termination
type LogoutResponse struct {
	Message string `json:"message" example:"Logout successful"`
}

// CurrentUserResponse : decoded claims of the access token
type CurrentUserResponse struct {
	ID        string `json:"id" example:"4876876000000123001"`
	Name      string `json:"name" example:"MAPS-2024-ABC123"`
	ExpiresAt int64  `json:"exp" example:"1735689600"`
}

// CodeStatusResponse : state of the synchronized access code, without the code itself
type CodeStatusResponse struct {
	ActiveCodeID        *int64     `json:"active_code_id,omitempty" example:"3"`
	HasActiveCode       bool       `json:"has_active_code" example:"true"`
	ActiveSince         *time.Time `json:"active_since,omitempty"`
	TotalCodesInHistory int        `json:"total_codes_in_history" example:"3"`
	SyncState           string     `json:"sync_state" example:"synced"`
	LastSyncedAt        *time.Time `json:"last_synced_at,omitempty"`
}

// ErrorResponse : error envelope written by util.HandleError
type ErrorResponse struct {
	Error   string `json:"error" example:"Unauthorized"`
	Message string `json:"message" example:"invalid or expired token"`
	Code    int    `json:"code" example:"401"`
}
