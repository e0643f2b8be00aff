package model

// TokensPair : access and refresh tokens issued together
// swagger:model
type TokensPair struct {
	// Access token (JWT), short-lived
	// example: eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9...
	AccessToken string `json:"access_token"`

	// Refresh token (JWT), only used to mint a new pair
	// example: eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9...
	RefreshToken string `json:"refresh_token"`
}
