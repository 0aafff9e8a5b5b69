package model

import "time"

// User is an identity known to mealscan. Rows are created on first login
// and never modified.
type User struct {
	ID             string
	Provider       string
	ProviderUserID string
	Email          string
	CreatedAt      time.Time
}

// DevLoginRequest represents a dev-mode login request.
type DevLoginRequest struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

// TokenResponse carries a freshly issued bearer token.
type TokenResponse struct {
	Token string `json:"token"`
}

// UserResponse represents user data safe for API responses.
type UserResponse struct {
	ID        string    `json:"id"`
	Provider  string    `json:"provider,omitempty"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at,omitzero"`
}
