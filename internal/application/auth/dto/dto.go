// Package dto defines the request and response shapes of the auth endpoints.
package dto

// LoginRequest authenticates a user with email and password.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest rotates a refresh token. The token may also arrive via the
// refresh cookie, in which case the body is empty.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// SessionUser is the authenticated user's externally visible shape.
type SessionUser struct {
	ID    uint   `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
	OrgID *uint  `json:"org_id,omitempty"`
}

// TokenResponse carries a freshly issued token pair.
type TokenResponse struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	ExpiresIn    int64       `json:"expires_in"`
	User         SessionUser `json:"user"`
}
