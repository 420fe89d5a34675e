package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Session is the identity held by the session store.
type Session struct {
	User         *User  `json:"user"`
	AccessToken  string `json:"-"`
	RefreshToken string `json:"-"`
}

// Authenticated reports whether both the user and the access credential are present.
func (s Session) Authenticated() bool {
	return s.User != nil && s.AccessToken != ""
}

// OrganizationID returns the organization scope of the session, or 0 when unknown.
func (s Session) OrganizationID() int {
	if s.User == nil {
		return 0
	}
	return s.User.Organization.Int()
}

// ExpiresAt reads the exp claim of the access token. The token is not verified;
// the server stays the authority, this only avoids a doomed round trip.
func (s Session) ExpiresAt() (time.Time, bool) {
	return TokenExpiry(s.AccessToken)
}

// TokenExpiry returns the exp claim of a JWT without verifying its signature.
// Opaque (non-JWT) tokens report false.
func TokenExpiry(token string) (time.Time, bool) {
	if token == "" {
		return time.Time{}, false
	}
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// LoginRequest holds credentials for authenticating a user.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is the login wire contract: {"user": {...}, "access": "...", "refresh": "..."}.
type LoginResponse struct {
	User    User   `json:"user"`
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// RegisterRequest creates a console user account.
type RegisterRequest struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	Role         int    `json:"role"`
	Organization int    `json:"organization"`
}

// RegisterResponse acknowledges a registration.
type RegisterResponse struct {
	Message string `json:"message"`
}
