package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// LoginRequest holds credentials for authenticating a user. Role narrows the lookup to one role table.
type LoginRequest struct {
	Username  string   `json:"username" validate:"required"`
	Password  string   `json:"password" validate:"required"`
	Role      UserRole `json:"role,omitempty" validate:"omitempty,oneof=student teacher parent school_admin"`
	IP        string   `json:"-"`
	UserAgent string   `json:"-"`
}

// LoginResponse returns the issued token and user info.
type LoginResponse struct {
	AccessToken string    `json:"accessToken"`
	ExpiresIn   int64     `json:"expiresIn"`
	ProfileKey  string    `json:"profileKey,omitempty"`
	User        UserInfo  `json:"user"`
	IssuedAt    time.Time `json:"issuedAt"`
}

// UserInfo describes the authenticated user in responses.
type UserInfo struct {
	ID           string   `json:"userId"`
	Username     string   `json:"username"`
	Name         string   `json:"name"`
	Role         UserRole `json:"role"`
	ProfileImage string   `json:"profileImage,omitempty"`
}

// JWTClaims represents the JWT payload for access tokens. ProfileKey is the caller's role row key
// (teacher key, admin id, student or parent key).
type JWTClaims struct {
	UserID     string   `json:"userId"`
	Role       UserRole `json:"role"`
	ProfileKey string   `json:"profileKey,omitempty"`
	Username   string   `json:"username"`
	Name       string   `json:"name"`
	jwt.RegisteredClaims
}
