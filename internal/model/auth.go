package model

import (
	"github.com/golang-jwt/jwt/v5"
)

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Secret   string `json:"secret" binding:"required"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	Role        Role   `json:"role"`
	SubjectID   int64  `json:"subject_id"`
}

// TokenClaims identifies the actor behind a request.
type TokenClaims struct {
	jwt.RegisteredClaims
	Role      Role  `json:"role"`
	SubjectID int64 `json:"subject_id"`
}
