package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID      uuid.UUID
	Email       string
	Role        string
	RoleVersion int
	Permissions []string
	JTI         string
}

// AccessTokenClaims represents the typed JWT issued to clients. Role
// permissions ride the token; the role version lets middleware reject
// tokens minted before a permission change.
type AccessTokenClaims struct {
	UserID      uuid.UUID `json:"user_id"`
	Email       string    `json:"email"`
	Role        string    `json:"role"`
	RoleVersion int       `json:"role_version"`
	Permissions []string  `json:"permissions"`
	jwt.RegisteredClaims
}
