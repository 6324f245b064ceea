package auth

import (
	"github.com/google/uuid"

	"github.com/shopvite/shopvite-backend/internal/users"
)

// RegisterRequest captures the payload for storefront signup.
type RegisterRequest struct {
	FirstName string  `json:"first_name" validate:"required"`
	LastName  string  `json:"last_name" validate:"required"`
	Email     string  `json:"email" validate:"required,email"`
	Password  string  `json:"password" validate:"required,min=8"`
	Phone     *string `json:"phone,omitempty"`
}

// LoginRequest captures the user credentials sent to the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest carries the expired access token plus the refresh token.
type RefreshRequest struct {
	AccessToken  string `json:"access_token" validate:"required"`
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// AuthResponse contains the token pair and the authenticated user profile.
type AuthResponse struct {
	AccessToken  string         `json:"access_token"`
	RefreshToken string         `json:"refresh_token"`
	User         *users.Profile `json:"user"`
}

// RefreshResponse returns the re-minted access token. The refresh token is
// unchanged and stays valid until logout or expiry.
type RefreshResponse struct {
	AccessToken string `json:"access_token"`
}

// PasswordResetRequest asks for a reset code to be issued.
type PasswordResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// PasswordResetConfirm consumes the emailed code and sets a new password.
type PasswordResetConfirm struct {
	Email       string `json:"email" validate:"required,email"`
	Code        string `json:"code" validate:"required,len=6"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

// ChangePermissionRequest reassigns a user's role and/or replaces a role's
// permission list. Nil fields are left untouched.
type ChangePermissionRequest struct {
	RoleName    string     `json:"role_name" validate:"required"`
	UserID      *uuid.UUID `json:"user_id,omitempty"`
	Permissions *[]string  `json:"permissions,omitempty"`
}
