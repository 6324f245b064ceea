package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/shopvite/shopvite-backend/pkg/db/models"
)

// Profile is the storefront-facing view of a user.
type Profile struct {
	ID          uuid.UUID  `json:"id"`
	Email       string     `json:"email"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	Phone       *string    `json:"phone,omitempty"`
	Role        string     `json:"role"`
	IsActive    bool       `json:"is_active"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// UpdateProfileInput carries the mutable profile fields. Nil means "leave
// unchanged".
type UpdateProfileInput struct {
	FirstName *string
	LastName  *string
	Phone     *string
}

// NewProfile maps the user row (with preloaded role) to its API view.
func NewProfile(user *models.User) Profile {
	profile := Profile{
		ID:          user.ID,
		Email:       user.Email,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		Phone:       user.Phone,
		IsActive:    user.IsActive,
		LastLoginAt: user.LastLoginAt,
		CreatedAt:   user.CreatedAt,
	}
	if user.Role != nil {
		profile.Role = user.Role.Name
	}
	return profile
}
