package models

import (
	"time"

	"github.com/google/uuid"

	dbtypes "github.com/shopvite/shopvite-backend/pkg/db/types"
)

// User represents the canonical identity entity.
type User struct {
	ID           uuid.UUID         `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Email        string            `gorm:"type:text;not null;uniqueIndex"`
	PasswordHash string            `gorm:"column:password_hash;not null"`
	FirstName    string            `gorm:"column:first_name;not null"`
	LastName     string            `gorm:"column:last_name;not null"`
	Phone        *string           `gorm:"column:phone"`
	RoleID       uuid.UUID         `gorm:"column:role_id;type:uuid;not null"`
	Role         *Role             `gorm:"foreignKey:RoleID"`
	Favorites    dbtypes.UUIDArray `gorm:"type:uuid[];column:favorites;not null;default:ARRAY[]::uuid[]"`
	IsActive     bool              `gorm:"column:is_active;not null;default:true"`
	LastLoginAt  *time.Time        `gorm:"column:last_login_at"`
	CreatedAt    time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
