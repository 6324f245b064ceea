package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Role groups permission strings assigned to users. Version increments on
// every permission mutation so stale tokens can be detected.
type Role struct {
	ID          uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name        string         `gorm:"column:name;type:text;not null;uniqueIndex"`
	Description *string        `gorm:"column:description"`
	Permissions pq.StringArray `gorm:"column:permissions;type:text[];not null;default:ARRAY[]::text[]"`
	Version     int            `gorm:"column:version;not null;default:1"`
	UpdatedBy   *uuid.UUID     `gorm:"column:updated_by;type:uuid"`
	CreatedAt   time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
