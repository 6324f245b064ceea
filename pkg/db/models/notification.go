package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/shopvite/shopvite-backend/pkg/enums"
)

// Notification stores per-user notification payloads.
type Notification struct {
	ID          uuid.UUID                  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID      uuid.UUID                  `gorm:"type:uuid;not null;index"`
	Type        enums.NotificationType     `gorm:"type:notification_type;not null"`
	Priority    enums.NotificationPriority `gorm:"type:notification_priority;not null;default:'normal'"`
	Channels    pq.StringArray             `gorm:"column:channels;type:text[];not null;default:ARRAY['IN_APP']::text[]"`
	Title       string                     `gorm:"type:text;not null"`
	Message     string                     `gorm:"type:text;not null"`
	Link        *string                    `gorm:"type:text"`
	ReadAt      *time.Time                 `gorm:"type:timestamptz"`
	SentAt      *time.Time                 `gorm:"type:timestamptz"`
	ScheduledAt *time.Time                 `gorm:"type:timestamptz"`
	ExpiresAt   *time.Time                 `gorm:"type:timestamptz"`
	CreatedAt   time.Time                  `gorm:"type:timestamptz;default:now()"`
}
