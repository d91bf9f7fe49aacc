package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	DeletionStatusPending   = "pending"
	DeletionStatusConfirmed = "confirmed"
	DeletionStatusCompleted = "completed"
	DeletionStatusCancelled = "cancelled"
)

// DeletionRequest tracks one account through the deletion lifecycle:
// pending → confirmed → completed, or cancelled at any point before
// completion. The row is never destroyed; once the cascade runs, UserID is
// nulled out and the row stays behind as the audit record.
//
// The confirmation token is stored hashed, never in plain text. The
// composite index on (scheduled_deletion_at, reminder_sent_at) backs the
// reminder selection query.
type DeletionRequest struct {
	ID                  uint           `gorm:"primaryKey" json:"id"`
	UserID              *uint          `gorm:"index" json:"user_id,omitempty"`
	User                *User          `gorm:"foreignKey:UserID;constraint:OnDelete:SET NULL" json:"user,omitempty"`
	TokenHash           string         `gorm:"uniqueIndex;size:64" json:"-"`
	TokenExpiresAt      time.Time      `gorm:"index;not null" json:"token_expires_at"`
	Status              string         `gorm:"size:20;default:'pending';index" json:"status"`
	Reason              string         `gorm:"type:text" json:"reason,omitempty"`
	ScheduledDeletionAt *time.Time     `gorm:"index:idx_deletion_requests_reminder" json:"scheduled_deletion_at,omitempty"`
	ReminderSentAt      *time.Time     `gorm:"index:idx_deletion_requests_reminder" json:"reminder_sent_at,omitempty"`
	DataSnapshot        datatypes.JSON `json:"data_snapshot,omitempty"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
}
