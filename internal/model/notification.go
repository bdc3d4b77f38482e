package model

import (
	"time"

	"github.com/google/uuid"
)

type NotificationStatus string

const (
	NotificationStatusPending NotificationStatus = "pending"
	NotificationStatusSent    NotificationStatus = "sent"
	NotificationStatusFailed  NotificationStatus = "failed"
)

// Notification is a user-facing message emitted for a lifecycle event.
type Notification struct {
	ID          uuid.UUID              `db:"id" json:"id"`
	RecipientID uuid.UUID              `db:"recipient_id" json:"recipient_id"`
	Type        string                 `db:"type" json:"type"`
	Title       string                 `db:"title" json:"title"`
	Message     string                 `db:"message" json:"message"`
	Data        map[string]interface{} `db:"-" json:"data,omitempty"`
	Status      NotificationStatus     `db:"status" json:"status"`
	SentAt      *time.Time             `db:"sent_at" json:"sent_at,omitempty"`
	CreatedAt   time.Time              `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time              `db:"updated_at" json:"updated_at"`
}
