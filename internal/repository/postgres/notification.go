package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/medibook/scheduler-api/internal/model"
)

func (r *notificationRepository) Create(ctx context.Context, n *model.Notification) error {
	now := time.Now()
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	n.CreatedAt = now
	n.UpdatedAt = now

	data, err := json.Marshal(n.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal notification data: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO notifications (id, recipient_id, type, title, message, data, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, n.ID, n.RecipientID, n.Type, n.Title, n.Message, data, n.Status, n.CreatedAt, n.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

func (r *notificationRepository) MarkSent(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE notifications
		SET status = 'sent', sent_at = NOW(), updated_at = NOW()
		WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("failed to mark notification sent: %w", err)
	}
	return nil
}

func (r *notificationRepository) ListForRecipient(ctx context.Context, recipientID uuid.UUID, limit int) ([]*model.Notification, error) {
	var notifications []*model.Notification
	err := r.db.SelectContext(ctx, &notifications, `
		SELECT id, recipient_id, type, title, message, status, sent_at, created_at, updated_at
		FROM notifications
		WHERE recipient_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, recipientID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, nil
}
