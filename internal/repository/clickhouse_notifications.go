package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/kmutua/feedback-gateway/internal/model"
)

// CHNotificationsRepository lists greeting deliveries from ClickHouse
// (final view, fed off the notifications table CDC stream).
type CHNotificationsRepository interface {
	List(ctx context.Context, phone string, status model.NotificationStatus, limit, offset int) ([]model.Notification, error)
}

type chNotificationsRepository struct {
	ch *sqlx.DB // ClickHouse connection
}

func NewCHNotificationsRepository(ch *sqlx.DB) CHNotificationsRepository {
	return &chNotificationsRepository{ch: ch}
}

func (r *chNotificationsRepository) List(ctx context.Context, phone string, status model.NotificationStatus, limit, offset int) ([]model.Notification, error) {
	if limit <= 0 || limit > 1000 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	q := `
		SELECT id, customer_id, phone, text, status, created_at, updated_at
		FROM fbgw.notifications_latest
		WHERE 1 = 1
	`
	args := []any{}

	if status != "" {
		q += " AND status = ?"
		args = append(args, status.String())
	}
	if phone != "" {
		q += " AND phone = ?"
		args = append(args, phone)
	}

	q += " ORDER BY created_at DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	var rows []model.Notification
	if err := r.ch.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, err
	}
	return rows, nil
}
