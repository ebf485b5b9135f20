package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/kmutua/feedback-gateway/internal/model"
)

// NotificationsRepository defines persistence for the notifications table.
type NotificationsRepository interface {
	InsertQueued(ctx context.Context, tx *sqlx.Tx, n model.Notification) error
	BatchUpdateStatus(ctx context.Context, tx *sqlx.Tx, ids []string, status model.NotificationStatus) error
}

type NotificationsRepositoryImpl struct {
	db *sqlx.DB
}

func NewNotificationsRepository(db *sqlx.DB) *NotificationsRepositoryImpl {
	return &NotificationsRepositoryImpl{db: db}
}

var _ NotificationsRepository = (*NotificationsRepositoryImpl)(nil)

func (r *NotificationsRepositoryImpl) withTx(ctx context.Context, tx *sqlx.Tx, fn func(*sqlx.Tx) error) error {
	if tx != nil {
		return fn(tx)
	}
	t, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = t.Rollback() }()
	if err := fn(t); err != nil {
		return err
	}
	return t.Commit()
}

// InsertQueued inserts a new notification row with status=queued.
func (r *NotificationsRepositoryImpl) InsertQueued(ctx context.Context, tx *sqlx.Tx, n model.Notification) error {
	const q = `
		INSERT INTO notifications
		    (id, customer_id, phone, text, status, created_at, updated_at)
		VALUES
		    (?,  ?,           ?,     ?,   'queued', NOW(),    NOW())
	`
	return r.withTx(ctx, tx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, q,
			n.ID, n.CustomerID, n.Phone, n.Text,
		)
		return err
	})
}

// BatchUpdateStatus updates status for many notifications using a single statement.
func (r *NotificationsRepositoryImpl) BatchUpdateStatus(ctx context.Context, tx *sqlx.Tx, ids []string, status model.NotificationStatus) error {
	if len(ids) == 0 {
		return nil
	}
	const base = `UPDATE notifications SET status = ?, updated_at = NOW() WHERE id IN (?)`
	query, args, err := sqlx.In(base, status, ids)
	if err != nil {
		return err
	}
	query = r.db.Rebind(query)

	return r.withTx(ctx, tx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, query, args...)
		return err
	})
}
