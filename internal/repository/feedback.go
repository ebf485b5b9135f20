package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/kmutua/feedback-gateway/internal/model"
)

// FeedbackRepository defines persistence for the feedback table. The
// customer_id foreign key re-verifies the referenced customer at the
// store level; callers resolve the customer first.
type FeedbackRepository interface {
	// Insert appends a feedback row and returns its assigned ID.
	Insert(ctx context.Context, fb model.Feedback) (int64, error)
}

type FeedbackRepositoryImpl struct {
	db *sqlx.DB
}

func NewFeedbackRepository(db *sqlx.DB) *FeedbackRepositoryImpl {
	return &FeedbackRepositoryImpl{db: db}
}

var _ FeedbackRepository = (*FeedbackRepositoryImpl)(nil)

func (r *FeedbackRepositoryImpl) Insert(ctx context.Context, fb model.Feedback) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO feedback (customer_id, rating, comments, created_at)
		VALUES (?, ?, ?, NOW())
	`, fb.CustomerID, fb.Rating, fb.Comments)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}
