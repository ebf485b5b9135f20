package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/kmutua/feedback-gateway/internal/model"
)

type CustomersRepository interface {
	// GetByPhone returns (nil, nil) when no customer carries the phone.
	GetByPhone(ctx context.Context, phone string) (*model.Customer, error)
	// Insert persists a new customer and fills in the assigned ID.
	// The phone UNIQUE key makes concurrent inserts for the same phone
	// fail with a duplicate-entry error; callers handle that race.
	Insert(ctx context.Context, c *model.Customer) error
	ListWithFeedback(ctx context.Context) ([]CustomerFeedback, error)
}

// CustomerFeedback is a customer plus every feedback row attached to it,
// as served by the directory report endpoint.
type CustomerFeedback struct {
	Customer model.Customer   `json:"customer"`
	Feedback []model.Feedback `json:"feedback"`
}

type CustomersRepositoryImpl struct {
	db *sqlx.DB
}

func NewCustomersRepository(db *sqlx.DB) *CustomersRepositoryImpl {
	return &CustomersRepositoryImpl{db: db}
}

var _ CustomersRepository = (*CustomersRepositoryImpl)(nil)

func (r *CustomersRepositoryImpl) GetByPhone(ctx context.Context, phone string) (*model.Customer, error) {
	var c model.Customer
	err := r.db.GetContext(ctx, &c, `
		SELECT id, first_name, second_name, last_name, phone, created_at
		  FROM customers
		 WHERE phone = ? LIMIT 1
	`, phone)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CustomersRepositoryImpl) Insert(ctx context.Context, c *model.Customer) error {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO customers (first_name, second_name, last_name, phone, created_at)
		VALUES (?, ?, ?, ?, NOW())
	`, c.FirstName, c.SecondName, c.LastName, c.Phone)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = id
	return nil
}

func (r *CustomersRepositoryImpl) ListWithFeedback(ctx context.Context) ([]CustomerFeedback, error) {
	var customers []model.Customer
	if err := r.db.SelectContext(ctx, &customers, `
		SELECT id, first_name, second_name, last_name, phone, created_at
		  FROM customers
		 ORDER BY id
	`); err != nil {
		return nil, err
	}

	var rows []model.Feedback
	if err := r.db.SelectContext(ctx, &rows, `
		SELECT id, customer_id, rating, comments, created_at
		  FROM feedback
		 ORDER BY id
	`); err != nil {
		return nil, err
	}

	byCustomer := make(map[int64][]model.Feedback, len(customers))
	for _, fb := range rows {
		byCustomer[fb.CustomerID] = append(byCustomer[fb.CustomerID], fb)
	}

	out := make([]CustomerFeedback, 0, len(customers))
	for _, c := range customers {
		fb := byCustomer[c.ID]
		if fb == nil {
			fb = []model.Feedback{}
		}
		out = append(out, CustomerFeedback{Customer: c, Feedback: fb})
	}
	return out, nil
}
