package directory

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"github.com/kmutua/feedback-gateway/internal/model"
	"github.com/kmutua/feedback-gateway/internal/repository"
)

// ErrNotFound is returned by Lookup when no customer carries the phone.
var ErrNotFound = errors.New("customer not found")

const mysqlDupEntry = 1062

// Service resolves customer identity by MSISDN. Creation is idempotent:
// the customers.phone UNIQUE key serializes concurrent creates, and the
// loser of a race falls back to a fresh lookup.
type Service struct {
	customers repository.CustomersRepository
}

func New(customers repository.CustomersRepository) *Service {
	return &Service{customers: customers}
}

// ResolveOrCreate returns the customer on record for phone, creating one
// when none exists. Name fields on an already-known phone are discarded;
// the first payment event's names win.
func (s *Service) ResolveOrCreate(ctx context.Context, phone, firstName, secondName, lastName string) (*model.Customer, error) {
	existing, err := s.customers.GetByPhone(ctx, phone)
	if err != nil {
		return nil, fmt.Errorf("lookup customer: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	c := &model.Customer{
		FirstName:  firstName,
		SecondName: secondName,
		LastName:   lastName,
		Phone:      phone,
	}
	if err := s.customers.Insert(ctx, c); err != nil {
		if !isDupEntry(err) {
			return nil, fmt.Errorf("insert customer: %w", err)
		}
		// lost the create race; the winner's row is the record
		winner, err := s.customers.GetByPhone(ctx, phone)
		if err != nil {
			return nil, fmt.Errorf("lookup after dup entry: %w", err)
		}
		if winner == nil {
			return nil, fmt.Errorf("dup entry for phone %s but no row found", phone)
		}
		return winner, nil
	}
	return c, nil
}

// Lookup resolves a customer by phone without creating one.
func (s *Service) Lookup(ctx context.Context, phone string) (*model.Customer, error) {
	c, err := s.customers.GetByPhone(ctx, phone)
	if err != nil {
		return nil, fmt.Errorf("lookup customer: %w", err)
	}
	if c == nil {
		return nil, ErrNotFound
	}
	return c, nil
}

func isDupEntry(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDupEntry
}
