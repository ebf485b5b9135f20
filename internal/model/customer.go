package model

import "time"

// Customer is the identity record anchored on the payer's MSISDN.
// The phone column carries a UNIQUE key and is the natural key for
// every lookup in the system.
type Customer struct {
	ID         int64     `db:"id" json:"id"`
	FirstName  string    `db:"first_name" json:"first_name"`
	SecondName string    `db:"second_name" json:"second_name"`
	LastName   string    `db:"last_name" json:"last_name"`
	Phone      string    `db:"phone" json:"phone"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
