package model

import "time"

type NotificationStatus string

const (
	StatusQueued NotificationStatus = "queued"
	StatusSent   NotificationStatus = "sent"
	StatusFailed NotificationStatus = "failed"
)

func (s NotificationStatus) String() string {
	return string(s)
}

func (s NotificationStatus) Valid() bool {
	return s == StatusQueued || s == StatusSent || s == StatusFailed
}

// Notification is the DB entity persisted in the notifications table.
// One row per greeting scheduled off a payment confirmation.
type Notification struct {
	ID         string             `db:"id"`
	CustomerID int64              `db:"customer_id"`
	Phone      string             `db:"phone"`
	Text       string             `db:"text"`
	Status     NotificationStatus `db:"status"`
	CreatedAt  time.Time          `db:"created_at"`
	UpdatedAt  time.Time          `db:"updated_at"`
}
