package model

import "time"

// Feedback is a rating/comment row linked to a customer. A customer may
// have any number of feedback rows; repeated submissions all persist.
type Feedback struct {
	ID         int64     `db:"id" json:"id"`
	CustomerID int64     `db:"customer_id" json:"customer_id"`
	Rating     int       `db:"rating" json:"rating"`
	Comments   string    `db:"comments" json:"comments"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
