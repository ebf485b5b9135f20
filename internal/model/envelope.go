package model

// Envelope is the payload published to Kafka (via Debezium outbox SMT)
// for the greeting worker to consume.
type Envelope struct {
	ID         string `json:"id"`          // notification ULID
	CustomerID int64  `json:"customer_id"` // resolved customer
	SMS        SMS    `json:"sms"`
}
