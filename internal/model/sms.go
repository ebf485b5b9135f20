package model

// SMS is the outbound text handed to a messaging provider.
type SMS struct {
	Phone string `json:"phone"`
	Text  string `json:"text"`
}
