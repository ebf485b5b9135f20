package model

import "errors"

var ErrInvalidPayment = errors.New("invalid payment payload")

// PaymentEvent is the C2B confirmation body posted by the Daraja API
// once a paybill transaction completes. All fields arrive as strings.
type PaymentEvent struct {
	TransID           string `json:"TransID"`
	TransTime         string `json:"TransTime"`
	TransAmount       string `json:"TransAmount"`
	BusinessShortCode string `json:"BusinessShortCode"`
	BillRefNumber     string `json:"BillRefNumber"`
	MSISDN            string `json:"MSISDN"`
	FirstName         string `json:"FirstName"`
	MiddleName        string `json:"MiddleName"`
	LastName          string `json:"LastName"`
}

// Validate checks the fields the pipeline cannot proceed without.
// MiddleName and LastName are optional and default to empty.
func (p PaymentEvent) Validate() error {
	if p.MSISDN == "" || p.FirstName == "" {
		return ErrInvalidPayment
	}
	return nil
}
