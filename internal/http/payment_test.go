package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/kmutua/feedback-gateway/internal/model"
	"github.com/kmutua/feedback-gateway/internal/repository"
	"github.com/kmutua/feedback-gateway/internal/service/directory"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCustomersRepo struct {
	mu      sync.Mutex
	nextID  int64
	byPhone map[string]*model.Customer
	fail    bool
}

func newFakeCustomersRepo() *fakeCustomersRepo {
	return &fakeCustomersRepo{byPhone: map[string]*model.Customer{}}
}

func (r *fakeCustomersRepo) GetByPhone(_ context.Context, phone string) (*model.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return nil, errors.New("db down")
	}
	if c, ok := r.byPhone[phone]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, nil
}

func (r *fakeCustomersRepo) Insert(_ context.Context, c *model.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return errors.New("db down")
	}
	r.nextID++
	c.ID = r.nextID
	cp := *c
	r.byPhone[c.Phone] = &cp
	return nil
}

func (r *fakeCustomersRepo) ListWithFeedback(context.Context) ([]repository.CustomerFeedback, error) {
	return nil, nil
}

type fakeEnqueuer struct {
	mu    sync.Mutex
	calls []model.Customer
	err   error
}

func (f *fakeEnqueuer) Enqueue(_ context.Context, c *model.Customer) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.calls = append(f.calls, *c)
	return "01ARZ3NDEKTSV4RRFFQ69G5FAV", nil
}

func postJSON(t *testing.T, h echo.HandlerFunc, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	require.NoError(t, h(e.NewContext(req, rec)))
	return rec
}

const janePayment = `{
	"TransID": "RKTQDM7W6S",
	"TransTime": "20260829120000",
	"TransAmount": "100.00",
	"BusinessShortCode": "600638",
	"BillRefNumber": "invoice-42",
	"MSISDN": "254712345678",
	"FirstName": "Jane",
	"MiddleName": "",
	"LastName": "Doe"
}`

func TestPaymentConfirmation_ValidEvent(t *testing.T) {
	customers := newFakeCustomersRepo()
	enq := &fakeEnqueuer{}
	h := paymentConfirmationHandler(directory.New(customers), enq)

	rec := postJSON(t, h, "/mpesa/confirmation", janePayment)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ResultCode":"0"`)

	// customer was durable before the ack
	c, err := customers.GetByPhone(context.Background(), "254712345678")
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, "Jane", c.FirstName)
	assert.Equal(t, "Doe", c.LastName)

	// and the greeting was scheduled for that phone
	require.Len(t, enq.calls, 1)
	assert.Equal(t, "254712345678", enq.calls[0].Phone)
}

func TestPaymentConfirmation_InvalidPayload(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing first name", `{"MSISDN":"254712345678","FirstName":""}`},
		{"missing msisdn", `{"MSISDN":"","FirstName":"Jane"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			customers := newFakeCustomersRepo()
			enq := &fakeEnqueuer{}
			h := paymentConfirmationHandler(directory.New(customers), enq)

			rec := postJSON(t, h, "/mpesa/confirmation", tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			// no side effects at all
			assert.Empty(t, customers.byPhone)
			assert.Empty(t, enq.calls)
		})
	}
}

func TestPaymentConfirmation_DuplicateEventKeepsFirstNames(t *testing.T) {
	customers := newFakeCustomersRepo()
	enq := &fakeEnqueuer{}
	h := paymentConfirmationHandler(directory.New(customers), enq)

	postJSON(t, h, "/mpesa/confirmation", janePayment)
	rec := postJSON(t, h, "/mpesa/confirmation",
		`{"MSISDN":"254712345678","FirstName":"Janet","LastName":"Smith"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	c, _ := customers.GetByPhone(context.Background(), "254712345678")
	require.NotNil(t, c)
	assert.Equal(t, "Jane", c.FirstName)
	assert.Equal(t, "Doe", c.LastName)
	// each confirmation still schedules its own greeting
	assert.Len(t, enq.calls, 2)
}

func TestPaymentConfirmation_EnqueueFailureStillAcks(t *testing.T) {
	customers := newFakeCustomersRepo()
	enq := &fakeEnqueuer{err: errors.New("kafka outbox unavailable")}
	h := paymentConfirmationHandler(directory.New(customers), enq)

	rec := postJSON(t, h, "/mpesa/confirmation", janePayment)

	assert.Equal(t, http.StatusOK, rec.Code)
	c, _ := customers.GetByPhone(context.Background(), "254712345678")
	assert.NotNil(t, c)
}

func TestPaymentConfirmation_StorageError(t *testing.T) {
	customers := newFakeCustomersRepo()
	customers.fail = true
	enq := &fakeEnqueuer{}
	h := paymentConfirmationHandler(directory.New(customers), enq)

	rec := postJSON(t, h, "/mpesa/confirmation", janePayment)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Empty(t, enq.calls)
}

func TestPaymentValidation_AlwaysAccepts(t *testing.T) {
	rec := postJSON(t, paymentValidationHandler(), "/mpesa/validation", `{"TransID":"X"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ResultCode":"0"`)
}
