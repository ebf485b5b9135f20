package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/kmutua/feedback-gateway/internal/metrics"
	"github.com/kmutua/feedback-gateway/internal/model"
	"github.com/kmutua/feedback-gateway/internal/service/directory"
	"github.com/kmutua/feedback-gateway/internal/util"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
)

// GreetingEnqueuer is the slice of the greeting service the webhook
// needs; the queue handoff behind it stays out of the handler.
type GreetingEnqueuer interface {
	Enqueue(ctx context.Context, c *model.Customer) (string, error)
}

// c2bAck is the acknowledgment shape the Daraja API expects back from a
// confirmation/validation callback.
type c2bAck struct {
	ResultCode string `json:"ResultCode"`
	ResultDesc string `json:"ResultDesc"`
}

var ackAccepted = c2bAck{ResultCode: "0", ResultDesc: "Accepted"}

// paymentConfirmationHandler takes a C2B confirmation, resolves the
// payer in the directory and queues the greeting SMS. The customer row
// is durable before the ack goes out; the greeting is not, by design —
// a failed enqueue is logged and the payment is still acknowledged.
func paymentConfirmationHandler(dir *directory.Service, greetings GreetingEnqueuer) echo.HandlerFunc {
	return func(c echo.Context) error {
		var ev model.PaymentEvent
		if err := c.Bind(&ev); err != nil {
			metrics.PaymentsTotal.WithLabelValues("invalid").Inc()
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad request"})
		}

		ev.MSISDN = util.NormalizeMSISDN(ev.MSISDN)
		ev.FirstName = strings.TrimSpace(ev.FirstName)

		if err := ev.Validate(); err != nil {
			metrics.PaymentsTotal.WithLabelValues("invalid").Inc()
			return c.JSON(http.StatusBadRequest, map[string]string{
				"error": "invalid payment message format, required fields not found",
			})
		}

		cust, err := dir.ResolveOrCreate(c.Request().Context(), ev.MSISDN, ev.FirstName, ev.MiddleName, ev.LastName)
		if err != nil {
			log.Errorf("resolve customer failed: %v", err)
			metrics.PaymentsTotal.WithLabelValues("error").Inc()
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to store customer data"})
		}

		// Greeting delivery is decoupled from the payment ack: the
		// customer row is committed, so a broken queue only costs the
		// SMS, never the confirmation.
		if _, err := greetings.Enqueue(c.Request().Context(), cust); err != nil {
			log.Errorf("enqueue greeting failed for customer %d: %v", cust.ID, err)
		}

		metrics.PaymentsTotal.WithLabelValues("accepted").Inc()

		return c.JSON(http.StatusOK, ackAccepted)
	}
}

// paymentValidationHandler accepts every transaction. The short code is
// registered with ResponseType "Completed", so this hook is informational.
func paymentValidationHandler() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, ackAccepted)
	}
}
