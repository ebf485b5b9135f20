package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/kmutua/feedback-gateway/internal/metrics"
	"github.com/kmutua/feedback-gateway/internal/model"
	"github.com/kmutua/feedback-gateway/internal/repository"
	"github.com/kmutua/feedback-gateway/internal/service/directory"
	"github.com/kmutua/feedback-gateway/internal/util"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
)

type feedbackReq struct {
	Phone    string `json:"phone"`
	Rating   int    `json:"rating"`
	Comments string `json:"comments"`
}

// storeFeedbackHandler correlates an out-of-band reply back to the
// customer created by the payment flow, keyed on phone alone. Unknown
// phone is a 404, never a silent drop: feedback only attaches to a
// customer who has paid before.
func storeFeedbackHandler(dir *directory.Service, feedback repository.FeedbackRepository) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req feedbackReq
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad request"})
		}

		req.Phone = util.NormalizeMSISDN(strings.TrimSpace(req.Phone))
		if req.Phone == "" {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "phone is required"})
		}

		cust, err := dir.Lookup(c.Request().Context(), req.Phone)
		if err != nil {
			if errors.Is(err, directory.ErrNotFound) {
				metrics.FeedbackTotal.WithLabelValues("unknown_customer").Inc()
				return c.JSON(http.StatusNotFound, map[string]string{"error": "customer not found"})
			}
			log.Errorf("feedback lookup failed: %v", err)
			metrics.FeedbackTotal.WithLabelValues("error").Inc()
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to store feedback"})
		}

		id, err := feedback.Insert(c.Request().Context(), model.Feedback{
			CustomerID: cust.ID,
			Rating:     req.Rating,
			Comments:   req.Comments,
		})
		if err != nil {
			log.Errorf("feedback insert failed: %v", err)
			metrics.FeedbackTotal.WithLabelValues("error").Inc()
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to store feedback"})
		}

		metrics.FeedbackTotal.WithLabelValues("stored").Inc()

		return c.JSON(http.StatusCreated, map[string]any{
			"stored":      true,
			"id":          id,
			"customer_id": cust.ID,
		})
	}
}
