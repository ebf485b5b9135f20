package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/kmutua/feedback-gateway/internal/model"
	"github.com/kmutua/feedback-gateway/internal/repository"
	"github.com/kmutua/feedback-gateway/internal/util"
	"github.com/labstack/echo/v4"
)

// listCustomersHandler serves the directory dump: every customer with
// the feedback rows attached to it.
func listCustomersHandler(customers repository.CustomersRepository) echo.HandlerFunc {
	return func(c echo.Context) error {
		data, err := customers.ListWithFeedback(c.Request().Context())
		if err != nil {
			c.Logger().Errorf("customer list failed: %v", err)

			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to retrieve database records"})
		}

		return c.JSON(http.StatusOK, map[string]any{
			"count": len(data),
			"data":  data,
		})
	}
}

// listNotificationsHandler lists greeting deliveries from ClickHouse,
// filterable by phone and status.
func listNotificationsHandler(chRepo repository.CHNotificationsRepository) echo.HandlerFunc {
	return func(c echo.Context) error {
		limit := 50
		offset := 0
		if v := c.QueryParam("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 1000 {
				limit = n
			}
		}
		if v := c.QueryParam("offset"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n >= 0 {
				offset = n
			}
		}

		var st model.NotificationStatus
		if raw := strings.TrimSpace(c.QueryParam("status")); raw != "" {
			tmp := model.NotificationStatus(raw)
			if tmp.Valid() {
				st = tmp
			}
		}

		phone := util.NormalizeMSISDN(strings.TrimSpace(c.QueryParam("phone")))

		rows, err := chRepo.List(c.Request().Context(), phone, st, limit, offset)
		if err != nil {
			c.Logger().Errorf("clickhouse list failed: %v", err)

			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "query failed"})
		}

		return c.JSON(http.StatusOK, map[string]any{
			"limit":   limit,
			"offset":  offset,
			"count":   len(rows),
			"results": rows,
		})
	}
}
