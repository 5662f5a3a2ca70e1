package api

import (
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/nodemetrics/backend/internal/app"
	"github.com/nodemetrics/backend/internal/httpserver/httputil"
	transactionssvc "github.com/nodemetrics/backend/internal/services/transactions"
)

func handleTransactions(container *app.Container) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var params transactionssvc.ListParams

		if val := strings.TrimSpace(c.Query("limit")); val != "" {
			limit, err := strconv.Atoi(val)
			if err != nil {
				return httputil.WriteError(c, fiber.StatusBadRequest, "limit must be an integer")
			}
			params.Limit = limit
		}
		if val := strings.TrimSpace(c.Query("start")); val != "" {
			start, err := time.Parse(time.RFC3339, val)
			if err != nil {
				return httputil.WriteError(c, fiber.StatusBadRequest, "start must be RFC3339")
			}
			params.Start = &start
		}
		if val := strings.TrimSpace(c.Query("end")); val != "" {
			end, err := time.Parse(time.RFC3339, val)
			if err != nil {
				return httputil.WriteError(c, fiber.StatusBadRequest, "end must be RFC3339")
			}
			params.End = &end
		}

		resp, err := container.Transactions.List(c.Context(), params)
		if err != nil {
			if errors.Is(err, transactionssvc.ErrInvalidRange) {
				return httputil.WriteError(c, fiber.StatusBadRequest, "end must be after start")
			}
			slog.Default().Error("transaction listing failed", "error", err)
			return httputil.WriteError(c, fiber.StatusInternalServerError, "failed to list transactions")
		}
		return c.JSON(resp)
	}
}
