package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/nodemetrics/backend/internal/app"
	"github.com/nodemetrics/backend/internal/httpserver/httputil"
	"github.com/nodemetrics/backend/internal/services/planstats"
)

// handlePlanStats serves the aggregated plan statistics for one period,
// consulting the Redis cache first. Cached entries are the serialized
// response body, so hits skip both the queries and the marshal.
func handlePlanStats(container *app.Container) fiber.Handler {
	return func(c *fiber.Ctx) error {
		period := strings.TrimSpace(c.Query("period", "24h"))

		if data, ok := container.StatsCache.Get(c.Context(), period); ok {
			container.Observability.RecordCacheLookup(true)
			c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
			return c.Send(data)
		}
		container.Observability.RecordCacheLookup(false)

		resp, err := container.PlanStats.GetPlanStats(c.Context(), period)
		if err != nil {
			if errors.Is(err, planstats.ErrInvalidPeriod) {
				return httputil.WriteError(c, fiber.StatusBadRequest, "invalid period")
			}
			slog.Default().Error("plan stats aggregation failed", "period", period, "error", err)
			return httputil.WriteError(c, fiber.StatusInternalServerError, "failed to compute plan statistics")
		}

		body, err := json.Marshal(resp)
		if err != nil {
			return httputil.WriteError(c, fiber.StatusInternalServerError, "failed to encode response")
		}
		container.StatsCache.Set(c.Context(), period, body)

		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.Send(body)
	}
}
