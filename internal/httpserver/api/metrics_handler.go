package api

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/nodemetrics/backend/internal/app"
	"github.com/nodemetrics/backend/internal/httpserver/httputil"
	"github.com/nodemetrics/backend/internal/services/trends"
)

func handleCityCounts(container *app.Container) fiber.Handler {
	return func(c *fiber.Ctx) error {
		cities, err := container.Geo.CityCounts(c.Context())
		if err != nil {
			slog.Default().Error("city counts failed", "error", err)
			return httputil.WriteError(c, fiber.StatusInternalServerError, "failed to load city counts")
		}
		return c.JSON(cities)
	}
}

func handleMetricTrend(container *app.Container) fiber.Handler {
	return func(c *fiber.Ctx) error {
		metric := strings.TrimSpace(c.Params("metric"))
		points, err := container.Trends.MetricTrend(c.Context(), metric)
		switch {
		case errors.Is(err, trends.ErrUnknownMetric):
			return httputil.WriteError(c, fiber.StatusNotFound, "unknown metric")
		case errors.Is(err, trends.ErrMetricNotFound):
			return httputil.WriteError(c, fiber.StatusNotFound, "metric has no samples")
		case err != nil:
			slog.Default().Error("metric trend failed", "metric", metric, "error", err)
			return httputil.WriteError(c, fiber.StatusInternalServerError, "failed to load metric trend")
		}
		return c.JSON(fiber.Map{
			"metric": metric,
			"points": points,
		})
	}
}

func handleRollupStats(container *app.Container) fiber.Handler {
	return func(c *fiber.Ctx) error {
		period := strings.TrimSpace(c.Query("period", "day"))
		stats, err := container.Trends.RollupStats(c.Context(), period)
		if err != nil {
			if errors.Is(err, trends.ErrInvalidPeriod) {
				return httputil.WriteError(c, fiber.StatusBadRequest, "period must be day, week, or month")
			}
			slog.Default().Error("rollup stats failed", "period", period, "error", err)
			return httputil.WriteError(c, fiber.StatusInternalServerError, "failed to load rollup stats")
		}
		return c.JSON(fiber.Map{
			"period":  period,
			"metrics": stats,
		})
	}
}

func handleUniqueNodes(container *app.Container) fiber.Handler {
	return func(c *fiber.Ctx) error {
		period := strings.TrimSpace(c.Query("period", "day"))
		points, err := container.Trends.UniqueNodes(c.Context(), period)
		if err != nil {
			if errors.Is(err, trends.ErrInvalidPeriod) {
				return httputil.WriteError(c, fiber.StatusBadRequest, "period must be day, week, or month")
			}
			slog.Default().Error("unique nodes failed", "period", period, "error", err)
			return httputil.WriteError(c, fiber.StatusInternalServerError, "failed to load unique node counts")
		}
		return c.JSON(fiber.Map{
			"period": period,
			"points": points,
		})
	}
}
