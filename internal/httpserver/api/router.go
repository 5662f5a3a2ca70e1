package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/nodemetrics/backend/internal/app"
)

// Register mounts the dashboard API under /api/v1.
func Register(router fiber.Router, container *app.Container) {
	v1 := router.Group("/api/v1")

	v1.Get("/plan-stats", handlePlanStats(container))

	metrics := v1.Group("/metrics")
	metrics.Get("/city-counts", handleCityCounts(container))
	metrics.Get("/trends/:metric", handleMetricTrend(container))
	metrics.Get("/stats", handleRollupStats(container))
	metrics.Get("/unique-nodes", handleUniqueNodes(container))

	v1.Get("/transactions", handleTransactions(container))
}
