package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/nodemetrics/backend/internal/cache"
	"github.com/nodemetrics/backend/internal/config"
	"github.com/nodemetrics/backend/internal/db"
	"github.com/nodemetrics/backend/internal/observability"
	geosvc "github.com/nodemetrics/backend/internal/services/geo"
	planstatssvc "github.com/nodemetrics/backend/internal/services/planstats"
	transactionssvc "github.com/nodemetrics/backend/internal/services/transactions"
	trendssvc "github.com/nodemetrics/backend/internal/services/trends"
)

// Container aggregates runtime dependencies for handlers and services.
type Container struct {
	Config        *config.Config
	DBPool        *pgxpool.Pool
	Redis         *redis.Client
	Queries       *db.Queries
	PlanStats     *planstatssvc.Service
	Geo           *geosvc.Service
	Trends        *trendssvc.Service
	Transactions  *transactionssvc.Service
	StatsCache    *cache.StatsCache
	Observability *observability.Provider
}

// NewContainer builds a dependency container from the provided primitives.
// The Redis client is optional; without it the response cache is disabled.
func NewContainer(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool, redisClient *redis.Client) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if pool == nil {
		return nil, fmt.Errorf("db pool is required")
	}

	obs, err := observability.Setup(ctx, cfg.Observability)
	if err != nil {
		return nil, fmt.Errorf("setup observability: %w", err)
	}

	queries := db.New(pool)
	planStore := newTimedStore(queries, obs)

	container := &Container{
		Config:        cfg,
		DBPool:        pool,
		Redis:         redisClient,
		Queries:       queries,
		PlanStats:     planstatssvc.NewService(planStore, nil),
		Geo:           geosvc.NewService(queries),
		Trends:        trendssvc.NewService(queries, nil),
		Transactions:  transactionssvc.NewService(queries, nil),
		Observability: obs,
	}

	if cfg.Stats.CacheEnabled && redisClient != nil {
		container.StatsCache = cache.NewStatsCache(redisClient, cfg.Stats.CacheTTL)
	} else {
		slog.Default().Info("plan-stats response cache disabled")
	}

	return container, nil
}

// timedStore wraps the query layer to feed the per-query latency histogram.
type timedStore struct {
	queries *db.Queries
	obs     *observability.Provider
}

func newTimedStore(queries *db.Queries, obs *observability.Provider) planstatssvc.Store {
	return &timedStore{queries: queries, obs: obs}
}

func (s *timedStore) observe(name string, start time.Time) {
	s.obs.RecordQueryLatency(name, time.Since(start))
}

func (s *timedStore) SumPlanTotals(ctx context.Context, cutoffMs int64, startMs *int64) (db.PlanTotalsRow, error) {
	defer s.observe("totals", time.Now())
	return s.queries.SumPlanTotals(ctx, cutoffMs, startMs)
}

func (s *timedStore) AggregatePlanSeries(ctx context.Context, cutoffMs int64, startMs *int64, truncUnit string) ([]db.PlanBucketRow, error) {
	defer s.observe("series", time.Now())
	return s.queries.AggregatePlanSeries(ctx, cutoffMs, startMs, truncUnit)
}

func (s *timedStore) GPUHoursByModel(ctx context.Context, cutoffMs int64, startMs *int64) ([]db.GroupValueRow, error) {
	defer s.observe("gpu_hours_by_model", time.Now())
	return s.queries.GPUHoursByModel(ctx, cutoffMs, startMs)
}

func (s *timedStore) GPUHoursByVRAM(ctx context.Context, cutoffMs int64, startMs *int64) ([]db.GroupValueRow, error) {
	defer s.observe("gpu_hours_by_vram", time.Now())
	return s.queries.GPUHoursByVRAM(ctx, cutoffMs, startMs)
}

func (s *timedStore) ActiveNodesByGPUModel(ctx context.Context, cutoffMs int64, startMs *int64) ([]db.GroupValueRow, error) {
	defer s.observe("active_nodes_by_gpu_model", time.Now())
	return s.queries.ActiveNodesByGPUModel(ctx, cutoffMs, startMs)
}

func (s *timedStore) ActiveNodesByVRAM(ctx context.Context, cutoffMs int64, startMs *int64) ([]db.GroupValueRow, error) {
	defer s.observe("active_nodes_by_vram", time.Now())
	return s.queries.ActiveNodesByVRAM(ctx, cutoffMs, startMs)
}
