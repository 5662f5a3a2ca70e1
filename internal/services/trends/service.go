package trends

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nodemetrics/backend/internal/db"
)

var (
	ErrInvalidPeriod  = errors.New("invalid trend period")
	ErrUnknownMetric  = errors.New("unknown metric")
	ErrMetricNotFound = errors.New("metric has no samples")
)

// scalarMetrics is the fixed set of metric names stored in metrics_scalar.
var scalarMetrics = map[string]struct{}{
	"total_cores":           {},
	"total_memory":          {},
	"total_nodes":           {},
	"total_disk":            {},
	"running_replica_count": {},
	"running_min_disk":      {},
	"running_min_cpu":       {},
	"running_min_ram":       {},
}

// scalarLookback bounds how far back a scalar trend reaches. The tables
// retain more, but the chart only ever shows the trailing year.
const scalarLookback = 365 * 24 * time.Hour

// Store provides the trend queries. *db.Queries satisfies it.
type Store interface {
	ScalarMetricTrend(ctx context.Context, metric string, since time.Time) ([]db.TrendPointRow, error)
	HourlyRollupSeries(ctx context.Context, metric string, since time.Time) ([]db.TrendPointRow, error)
	DailyRollupSeries(ctx context.Context, metric string, since time.Time) ([]db.TrendPointRow, error)
	HourlyUniqueNodes(ctx context.Context, since time.Time) ([]db.TrendPointRow, error)
	DailyUniqueNodes(ctx context.Context, since time.Time) ([]db.TrendPointRow, error)
}

// Service serves network-level trend series from the scalar metric samples
// and the hourly/daily rollup tables.
type Service struct {
	store Store
	now   func() time.Time
}

func NewService(store Store, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{store: store, now: now}
}

// Point is one sample of a trend series.
type Point struct {
	Timestamp string  `json:"timestamp"`
	Value     float64 `json:"value"`
}

// rollupWindow maps a trend period onto a lookback and bucket size.
// Month windows come from daily aggregation of the hourly table; shorter
// windows read the hourly rows directly.
func rollupWindow(period string, now time.Time) (since time.Time, daily bool, err error) {
	switch period {
	case "day":
		return now.Add(-24 * time.Hour), false, nil
	case "week":
		return now.Add(-7 * 24 * time.Hour), false, nil
	case "month":
		return now.Add(-31 * 24 * time.Hour), true, nil
	default:
		return time.Time{}, false, ErrInvalidPeriod
	}
}

// MetricTrend returns the trailing-year series of one scalar metric.
// A metric outside the fixed set is ErrUnknownMetric; a known metric with
// no samples is ErrMetricNotFound.
func (s *Service) MetricTrend(ctx context.Context, metric string) ([]Point, error) {
	if s == nil || s.store == nil {
		return nil, errors.New("trends service not initialized")
	}
	if _, ok := scalarMetrics[metric]; !ok {
		return nil, ErrUnknownMetric
	}
	rows, err := s.store.ScalarMetricTrend(ctx, metric, s.now().UTC().Add(-scalarLookback))
	if err != nil {
		return nil, fmt.Errorf("load %s trend: %w", metric, err)
	}
	if len(rows) == 0 {
		return nil, ErrMetricNotFound
	}
	return toPoints(rows), nil
}

// RollupStats returns the five rollup metric series for the all-GPUs group
// over the requested period, fetched concurrently.
func (s *Service) RollupStats(ctx context.Context, period string) (map[string][]Point, error) {
	if s == nil || s.store == nil {
		return nil, errors.New("trends service not initialized")
	}
	since, daily, err := rollupWindow(period, s.now().UTC())
	if err != nil {
		return nil, err
	}

	metrics := db.RollupMetrics()
	series := make([][]db.TrendPointRow, len(metrics))
	g, gctx := errgroup.WithContext(ctx)
	for i, metric := range metrics {
		g.Go(func() error {
			var rows []db.TrendPointRow
			var err error
			if daily {
				rows, err = s.store.DailyRollupSeries(gctx, metric, since)
			} else {
				rows, err = s.store.HourlyRollupSeries(gctx, metric, since)
			}
			if err != nil {
				return fmt.Errorf("load %s rollup: %w", metric, err)
			}
			series[i] = rows
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string][]Point, len(metrics))
	for i, metric := range metrics {
		out[metric] = toPoints(series[i])
	}
	return out, nil
}

// UniqueNodes returns the distinct-node count series for the period.
func (s *Service) UniqueNodes(ctx context.Context, period string) ([]Point, error) {
	if s == nil || s.store == nil {
		return nil, errors.New("trends service not initialized")
	}
	since, daily, err := rollupWindow(period, s.now().UTC())
	if err != nil {
		return nil, err
	}
	var rows []db.TrendPointRow
	if daily {
		rows, err = s.store.DailyUniqueNodes(ctx, since)
	} else {
		rows, err = s.store.HourlyUniqueNodes(ctx, since)
	}
	if err != nil {
		return nil, fmt.Errorf("load unique nodes: %w", err)
	}
	return toPoints(rows), nil
}

func toPoints(rows []db.TrendPointRow) []Point {
	out := make([]Point, 0, len(rows))
	for _, row := range rows {
		out = append(out, Point{
			Timestamp: row.TS.UTC().Format(time.RFC3339),
			Value:     row.Value,
		})
	}
	return out
}
