package planstats

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nodemetrics/backend/internal/db"
	"github.com/nodemetrics/backend/internal/timeutil"
)

var ErrInvalidPeriod = timeutil.ErrInvalidPeriod

// Store is the query surface the aggregator needs. *db.Queries satisfies it;
// tests substitute an in-memory implementation.
type Store interface {
	SumPlanTotals(ctx context.Context, cutoffMs int64, startMs *int64) (db.PlanTotalsRow, error)
	AggregatePlanSeries(ctx context.Context, cutoffMs int64, startMs *int64, truncUnit string) ([]db.PlanBucketRow, error)
	GPUHoursByModel(ctx context.Context, cutoffMs int64, startMs *int64) ([]db.GroupValueRow, error)
	GPUHoursByVRAM(ctx context.Context, cutoffMs int64, startMs *int64) ([]db.GroupValueRow, error)
	ActiveNodesByGPUModel(ctx context.Context, cutoffMs int64, startMs *int64) ([]db.GroupValueRow, error)
	ActiveNodesByVRAM(ctx context.Context, cutoffMs int64, startMs *int64) ([]db.GroupValueRow, error)
}

// Service aggregates marketplace plan statistics over a requested period.
// The clock is injectable so tests can pin the 48h cutoff.
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

// Totals holds the window-wide aggregates.
type Totals struct {
	ActiveNodes  int64   `json:"active_nodes"`
	TotalFees    float64 `json:"total_fees"`
	ComputeHours float64 `json:"compute_hours"`
	Transactions int64   `json:"transactions"`
	CoreHours    float64 `json:"core_hours"`
	RAMHours     float64 `json:"ram_hours"`
	GPUHours     float64 `json:"gpu_hours"`
}

// SeriesPoint is one bucket of the time series. Buckets with no completed
// plans are omitted rather than zero-filled.
type SeriesPoint struct {
	Timestamp    string  `json:"timestamp"`
	ActiveNodes  int64   `json:"active_nodes"`
	TotalFees    float64 `json:"total_fees"`
	ComputeHours float64 `json:"compute_hours"`
	Transactions int64   `json:"transactions"`
	CoreHours    float64 `json:"core_hours"`
	RAMHours     float64 `json:"ram_hours"`
	GPUHours     float64 `json:"gpu_hours"`
}

// BreakdownEntry is one group of a labelled breakdown.
type BreakdownEntry struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// Range reports the resolved window bounds; Start is "beginning" for the
// unbounded period.
type Range struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Response is the full plan-stats payload for one period.
type Response struct {
	Period                string           `json:"period"`
	Granularity           string           `json:"granularity"`
	DataCutoff            string           `json:"data_cutoff"`
	Range                 Range            `json:"range"`
	Totals                Totals           `json:"totals"`
	TimeSeries            []SeriesPoint    `json:"time_series"`
	GPUHoursByModel       []BreakdownEntry `json:"gpu_hours_by_model"`
	GPUHoursByVRAM        []BreakdownEntry `json:"gpu_hours_by_vram"`
	ActiveNodesByGPUModel []BreakdownEntry `json:"active_nodes_by_gpu_model"`
	ActiveNodesByVRAM     []BreakdownEntry `json:"active_nodes_by_vram"`
}

// GetPlanStats resolves the period into a window and runs the totals, series
// and breakdown queries concurrently against the store.
func (s *Service) GetPlanStats(ctx context.Context, period string) (Response, error) {
	if s == nil || s.store == nil {
		return Response{}, errors.New("plan stats service not initialized")
	}
	window, err := timeutil.NewPlanWindow(period, s.now())
	if err != nil {
		return Response{}, err
	}

	cutoffMs := window.CutoffMillis()
	startMs := window.StartMillis()

	var (
		totals       db.PlanTotalsRow
		series       []db.PlanBucketRow
		hoursByModel []db.GroupValueRow
		hoursByVRAM  []db.GroupValueRow
		nodesByModel []db.GroupValueRow
		nodesByVRAM  []db.GroupValueRow
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		totals, err = s.store.SumPlanTotals(gctx, cutoffMs, startMs)
		if err != nil {
			return fmt.Errorf("sum totals: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		series, err = s.store.AggregatePlanSeries(gctx, cutoffMs, startMs, window.Granularity().TruncUnit())
		if err != nil {
			return fmt.Errorf("aggregate series: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		hoursByModel, err = s.store.GPUHoursByModel(gctx, cutoffMs, startMs)
		if err != nil {
			return fmt.Errorf("gpu hours by model: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		hoursByVRAM, err = s.store.GPUHoursByVRAM(gctx, cutoffMs, startMs)
		if err != nil {
			return fmt.Errorf("gpu hours by vram: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		nodesByModel, err = s.store.ActiveNodesByGPUModel(gctx, cutoffMs, startMs)
		if err != nil {
			return fmt.Errorf("active nodes by model: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		nodesByVRAM, err = s.store.ActiveNodesByVRAM(gctx, cutoffMs, startMs)
		if err != nil {
			return fmt.Errorf("active nodes by vram: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return Response{}, err
	}

	points := make([]SeriesPoint, 0, len(series))
	for _, row := range series {
		points = append(points, SeriesPoint{
			Timestamp:    row.Bucket.UTC().Format(time.RFC3339),
			ActiveNodes:  row.ActiveNodes,
			TotalFees:    row.TotalFees.InexactFloat64(),
			ComputeHours: row.ComputeHours,
			Transactions: row.Transactions,
			CoreHours:    row.CoreHours,
			RAMHours:     row.RAMHours,
			GPUHours:     row.GPUHours,
		})
	}

	return Response{
		Period:      window.Period(),
		Granularity: string(window.Granularity()),
		DataCutoff:  window.CutoffString(),
		Range: Range{
			Start: window.StartString(),
			End:   window.CutoffString(),
		},
		Totals: Totals{
			ActiveNodes:  totals.ActiveNodes,
			TotalFees:    totals.TotalFees.InexactFloat64(),
			ComputeHours: totals.ComputeHours,
			Transactions: totals.Transactions,
			CoreHours:    totals.CoreHours,
			RAMHours:     totals.RAMHours,
			GPUHours:     totals.GPUHours,
		},
		TimeSeries:            points,
		GPUHoursByModel:       toBreakdown(hoursByModel),
		GPUHoursByVRAM:        toBreakdown(hoursByVRAM),
		ActiveNodesByGPUModel: toBreakdown(nodesByModel),
		ActiveNodesByVRAM:     toBreakdown(nodesByVRAM),
	}, nil
}

func toBreakdown(rows []db.GroupValueRow) []BreakdownEntry {
	out := make([]BreakdownEntry, 0, len(rows))
	for _, row := range rows {
		out = append(out, BreakdownEntry{Label: row.Label, Value: row.Value})
	}
	return out
}
