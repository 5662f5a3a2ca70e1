package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Queries is the hand-rolled query layer over the pgx pool. All methods are
// read-only; parameter binding is used everywhere, including the optional
// lower time bound ($2 IS NULL disables the clause for unbounded windows).
type Queries struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Queries {
	return &Queries{pool: pool}
}

// PlanTotalsRow is one aggregate over the node_plan table. Hour quantities
// derive from the millisecond interval bounds; fees stay decimal until the
// response is assembled.
type PlanTotalsRow struct {
	ActiveNodes  int64
	TotalFees    decimal.Decimal
	ComputeHours float64
	Transactions int64
	CoreHours    float64
	RAMHours     float64
	GPUHours     float64
}

// PlanBucketRow is a PlanTotalsRow keyed by its time bucket.
type PlanBucketRow struct {
	Bucket time.Time
	PlanTotalsRow
}

// GroupValueRow is one (label, value) pair of a grouped breakdown.
type GroupValueRow struct {
	Label string
	Value float64
}

const planAggregates = `
    COUNT(DISTINCT p.node_id)::bigint AS active_nodes,
    COALESCE(SUM(p.invoice_amount), 0) AS total_fees,
    COALESCE(SUM((p.stop_at - p.start_at) / 3600000.0), 0)::float8 AS compute_hours,
    COUNT(*)::bigint AS transactions,
    COALESCE(SUM(p.cpu * (p.stop_at - p.start_at) / 3600000.0), 0)::float8 AS core_hours,
    COALESCE(SUM(p.ram * (p.stop_at - p.start_at) / 3600000.0 / 1024), 0)::float8 AS ram_hours,
    COALESCE(SUM(CASE WHEN p.gpu_class_id IS NOT NULL AND p.gpu_class_id <> ''
        THEN (p.stop_at - p.start_at) / 3600000.0 ELSE 0 END), 0)::float8 AS gpu_hours`

const planWindowClause = `p.stop_at <= $1 AND ($2::bigint IS NULL OR p.stop_at >= $2)`

const sumPlanTotalsSQL = `
SELECT` + planAggregates + `
FROM node_plan p
WHERE ` + planWindowClause

// SumPlanTotals aggregates every record whose stop_at falls inside the window.
func (q *Queries) SumPlanTotals(ctx context.Context, cutoffMs int64, startMs *int64) (PlanTotalsRow, error) {
	var r PlanTotalsRow
	err := q.pool.QueryRow(ctx, sumPlanTotalsSQL, cutoffMs, startMs).Scan(
		&r.ActiveNodes,
		&r.TotalFees,
		&r.ComputeHours,
		&r.Transactions,
		&r.CoreHours,
		&r.RAMHours,
		&r.GPUHours,
	)
	return r, err
}

const aggregatePlanSeriesSQL = `
SELECT
    date_trunc($3, to_timestamp(p.stop_at / 1000.0) AT TIME ZONE 'UTC') AS bucket,` + planAggregates + `
FROM node_plan p
WHERE ` + planWindowClause + `
GROUP BY bucket
ORDER BY bucket ASC`

// AggregatePlanSeries groups the same aggregates by hour or day bucket,
// truncating stop_at to the bucket boundary. Buckets with no records are
// simply absent.
func (q *Queries) AggregatePlanSeries(ctx context.Context, cutoffMs int64, startMs *int64, truncUnit string) ([]PlanBucketRow, error) {
	rows, err := q.pool.Query(ctx, aggregatePlanSeriesSQL, cutoffMs, startMs, truncUnit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]PlanBucketRow, 0)
	for rows.Next() {
		var r PlanBucketRow
		if err := rows.Scan(
			&r.Bucket,
			&r.ActiveNodes,
			&r.TotalFees,
			&r.ComputeHours,
			&r.Transactions,
			&r.CoreHours,
			&r.RAMHours,
			&r.GPUHours,
		); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

const gpuHoursByModelSQL = `
SELECT COALESCE(NULLIF(g.gpu_class_name, ''), 'Unknown') AS label,
       COALESCE(SUM((p.stop_at - p.start_at) / 3600000.0), 0)::float8 AS value
FROM node_plan p
LEFT JOIN gpu_classes g ON g.gpu_class_id = p.gpu_class_id
WHERE p.gpu_class_id IS NOT NULL AND p.gpu_class_id <> ''
  AND ` + planWindowClause + `
GROUP BY 1
ORDER BY value DESC`

// GPUHoursByModel sums GPU duration-hours per GPU class name. Records
// without a GPU are excluded; they would only add a zero-valued group.
func (q *Queries) GPUHoursByModel(ctx context.Context, cutoffMs int64, startMs *int64) ([]GroupValueRow, error) {
	return q.groupValues(ctx, gpuHoursByModelSQL, cutoffMs, startMs)
}

const gpuHoursByVRAMSQL = `
SELECT CASE WHEN g.vram_gb IS NULL THEN 'Unknown' ELSE g.vram_gb::text || ' GB' END AS label,
       COALESCE(SUM((p.stop_at - p.start_at) / 3600000.0), 0)::float8 AS value
FROM node_plan p
LEFT JOIN gpu_classes g ON g.gpu_class_id = p.gpu_class_id
WHERE p.gpu_class_id IS NOT NULL AND p.gpu_class_id <> ''
  AND ` + planWindowClause + `
GROUP BY g.vram_gb
ORDER BY g.vram_gb ASC NULLS FIRST`

// GPUHoursByVRAM sums GPU duration-hours per VRAM tier, ascending by tier.
func (q *Queries) GPUHoursByVRAM(ctx context.Context, cutoffMs int64, startMs *int64) ([]GroupValueRow, error) {
	return q.groupValues(ctx, gpuHoursByVRAMSQL, cutoffMs, startMs)
}

const activeNodesByGPUModelSQL = `
SELECT CASE
         WHEN p.gpu_class_id IS NULL OR p.gpu_class_id = '' THEN 'No GPU'
         ELSE COALESCE(NULLIF(g.gpu_class_name, ''), 'Unknown')
       END AS label,
       COUNT(DISTINCT p.node_id)::float8 AS value
FROM node_plan p
LEFT JOIN gpu_classes g ON g.gpu_class_id = p.gpu_class_id
WHERE ` + planWindowClause + `
GROUP BY 1
ORDER BY value DESC`

// ActiveNodesByGPUModel counts distinct nodes per GPU class name. Unlike the
// GPU-hours breakdowns this covers the whole fleet, so CPU-only records land
// in a "No GPU" group.
func (q *Queries) ActiveNodesByGPUModel(ctx context.Context, cutoffMs int64, startMs *int64) ([]GroupValueRow, error) {
	return q.groupValues(ctx, activeNodesByGPUModelSQL, cutoffMs, startMs)
}

const activeNodesByVRAMSQL = `
SELECT CASE WHEN g.vram_gb IS NULL THEN 'No GPU' ELSE g.vram_gb::text || ' GB' END AS label,
       COUNT(DISTINCT p.node_id)::float8 AS value
FROM node_plan p
LEFT JOIN gpu_classes g ON g.gpu_class_id = p.gpu_class_id
WHERE ` + planWindowClause + `
GROUP BY g.vram_gb
ORDER BY g.vram_gb ASC NULLS FIRST`

// ActiveNodesByVRAM counts distinct nodes per VRAM tier, ascending by tier
// with the "No GPU" group first.
func (q *Queries) ActiveNodesByVRAM(ctx context.Context, cutoffMs int64, startMs *int64) ([]GroupValueRow, error) {
	return q.groupValues(ctx, activeNodesByVRAMSQL, cutoffMs, startMs)
}

func (q *Queries) groupValues(ctx context.Context, sql string, cutoffMs int64, startMs *int64) ([]GroupValueRow, error) {
	rows, err := q.pool.Query(ctx, sql, cutoffMs, startMs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]GroupValueRow, 0)
	for rows.Next() {
		var r GroupValueRow
		if err := rows.Scan(&r.Label, &r.Value); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
