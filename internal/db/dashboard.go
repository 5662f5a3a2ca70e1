package db

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrUnknownRollupMetric reports a rollup column name outside the fixed set.
var ErrUnknownRollupMetric = errors.New("unknown rollup metric")

// CitySnapshotRow is one city from the most recent geo snapshot.
type CitySnapshotRow struct {
	Name  string
	Count int64
	Lat   float64
	Lon   float64
}

const latestCitySnapshotsSQL = `
SELECT name, count, lat, long
FROM city_snapshots
WHERE ts = (SELECT MAX(ts) FROM city_snapshots)
ORDER BY count DESC, name ASC`

// LatestCitySnapshots returns the rows of the newest snapshot batch.
func (q *Queries) LatestCitySnapshots(ctx context.Context) ([]CitySnapshotRow, error) {
	rows, err := q.pool.Query(ctx, latestCitySnapshotsSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]CitySnapshotRow, 0)
	for rows.Next() {
		var r CitySnapshotRow
		if err := rows.Scan(&r.Name, &r.Count, &r.Lat, &r.Lon); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// TrendPointRow is one (timestamp, value) sample of a scalar metric series.
type TrendPointRow struct {
	TS    time.Time
	Value float64
}

const scalarMetricTrendSQL = `
SELECT ts, value
FROM metrics_scalar
WHERE metric_name = $1 AND ts >= $2
ORDER BY ts ASC`

// ScalarMetricTrend returns the samples of one named metric since the given
// instant, oldest first. An unknown metric yields an empty slice, not an
// error; the service decides whether that is a 404.
func (q *Queries) ScalarMetricTrend(ctx context.Context, metric string, since time.Time) ([]TrendPointRow, error) {
	rows, err := q.pool.Query(ctx, scalarMetricTrendSQL, metric, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]TrendPointRow, 0)
	for rows.Next() {
		var r TrendPointRow
		if err := rows.Scan(&r.TS, &r.Value); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// rollupColumns maps public rollup metric names onto hourly_gpu_stats
// columns. Column names cannot be bound as parameters, so only names from
// this map ever reach the SQL text.
var rollupColumns = map[string]string{
	"total_time_seconds":      "total_time_seconds",
	"total_invoice_amount":    "total_invoice_amount",
	"total_ram_hours":         "total_ram_hours",
	"total_cpu_hours":         "total_cpu_hours",
	"total_transaction_count": "total_transaction_count",
}

// RollupMetrics lists the metric names served from the hourly rollup table.
func RollupMetrics() []string {
	return []string{
		"total_time_seconds",
		"total_invoice_amount",
		"total_ram_hours",
		"total_cpu_hours",
		"total_transaction_count",
	}
}

// HourlyRollupSeries returns hourly values of one rollup metric for the
// all-GPUs group since the given instant.
func (q *Queries) HourlyRollupSeries(ctx context.Context, metric string, since time.Time) ([]TrendPointRow, error) {
	col, ok := rollupColumns[metric]
	if !ok {
		return nil, ErrUnknownRollupMetric
	}
	sql := `
SELECT hour, COALESCE(` + col + `, 0)::float8
FROM hourly_gpu_stats
WHERE gpu_group = 'all' AND hour >= $1
ORDER BY hour ASC`
	return q.trendPoints(ctx, sql, since)
}

// DailyRollupSeries sums the hourly rollup into day buckets.
func (q *Queries) DailyRollupSeries(ctx context.Context, metric string, since time.Time) ([]TrendPointRow, error) {
	col, ok := rollupColumns[metric]
	if !ok {
		return nil, ErrUnknownRollupMetric
	}
	sql := `
SELECT date_trunc('day', hour) AS day, COALESCE(SUM(` + col + `), 0)::float8
FROM hourly_gpu_stats
WHERE gpu_group = 'all' AND hour >= $1
GROUP BY day
ORDER BY day ASC`
	return q.trendPoints(ctx, sql, since)
}

const hourlyUniqueNodesSQL = `
SELECT hour, unique_node_count::float8
FROM hourly_distinct_counts
WHERE gpu_group = 'all' AND hour >= $1
ORDER BY hour ASC`

// HourlyUniqueNodes returns hourly distinct-node counts for the all-GPUs group.
func (q *Queries) HourlyUniqueNodes(ctx context.Context, since time.Time) ([]TrendPointRow, error) {
	return q.trendPoints(ctx, hourlyUniqueNodesSQL, since)
}

const dailyUniqueNodesSQL = `
SELECT day, unique_node_count::float8
FROM daily_distinct_counts
WHERE gpu_group = 'all' AND day >= $1
ORDER BY day ASC`

// DailyUniqueNodes returns daily distinct-node counts for the all-GPUs group.
func (q *Queries) DailyUniqueNodes(ctx context.Context, since time.Time) ([]TrendPointRow, error) {
	return q.trendPoints(ctx, dailyUniqueNodesSQL, since)
}

func (q *Queries) trendPoints(ctx context.Context, sql string, since time.Time) ([]TrendPointRow, error) {
	rows, err := q.pool.Query(ctx, sql, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]TrendPointRow, 0)
	for rows.Next() {
		var r TrendPointRow
		if err := rows.Scan(&r.TS, &r.Value); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// TransactionRow is one on-chain payment transaction.
type TransactionRow struct {
	TxHash         string
	BlockNumber    int64
	BlockTimestamp time.Time
	FromAddress    string
	ToAddress      string
	ValueGLM       decimal.Decimal
	GasUsed        *int64
	TxType         string
}

const listTransactionsSQL = `
SELECT tx_hash, block_number, block_timestamp, from_address, to_address,
       value_glm, gas_used, tx_type
FROM glm_transactions
WHERE block_timestamp >= $1 AND block_timestamp <= $2
ORDER BY block_timestamp DESC
LIMIT $3`

// ListTransactions returns transactions inside [start, end], newest first.
func (q *Queries) ListTransactions(ctx context.Context, start, end time.Time, limit int32) ([]TransactionRow, error) {
	rows, err := q.pool.Query(ctx, listTransactionsSQL, start, end, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]TransactionRow, 0)
	for rows.Next() {
		var r TransactionRow
		if err := rows.Scan(
			&r.TxHash,
			&r.BlockNumber,
			&r.BlockTimestamp,
			&r.FromAddress,
			&r.ToAddress,
			&r.ValueGLM,
			&r.GasUsed,
			&r.TxType,
		); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
