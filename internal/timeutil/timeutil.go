package timeutil

import (
	"errors"
	"time"
)

var ErrInvalidPeriod = errors.New("invalid period")

// DataLatency is how far the usage-accounting pipeline lags real time.
// Records newer than now-DataLatency may still be incomplete, so every
// window is anchored to this cutoff rather than to "now".
const DataLatency = 48 * time.Hour

// RangeBeginning is reported as the range start for unbounded windows.
const RangeBeginning = "beginning"

// Granularity selects the bucket size for time-series aggregation.
type Granularity string

const (
	GranularityHourly Granularity = "hourly"
	GranularityDaily  Granularity = "daily"
)

// TruncUnit returns the date_trunc field name for the granularity.
func (g Granularity) TruncUnit() string {
	if g == GranularityDaily {
		return "day"
	}
	return "hour"
}

// hourlyCeiling is the longest window still rendered with hourly buckets.
// Anything longer (or unbounded) switches to daily buckets to keep the
// series cardinality manageable for the client.
const hourlyCeiling = 168

var periodHours = map[string]int{
	"6h":  6,
	"24h": 24,
	"7d":  168,
	"30d": 720,
	"90d": 2160,
}

// PeriodTotal selects the unbounded window.
const PeriodTotal = "total"

// Periods lists the accepted period values in display order.
func Periods() []string {
	return []string{"6h", "24h", "7d", "30d", "90d", PeriodTotal}
}

// PlanWindow is the resolved time range for one stats request: an inclusive
// upper cutoff, an optional lower bound, and a display granularity.
type PlanWindow struct {
	period      string
	cutoff      time.Time
	start       *time.Time
	granularity Granularity
}

// NewPlanWindow resolves a period value against the provided instant.
// The cutoff is now-DataLatency; "total" has no lower bound.
func NewPlanWindow(period string, now time.Time) (PlanWindow, error) {
	cutoff := now.UTC().Add(-DataLatency)
	if period == PeriodTotal {
		return PlanWindow{
			period:      period,
			cutoff:      cutoff,
			granularity: GranularityDaily,
		}, nil
	}
	hours, ok := periodHours[period]
	if !ok {
		return PlanWindow{}, ErrInvalidPeriod
	}
	start := cutoff.Add(-time.Duration(hours) * time.Hour)
	granularity := GranularityHourly
	if hours > hourlyCeiling {
		granularity = GranularityDaily
	}
	return PlanWindow{
		period:      period,
		cutoff:      cutoff,
		start:       &start,
		granularity: granularity,
	}, nil
}

// Period returns the requested period value.
func (w PlanWindow) Period() string { return w.period }

// Cutoff returns the inclusive upper bound of the window.
func (w PlanWindow) Cutoff() time.Time { return w.cutoff }

// CutoffMillis returns the upper bound as a millisecond epoch.
func (w PlanWindow) CutoffMillis() int64 { return w.cutoff.UnixMilli() }

// Start returns the inclusive lower bound, nil when unbounded.
func (w PlanWindow) Start() *time.Time { return w.start }

// StartMillis returns the lower bound as a millisecond epoch, nil when unbounded.
func (w PlanWindow) StartMillis() *int64 {
	if w.start == nil {
		return nil
	}
	ms := w.start.UnixMilli()
	return &ms
}

// Granularity returns the bucket size for the window.
func (w PlanWindow) Granularity() Granularity { return w.granularity }

// CutoffString returns the cutoff formatted as RFC3339 UTC.
func (w PlanWindow) CutoffString() string { return w.cutoff.UTC().Format(time.RFC3339) }

// StartString returns the lower bound as RFC3339 UTC, or "beginning" when unbounded.
func (w PlanWindow) StartString() string {
	if w.start == nil {
		return RangeBeginning
	}
	return w.start.UTC().Format(time.RFC3339)
}
