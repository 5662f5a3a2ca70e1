package trends

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nodemetrics/backend/internal/db"
)

// fakeStore counts which rollup table each call hit. RollupStats fans out
// concurrently, so the counters are mutex-guarded.
type fakeStore struct {
	mu          sync.Mutex
	scalar      map[string][]db.TrendPointRow
	hourlySince time.Time
	dailySince  time.Time
	hourlyCalls int
	dailyCalls  int
}

func (f *fakeStore) recordHourly(since time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hourlySince = since
	f.hourlyCalls++
}

func (f *fakeStore) recordDaily(since time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dailySince = since
	f.dailyCalls++
}

func (f *fakeStore) ScalarMetricTrend(_ context.Context, metric string, _ time.Time) ([]db.TrendPointRow, error) {
	return f.scalar[metric], nil
}

func (f *fakeStore) HourlyRollupSeries(_ context.Context, metric string, since time.Time) ([]db.TrendPointRow, error) {
	if _, err := metricKnown(metric); err != nil {
		return nil, err
	}
	f.recordHourly(since)
	return []db.TrendPointRow{{TS: since, Value: 1}}, nil
}

func (f *fakeStore) DailyRollupSeries(_ context.Context, metric string, since time.Time) ([]db.TrendPointRow, error) {
	if _, err := metricKnown(metric); err != nil {
		return nil, err
	}
	f.recordDaily(since)
	return []db.TrendPointRow{{TS: since, Value: 2}}, nil
}

func (f *fakeStore) HourlyUniqueNodes(_ context.Context, since time.Time) ([]db.TrendPointRow, error) {
	f.recordHourly(since)
	return []db.TrendPointRow{{TS: since, Value: 3}}, nil
}

func (f *fakeStore) DailyUniqueNodes(_ context.Context, since time.Time) ([]db.TrendPointRow, error) {
	f.recordDaily(since)
	return []db.TrendPointRow{{TS: since, Value: 4}}, nil
}

func metricKnown(metric string) (string, error) {
	for _, m := range db.RollupMetrics() {
		if m == metric {
			return m, nil
		}
	}
	return "", db.ErrUnknownRollupMetric
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestMetricTrend(t *testing.T) {
	now := time.Date(2025, time.June, 10, 12, 0, 0, 0, time.UTC)
	ts := now.Add(-time.Hour)
	store := &fakeStore{
		scalar: map[string][]db.TrendPointRow{
			"total_nodes": {{TS: ts, Value: 42}},
		},
	}
	svc := NewService(store, fixedClock(now))

	points, err := svc.MetricTrend(context.Background(), "total_nodes")
	if err != nil {
		t.Fatal(err)
	}
	if len(points) != 1 || points[0].Value != 42 || points[0].Timestamp != ts.Format(time.RFC3339) {
		t.Errorf("points: %+v", points)
	}

	if _, err := svc.MetricTrend(context.Background(), "total_cores"); !errors.Is(err, ErrMetricNotFound) {
		t.Errorf("empty metric: want ErrMetricNotFound, got %v", err)
	}
	if _, err := svc.MetricTrend(context.Background(), "bogus"); !errors.Is(err, ErrUnknownMetric) {
		t.Errorf("unknown metric: want ErrUnknownMetric, got %v", err)
	}
}

func TestRollupStatsPeriods(t *testing.T) {
	now := time.Date(2025, time.June, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		period    string
		daily     bool
		wantSince time.Time
	}{
		{"day", false, now.Add(-24 * time.Hour)},
		{"week", false, now.Add(-7 * 24 * time.Hour)},
		{"month", true, now.Add(-31 * 24 * time.Hour)},
	}
	for _, tt := range tests {
		store := &fakeStore{}
		svc := NewService(store, fixedClock(now))
		stats, err := svc.RollupStats(context.Background(), tt.period)
		if err != nil {
			t.Fatalf("period %s: %v", tt.period, err)
		}
		if len(stats) != len(db.RollupMetrics()) {
			t.Errorf("period %s: want %d series, got %d", tt.period, len(db.RollupMetrics()), len(stats))
		}
		if tt.daily {
			if store.dailyCalls != len(db.RollupMetrics()) || store.hourlyCalls != 0 {
				t.Errorf("period %s: want daily queries, got hourly=%d daily=%d", tt.period, store.hourlyCalls, store.dailyCalls)
			}
			if !store.dailySince.Equal(tt.wantSince) {
				t.Errorf("period %s: since %v, want %v", tt.period, store.dailySince, tt.wantSince)
			}
		} else {
			if store.hourlyCalls != len(db.RollupMetrics()) || store.dailyCalls != 0 {
				t.Errorf("period %s: want hourly queries, got hourly=%d daily=%d", tt.period, store.hourlyCalls, store.dailyCalls)
			}
			if !store.hourlySince.Equal(tt.wantSince) {
				t.Errorf("period %s: since %v, want %v", tt.period, store.hourlySince, tt.wantSince)
			}
		}
	}

	svc := NewService(&fakeStore{}, fixedClock(now))
	if _, err := svc.RollupStats(context.Background(), "year"); !errors.Is(err, ErrInvalidPeriod) {
		t.Errorf("invalid period: got %v", err)
	}
}

func TestUniqueNodes(t *testing.T) {
	now := time.Date(2025, time.June, 10, 12, 0, 0, 0, time.UTC)

	store := &fakeStore{}
	svc := NewService(store, fixedClock(now))
	points, err := svc.UniqueNodes(context.Background(), "week")
	if err != nil {
		t.Fatal(err)
	}
	if store.hourlyCalls != 1 || store.dailyCalls != 0 {
		t.Errorf("week: want hourly query, got hourly=%d daily=%d", store.hourlyCalls, store.dailyCalls)
	}
	if len(points) != 1 || points[0].Value != 3 {
		t.Errorf("points: %+v", points)
	}

	store = &fakeStore{}
	svc = NewService(store, fixedClock(now))
	if _, err := svc.UniqueNodes(context.Background(), "month"); err != nil {
		t.Fatal(err)
	}
	if store.dailyCalls != 1 {
		t.Errorf("month: want daily query, got %d", store.dailyCalls)
	}
}
