package timeutil

import (
	"errors"
	"testing"
	"time"
)

func TestNewPlanWindowCutoff(t *testing.T) {
	now := time.Date(2025, time.June, 10, 12, 0, 0, 0, time.UTC)
	for _, period := range Periods() {
		w, err := NewPlanWindow(period, now)
		if err != nil {
			t.Fatalf("period %s: %v", period, err)
		}
		want := now.Add(-48 * time.Hour)
		if !w.Cutoff().Equal(want) {
			t.Errorf("period %s: want cutoff %v, got %v", period, want, w.Cutoff())
		}
	}
}

func TestNewPlanWindowBounds(t *testing.T) {
	now := time.Date(2025, time.June, 10, 12, 0, 0, 0, time.UTC)
	cutoff := now.Add(-48 * time.Hour)

	tests := []struct {
		period      string
		wantHours   int
		granularity Granularity
	}{
		{"6h", 6, GranularityHourly},
		{"24h", 24, GranularityHourly},
		{"7d", 168, GranularityHourly},
		{"30d", 720, GranularityDaily},
		{"90d", 2160, GranularityDaily},
	}
	for _, tt := range tests {
		w, err := NewPlanWindow(tt.period, now)
		if err != nil {
			t.Fatalf("period %s: %v", tt.period, err)
		}
		if w.Start() == nil {
			t.Fatalf("period %s: expected lower bound", tt.period)
		}
		wantStart := cutoff.Add(-time.Duration(tt.wantHours) * time.Hour)
		if !w.Start().Equal(wantStart) {
			t.Errorf("period %s: want start %v, got %v", tt.period, wantStart, w.Start())
		}
		if w.Granularity() != tt.granularity {
			t.Errorf("period %s: want granularity %s, got %s", tt.period, tt.granularity, w.Granularity())
		}
	}
}

func TestNewPlanWindowTotal(t *testing.T) {
	now := time.Date(2025, time.June, 10, 12, 0, 0, 0, time.UTC)
	w, err := NewPlanWindow(PeriodTotal, now)
	if err != nil {
		t.Fatalf("total: %v", err)
	}
	if w.Start() != nil {
		t.Errorf("total: expected no lower bound, got %v", w.Start())
	}
	if w.StartMillis() != nil {
		t.Errorf("total: expected nil start millis")
	}
	if w.StartString() != RangeBeginning {
		t.Errorf("total: want start string %q, got %q", RangeBeginning, w.StartString())
	}
	if w.Granularity() != GranularityDaily {
		t.Errorf("total: want daily granularity, got %s", w.Granularity())
	}
}

func TestNewPlanWindowInvalidPeriod(t *testing.T) {
	for _, period := range []string{"", "12h", "1d", "week", "TOTAL", "6h "} {
		if _, err := NewPlanWindow(period, time.Now()); !errors.Is(err, ErrInvalidPeriod) {
			t.Errorf("period %q: want ErrInvalidPeriod, got %v", period, err)
		}
	}
}

func TestPlanWindowMillis(t *testing.T) {
	now := time.Date(2025, time.June, 10, 12, 0, 0, 0, time.UTC)
	w, err := NewPlanWindow("24h", now)
	if err != nil {
		t.Fatal(err)
	}
	if got := w.CutoffMillis(); got != now.Add(-48*time.Hour).UnixMilli() {
		t.Errorf("cutoff millis mismatch: %d", got)
	}
	startMs := w.StartMillis()
	if startMs == nil {
		t.Fatal("expected start millis")
	}
	if *startMs != now.Add(-72*time.Hour).UnixMilli() {
		t.Errorf("start millis mismatch: %d", *startMs)
	}
}

func TestGranularityTruncUnit(t *testing.T) {
	if GranularityHourly.TruncUnit() != "hour" {
		t.Errorf("hourly trunc unit: %s", GranularityHourly.TruncUnit())
	}
	if GranularityDaily.TruncUnit() != "day" {
		t.Errorf("daily trunc unit: %s", GranularityDaily.TruncUnit())
	}
}
