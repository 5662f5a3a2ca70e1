package transactions

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nodemetrics/backend/internal/db"
)

type fakeStore struct {
	start, end time.Time
	limit      int32
	rows       []db.TransactionRow
	err        error
}

func (f *fakeStore) ListTransactions(_ context.Context, start, end time.Time, limit int32) ([]db.TransactionRow, error) {
	f.start, f.end, f.limit = start, end, limit
	return f.rows, f.err
}

func TestListDefaults(t *testing.T) {
	now := time.Date(2025, time.June, 10, 12, 0, 0, 0, time.UTC)
	store := &fakeStore{
		rows: []db.TransactionRow{{
			TxHash:         "0xabc",
			BlockNumber:    123,
			BlockTimestamp: now.Add(-time.Hour),
			FromAddress:    "0xfrom",
			ToAddress:      "0xto",
			ValueGLM:       decimal.NewFromFloat(1.5),
			TxType:         "transfer",
		}},
	}
	svc := NewService(store, func() time.Time { return now })

	resp, err := svc.List(context.Background(), ListParams{})
	if err != nil {
		t.Fatal(err)
	}
	if !store.end.Equal(now) {
		t.Errorf("end: %v", store.end)
	}
	if !store.start.Equal(now.Add(-24 * time.Hour)) {
		t.Errorf("start: %v", store.start)
	}
	if store.limit != 10 {
		t.Errorf("limit: %d", store.limit)
	}
	if len(resp.Transactions) != 1 {
		t.Fatalf("transactions: %+v", resp.Transactions)
	}
	tx := resp.Transactions[0]
	if tx.TxHash != "0xabc" || tx.ValueGLM != 1.5 || tx.GasUsed != nil {
		t.Errorf("transaction: %+v", tx)
	}
	if tx.BlockTimestamp != now.Add(-time.Hour).Format(time.RFC3339) {
		t.Errorf("block timestamp: %s", tx.BlockTimestamp)
	}
}

func TestListLimitClamp(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(store, nil)

	if _, err := svc.List(context.Background(), ListParams{Limit: 500}); err != nil {
		t.Fatal(err)
	}
	if store.limit != 100 {
		t.Errorf("limit above max: %d", store.limit)
	}
	if _, err := svc.List(context.Background(), ListParams{Limit: -3}); err != nil {
		t.Fatal(err)
	}
	if store.limit != 10 {
		t.Errorf("limit below min: %d", store.limit)
	}
}

func TestListInvalidRange(t *testing.T) {
	svc := NewService(&fakeStore{}, nil)
	end := time.Date(2025, time.June, 10, 12, 0, 0, 0, time.UTC)
	start := end.Add(time.Hour)
	if _, err := svc.List(context.Background(), ListParams{Start: &start, End: &end}); !errors.Is(err, ErrInvalidRange) {
		t.Errorf("want ErrInvalidRange, got %v", err)
	}
}

func TestListStoreError(t *testing.T) {
	boom := errors.New("query failed")
	svc := NewService(&fakeStore{err: boom}, nil)
	if _, err := svc.List(context.Background(), ListParams{}); !errors.Is(err, boom) {
		t.Errorf("want store error, got %v", err)
	}
}
