package transactions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nodemetrics/backend/internal/db"
)

var ErrInvalidRange = errors.New("invalid time range")

const (
	defaultLimit  = 10
	maxLimit      = 100
	defaultWindow = 24 * time.Hour
)

// Store provides the transaction listing query. *db.Queries satisfies it.
type Store interface {
	ListTransactions(ctx context.Context, start, end time.Time, limit int32) ([]db.TransactionRow, error)
}

// Service lists on-chain payment transactions for the dashboard feed.
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

// ListParams narrows the listing. Nil bounds fall back to the trailing day.
type ListParams struct {
	Limit int
	Start *time.Time
	End   *time.Time
}

// Transaction is one payment in the response feed.
type Transaction struct {
	TxHash         string  `json:"tx_hash"`
	BlockNumber    int64   `json:"block_number"`
	BlockTimestamp string  `json:"block_timestamp"`
	FromAddress    string  `json:"from_address"`
	ToAddress      string  `json:"to_address"`
	ValueGLM       float64 `json:"value_glm"`
	GasUsed        *int64  `json:"gas_used,omitempty"`
	TxType         string  `json:"tx_type"`
}

// ListResponse wraps the feed with the range it covers.
type ListResponse struct {
	Start        string        `json:"start"`
	End          string        `json:"end"`
	Transactions []Transaction `json:"transactions"`
}

// List returns transactions inside the requested range, newest first.
func (s *Service) List(ctx context.Context, params ListParams) (ListResponse, error) {
	if s == nil || s.store == nil {
		return ListResponse{}, errors.New("transactions service not initialized")
	}
	end := s.now().UTC()
	if params.End != nil {
		end = params.End.UTC()
	}
	start := end.Add(-defaultWindow)
	if params.Start != nil {
		start = params.Start.UTC()
	}
	if !end.After(start) {
		return ListResponse{}, ErrInvalidRange
	}
	limit := params.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	rows, err := s.store.ListTransactions(ctx, start, end, int32(limit))
	if err != nil {
		return ListResponse{}, fmt.Errorf("list transactions: %w", err)
	}
	out := make([]Transaction, 0, len(rows))
	for _, row := range rows {
		out = append(out, Transaction{
			TxHash:         row.TxHash,
			BlockNumber:    row.BlockNumber,
			BlockTimestamp: row.BlockTimestamp.UTC().Format(time.RFC3339),
			FromAddress:    row.FromAddress,
			ToAddress:      row.ToAddress,
			ValueGLM:       row.ValueGLM.InexactFloat64(),
			GasUsed:        row.GasUsed,
			TxType:         row.TxType,
		})
	}
	return ListResponse{
		Start:        start.Format(time.RFC3339),
		End:          end.Format(time.RFC3339),
		Transactions: out,
	}, nil
}
