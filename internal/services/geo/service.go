package geo

import (
	"context"
	"errors"
	"fmt"

	"github.com/nodemetrics/backend/internal/db"
)

// Store provides the snapshot query. *db.Queries satisfies it.
type Store interface {
	LatestCitySnapshots(ctx context.Context) ([]db.CitySnapshotRow, error)
}

// Service serves the city-level node distribution behind the globe view.
type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// CityCount is one city with its node population and coordinates.
type CityCount struct {
	City  string  `json:"city"`
	Count int64   `json:"count"`
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
}

// CityCounts returns the most recent snapshot, largest cities first.
func (s *Service) CityCounts(ctx context.Context) ([]CityCount, error) {
	if s == nil || s.store == nil {
		return nil, errors.New("geo service not initialized")
	}
	rows, err := s.store.LatestCitySnapshots(ctx)
	if err != nil {
		return nil, fmt.Errorf("load city snapshots: %w", err)
	}
	out := make([]CityCount, 0, len(rows))
	for _, row := range rows {
		out = append(out, CityCount{
			City:  row.Name,
			Count: row.Count,
			Lat:   row.Lat,
			Lon:   row.Lon,
		})
	}
	return out, nil
}
