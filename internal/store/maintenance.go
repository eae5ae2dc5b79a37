package store

import (
	"context"
	"fmt"
	"os"
	"strings"

	"autorepair/config"

	"github.com/samber/lo"
)

var shopTables = []string{
	"parts", "customers", "repair_orders", "repair_parts_usage", "purchase_orders", "purchase_details",
}

// Info describes the database for the maintenance endpoints
type Info struct {
	Driver    string           `json:"driver"`
	Path      string           `json:"path,omitempty"`
	SizeBytes int64            `json:"size_bytes,omitempty"`
	RowCounts map[string]int64 `json:"row_counts"`
}

// Vacuum rebuilds the database file to reclaim free pages
func (s *Store) Vacuum(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "VACUUM"); err != nil {
		return fmt.Errorf("failed to vacuum database: %w", err)
	}
	s.logger.Info("Database vacuumed")
	return nil
}

// IntegrityCheck runs the sqlite integrity check and returns the problems it
// reports. An empty result means the database is healthy.
func (s *Store) IntegrityCheck(ctx context.Context) ([]string, error) {
	if s.cfg.Driver != config.DriverSQLite {
		return nil, fmt.Errorf("integrity check is only available for %s", config.DriverSQLite)
	}

	var results []string
	if err := s.db.SelectContext(ctx, &results, "PRAGMA integrity_check"); err != nil {
		return nil, fmt.Errorf("failed to run integrity check: %w", err)
	}
	return lo.Reject(results, func(r string, _ int) bool {
		return strings.EqualFold(r, "ok")
	}), nil
}

// Info returns row counts per table and, for sqlite, the file size
func (s *Store) Info(ctx context.Context) (*Info, error) {
	info := &Info{
		Driver:    s.cfg.Driver,
		Path:      s.Path(),
		RowCounts: make(map[string]int64, len(shopTables)),
	}

	for _, table := range shopTables {
		var n int64
		if err := s.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM "+table); err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", table, err)
		}
		info.RowCounts[table] = n
	}

	if info.Path != "" {
		if st, err := os.Stat(info.Path); err == nil {
			info.SizeBytes = st.Size()
		}
	}
	return info, nil
}
