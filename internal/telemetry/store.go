package telemetry

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/suggestkit/suggestd/pkg/postgres"
	"github.com/suggestkit/suggestd/pkg/resilience"
)

// Store persists aggregate telemetry snapshots in PostgreSQL.
//
// It requires a `suggest_snapshots` table:
//
//	CREATE TABLE suggest_snapshots (
//	    id          BIGSERIAL PRIMARY KEY,
//	    data        JSONB NOT NULL,
//	    captured_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
//	);
type Store struct {
	db     *postgres.Client
	logger *slog.Logger
}

// NewStore creates a snapshot store.
func NewStore(db *postgres.Client) *Store {
	return &Store{
		db:     db,
		logger: slog.Default().With("component", "telemetry-store"),
	}
}

// SaveSnapshot persists a stats snapshot, retrying transient failures.
func (s *Store) SaveSnapshot(ctx context.Context, stats AggregatedStats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("marshaling stats: %w", err)
	}

	err = resilience.Retry(ctx, "save-snapshot", resilience.RetryConfig{MaxAttempts: 3}, func() error {
		_, execErr := s.db.DB.ExecContext(ctx,
			`INSERT INTO suggest_snapshots (data, captured_at) VALUES ($1, $2)`,
			data, time.Now().UTC(),
		)
		return execErr
	})
	if err != nil {
		return fmt.Errorf("saving telemetry snapshot: %w", err)
	}

	s.logger.Info("telemetry snapshot saved", "total_queries", stats.TotalQueries)
	return nil
}

// LatestSnapshot loads the most recent snapshot, or nil when none exists.
func (s *Store) LatestSnapshot(ctx context.Context) (*AggregatedStats, error) {
	var data []byte
	err := s.db.DB.QueryRowContext(ctx,
		`SELECT data FROM suggest_snapshots ORDER BY captured_at DESC LIMIT 1`,
	).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying latest snapshot: %w", err)
	}

	var stats AggregatedStats
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, fmt.Errorf("unmarshaling snapshot: %w", err)
	}
	return &stats, nil
}

// RunPeriodic saves a snapshot every interval until ctx is cancelled, then
// saves one final snapshot.
func (s *Store) RunPeriodic(ctx context.Context, interval time.Duration, statsFn func() AggregatedStats) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := s.SaveSnapshot(ctx, statsFn()); err != nil {
				s.logger.Error("periodic snapshot failed", "error", err)
			}
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := s.SaveSnapshot(shutdownCtx, statsFn()); err != nil {
				s.logger.Error("final snapshot failed", "error", err)
			}
			cancel()
			return
		}
	}
}
