package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"

	"mention_tracker/internal/domain"
)

// CycleLogStore records the outcome of each poll cycle. Append-only audit
// for observability; the write path never reads it (the unique index on
// post_id, not a last-run cursor, decides what is new).
type CycleLogStore struct {
	db *sqlx.DB
}

func NewCycleLogStore(db *sqlx.DB) *CycleLogStore {
	return &CycleLogStore{db: db}
}

func (s *CycleLogStore) Record(ctx context.Context, stats *domain.CycleStats) error {
	query := `
		INSERT INTO cycle_runs (started_at, finished_at, fetched, relevant, new_count, duplicates, errors)
		VALUES ($1, now(), $2, $3, $4, $5, $6)`

	_, err := s.db.ExecContext(ctx, query,
		stats.StartedAt,
		stats.Fetched,
		stats.Relevant,
		stats.New,
		stats.Duplicates,
		stats.Errors,
	)
	return err
}
