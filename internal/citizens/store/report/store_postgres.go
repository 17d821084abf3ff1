package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"census/internal/citizens/models"
	"census/pkg/platform/sentinel"
)

// PostgresStore persists gift reports as JSONB rows keyed by import_id.
//
// The table carries no update path: correctness of the at-most-once write
// comes from the lease discipline in the report service, and ON CONFLICT DO
// NOTHING turns any slip past it into an explicit conflict instead of a
// silent overwrite.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgres constructs a PostgreSQL-backed report store.
func NewPostgres(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) TryGet(ctx context.Context, importID int64) (models.GiftReport, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx,
		`SELECT data FROM birthday_reports WHERE import_id = $1`, importID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load report for import %d: %w", importID, err)
	}

	var report models.GiftReport
	if err := json.Unmarshal(raw, &report); err != nil {
		return nil, fmt.Errorf("decode report for import %d: %w", importID, err)
	}
	return report, nil
}

func (s *PostgresStore) Put(ctx context.Context, importID int64, report models.GiftReport) error {
	raw, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode report for import %d: %w", importID, err)
	}

	tag, err := s.pool.Exec(ctx, `
		INSERT INTO birthday_reports (import_id, data) VALUES ($1, $2)
		ON CONFLICT (import_id) DO NOTHING`, importID, raw)
	if err != nil {
		return fmt.Errorf("store report for import %d: %w", importID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("report for import %d: %w", importID, sentinel.ErrConflict)
	}
	return nil
}
