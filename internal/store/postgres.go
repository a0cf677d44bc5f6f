package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/deepscan/deepscan/pkg/models"
)

// PostgresStore implements the Store interface using pgx/v5.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// --- Scans ---

func (s *PostgresStore) CreateScan(ctx context.Context, scan *models.ScanRecord) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO scans (id, session, filename, is_deepfake, confidence, synthetic, result, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		scan.ID, scan.Session, scan.Filename, scan.IsDeepfake, scan.Confidence,
		scan.Synthetic, scan.Result, scan.CreatedAt)
	if err != nil {
		return fmt.Errorf("create scan: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetScan(ctx context.Context, id uuid.UUID) (*models.ScanRecord, error) {
	var r models.ScanRecord
	err := s.pool.QueryRow(ctx,
		`SELECT id, session, filename, is_deepfake, confidence, synthetic, result, created_at
		 FROM scans WHERE id = $1`, id,
	).Scan(&r.ID, &r.Session, &r.Filename, &r.IsDeepfake, &r.Confidence,
		&r.Synthetic, &r.Result, &r.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get scan: %w", err)
	}
	return &r, nil
}

func (s *PostgresStore) ListScans(ctx context.Context, filter models.ScanFilter) ([]*models.ScanRecord, int, error) {
	filter.Normalize()

	where := ""
	args := []any{}
	if filter.Session != "" {
		where = "WHERE session = $1"
		args = append(args, filter.Session)
	}

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM scans %s", where)
	if err := s.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count scans: %w", err)
	}

	query := fmt.Sprintf(
		`SELECT id, session, filename, is_deepfake, confidence, synthetic, result, created_at
		 FROM scans %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		where, len(args)+1, len(args)+2)
	args = append(args, filter.Limit, filter.Offset())

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list scans: %w", err)
	}
	defer rows.Close()

	var scans []*models.ScanRecord
	for rows.Next() {
		var r models.ScanRecord
		if err := rows.Scan(&r.ID, &r.Session, &r.Filename, &r.IsDeepfake, &r.Confidence,
			&r.Synthetic, &r.Result, &r.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan row: %w", err)
		}
		scans = append(scans, &r)
	}
	if scans == nil {
		scans = []*models.ScanRecord{}
	}
	return scans, total, rows.Err()
}

// Compile-time check that PostgresStore implements Store.
var _ Store = (*PostgresStore)(nil)
