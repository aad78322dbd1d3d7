package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/anime-shed/body-measure-go/pkg/models"
)

// SQLiteResultRepository persists results in a SQLite database file.
type SQLiteResultRepository struct {
	db *sql.DB
}

// NewSQLiteResultRepository opens (creating if needed) the database at path.
func NewSQLiteResultRepository(path string) (*SQLiteResultRepository, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// SQLite allows one writer at a time.
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS locked_results (
			id                     TEXT PRIMARY KEY,
			session_id             TEXT NOT NULL,
			locked_at_unix_nanos   BIGINT NOT NULL,
			distance_cm            DOUBLE,
			shoulder_width_cm      DOUBLE,
			raw_shoulder_width_cm  DOUBLE,
			torso_height_cm        DOUBLE,
			size_label             TEXT,
			lock_signal            TEXT
		);
		CREATE INDEX IF NOT EXISTS idx_locked_results_locked_at
			ON locked_results (locked_at_unix_nanos DESC);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &SQLiteResultRepository{db: db}, nil
}

// SaveResult stores a locked measurement
func (r *SQLiteResultRepository) SaveResult(ctx context.Context, result *models.StoredResult) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO locked_results (
			id, session_id, locked_at_unix_nanos, distance_cm, shoulder_width_cm,
			raw_shoulder_width_cm, torso_height_cm, size_label, lock_signal
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		result.ID,
		result.SessionID,
		result.LockedAt.UnixNano(),
		result.DistanceCm,
		result.ShoulderWidthCm,
		result.RawShoulderWidthCm,
		result.TorsoHeightCm,
		result.SizeLabel,
		string(result.LockSignal),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrDuplicateResult
		}
		return fmt.Errorf("%w: %v", ErrRepositoryUnavailable, err)
	}
	return nil
}

const selectResultColumns = `SELECT id, session_id, locked_at_unix_nanos, distance_cm, shoulder_width_cm,
	raw_shoulder_width_cm, torso_height_cm, size_label, lock_signal FROM locked_results`

// GetResult retrieves a stored result by ID
func (r *SQLiteResultRepository) GetResult(ctx context.Context, id string) (*models.StoredResult, error) {
	row := r.db.QueryRowContext(ctx, selectResultColumns+` WHERE id = ?`, id)
	res, err := scanResult(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrResultNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRepositoryUnavailable, err)
	}
	return res, nil
}

// ListResults returns up to limit results, newest first
func (r *SQLiteResultRepository) ListResults(ctx context.Context, limit int) ([]*models.StoredResult, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	rows, err := r.db.QueryContext(ctx,
		selectResultColumns+` ORDER BY locked_at_unix_nanos DESC, id ASC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRepositoryUnavailable, err)
	}
	defer rows.Close()

	var results []*models.StoredResult
	for rows.Next() {
		res, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// Close closes the database
func (r *SQLiteResultRepository) Close() error {
	return r.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanResult(s scanner) (*models.StoredResult, error) {
	var (
		res        models.StoredResult
		lockedAt   int64
		lockSignal string
	)
	if err := s.Scan(
		&res.ID,
		&res.SessionID,
		&lockedAt,
		&res.DistanceCm,
		&res.ShoulderWidthCm,
		&res.RawShoulderWidthCm,
		&res.TorsoHeightCm,
		&res.SizeLabel,
		&lockSignal,
	); err != nil {
		return nil, err
	}
	res.LockedAt = time.Unix(0, lockedAt).UTC()
	res.LockSignal = models.LockSignal(lockSignal)
	return &res, nil
}
