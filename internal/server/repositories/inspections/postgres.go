// Package inspections stores the top-level inspection rows.
package inspections

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/vistoria/internal/common"
	"github.com/dmitrijs2005/vistoria/internal/dbx"
	"github.com/dmitrijs2005/vistoria/internal/server/models"
	"github.com/dmitrijs2005/vistoria/internal/server/repositories/pgerr"
)

// PostgresRepository implements Repository over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const selectColumns = `SELECT id, property_id, corretor_id,
		to_char(scheduled_date, 'YYYY-MM-DD'), to_char(scheduled_time, 'HH24:MI'),
		status, completed_at, created_at
	FROM inspections`

type scanner interface {
	Scan(dest ...any) error
}

func scanInspection(s scanner) (*models.Inspection, error) {
	var (
		insp        models.Inspection
		status      string
		completedAt sql.NullTime
	)
	if err := s.Scan(&insp.ID, &insp.PropertyID, &insp.CorretorID,
		&insp.ScheduledDate, &insp.ScheduledTime, &status, &completedAt, &insp.CreatedAt); err != nil {
		return nil, err
	}
	insp.Status = models.InspectionStatus(status)
	if completedAt.Valid {
		t := completedAt.Time
		insp.CompletedAt = &t
	}
	return &insp, nil
}

// Create inserts insp with status pending and fills the normalized schedule
// fields, status and created_at from the stored row.
func (r *PostgresRepository) Create(ctx context.Context, insp *models.Inspection) error {
	query := `
		INSERT INTO inspections (id, property_id, corretor_id, scheduled_date, scheduled_time, status)
		VALUES ($1, $2, $3, $4, $5, 'pending')
		RETURNING to_char(scheduled_date, 'YYYY-MM-DD'), to_char(scheduled_time, 'HH24:MI'), status, created_at`

	var status string
	err := r.db.QueryRowContext(ctx, query,
		insp.ID, insp.PropertyID, insp.CorretorID, insp.ScheduledDate, insp.ScheduledTime).
		Scan(&insp.ScheduledDate, &insp.ScheduledTime, &status, &insp.CreatedAt)
	if err != nil {
		return pgerr.Translate("insert inspection", err)
	}
	insp.Status = models.InspectionStatus(status)
	insp.CompletedAt = nil
	return nil
}

func (r *PostgresRepository) get(ctx context.Context, query, id string) (*models.Inspection, error) {
	insp, err := scanInspection(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("inspection %s: %w", id, common.ErrorNotFound)
	}
	if err != nil {
		return nil, pgerr.Translate("select inspection", err)
	}
	return insp, nil
}

// Get returns the inspection row or common.ErrorNotFound.
func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.Inspection, error) {
	return r.get(ctx, selectColumns+` WHERE id = $1`, id)
}

// GetForUpdate is Get with a row lock held until the surrounding transaction ends.
func (r *PostgresRepository) GetForUpdate(ctx context.Context, id string) (*models.Inspection, error) {
	return r.get(ctx, selectColumns+` WHERE id = $1 FOR UPDATE`, id)
}

// List returns the inspections of corretorID, or all of them when corretorID
// is empty, most recently scheduled first.
func (r *PostgresRepository) List(ctx context.Context, corretorID string) ([]*models.Inspection, error) {
	query := selectColumns + `
	WHERE ($1 = '' OR corretor_id = $1)
	ORDER BY scheduled_date DESC, scheduled_time DESC, created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, corretorID)
	if err != nil {
		return nil, pgerr.Translate("select inspections", err)
	}
	defer rows.Close()

	result := make([]*models.Inspection, 0)
	for rows.Next() {
		insp, err := scanInspection(rows)
		if err != nil {
			return nil, pgerr.Translate("scan inspection", err)
		}
		result = append(result, insp)
	}
	if err := rows.Err(); err != nil {
		return nil, pgerr.Translate("iterate inspections", err)
	}
	return result, nil
}

// UpdateStatus sets the status and, when stampCompletion is true, sets
// completed_at to the current time in the same statement.
func (r *PostgresRepository) UpdateStatus(ctx context.Context, id string, status models.InspectionStatus, stampCompletion bool) error {
	query := `
		UPDATE inspections
		SET status = $2,
			completed_at = CASE WHEN $3 THEN NOW() ELSE completed_at END
		WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id, string(status), stampCompletion)
	if err != nil {
		return pgerr.Translate("update inspection status", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return pgerr.Translate("rows affected", err)
	}
	if n == 0 {
		return fmt.Errorf("inspection %s: %w", id, common.ErrorNotFound)
	}
	return nil
}

// Ping checks that the store answers queries.
func (r *PostgresRepository) Ping(ctx context.Context) error {
	var one int
	if err := r.db.QueryRowContext(ctx, `SELECT 1`).Scan(&one); err != nil {
		return pgerr.Translate("ping", err)
	}
	return nil
}
