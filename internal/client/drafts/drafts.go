// Package drafts keeps card edits that could not be flushed to the server
// in a local SQLite database, so a later sync can replay them.
package drafts

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/dmitrijs2005/vistoria/internal/client/drafts/migrations"
	"github.com/dmitrijs2005/vistoria/internal/client/models"
	"github.com/dmitrijs2005/vistoria/internal/dbx"
)

// Repository stores pending card patches per inspection.
type Repository interface {
	// Save upserts patches; a later save of the same card replaces it.
	Save(ctx context.Context, inspectionID string, patches []models.CardPatch) error
	List(ctx context.Context, inspectionID string) ([]models.CardPatch, error)
	// Delete removes the given cards, or every draft of the inspection when none are given.
	Delete(ctx context.Context, inspectionID string, cardIDs ...string) error
	Inspections(ctx context.Context) ([]string, error)
}

func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("migrate drafts: %w", err)
	}
	return nil
}

// Open opens (creating if needed) the drafts database at dsn and migrates it.
func Open(ctx context.Context, dsn string) (*sql.DB, *SQLiteRepository, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("open drafts db: %w", err)
	}
	// one connection keeps :memory: databases shared
	db.SetMaxOpenConns(1)

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return db, NewSQLiteRepository(db), nil
}

type SQLiteRepository struct {
	db dbx.DB
}

func NewSQLiteRepository(db dbx.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Save(ctx context.Context, inspectionID string, patches []models.CardPatch) error {
	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		for _, p := range patches {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO card_drafts (inspection_id, card_id, status, observation, updated_at)
				VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
				ON CONFLICT(inspection_id, card_id) DO UPDATE SET
					status = excluded.status,
					observation = excluded.observation,
					updated_at = excluded.updated_at
			`, inspectionID, p.CardID, nullString(p.Status), nullString(p.Observation))
			if err != nil {
				return fmt.Errorf("failed to save draft[%s/%s]: %w", inspectionID, p.CardID, err)
			}
		}
		return nil
	})
}

func (r *SQLiteRepository) List(ctx context.Context, inspectionID string) ([]models.CardPatch, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT card_id, status, observation FROM card_drafts
		WHERE inspection_id = ? ORDER BY card_id`, inspectionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list drafts: %w", err)
	}
	defer rows.Close()

	var out []models.CardPatch
	for rows.Next() {
		var (
			p                   models.CardPatch
			status, observation sql.NullString
		)
		if err := rows.Scan(&p.CardID, &status, &observation); err != nil {
			return nil, fmt.Errorf("failed to scan draft row: %w", err)
		}
		if status.Valid {
			p.Status = &status.String
		}
		if observation.Valid {
			p.Observation = &observation.String
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate draft rows: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, inspectionID string, cardIDs ...string) error {
	if len(cardIDs) == 0 {
		if _, err := r.db.ExecContext(ctx, `DELETE FROM card_drafts WHERE inspection_id = ?`, inspectionID); err != nil {
			return fmt.Errorf("failed to delete drafts[%s]: %w", inspectionID, err)
		}
		return nil
	}
	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		for _, id := range cardIDs {
			if _, err := tx.ExecContext(ctx, `DELETE FROM card_drafts WHERE inspection_id = ? AND card_id = ?`, inspectionID, id); err != nil {
				return fmt.Errorf("failed to delete draft[%s/%s]: %w", inspectionID, id, err)
			}
		}
		return nil
	})
}

func (r *SQLiteRepository) Inspections(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT inspection_id FROM card_drafts ORDER BY inspection_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list draft inspections: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan draft inspection: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate draft inspections: %w", err)
	}
	return ids, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
