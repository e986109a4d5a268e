// Package cardinspections stores the per-card status and observation of an
// inspection.
package cardinspections

import (
	"context"
	"database/sql"

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

func (r *PostgresRepository) list(ctx context.Context, query string, arg string) ([]models.CardInspection, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, pgerr.Translate("select card inspections", err)
	}
	defer rows.Close()

	var result []models.CardInspection
	for rows.Next() {
		var (
			ci          models.CardInspection
			status, obs sql.NullString
		)
		if err := rows.Scan(&ci.ID, &ci.InspectionID, &ci.CardID, &status, &obs); err != nil {
			return nil, pgerr.Translate("scan card inspection", err)
		}
		if status.Valid {
			st := models.CardStatus(status.String)
			ci.Status = &st
		}
		if obs.Valid {
			o := obs.String
			ci.Observation = &o
		}
		ci.Photos = []models.Photo{}
		result = append(result, ci)
	}
	if err := rows.Err(); err != nil {
		return nil, pgerr.Translate("iterate card inspections", err)
	}
	return result, nil
}

// ListByInspection returns the card rows of one inspection in insertion order.
func (r *PostgresRepository) ListByInspection(ctx context.Context, inspectionID string) ([]models.CardInspection, error) {
	query := `
		SELECT id, inspection_id, card_id, status, observation
		FROM card_inspections
		WHERE inspection_id = $1
		ORDER BY id`
	return r.list(ctx, query, inspectionID)
}

// ListByCorretor returns the card rows of every inspection assigned to
// corretorID (all inspections when empty) in insertion order.
func (r *PostgresRepository) ListByCorretor(ctx context.Context, corretorID string) ([]models.CardInspection, error) {
	query := `
		SELECT ci.id, ci.inspection_id, ci.card_id, ci.status, ci.observation
		FROM card_inspections ci
		JOIN inspections i ON i.id = ci.inspection_id
		WHERE ($1 = '' OR i.corretor_id = $1)
		ORDER BY ci.id`
	return r.list(ctx, query, corretorID)
}

// Upsert creates or updates the row for (inspectionID, patch.CardID).
// On conflict only the fields flagged as set in patch are written; a set
// field with a nil value stores NULL.
func (r *PostgresRepository) Upsert(ctx context.Context, inspectionID string, patch models.CardPatch) error {
	query := `
		INSERT INTO card_inspections (inspection_id, card_id, status, observation)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (inspection_id, card_id) DO UPDATE SET
			status = CASE WHEN $5 THEN EXCLUDED.status ELSE card_inspections.status END,
			observation = CASE WHEN $6 THEN EXCLUDED.observation ELSE card_inspections.observation END`

	var status, obs any
	if patch.Status != nil {
		status = string(*patch.Status)
	}
	if patch.Observation != nil {
		obs = *patch.Observation
	}

	if _, err := r.db.ExecContext(ctx, query,
		inspectionID, patch.CardID, status, obs, patch.StatusSet, patch.ObservationSet); err != nil {
		return pgerr.Translate("upsert card inspection", err)
	}
	return nil
}

// GetOrCreate returns the id of the row for (inspectionID, cardID), inserting
// it with a null status and observation when absent.
func (r *PostgresRepository) GetOrCreate(ctx context.Context, inspectionID, cardID string) (int64, error) {
	query := `
		INSERT INTO card_inspections (inspection_id, card_id)
		VALUES ($1, $2)
		ON CONFLICT (inspection_id, card_id) DO UPDATE SET card_id = EXCLUDED.card_id
		RETURNING id`

	var id int64
	if err := r.db.QueryRowContext(ctx, query, inspectionID, cardID).Scan(&id); err != nil {
		return 0, pgerr.Translate("get or create card inspection", err)
	}
	return id, nil
}

// ListUnbackedDefects returns the card ids of inspectionID whose status
// requires a photo and which have none.
func (r *PostgresRepository) ListUnbackedDefects(ctx context.Context, inspectionID string) ([]string, error) {
	query := `
		SELECT ci.card_id
		FROM card_inspections ci
		WHERE ci.inspection_id = $1
			AND ci.status IN ('defect', 'non_compliant')
			AND NOT EXISTS (SELECT 1 FROM inspection_photos p WHERE p.card_inspection_id = ci.id)
		ORDER BY ci.card_id`

	rows, err := r.db.QueryContext(ctx, query, inspectionID)
	if err != nil {
		return nil, pgerr.Translate("select unbacked defects", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, pgerr.Translate("scan card id", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, pgerr.Translate("iterate card ids", err)
	}
	return ids, nil
}
