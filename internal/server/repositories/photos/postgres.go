// Package photos stores metadata of photos attached to card inspections.
package photos

import (
	"context"

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

// Create inserts p and fills CreatedAt.
func (r *PostgresRepository) Create(ctx context.Context, p *models.Photo) error {
	query := `
		INSERT INTO inspection_photos (id, card_inspection_id, file_name, file_size, mime_type)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`

	if err := r.db.QueryRowContext(ctx, query, p.ID, p.CardInspectionID, p.FileName, p.FileSize, p.MimeType).
		Scan(&p.CreatedAt); err != nil {
		return pgerr.Translate("insert photo", err)
	}
	return nil
}

func (r *PostgresRepository) list(ctx context.Context, query, arg string) ([]models.Photo, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, pgerr.Translate("select photos", err)
	}
	defer rows.Close()

	var result []models.Photo
	for rows.Next() {
		var p models.Photo
		if err := rows.Scan(&p.ID, &p.CardInspectionID, &p.FileName, &p.FileSize, &p.MimeType, &p.CreatedAt); err != nil {
			return nil, pgerr.Translate("scan photo", err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, pgerr.Translate("iterate photos", err)
	}
	return result, nil
}

// ListByInspection returns the photos of every card of one inspection,
// oldest first.
func (r *PostgresRepository) ListByInspection(ctx context.Context, inspectionID string) ([]models.Photo, error) {
	query := `
		SELECT p.id, p.card_inspection_id, p.file_name, p.file_size, p.mime_type, p.created_at
		FROM inspection_photos p
		JOIN card_inspections ci ON ci.id = p.card_inspection_id
		WHERE ci.inspection_id = $1
		ORDER BY p.created_at, p.id`
	return r.list(ctx, query, inspectionID)
}

// ListByCorretor returns the photos of every inspection assigned to
// corretorID (all inspections when empty), oldest first.
func (r *PostgresRepository) ListByCorretor(ctx context.Context, corretorID string) ([]models.Photo, error) {
	query := `
		SELECT p.id, p.card_inspection_id, p.file_name, p.file_size, p.mime_type, p.created_at
		FROM inspection_photos p
		JOIN card_inspections ci ON ci.id = p.card_inspection_id
		JOIN inspections i ON i.id = ci.inspection_id
		WHERE ($1 = '' OR i.corretor_id = $1)
		ORDER BY p.created_at, p.id`
	return r.list(ctx, query, corretorID)
}
