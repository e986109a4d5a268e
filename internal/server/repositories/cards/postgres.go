// Package cards is the read-only store of checklist card templates.
package cards

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

// List returns every template ordered by sort_order, then id.
func (r *PostgresRepository) List(ctx context.Context) ([]models.CardTemplate, error) {
	query := `SELECT id, name, icon, sort_order FROM inspection_cards ORDER BY sort_order ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, pgerr.Translate("select cards", err)
	}
	defer rows.Close()

	result := make([]models.CardTemplate, 0, 8)
	for rows.Next() {
		var c models.CardTemplate
		if err := rows.Scan(&c.ID, &c.Name, &c.Icon, &c.Order); err != nil {
			return nil, pgerr.Translate("scan card", err)
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, pgerr.Translate("iterate cards", err)
	}
	return result, nil
}
