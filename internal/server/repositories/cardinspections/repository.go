package cardinspections

import (
	"context"

	"github.com/dmitrijs2005/vistoria/internal/server/models"
)

// Repository persists per-(inspection, card) observations. Rows are unique
// per pair; writes are upserts.
type Repository interface {
	ListByInspection(ctx context.Context, inspectionID string) ([]models.CardInspection, error)
	ListByCorretor(ctx context.Context, corretorID string) ([]models.CardInspection, error)
	Upsert(ctx context.Context, inspectionID string, patch models.CardPatch) error
	GetOrCreate(ctx context.Context, inspectionID, cardID string) (int64, error)
	ListUnbackedDefects(ctx context.Context, inspectionID string) ([]string, error)
}
