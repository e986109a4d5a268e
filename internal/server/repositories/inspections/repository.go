package inspections

import (
	"context"

	"github.com/dmitrijs2005/vistoria/internal/server/models"
)

// Repository persists inspection rows. Returned inspections are not hydrated:
// Cards is always nil.
type Repository interface {
	Create(ctx context.Context, insp *models.Inspection) error
	Get(ctx context.Context, id string) (*models.Inspection, error)
	GetForUpdate(ctx context.Context, id string) (*models.Inspection, error)
	List(ctx context.Context, corretorID string) ([]*models.Inspection, error)
	UpdateStatus(ctx context.Context, id string, status models.InspectionStatus, stampCompletion bool) error
	Ping(ctx context.Context) error
}
