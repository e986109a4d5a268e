package photos

import (
	"context"

	"github.com/dmitrijs2005/vistoria/internal/server/models"
)

// Repository persists photo metadata. URLs are never stored.
type Repository interface {
	Create(ctx context.Context, p *models.Photo) error
	ListByInspection(ctx context.Context, inspectionID string) ([]models.Photo, error)
	ListByCorretor(ctx context.Context, corretorID string) ([]models.Photo, error)
}
