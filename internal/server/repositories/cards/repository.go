package cards

import (
	"context"

	"github.com/dmitrijs2005/vistoria/internal/server/models"
)

// Repository reads the checklist catalog.
type Repository interface {
	List(ctx context.Context) ([]models.CardTemplate, error)
}
