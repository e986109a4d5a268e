package services

import (
	"github.com/dmitrijs2005/vistoria/internal/server/models"
	"github.com/dmitrijs2005/vistoria/internal/server/storage"
)

// hydrate attaches card rows and photos to their inspections in place.
// Grouping keeps the repository order, so cards and photos stay in insertion
// order. Every inspection and card gets a non-nil slice.
func hydrate(insps []*models.Inspection, cards []models.CardInspection, photos []models.Photo, store storage.Store) {
	photosByCard := make(map[int64][]models.Photo, len(cards))
	for _, p := range photos {
		p.URL = store.URL(p.FileName)
		photosByCard[p.CardInspectionID] = append(photosByCard[p.CardInspectionID], p)
	}

	cardsByInspection := make(map[string][]models.CardInspection, len(insps))
	for _, c := range cards {
		if ps, ok := photosByCard[c.ID]; ok {
			c.Photos = ps
		} else {
			c.Photos = []models.Photo{}
		}
		cardsByInspection[c.InspectionID] = append(cardsByInspection[c.InspectionID], c)
	}

	for _, insp := range insps {
		if cs, ok := cardsByInspection[insp.ID]; ok {
			insp.Cards = cs
		} else {
			insp.Cards = []models.CardInspection{}
		}
	}
}
