package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/vistoria/internal/dbx"
	"github.com/dmitrijs2005/vistoria/internal/logging"
	"github.com/dmitrijs2005/vistoria/internal/server/cache"
	"github.com/dmitrijs2005/vistoria/internal/server/models"
	"github.com/dmitrijs2005/vistoria/internal/server/repositories/repomanager"
)

const catalogCacheKey = "cards:catalog"

type cachedCard struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Icon  string `json:"icon"`
	Order int    `json:"order"`
}

// CatalogService lists the checklist card templates, optionally through a
// read-through cache. Cache failures are logged and never fail a request.
type CatalogService struct {
	db          dbx.DB
	repomanager repomanager.RepositoryManager
	cache       cache.KVStore
	ttl         time.Duration
	logger      logging.Logger
}

// NewCatalogService builds the service; kv may be nil to disable caching.
func NewCatalogService(db dbx.DB, repomanager repomanager.RepositoryManager, kv cache.KVStore, ttl time.Duration, logger logging.Logger) *CatalogService {
	return &CatalogService{
		db:          db,
		repomanager: repomanager,
		cache:       kv,
		ttl:         ttl,
		logger:      logger.With("module", "catalog"),
	}
}

// ListCards returns all templates ordered by sort order, then id.
func (s *CatalogService) ListCards(ctx context.Context) ([]models.CardTemplate, error) {
	if cards, ok := s.fromCache(ctx); ok {
		return cards, nil
	}

	cards, err := s.repomanager.Cards(s.db).List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}

	s.toCache(ctx, cards)
	return cards, nil
}

func (s *CatalogService) fromCache(ctx context.Context) ([]models.CardTemplate, bool) {
	if s.cache == nil {
		return nil, false
	}
	raw, err := s.cache.Get(ctx, catalogCacheKey)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn(ctx, "catalog cache read failed", "error", err)
		}
		return nil, false
	}

	var entries []cachedCard
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		s.logger.Warn(ctx, "catalog cache entry corrupt", "error", err)
		return nil, false
	}
	cards := make([]models.CardTemplate, 0, len(entries))
	for _, e := range entries {
		cards = append(cards, models.CardTemplate{ID: e.ID, Name: e.Name, Icon: e.Icon, Order: e.Order})
	}
	return cards, true
}

func (s *CatalogService) toCache(ctx context.Context, cards []models.CardTemplate) {
	if s.cache == nil {
		return
	}
	entries := make([]cachedCard, 0, len(cards))
	for _, c := range cards {
		entries = append(entries, cachedCard{ID: c.ID, Name: c.Name, Icon: c.Icon, Order: c.Order})
	}
	raw, err := json.Marshal(entries)
	if err != nil {
		s.logger.Warn(ctx, "catalog cache encode failed", "error", err)
		return
	}
	if err := s.cache.Set(ctx, catalogCacheKey, string(raw), s.ttl); err != nil {
		s.logger.Warn(ctx, "catalog cache write failed", "error", err)
	}
}
