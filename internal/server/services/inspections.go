package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/vistoria/internal/common"
	"github.com/dmitrijs2005/vistoria/internal/dbx"
	"github.com/dmitrijs2005/vistoria/internal/logging"
	sc "github.com/dmitrijs2005/vistoria/internal/server/config"
	"github.com/dmitrijs2005/vistoria/internal/server/models"
	"github.com/dmitrijs2005/vistoria/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/vistoria/internal/server/storage"
)

// readTx gives the three hydration queries one consistent snapshot.
var readTx = &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}

// InspectionService creates, reads and patches the inspection aggregate.
type InspectionService struct {
	db          dbx.DB
	repomanager repomanager.RepositoryManager
	store       storage.Store
	logger      logging.Logger

	mergePatches  bool
	enforcePhotos bool
	newID         func() string
}

func NewInspectionService(db dbx.DB, repomanager repomanager.RepositoryManager, store storage.Store, config *sc.Config, logger logging.Logger) *InspectionService {
	return &InspectionService{
		db:            db,
		repomanager:   repomanager,
		store:         store,
		logger:        logger.With("module", "inspections"),
		mergePatches:  config.CardPatchPolicy == sc.PatchPolicyMerge,
		enforcePhotos: config.EnforcePhotoInvariant,
		newID:         uuid.NewString,
	}
}

func validateNew(in models.NewInspection) (models.NewInspection, error) {
	in.PropertyID = strings.TrimSpace(in.PropertyID)
	in.CorretorID = strings.TrimSpace(in.CorretorID)
	in.ScheduledDate = strings.TrimSpace(in.ScheduledDate)
	in.ScheduledTime = strings.TrimSpace(in.ScheduledTime)

	var missing []string
	if in.PropertyID == "" {
		missing = append(missing, "property_id")
	}
	if in.CorretorID == "" {
		missing = append(missing, "corretor_id")
	}
	if in.ScheduledDate == "" {
		missing = append(missing, "scheduled_date")
	}
	if in.ScheduledTime == "" {
		missing = append(missing, "scheduled_time")
	}
	if len(missing) > 0 {
		return in, common.Validationf("missing required fields: %s", strings.Join(missing, ", "))
	}

	if _, err := time.Parse(time.DateOnly, in.ScheduledDate); err != nil {
		return in, common.Validationf("scheduled_date must be YYYY-MM-DD")
	}
	if _, err := time.Parse("15:04", in.ScheduledTime); err != nil {
		if _, err := time.Parse(time.TimeOnly, in.ScheduledTime); err != nil {
			return in, common.Validationf("scheduled_time must be HH:MM")
		}
	}
	return in, nil
}

// Create schedules a new pending inspection with no cards.
func (s *InspectionService) Create(ctx context.Context, in models.NewInspection) (*models.Inspection, error) {
	in, err := validateNew(in)
	if err != nil {
		return nil, err
	}

	insp := &models.Inspection{
		ID:            s.newID(),
		PropertyID:    in.PropertyID,
		CorretorID:    in.CorretorID,
		ScheduledDate: in.ScheduledDate,
		ScheduledTime: in.ScheduledTime,
	}
	if err := s.repomanager.Inspections(s.db).Create(ctx, insp); err != nil {
		return nil, fmt.Errorf("create inspection: %w", err)
	}
	insp.Cards = []models.CardInspection{}

	s.logger.Info(ctx, "inspection created", "inspection_id", insp.ID, "property_id", insp.PropertyID, "corretor_id", insp.CorretorID)
	return insp, nil
}

// Get returns the hydrated inspection or common.ErrorNotFound.
func (s *InspectionService) Get(ctx context.Context, id string) (*models.Inspection, error) {
	if id == "" {
		return nil, common.Validationf("id is required")
	}

	var insp *models.Inspection
	err := dbx.WithTx(ctx, s.db, readTx, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		insp, err = s.repomanager.Inspections(tx).Get(ctx, id)
		if err != nil {
			return err
		}
		cards, err := s.repomanager.CardInspections(tx).ListByInspection(ctx, id)
		if err != nil {
			return err
		}
		photos, err := s.repomanager.Photos(tx).ListByInspection(ctx, id)
		if err != nil {
			return err
		}
		hydrate([]*models.Inspection{insp}, cards, photos, s.store)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("get inspection: %w", err)
	}
	return insp, nil
}

// List returns the hydrated inspections of corretorID (all when empty),
// most recently scheduled first. It runs three queries whatever the count.
func (s *InspectionService) List(ctx context.Context, corretorID string) ([]*models.Inspection, error) {
	var insps []*models.Inspection
	err := dbx.WithTx(ctx, s.db, readTx, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		insps, err = s.repomanager.Inspections(tx).List(ctx, corretorID)
		if err != nil {
			return err
		}
		if len(insps) == 0 {
			return nil
		}
		cards, err := s.repomanager.CardInspections(tx).ListByCorretor(ctx, corretorID)
		if err != nil {
			return err
		}
		photos, err := s.repomanager.Photos(tx).ListByCorretor(ctx, corretorID)
		if err != nil {
			return err
		}
		hydrate(insps, cards, photos, s.store)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list inspections: %w", err)
	}
	if insps == nil {
		insps = []*models.Inspection{}
	}
	return insps, nil
}

// nextStatus resolves the status an inspection in state cur moves to under p.
// The second result reports whether the status column must be written.
func nextStatus(cur models.InspectionStatus, p models.InspectionPatch) (models.InspectionStatus, bool) {
	if p.Status != nil {
		return *p.Status, true
	}
	if len(p.Cards) > 0 && cur == models.StatusPending {
		return models.StatusInProgress, true
	}
	return cur, false
}

// Update applies p atomically: the inspection row is locked, card patches
// are upserted and the status is written with completed_at stamped when the
// target is completed. It returns the re-hydrated inspection.
func (s *InspectionService) Update(ctx context.Context, p models.InspectionPatch) (*models.Inspection, error) {
	if p.ID == "" {
		return nil, common.Validationf("id is required")
	}
	for _, c := range p.Cards {
		if strings.TrimSpace(c.CardID) == "" {
			return nil, common.Validationf("cardId is required for every card")
		}
		if c.Status != nil && !c.Status.Valid() {
			return nil, common.Validationf("invalid card status %q", *c.Status)
		}
	}
	if p.Status != nil && !p.Status.Valid() {
		return nil, common.Validationf("invalid status %q", *p.Status)
	}

	var from, to models.InspectionStatus
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		inspRepo := s.repomanager.Inspections(tx)
		cardRepo := s.repomanager.CardInspections(tx)

		cur, err := inspRepo.GetForUpdate(ctx, p.ID)
		if err != nil {
			return err
		}
		from = cur.Status

		target, write := nextStatus(cur.Status, p)
		to = target
		if write {
			if err := models.CheckTransition(cur.Status, target); err != nil {
				return err
			}
		}

		for _, c := range p.Cards {
			if !s.mergePatches {
				c.StatusSet = true
				c.ObservationSet = true
			}
			if err := cardRepo.Upsert(ctx, p.ID, c); err != nil {
				return err
			}
		}

		if target == models.StatusCompleted && write && s.enforcePhotos {
			ids, err := cardRepo.ListUnbackedDefects(ctx, p.ID)
			if err != nil {
				return err
			}
			if len(ids) > 0 {
				return common.Errorf(common.ErrInvariantViolation, "cards %s need at least one photo", strings.Join(ids, ", "))
			}
		}

		if write {
			if err := inspRepo.UpdateStatus(ctx, p.ID, target, target == models.StatusCompleted); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update inspection %s: %w", p.ID, err)
	}

	s.logger.Info(ctx, "inspection updated", "inspection_id", p.ID, "from", from, "to", to, "cards", len(p.Cards))
	return s.Get(ctx, p.ID)
}

// Ping reports whether the store is reachable.
func (s *InspectionService) Ping(ctx context.Context) error {
	return s.repomanager.Inspections(s.db).Ping(ctx)
}
