// Package memory is an in-process RepositoryManager for service, REST and
// CLI tests; the server itself always runs on PostgreSQL. It enforces the same uniqueness and
// reference rules as the SQL schema. The dbx.DBTX arguments are ignored,
// so transactions do not roll back in-memory state.
package memory

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/vistoria/internal/common"
	"github.com/dmitrijs2005/vistoria/internal/dbx"
	"github.com/dmitrijs2005/vistoria/internal/server/models"
	"github.com/dmitrijs2005/vistoria/internal/server/repositories/cardinspections"
	"github.com/dmitrijs2005/vistoria/internal/server/repositories/cards"
	"github.com/dmitrijs2005/vistoria/internal/server/repositories/inspections"
	"github.com/dmitrijs2005/vistoria/internal/server/repositories/photos"
)

// DefaultCatalog mirrors the seed migration.
var DefaultCatalog = []models.CardTemplate{
	{ID: "1", Name: "Sala de Estar", Icon: "sofa", Order: 1},
	{ID: "2", Name: "Cozinha", Icon: "utensils", Order: 2},
	{ID: "3", Name: "Quarto 1", Icon: "bed-double", Order: 3},
	{ID: "4", Name: "Quarto 2", Icon: "bed-single", Order: 4},
	{ID: "5", Name: "Banheiro Social", Icon: "bath", Order: 5},
	{ID: "6", Name: "Suíte", Icon: "door-open", Order: 6},
	{ID: "7", Name: "Varanda", Icon: "sun", Order: 7},
	{ID: "8", Name: "Área de Serviço", Icon: "washing-machine", Order: 8},
}

// RepositoryManager keeps all tables in maps guarded by one mutex.
type RepositoryManager struct {
	mu sync.Mutex

	properties map[string]struct{}
	users      map[string]struct{}
	catalog    []models.CardTemplate

	inspections map[string]*models.Inspection
	cardRows    []*models.CardInspection // insertion order
	photoRows   []models.Photo
	nextCardID  int64

	// Now is used for created_at and completed_at.
	Now func() time.Time
	// Fail, when set, is returned by every repository call.
	Fail error
}

func NewRepositoryManager() *RepositoryManager {
	return &RepositoryManager{
		properties:  make(map[string]struct{}),
		users:       make(map[string]struct{}),
		catalog:     append([]models.CardTemplate(nil), DefaultCatalog...),
		inspections: make(map[string]*models.Inspection),
		Now:         time.Now,
	}
}

// AddProperty registers a property id as a valid reference.
func (m *RepositoryManager) AddProperty(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.properties[id] = struct{}{}
}

// AddUser registers an agent id as a valid reference.
func (m *RepositoryManager) AddUser(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[id] = struct{}{}
}

func (m *RepositoryManager) RunMigrations(context.Context, *sql.DB) error { return nil }

func (m *RepositoryManager) Cards(dbx.DBTX) cards.Repository { return (*cardRepo)(m) }

func (m *RepositoryManager) Inspections(dbx.DBTX) inspections.Repository {
	return (*inspectionRepo)(m)
}

func (m *RepositoryManager) CardInspections(dbx.DBTX) cardinspections.Repository {
	return (*cardInspectionRepo)(m)
}

func (m *RepositoryManager) Photos(dbx.DBTX) photos.Repository { return (*photoRepo)(m) }

func (m *RepositoryManager) hasCard(id string) bool {
	for _, c := range m.catalog {
		if c.ID == id {
			return true
		}
	}
	return false
}

func copyInspection(in *models.Inspection) *models.Inspection {
	out := *in
	if in.CompletedAt != nil {
		t := *in.CompletedAt
		out.CompletedAt = &t
	}
	out.Cards = nil
	return &out
}

type cardRepo RepositoryManager

func (r *cardRepo) List(context.Context) ([]models.CardTemplate, error) {
	m := (*RepositoryManager)(r)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return nil, m.Fail
	}
	out := append([]models.CardTemplate(nil), m.catalog...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

type inspectionRepo RepositoryManager

func (r *inspectionRepo) Create(_ context.Context, insp *models.Inspection) error {
	m := (*RepositoryManager)(r)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return m.Fail
	}
	if _, ok := m.properties[insp.PropertyID]; !ok {
		return fmt.Errorf("insert inspection: %w: property %s", common.ErrReferenceNotFound, insp.PropertyID)
	}
	if _, ok := m.users[insp.CorretorID]; !ok {
		return fmt.Errorf("insert inspection: %w: corretor %s", common.ErrReferenceNotFound, insp.CorretorID)
	}
	if len(insp.ScheduledTime) > 5 {
		insp.ScheduledTime = insp.ScheduledTime[:5]
	}
	insp.Status = models.StatusPending
	insp.CompletedAt = nil
	insp.CreatedAt = m.Now()
	m.inspections[insp.ID] = copyInspection(insp)
	return nil
}

func (r *inspectionRepo) Get(_ context.Context, id string) (*models.Inspection, error) {
	m := (*RepositoryManager)(r)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return nil, m.Fail
	}
	insp, ok := m.inspections[id]
	if !ok {
		return nil, fmt.Errorf("inspection %s: %w", id, common.ErrorNotFound)
	}
	return copyInspection(insp), nil
}

func (r *inspectionRepo) GetForUpdate(ctx context.Context, id string) (*models.Inspection, error) {
	return r.Get(ctx, id)
}

func (r *inspectionRepo) List(_ context.Context, corretorID string) ([]*models.Inspection, error) {
	m := (*RepositoryManager)(r)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return nil, m.Fail
	}
	out := make([]*models.Inspection, 0, len(m.inspections))
	for _, insp := range m.inspections {
		if corretorID == "" || insp.CorretorID == corretorID {
			out = append(out, copyInspection(insp))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ScheduledDate != out[j].ScheduledDate {
			return out[i].ScheduledDate > out[j].ScheduledDate
		}
		if out[i].ScheduledTime != out[j].ScheduledTime {
			return out[i].ScheduledTime > out[j].ScheduledTime
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *inspectionRepo) UpdateStatus(_ context.Context, id string, status models.InspectionStatus, stamp bool) error {
	m := (*RepositoryManager)(r)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return m.Fail
	}
	insp, ok := m.inspections[id]
	if !ok {
		return fmt.Errorf("inspection %s: %w", id, common.ErrorNotFound)
	}
	insp.Status = status
	if stamp {
		t := m.Now()
		insp.CompletedAt = &t
	}
	return nil
}

func (r *inspectionRepo) Ping(context.Context) error {
	return (*RepositoryManager)(r).Fail
}

type cardInspectionRepo RepositoryManager

func (r *cardInspectionRepo) list(match func(*models.CardInspection) bool) []models.CardInspection {
	m := (*RepositoryManager)(r)
	var out []models.CardInspection
	for _, row := range m.cardRows {
		if match(row) {
			c := *row
			c.Photos = []models.Photo{}
			out = append(out, c)
		}
	}
	return out
}

func (r *cardInspectionRepo) ListByInspection(_ context.Context, inspectionID string) ([]models.CardInspection, error) {
	m := (*RepositoryManager)(r)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return nil, m.Fail
	}
	return r.list(func(c *models.CardInspection) bool { return c.InspectionID == inspectionID }), nil
}

func (r *cardInspectionRepo) ListByCorretor(_ context.Context, corretorID string) ([]models.CardInspection, error) {
	m := (*RepositoryManager)(r)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return nil, m.Fail
	}
	return r.list(func(c *models.CardInspection) bool {
		insp, ok := m.inspections[c.InspectionID]
		return ok && (corretorID == "" || insp.CorretorID == corretorID)
	}), nil
}

// row returns the row for the pair, creating it when absent. Caller holds mu.
func (r *cardInspectionRepo) row(inspectionID, cardID string) (*models.CardInspection, error) {
	m := (*RepositoryManager)(r)
	if _, ok := m.inspections[inspectionID]; !ok {
		return nil, fmt.Errorf("%w: inspection %s", common.ErrReferenceNotFound, inspectionID)
	}
	if !m.hasCard(cardID) {
		return nil, fmt.Errorf("%w: card %s", common.ErrReferenceNotFound, cardID)
	}
	for _, row := range m.cardRows {
		if row.InspectionID == inspectionID && row.CardID == cardID {
			return row, nil
		}
	}
	m.nextCardID++
	row := &models.CardInspection{ID: m.nextCardID, InspectionID: inspectionID, CardID: cardID}
	m.cardRows = append(m.cardRows, row)
	return row, nil
}

func (r *cardInspectionRepo) Upsert(_ context.Context, inspectionID string, p models.CardPatch) error {
	m := (*RepositoryManager)(r)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return m.Fail
	}
	_, existed := r.find(inspectionID, p.CardID)
	row, err := r.row(inspectionID, p.CardID)
	if err != nil {
		return fmt.Errorf("upsert card inspection: %w", err)
	}
	if p.StatusSet || !existed {
		row.Status = copyPtr(p.Status)
	}
	if p.ObservationSet || !existed {
		row.Observation = copyPtr(p.Observation)
	}
	return nil
}

func (r *cardInspectionRepo) find(inspectionID, cardID string) (*models.CardInspection, bool) {
	for _, row := range (*RepositoryManager)(r).cardRows {
		if row.InspectionID == inspectionID && row.CardID == cardID {
			return row, true
		}
	}
	return nil, false
}

func (r *cardInspectionRepo) GetOrCreate(_ context.Context, inspectionID, cardID string) (int64, error) {
	m := (*RepositoryManager)(r)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return 0, m.Fail
	}
	row, err := r.row(inspectionID, cardID)
	if err != nil {
		return 0, fmt.Errorf("get or create card inspection: %w", err)
	}
	return row.ID, nil
}

func (r *cardInspectionRepo) ListUnbackedDefects(_ context.Context, inspectionID string) ([]string, error) {
	m := (*RepositoryManager)(r)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return nil, m.Fail
	}
	var ids []string
	for _, row := range m.cardRows {
		if row.InspectionID != inspectionID || row.Status == nil || !row.Status.NeedsPhoto() {
			continue
		}
		backed := false
		for _, p := range m.photoRows {
			if p.CardInspectionID == row.ID {
				backed = true
				break
			}
		}
		if !backed {
			ids = append(ids, row.CardID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

type photoRepo RepositoryManager

func (r *photoRepo) Create(_ context.Context, p *models.Photo) error {
	m := (*RepositoryManager)(r)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return m.Fail
	}
	found := false
	for _, row := range m.cardRows {
		if row.ID == p.CardInspectionID {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("insert photo: %w: card inspection %d", common.ErrReferenceNotFound, p.CardInspectionID)
	}
	p.CreatedAt = m.Now()
	m.photoRows = append(m.photoRows, *p)
	return nil
}

func (r *photoRepo) list(match func(ci *models.CardInspection) bool) []models.Photo {
	m := (*RepositoryManager)(r)
	owners := make(map[int64]bool, len(m.cardRows))
	for _, row := range m.cardRows {
		owners[row.ID] = match(row)
	}
	var out []models.Photo
	for _, p := range m.photoRows {
		if owners[p.CardInspectionID] {
			out = append(out, p)
		}
	}
	return out
}

func (r *photoRepo) ListByInspection(_ context.Context, inspectionID string) ([]models.Photo, error) {
	m := (*RepositoryManager)(r)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return nil, m.Fail
	}
	return r.list(func(ci *models.CardInspection) bool { return ci.InspectionID == inspectionID }), nil
}

func (r *photoRepo) ListByCorretor(_ context.Context, corretorID string) ([]models.Photo, error) {
	m := (*RepositoryManager)(r)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return nil, m.Fail
	}
	return r.list(func(ci *models.CardInspection) bool {
		insp, ok := m.inspections[ci.InspectionID]
		return ok && (corretorID == "" || insp.CorretorID == corretorID)
	}), nil
}

func copyPtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
