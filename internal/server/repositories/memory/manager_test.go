package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/vistoria/internal/common"
	"github.com/dmitrijs2005/vistoria/internal/server/models"
	"github.com/dmitrijs2005/vistoria/internal/server/repositories/repomanager"
)

var _ repomanager.RepositoryManager = (*RepositoryManager)(nil)

func ptr[T any](v T) *T { return &v }

func seeded(t *testing.T) (*RepositoryManager, context.Context) {
	t.Helper()
	m := NewRepositoryManager()
	m.AddProperty("p1")
	m.AddUser("a1")
	m.AddUser("a2")
	return m, context.Background()
}

func TestInspections_CreateChecksReferences(t *testing.T) {
	m, ctx := seeded(t)
	repo := m.Inspections(nil)

	err := repo.Create(ctx, &models.Inspection{ID: "x", PropertyID: "nope", CorretorID: "a1"})
	assert.ErrorIs(t, err, common.ErrReferenceNotFound)

	insp := &models.Inspection{ID: "i1", PropertyID: "p1", CorretorID: "a1", ScheduledDate: "2024-12-15", ScheduledTime: "09:00:00"}
	require.NoError(t, repo.Create(ctx, insp))
	assert.Equal(t, "09:00", insp.ScheduledTime)
	assert.Equal(t, models.StatusPending, insp.Status)
}

func TestInspections_ListOrderAndFilter(t *testing.T) {
	m, ctx := seeded(t)
	repo := m.Inspections(nil)

	for _, in := range []models.Inspection{
		{ID: "old", PropertyID: "p1", CorretorID: "a1", ScheduledDate: "2024-12-01", ScheduledTime: "09:00"},
		{ID: "late", PropertyID: "p1", CorretorID: "a1", ScheduledDate: "2024-12-15", ScheduledTime: "16:00"},
		{ID: "early", PropertyID: "p1", CorretorID: "a1", ScheduledDate: "2024-12-15", ScheduledTime: "08:00"},
		{ID: "other", PropertyID: "p1", CorretorID: "a2", ScheduledDate: "2025-01-01", ScheduledTime: "08:00"},
	} {
		in := in
		require.NoError(t, repo.Create(ctx, &in))
	}

	got, err := repo.List(ctx, "a1")
	require.NoError(t, err)
	var ids []string
	for _, i := range got {
		ids = append(ids, i.ID)
	}
	assert.Equal(t, []string{"late", "early", "old"}, ids)

	all, err := repo.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 4)
	assert.Equal(t, "other", all[0].ID)
}

func TestCardInspections_UpsertPolicies(t *testing.T) {
	m, ctx := seeded(t)
	require.NoError(t, m.Inspections(nil).Create(ctx, &models.Inspection{ID: "i1", PropertyID: "p1", CorretorID: "a1"}))
	repo := m.CardInspections(nil)

	require.NoError(t, repo.Upsert(ctx, "i1", models.CardPatch{
		CardID: "1", Status: ptr(models.CardDefect), StatusSet: true, Observation: ptr("trinca"), ObservationSet: true,
	}))
	// merge: only status is present
	require.NoError(t, repo.Upsert(ctx, "i1", models.CardPatch{CardID: "1", Status: ptr(models.CardOK), StatusSet: true}))

	rows, err := repo.ListByInspection(ctx, "i1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, models.CardOK, *rows[0].Status)
	require.NotNil(t, rows[0].Observation)
	assert.Equal(t, "trinca", *rows[0].Observation)

	// overwrite: absent observation becomes null
	require.NoError(t, repo.Upsert(ctx, "i1", models.CardPatch{CardID: "1", Status: ptr(models.CardOK), StatusSet: true, ObservationSet: true}))
	rows, err = repo.ListByInspection(ctx, "i1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0].Observation)

	assert.ErrorIs(t, repo.Upsert(ctx, "i1", models.CardPatch{CardID: "99"}), common.ErrReferenceNotFound)
	assert.ErrorIs(t, repo.Upsert(ctx, "missing", models.CardPatch{CardID: "1"}), common.ErrReferenceNotFound)
}

func TestGetOrCreateAndUnbackedDefects(t *testing.T) {
	m, ctx := seeded(t)
	fixed := time.Date(2024, 12, 15, 10, 0, 0, 0, time.UTC)
	m.Now = func() time.Time { return fixed }
	require.NoError(t, m.Inspections(nil).Create(ctx, &models.Inspection{ID: "i1", PropertyID: "p1", CorretorID: "a1"}))
	cards := m.CardInspections(nil)

	id1, err := cards.GetOrCreate(ctx, "i1", "2")
	require.NoError(t, err)
	id2, err := cards.GetOrCreate(ctx, "i1", "2")
	require.NoError(t, err)
	assert.Equal(t, id1, id2)

	require.NoError(t, cards.Upsert(ctx, "i1", models.CardPatch{CardID: "2", Status: ptr(models.CardDefect), StatusSet: true}))
	require.NoError(t, cards.Upsert(ctx, "i1", models.CardPatch{CardID: "3", Status: ptr(models.CardNonCompliant), StatusSet: true}))

	ids, err := cards.ListUnbackedDefects(ctx, "i1")
	require.NoError(t, err)
	assert.Equal(t, []string{"2", "3"}, ids)

	require.NoError(t, m.Photos(nil).Create(ctx, &models.Photo{ID: "ph1", CardInspectionID: id1, FileName: "a.jpg"}))
	ids, err = cards.ListUnbackedDefects(ctx, "i1")
	require.NoError(t, err)
	assert.Equal(t, []string{"3"}, ids)

	photos, err := m.Photos(nil).ListByCorretor(ctx, "a1")
	require.NoError(t, err)
	require.Len(t, photos, 1)
	assert.Equal(t, fixed, photos[0].CreatedAt)

	err = m.Photos(nil).Create(ctx, &models.Photo{ID: "ph2", CardInspectionID: 999})
	assert.ErrorIs(t, err, common.ErrReferenceNotFound)
}

func TestFailInjected(t *testing.T) {
	m, ctx := seeded(t)
	m.Fail = common.ErrStoreUnavailable

	_, err := m.Cards(nil).List(ctx)
	assert.ErrorIs(t, err, common.ErrStoreUnavailable)
	assert.ErrorIs(t, m.Inspections(nil).Ping(ctx), common.ErrStoreUnavailable)
}
