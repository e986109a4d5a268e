package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/vistoria/internal/common"
	"github.com/dmitrijs2005/vistoria/internal/dbx"
	sc "github.com/dmitrijs2005/vistoria/internal/server/config"
	"github.com/dmitrijs2005/vistoria/internal/server/models"
	"github.com/dmitrijs2005/vistoria/internal/server/repositories/cardinspections"
	"github.com/dmitrijs2005/vistoria/internal/server/repositories/memory"
)

func newInspection(t *testing.T, svc *InspectionService) *models.Inspection {
	t.Helper()
	insp, err := svc.Create(context.Background(), models.NewInspection{
		PropertyID:    "p1",
		CorretorID:    "a1",
		ScheduledDate: "2024-12-15",
		ScheduledTime: "10:00",
	})
	require.NoError(t, err)
	return insp
}

func TestCreate_Pending(t *testing.T) {
	f := newFixture(t)
	svc := f.inspections()

	insp := newInspection(t, svc)
	assert.NotEmpty(t, insp.ID)
	assert.Equal(t, models.StatusPending, insp.Status)
	assert.Nil(t, insp.CompletedAt)
	assert.NotNil(t, insp.Cards)
	assert.Empty(t, insp.Cards)

	got, err := svc.Get(context.Background(), insp.ID)
	require.NoError(t, err)
	assert.Equal(t, "2024-12-15", got.ScheduledDate)
	assert.Equal(t, "10:00", got.ScheduledTime)
	assert.Empty(t, got.Cards)
}

func TestCreate_Validation(t *testing.T) {
	f := newFixture(t)
	svc := f.inspections()

	tests := []struct {
		name string
		in   models.NewInspection
		msg  string
	}{
		{"missing all", models.NewInspection{}, "property_id, corretor_id, scheduled_date, scheduled_time"},
		{"blank corretor", models.NewInspection{PropertyID: "p1", CorretorID: "  ", ScheduledDate: "2024-12-15", ScheduledTime: "10:00"}, "corretor_id"},
		{"bad date", models.NewInspection{PropertyID: "p1", CorretorID: "a1", ScheduledDate: "15/12/2024", ScheduledTime: "10:00"}, "scheduled_date"},
		{"bad time", models.NewInspection{PropertyID: "p1", CorretorID: "a1", ScheduledDate: "2024-12-15", ScheduledTime: "25:00"}, "scheduled_time"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tt.in)
			require.ErrorIs(t, err, common.ErrValidation)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestCreate_AcceptsSeconds(t *testing.T) {
	f := newFixture(t)
	insp, err := f.inspections().Create(context.Background(), models.NewInspection{
		PropertyID: "p1", CorretorID: "a1", ScheduledDate: "2024-12-15", ScheduledTime: "10:00:00",
	})
	require.NoError(t, err)
	assert.Equal(t, "10:00", insp.ScheduledTime)
}

func TestCreate_UnknownReferences(t *testing.T) {
	f := newFixture(t)
	svc := f.inspections()

	_, err := svc.Create(context.Background(), models.NewInspection{
		PropertyID: "nope", CorretorID: "a1", ScheduledDate: "2024-12-15", ScheduledTime: "10:00",
	})
	assert.ErrorIs(t, err, common.ErrReferenceNotFound)

	_, err = svc.Create(context.Background(), models.NewInspection{
		PropertyID: "p1", CorretorID: "ghost", ScheduledDate: "2024-12-15", ScheduledTime: "10:00",
	})
	assert.ErrorIs(t, err, common.ErrReferenceNotFound)
}

func TestGet_NotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.inspections().Get(context.Background(), "00000000-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	_, err = f.inspections().Get(context.Background(), "")
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestUpdate_ImplicitStart(t *testing.T) {
	f := newFixture(t)
	svc := f.inspections()
	insp := newInspection(t, svc)

	got, err := svc.Update(context.Background(), models.InspectionPatch{
		ID:    insp.ID,
		Cards: []models.CardPatch{{CardID: "1", Status: ptr(models.CardOK)}},
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, got.Status)
	require.Len(t, got.Cards, 1)
	assert.Equal(t, models.CardOK, *got.Cards[0].Status)
	assert.Nil(t, got.Cards[0].Observation)
}

func TestUpdate_NoCardsKeepsStatus(t *testing.T) {
	f := newFixture(t)
	svc := f.inspections()
	insp := newInspection(t, svc)

	got, err := svc.Update(context.Background(), models.InspectionPatch{ID: insp.ID})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, got.Status)
}

func TestUpdate_CompleteStampsCompletedAt(t *testing.T) {
	f := newFixture(t)
	first := time.Date(2024, 12, 15, 11, 0, 0, 0, time.UTC)
	f.rm.Now = func() time.Time { return first }
	svc := f.inspections()
	insp := newInspection(t, svc)

	got, err := svc.Update(context.Background(), models.InspectionPatch{
		ID:     insp.ID,
		Status: status(models.StatusCompleted),
		Cards: []models.CardPatch{
			{CardID: "1", Status: ptr(models.CardOK)},
			{CardID: "2", Status: ptr(models.CardOK), Observation: ptr("Tudo certo")},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, got.Status)
	require.NotNil(t, got.CompletedAt)
	assert.True(t, got.CompletedAt.Equal(first))
	require.Len(t, got.Cards, 2)
	assert.Equal(t, "Tudo certo", *findCard(got, "2").Observation)

	second := first.Add(time.Hour)
	f.rm.Now = func() time.Time { return second }
	got, err = svc.Update(context.Background(), models.InspectionPatch{ID: insp.ID, Status: status(models.StatusCompleted)})
	require.NoError(t, err)
	assert.True(t, got.CompletedAt.Equal(second), "completing again restamps completed_at")
}

func TestUpdate_UpsertIsIdempotent(t *testing.T) {
	f := newFixture(t)
	svc := f.inspections()
	insp := newInspection(t, svc)
	patch := models.InspectionPatch{
		ID:    insp.ID,
		Cards: []models.CardPatch{{CardID: "3", Status: ptr(models.CardDefect), Observation: ptr("Mancha")}},
	}

	_, err := svc.Update(context.Background(), patch)
	require.NoError(t, err)
	got, err := svc.Update(context.Background(), patch)
	require.NoError(t, err)

	require.Len(t, got.Cards, 1)
	assert.Equal(t, models.CardDefect, *got.Cards[0].Status)
	assert.Equal(t, "Mancha", *got.Cards[0].Observation)
}

func TestUpdate_PatchPolicy(t *testing.T) {
	tests := []struct {
		name        string
		policy      string
		wantStatus  *models.CardStatus
		wantObserve *string
	}{
		{"overwrite clears omitted fields", sc.PatchPolicyOverwrite, ptr(models.CardDefect), nil},
		{"merge keeps omitted fields", sc.PatchPolicyMerge, ptr(models.CardDefect), ptr("Parede trincada")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.cfg.CardPatchPolicy = tt.policy
			svc := f.inspections()
			insp := newInspection(t, svc)
			ctx := context.Background()

			_, err := svc.Update(ctx, models.InspectionPatch{ID: insp.ID, Cards: []models.CardPatch{{
				CardID: "1", Status: ptr(models.CardOK), StatusSet: true,
				Observation: ptr("Parede trincada"), ObservationSet: true,
			}}})
			require.NoError(t, err)

			got, err := svc.Update(ctx, models.InspectionPatch{ID: insp.ID, Cards: []models.CardPatch{{
				CardID: "1", Status: ptr(models.CardDefect), StatusSet: true,
			}}})
			require.NoError(t, err)

			card := findCard(got, "1")
			require.NotNil(t, card)
			assert.Equal(t, tt.wantStatus, card.Status)
			assert.Equal(t, tt.wantObserve, card.Observation)
		})
	}
}

func TestUpdate_InvalidTransition(t *testing.T) {
	f := newFixture(t)
	svc := f.inspections()
	insp := newInspection(t, svc)
	ctx := context.Background()

	_, err := svc.Update(ctx, models.InspectionPatch{ID: insp.ID, Status: status(models.StatusApproved)})
	require.ErrorIs(t, err, common.ErrInvalidTransition)
	assert.ErrorIs(t, err, common.ErrValidation)

	_, err = svc.Update(ctx, models.InspectionPatch{ID: insp.ID, Status: status(models.StatusCompleted)})
	require.NoError(t, err)

	_, err = svc.Update(ctx, models.InspectionPatch{ID: insp.ID, Status: status(models.StatusInProgress)})
	assert.ErrorIs(t, err, common.ErrInvalidTransition)

	got, err := svc.Update(ctx, models.InspectionPatch{ID: insp.ID, Status: status(models.StatusApproved)})
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, got.Status)
}

func TestUpdate_Validation(t *testing.T) {
	f := newFixture(t)
	svc := f.inspections()
	insp := newInspection(t, svc)

	tests := []struct {
		name  string
		patch models.InspectionPatch
	}{
		{"missing id", models.InspectionPatch{}},
		{"bad status", models.InspectionPatch{ID: insp.ID, Status: status("archived")}},
		{"missing card id", models.InspectionPatch{ID: insp.ID, Cards: []models.CardPatch{{CardID: " "}}}},
		{"bad card status", models.InspectionPatch{ID: insp.ID, Cards: []models.CardPatch{{CardID: "1", Status: ptr(models.CardStatus("broken"))}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Update(context.Background(), tt.patch)
			assert.ErrorIs(t, err, common.ErrValidation)
		})
	}
}

func TestUpdate_UnknownInspectionAndCard(t *testing.T) {
	f := newFixture(t)
	svc := f.inspections()
	insp := newInspection(t, svc)

	_, err := svc.Update(context.Background(), models.InspectionPatch{ID: "missing", Status: status(models.StatusCompleted)})
	assert.ErrorIs(t, err, common.ErrorNotFound)

	_, err = svc.Update(context.Background(), models.InspectionPatch{ID: insp.ID, Cards: []models.CardPatch{{CardID: "99"}}})
	assert.ErrorIs(t, err, common.ErrReferenceNotFound)
}

func TestUpdate_DefectWithoutPhoto(t *testing.T) {
	patch := func(id string) models.InspectionPatch {
		return models.InspectionPatch{
			ID:     id,
			Status: status(models.StatusCompleted),
			Cards:  []models.CardPatch{{CardID: "4", Status: ptr(models.CardDefect)}},
		}
	}

	t.Run("accepted by default", func(t *testing.T) {
		f := newFixture(t)
		svc := f.inspections()
		insp := newInspection(t, svc)

		got, err := svc.Update(context.Background(), patch(insp.ID))
		require.NoError(t, err)
		assert.Equal(t, models.StatusCompleted, got.Status)
	})

	t.Run("rejected when enforced", func(t *testing.T) {
		f := newFixture(t)
		f.cfg.EnforcePhotoInvariant = true
		svc := f.inspections()
		insp := newInspection(t, svc)

		_, err := svc.Update(context.Background(), patch(insp.ID))
		require.ErrorIs(t, err, common.ErrInvariantViolation)
		var pub *common.PublicError
		require.True(t, errors.As(err, &pub))
		assert.Contains(t, pub.Message, "4")

		got, err := svc.Get(context.Background(), insp.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusPending, got.Status)
		assert.Nil(t, got.CompletedAt)
	})

	t.Run("accepted when enforced and photographed", func(t *testing.T) {
		f := newFixture(t)
		f.cfg.EnforcePhotoInvariant = true
		svc := f.inspections()
		insp := newInspection(t, svc)

		_, err := f.photos().Upload(context.Background(), models.PhotoUpload{
			InspectionID: insp.ID, CardID: "4", FileName: "a.jpg", MimeType: "image/jpeg", Size: 3,
		}, bytesReader("abc"))
		require.NoError(t, err)

		got, err := svc.Update(context.Background(), patch(insp.ID))
		require.NoError(t, err)
		assert.Equal(t, models.StatusCompleted, got.Status)
		require.Len(t, findCard(got, "4").Photos, 1)
	})
}

func TestList_OrderingAndHydration(t *testing.T) {
	f := newFixture(t)
	svc := f.inspections()
	ctx := context.Background()

	mk := func(corretor, date, tm string) *models.Inspection {
		insp, err := svc.Create(ctx, models.NewInspection{PropertyID: "p1", CorretorID: corretor, ScheduledDate: date, ScheduledTime: tm})
		require.NoError(t, err)
		return insp
	}
	older := mk("a1", "2024-12-14", "09:00")
	newer := mk("a1", "2024-12-15", "08:00")
	sameDayLater := mk("a1", "2024-12-15", "16:30")
	other := mk("a2", "2024-12-20", "10:00")

	_, err := svc.Update(ctx, models.InspectionPatch{ID: newer.ID, Cards: []models.CardPatch{{CardID: "2", Status: ptr(models.CardOK)}}})
	require.NoError(t, err)

	list, err := svc.List(ctx, "a1")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{sameDayLater.ID, newer.ID, older.ID}, []string{list[0].ID, list[1].ID, list[2].ID})
	assert.Len(t, list[1].Cards, 1)
	assert.NotNil(t, list[0].Cards)
	assert.NotNil(t, list[1].Cards[0].Photos)

	all, err := svc.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, other.ID, all[0].ID)

	none, err := svc.List(ctx, "nobody")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestList_StoreUnavailable(t *testing.T) {
	f := newFixture(t)
	f.rm.Fail = common.ErrStoreUnavailable
	_, err := f.inspections().List(context.Background(), "")
	assert.ErrorIs(t, err, common.ErrStoreUnavailable)
	assert.ErrorIs(t, f.inspections().Ping(context.Background()), common.ErrStoreUnavailable)
}

type failingUpsertRepo struct {
	cardinspections.Repository
}

func (failingUpsertRepo) Upsert(context.Context, string, models.CardPatch) error {
	return common.ErrStoreUnavailable
}

type failingUpsertManager struct {
	*memory.RepositoryManager
}

func (m failingUpsertManager) CardInspections(db dbx.DBTX) cardinspections.Repository {
	return failingUpsertRepo{m.RepositoryManager.CardInspections(db)}
}

func TestUpdate_RollsBackOnCardFailure(t *testing.T) {
	f := newFixture(t)
	insp := newInspection(t, f.inspections())

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectRollback()

	svc := NewInspectionService(db, failingUpsertManager{f.rm}, f.store, f.cfg, f.logger)
	_, err = svc.Update(context.Background(), models.InspectionPatch{
		ID:     insp.ID,
		Status: status(models.StatusCompleted),
		Cards:  []models.CardPatch{{CardID: "1", Status: ptr(models.CardOK)}},
	})
	require.ErrorIs(t, err, common.ErrStoreUnavailable)
	require.NoError(t, mock.ExpectationsWereMet())

	got, err := f.inspections().Get(context.Background(), insp.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, got.Status)
}
