package cardinspections

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/vistoria/internal/common"
	"github.com/dmitrijs2005/vistoria/internal/server/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return NewPostgresRepository(db), mock, db
}

const upsertQ = `(?s)^INSERT INTO card_inspections \(inspection_id, card_id, status, observation\) VALUES \(\$1, \$2, \$3, \$4\) ON CONFLICT \(inspection_id, card_id\) DO UPDATE SET status = CASE WHEN \$5 .* observation = CASE WHEN \$6 .*$`

func ptr[T any](v T) *T { return &v }

func TestListByInspection(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)FROM card_inspections WHERE inspection_id = \$1 ORDER BY id$`).
		WithArgs("i1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "inspection_id", "card_id", "status", "observation"}).
			AddRow(int64(10), "i1", "1", "ok", nil).
			AddRow(int64(11), "i1", "2", nil, "mancha na parede"))

	got, err := repo.ListByInspection(context.Background(), "i1")
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "1", got[0].CardID)
	require.NotNil(t, got[0].Status)
	assert.Equal(t, models.CardOK, *got[0].Status)
	assert.Nil(t, got[0].Observation)
	assert.NotNil(t, got[0].Photos)

	assert.Nil(t, got[1].Status)
	require.NotNil(t, got[1].Observation)
	assert.Equal(t, "mancha na parede", *got[1].Observation)
}

func TestListByCorretor_Joins(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)JOIN inspections i ON i.id = ci.inspection_id WHERE \(\$1 = '' OR i.corretor_id = \$1\)`).
		WithArgs("").
		WillReturnRows(sqlmock.NewRows([]string{"id", "inspection_id", "card_id", "status", "observation"}).
			AddRow(int64(1), "i1", "1", "defect", nil).
			AddRow(int64(2), "i2", "1", "ok", nil))

	got, err := repo.ListByCorretor(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "i2", got[1].InspectionID)
}

func TestUpsert_OverwriteWritesNulls(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(upsertQ).
		WithArgs("i1", "1", "ok", nil, true, true).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Upsert(context.Background(), "i1", models.CardPatch{
		CardID: "1", Status: ptr(models.CardOK), StatusSet: true, ObservationSet: true,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsert_MergeKeepsOmitted(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(upsertQ).
		WithArgs("i1", "2", nil, "rachadura", false, true).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Upsert(context.Background(), "i1", models.CardPatch{
		CardID: "2", Observation: ptr("rachadura"), ObservationSet: true,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsert_UnknownCard(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(upsertQ).
		WillReturnError(&pgconn.PgError{Code: "23503", ConstraintName: "card_inspections_card_id_fkey"})

	err := repo.Upsert(context.Background(), "i1", models.CardPatch{CardID: "99", StatusSet: true})
	assert.ErrorIs(t, err, common.ErrReferenceNotFound)
}

func TestGetOrCreate(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^INSERT INTO card_inspections \(inspection_id, card_id\) VALUES \(\$1, \$2\) ON CONFLICT \(inspection_id, card_id\) DO UPDATE SET card_id = EXCLUDED.card_id RETURNING id$`
	mock.ExpectQuery(q).WithArgs("i1", "2").WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))
	mock.ExpectQuery(q).WithArgs("i1", "2").WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))

	first, err := repo.GetOrCreate(context.Background(), "i1", "2")
	require.NoError(t, err)
	second, err := repo.GetOrCreate(context.Background(), "i1", "2")
	require.NoError(t, err)
	assert.Equal(t, int64(42), first)
	assert.Equal(t, first, second)
}

func TestGetOrCreate_Error(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO card_inspections`).WillReturnError(errors.New("conn closed"))

	_, err := repo.GetOrCreate(context.Background(), "i1", "2")
	assert.ErrorIs(t, err, common.ErrStoreUnavailable)
}

func TestListUnbackedDefects(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)status IN \('defect', 'non_compliant'\) AND NOT EXISTS`).
		WithArgs("i1").
		WillReturnRows(sqlmock.NewRows([]string{"card_id"}).AddRow("2").AddRow("5"))

	got, err := repo.ListUnbackedDefects(context.Background(), "i1")
	require.NoError(t, err)
	assert.Equal(t, []string{"2", "5"}, got)
}
