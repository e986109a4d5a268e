package photos

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/go-cmp/cmp"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrijs2005/vistoria/internal/common"
	"github.com/dmitrijs2005/vistoria/internal/server/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

var (
	photoCols = []string{"id", "card_inspection_id", "file_name", "file_size", "mime_type", "created_at"}
	ts        = time.Date(2024, 12, 15, 9, 30, 0, 0, time.UTC)
)

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^INSERT INTO inspection_photos \(id, card_inspection_id, file_name, file_size, mime_type\).*RETURNING created_at$`).
		WithArgs("ph1", int64(42), "photo_ab_1.jpg", int64(2048), "image/jpeg").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(ts))

	p := &models.Photo{ID: "ph1", CardInspectionID: 42, FileName: "photo_ab_1.jpg", FileSize: 2048, MimeType: "image/jpeg"}
	if err := repo.Create(context.Background(), p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !p.CreatedAt.Equal(ts) {
		t.Fatalf("created_at = %v, want %v", p.CreatedAt, ts)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreate_DanglingCardInspection(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO inspection_photos`).
		WillReturnError(&pgconn.PgError{Code: "23503"})

	err := repo.Create(context.Background(), &models.Photo{ID: "ph1", CardInspectionID: 7})
	if !errors.Is(err, common.ErrReferenceNotFound) {
		t.Fatalf("want ErrReferenceNotFound, got %v", err)
	}
}

func TestListByInspection(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)JOIN card_inspections ci ON ci.id = p.card_inspection_id WHERE ci.inspection_id = \$1 ORDER BY p.created_at, p.id$`).
		WithArgs("i1").
		WillReturnRows(sqlmock.NewRows(photoCols).
			AddRow("ph1", int64(42), "a.jpg", int64(10), "image/jpeg", ts).
			AddRow("ph2", int64(42), "b.png", int64(20), "image/png", ts.Add(time.Second)))

	got, err := repo.ListByInspection(context.Background(), "i1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []models.Photo{
		{ID: "ph1", CardInspectionID: 42, FileName: "a.jpg", FileSize: 10, MimeType: "image/jpeg", CreatedAt: ts},
		{ID: "ph2", CardInspectionID: 42, FileName: "b.png", FileSize: 20, MimeType: "image/png", CreatedAt: ts.Add(time.Second)},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("photos mismatch (-want +got):\n%s", diff)
	}
}

func TestListByCorretor_Error(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`JOIN inspections i`).WithArgs("a1").WillReturnError(errors.New("timeout"))

	_, err := repo.ListByCorretor(context.Background(), "a1")
	if !errors.Is(err, common.ErrStoreUnavailable) {
		t.Fatalf("want ErrStoreUnavailable, got %v", err)
	}
}
