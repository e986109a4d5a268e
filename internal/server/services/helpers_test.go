package services

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/vistoria/internal/logging"
	sc "github.com/dmitrijs2005/vistoria/internal/server/config"
	"github.com/dmitrijs2005/vistoria/internal/server/models"
	"github.com/dmitrijs2005/vistoria/internal/server/repositories/memory"
	"github.com/dmitrijs2005/vistoria/internal/server/storage"
)

type fixture struct {
	rm     *memory.RepositoryManager
	db     *memory.TxDB
	store  *storage.Memory
	cfg    *sc.Config
	logger logging.Logger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := memory.OpenTxDB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	rm := memory.NewRepositoryManager()
	rm.AddProperty("p1")
	rm.AddUser("a1")
	rm.AddUser("a2")

	cfg := &sc.Config{}
	cfg.LoadDefaults()

	return &fixture{
		rm:     rm,
		db:     db,
		store:  storage.NewMemory("/uploads"),
		cfg:    cfg,
		logger: logging.NewTextSlogLogger(io.Discard, slog.LevelDebug),
	}
}

func (f *fixture) inspections() *InspectionService {
	return NewInspectionService(f.db, f.rm, f.store, f.cfg, f.logger)
}

func (f *fixture) photos() *PhotoService {
	return NewPhotoService(f.db, f.rm, f.store, f.cfg, f.logger)
}

func ptr[T any](v T) *T { return &v }

func status(s models.InspectionStatus) *models.InspectionStatus { return &s }

func findCard(insp *models.Inspection, cardID string) *models.CardInspection {
	for i := range insp.Cards {
		if insp.Cards[i].CardID == cardID {
			return &insp.Cards[i]
		}
	}
	return nil
}
