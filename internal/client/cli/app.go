package cli

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/dmitrijs2005/vistoria/internal/client/api"
	"github.com/dmitrijs2005/vistoria/internal/client/config"
	"github.com/dmitrijs2005/vistoria/internal/client/drafts"
	"github.com/dmitrijs2005/vistoria/internal/client/models"
	"github.com/dmitrijs2005/vistoria/internal/client/tracker"
	"github.com/dmitrijs2005/vistoria/internal/logging"
)

// inspectionAPI is the part of api.Client the commands use.
type inspectionAPI interface {
	ListCards(ctx context.Context) ([]models.CardTemplate, error)
	ListInspections(ctx context.Context, corretorID string) ([]models.Inspection, error)
	GetInspection(ctx context.Context, id string) (*models.Inspection, error)
	CreateInspection(ctx context.Context, in models.NewInspection) (*models.Inspection, error)
	UpdateInspection(ctx context.Context, p models.InspectionPatch) (*models.Inspection, error)
	UploadPhoto(ctx context.Context, inspectionID, cardID, fileName string, content io.Reader) (*models.UploadedPhoto, error)
}

type App struct {
	config *config.Config
	api    inspectionAPI
	drafts drafts.Repository
	db     *sql.DB
	out    io.Writer
	reader *bufio.Reader
}

// NewApp opens the drafts store and the API client. HTTP diagnostics go to
// errOut when c.Verbose is set and are dropped otherwise.
func NewApp(ctx context.Context, c *config.Config, in io.Reader, out, errOut io.Writer) (*App, error) {
	db, repo, err := drafts.Open(ctx, c.DraftsPath)
	if err != nil {
		return nil, fmt.Errorf("error initializing drafts database: %w", err)
	}

	client := api.New(api.Options{
		BaseURL:    c.ServerURL,
		Token:      c.AccessToken,
		Timeout:    c.Timeout,
		RetryCount: c.RetryCount,
		Logger:     newLogger(c, errOut),
	})

	return &App{config: c, api: client, drafts: repo, db: db, out: out, reader: bufio.NewReader(in)}, nil
}

func newLogger(c *config.Config, errOut io.Writer) logging.Logger {
	if !c.Verbose || errOut == nil {
		return logging.NewTextSlogLogger(io.Discard, slog.LevelError)
	}
	return logging.NewTextSlogLogger(errOut, slog.LevelDebug)
}

func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

// session is an inspection loaded together with the catalog, with local
// drafts applied on top of the server state.
type session struct {
	inspection *models.Inspection
	catalog    []models.CardTemplate
	tracker    *tracker.Tracker
}

func (a *App) load(ctx context.Context, id string) (*session, error) {
	catalog, err := a.api.ListCards(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	insp, err := a.api.GetInspection(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load inspection %s: %w", id, err)
	}

	tr := tracker.New(catalog, insp)
	pending, err := a.drafts.List(ctx, id)
	if err != nil {
		return nil, err
	}
	for _, p := range pending {
		if p.Status != nil {
			if _, err := tr.SelectStatus(p.CardID, *p.Status); err != nil {
				return nil, fmt.Errorf("draft for card %s: %w", p.CardID, err)
			}
		}
		obs := ""
		if p.Observation != nil {
			obs = *p.Observation
		}
		if err := tr.SetObservation(p.CardID, obs); err != nil {
			return nil, fmt.Errorf("draft for card %s: %w", p.CardID, err)
		}
	}
	return &session{inspection: insp, catalog: catalog, tracker: tr}, nil
}

// errSavedAsDraft marks a flush that failed to reach the server but whose
// card edits were stored locally.
var errSavedAsDraft = errors.New("saved as draft")

// flush sends the tracker's unflushed edits, with status when not empty.
// When the server is unreachable the edits are stored as drafts.
func (a *App) flush(ctx context.Context, id string, tr *tracker.Tracker, status string) (*models.Inspection, error) {
	patches := tr.Dirty()
	if len(patches) == 0 && status == "" {
		return nil, nil
	}

	insp, err := a.api.UpdateInspection(ctx, models.InspectionPatch{ID: id, Status: status, Cards: patches})
	if err != nil {
		if errors.Is(err, api.ErrUnavailable) && len(patches) > 0 {
			if derr := a.drafts.Save(ctx, id, patches); derr != nil {
				return nil, errors.Join(err, derr)
			}
			return nil, fmt.Errorf("%w: %d card edit(s), run sync when online: %w", errSavedAsDraft, len(patches), err)
		}
		return nil, err
	}

	ids := make([]string, 0, len(patches))
	for _, p := range patches {
		ids = append(ids, p.CardID)
	}
	tr.MarkFlushed(ids...)
	if len(ids) > 0 {
		if err := a.drafts.Delete(ctx, id, ids...); err != nil {
			return insp, err
		}
	}
	return insp, nil
}
