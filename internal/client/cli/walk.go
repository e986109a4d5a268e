package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/vistoria/internal/client/models"
)

var cardChoices = []string{models.CardOK, models.CardDefect, models.CardNonCompliant}

// Walk goes through the catalog card by card, asking for a status, a photo
// where one is required, and an observation. Each card is sent as soon as
// it is answered. An empty answer keeps the current value.
func (a *App) Walk(ctx context.Context, id string) error {
	s, err := a.load(ctx, id)
	if err != nil {
		return err
	}

	offline := false
	for n, c := range s.catalog {
		st := s.tracker.State(c.ID)
		fmt.Fprintf(a.out, "\n[%d/%d] %s %s (status: %s)\n", n+1, len(s.catalog), c.Icon, c.Name, orDash(st.Status))

		status, err := GetChoice(a.reader, "Status (ok, defect, non_compliant, empty to keep)", a.out, cardChoices, true)
		if err != nil {
			return err
		}
		if status != "" {
			if _, err := s.tracker.SelectStatus(c.ID, status); err != nil {
				return err
			}
		}

		st = s.tracker.State(c.ID)
		if models.NeedsPhoto(st.Status) && !st.HasPhoto {
			if err := a.askPhoto(ctx, s, id, c.ID); err != nil {
				return err
			}
		}

		obs, err := GetSimpleText(a.reader, "Observation (empty to keep)", a.out)
		if err != nil {
			return err
		}
		if obs != "" {
			if err := s.tracker.SetObservation(c.ID, obs); err != nil {
				return err
			}
		}

		if _, err := a.flush(ctx, id, s.tracker, ""); err != nil {
			if !errors.Is(err, errSavedAsDraft) {
				return err
			}
			if !offline {
				fmt.Fprintln(a.out, "Server unreachable, edits are kept as drafts.")
				offline = true
			}
		}
	}

	if missing := s.tracker.Missing(); len(missing) > 0 {
		fmt.Fprintf(a.out, "\nStill incomplete: %s\n", strings.Join(cardNames(s.catalog, missing), ", "))
		return nil
	}
	if offline {
		fmt.Fprintln(a.out, "\nAll cards answered. Run sync and submit once online.")
		return nil
	}

	answer, err := GetChoice(a.reader, "All cards complete. Submit now? (y/n)", a.out, []string{"y", "n"}, false)
	if err != nil {
		return err
	}
	if answer == "y" {
		return a.Submit(ctx, id)
	}
	return nil
}

// askPhoto prompts for photo paths until one uploads or the answer is empty.
func (a *App) askPhoto(ctx context.Context, s *session, id, cardID string) error {
	for {
		path, err := GetSimpleText(a.reader, "Photo required, path to image (empty to skip)", a.out)
		if err != nil {
			return err
		}
		if path == "" {
			return nil
		}
		if err := a.uploadFile(ctx, id, cardID, path); err != nil {
			fmt.Fprintf(a.out, "Upload failed: %v\n", err)
			continue
		}
		return s.tracker.AttachPhoto(cardID)
	}
}

func (a *App) uploadFile(ctx context.Context, id, cardID, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	up, err := a.api.UploadPhoto(ctx, id, cardID, filepath.Base(path), f)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Uploaded %s -> %s\n", up.FileName, up.URL)
	return nil
}
