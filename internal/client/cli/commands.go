package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/dmitrijs2005/vistoria/internal/client/models"
)

func (a *App) Cards(ctx context.Context) error {
	cards, err := a.api.ListCards(ctx)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tICON")
	for _, c := range cards {
		fmt.Fprintf(w, "%s\t%s\t%s\n", c.ID, c.Name, c.Icon)
	}
	return w.Flush()
}

func (a *App) List(ctx context.Context, corretorID string) error {
	insps, err := a.api.ListInspections(ctx, corretorID)
	if err != nil {
		return err
	}
	if len(insps) == 0 {
		fmt.Fprintln(a.out, "No inspections.")
		return nil
	}
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCHEDULED\tSTATUS\tPROPERTY\tCORRETOR\tCARDS")
	for _, i := range insps {
		fmt.Fprintf(w, "%s\t%s %s\t%s\t%s\t%s\t%d\n", i.ID, i.ScheduledDate, i.ScheduledTime, i.Status, i.PropertyID, i.CorretorID, len(i.Cards))
	}
	return w.Flush()
}

func (a *App) Show(ctx context.Context, id string) error {
	s, err := a.load(ctx, id)
	if err != nil {
		return err
	}
	insp := s.inspection

	fmt.Fprintf(a.out, "Inspection %s\n", insp.ID)
	fmt.Fprintf(a.out, "Property: %s  Corretor: %s\n", insp.PropertyID, insp.CorretorID)
	fmt.Fprintf(a.out, "Scheduled: %s %s  Status: %s\n", insp.ScheduledDate, insp.ScheduledTime, insp.Status)
	if insp.CompletedAt != nil {
		fmt.Fprintf(a.out, "Completed at: %s\n", insp.CompletedAt.Local().Format("2006-01-02 15:04"))
	}

	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CARD\tNAME\tSTATUS\tPHOTOS\tOBSERVATION")
	for _, c := range s.catalog {
		photos := 0
		if card := insp.Card(c.ID); card != nil {
			photos = len(card.Photos)
		}
		st := s.tracker.State(c.ID)
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", c.ID, c.Name, orDash(st.Status), photos, orDash(st.Observation))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if dirty := s.tracker.Dirty(); len(dirty) > 0 {
		fmt.Fprintf(a.out, "%d card edit(s) not yet sent, run sync.\n", len(dirty))
	}
	if missing := s.tracker.Missing(); len(missing) > 0 {
		fmt.Fprintf(a.out, "Incomplete: %s\n", strings.Join(cardNames(s.catalog, missing), ", "))
	} else {
		fmt.Fprintln(a.out, "All cards complete.")
	}
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func cardNames(catalog []models.CardTemplate, ids []string) []string {
	names := make(map[string]string, len(catalog))
	for _, c := range catalog {
		names[c.ID] = c.Name
	}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if n, ok := names[id]; ok {
			out = append(out, fmt.Sprintf("%s (%s)", n, id))
		} else {
			out = append(out, id)
		}
	}
	return out
}

func (a *App) Create(ctx context.Context, in models.NewInspection) error {
	insp, err := a.api.CreateInspection(ctx, in)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Created inspection %s (%s)\n", insp.ID, insp.Status)
	return nil
}

// Set changes one card. obs is nil when the observation should be kept.
func (a *App) Set(ctx context.Context, id, cardID, status string, obs *string) error {
	s, err := a.load(ctx, id)
	if err != nil {
		return err
	}

	needsPhoto, err := s.tracker.SelectStatus(cardID, status)
	if err != nil {
		return err
	}
	if obs != nil {
		if err := s.tracker.SetObservation(cardID, *obs); err != nil {
			return err
		}
	}

	insp, err := a.flush(ctx, id, s.tracker, "")
	if err != nil {
		if errors.Is(err, errSavedAsDraft) {
			fmt.Fprintln(a.out, "Server unreachable, card saved as draft.")
			return nil
		}
		return err
	}
	fmt.Fprintf(a.out, "Card %s set to %s, inspection is %s\n", cardID, status, insp.Status)
	if needsPhoto {
		fmt.Fprintf(a.out, "A photo is required for card %s: vistoria photo %s %s <file>\n", cardID, id, cardID)
	}
	return nil
}

func (a *App) Photo(ctx context.Context, id, cardID, path string) error {
	return a.uploadFile(ctx, id, cardID, path)
}

// Submit completes the inspection. It refuses while any card is incomplete.
func (a *App) Submit(ctx context.Context, id string) error {
	s, err := a.load(ctx, id)
	if err != nil {
		return err
	}
	if missing := s.tracker.Missing(); len(missing) > 0 {
		return fmt.Errorf("cannot submit, incomplete cards: %s", strings.Join(cardNames(s.catalog, missing), ", "))
	}

	insp, err := a.flush(ctx, id, s.tracker, models.StatusCompleted)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Inspection %s submitted (%s)\n", insp.ID, insp.Status)
	return nil
}

// Sync replays stored drafts of id, or of every inspection when id is empty.
func (a *App) Sync(ctx context.Context, id string) error {
	ids := []string{id}
	if id == "" {
		var err error
		if ids, err = a.drafts.Inspections(ctx); err != nil {
			return err
		}
	}

	sent := 0
	for _, inspID := range ids {
		patches, err := a.drafts.List(ctx, inspID)
		if err != nil {
			return err
		}
		if len(patches) == 0 {
			continue
		}
		if _, err := a.api.UpdateInspection(ctx, models.InspectionPatch{ID: inspID, Cards: patches}); err != nil {
			return fmt.Errorf("sync %s: %w", inspID, err)
		}
		if err := a.drafts.Delete(ctx, inspID); err != nil {
			return err
		}
		sent += len(patches)
		fmt.Fprintf(a.out, "Synced %d card edit(s) for %s\n", len(patches), inspID)
	}
	if sent == 0 {
		fmt.Fprintln(a.out, "Nothing to sync.")
	}
	return nil
}
