// Package tracker mirrors the server's completion rule on the client: every
// catalog card needs a status, and a card that is not ok needs a photo.
package tracker

import (
	"fmt"
	"sync"

	"github.com/dmitrijs2005/vistoria/internal/client/models"
)

// CardState is the local view of one card.
type CardState struct {
	Status      string
	Observation string
	HasPhoto    bool
}

func (s CardState) satisfied() bool {
	if s.Status == "" {
		return false
	}
	return !models.NeedsPhoto(s.Status) || s.HasPhoto
}

// ComputeCompletion reports whether every catalog card is satisfied.
func ComputeCompletion(catalog []models.CardTemplate, states map[string]CardState) bool {
	for _, c := range catalog {
		if !states[c.ID].satisfied() {
			return false
		}
	}
	return true
}

// Tracker holds card states for one inspection and remembers which cards
// changed since the last flush. It is safe for concurrent use.
type Tracker struct {
	mu      sync.Mutex
	catalog []models.CardTemplate
	states  map[string]CardState
	dirty   map[string]bool
}

// New seeds a tracker from the server's view of insp; insp may be nil.
func New(catalog []models.CardTemplate, insp *models.Inspection) *Tracker {
	t := &Tracker{
		catalog: catalog,
		states:  make(map[string]CardState, len(catalog)),
		dirty:   make(map[string]bool),
	}
	if insp == nil {
		return t
	}
	for _, c := range insp.Cards {
		var s CardState
		if c.Status != nil {
			s.Status = *c.Status
		}
		if c.Observation != nil {
			s.Observation = *c.Observation
		}
		s.HasPhoto = len(c.Photos) > 0
		t.states[c.CardID] = s
	}
	return t
}

func (t *Tracker) known(cardID string) error {
	for _, c := range t.catalog {
		if c.ID == cardID {
			return nil
		}
	}
	return fmt.Errorf("unknown card %q", cardID)
}

// SelectStatus sets the card status and reports whether a photo is required
// before the card counts as done.
func (t *Tracker) SelectStatus(cardID, status string) (bool, error) {
	if !models.ValidCardStatus(status) {
		return false, fmt.Errorf("invalid card status %q", status)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.known(cardID); err != nil {
		return false, err
	}

	s := t.states[cardID]
	s.Status = status
	t.states[cardID] = s
	t.dirty[cardID] = true
	return models.NeedsPhoto(status) && !s.HasPhoto, nil
}

// AttachPhoto records that the card has at least one uploaded photo.
func (t *Tracker) AttachPhoto(cardID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.known(cardID); err != nil {
		return err
	}
	s := t.states[cardID]
	s.HasPhoto = true
	t.states[cardID] = s
	return nil
}

// SetObservation stores free text for the card. It never affects completion.
func (t *Tracker) SetObservation(cardID, text string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.known(cardID); err != nil {
		return err
	}
	s := t.states[cardID]
	s.Observation = text
	t.states[cardID] = s
	t.dirty[cardID] = true
	return nil
}

// State returns the local state of cardID.
func (t *Tracker) State(cardID string) CardState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.states[cardID]
}

func (t *Tracker) Completed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return ComputeCompletion(t.catalog, t.states)
}

// Missing lists, in catalog order, the cards that block submission.
func (t *Tracker) Missing() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	var ids []string
	for _, c := range t.catalog {
		if !t.states[c.ID].satisfied() {
			ids = append(ids, c.ID)
		}
	}
	return ids
}

// Dirty returns the unflushed edits as card patches in catalog order.
// Empty fields are sent as null.
func (t *Tracker) Dirty() []models.CardPatch {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []models.CardPatch
	for _, c := range t.catalog {
		if !t.dirty[c.ID] {
			continue
		}
		s := t.states[c.ID]
		p := models.CardPatch{CardID: c.ID}
		if s.Status != "" {
			status := s.Status
			p.Status = &status
		}
		if s.Observation != "" {
			obs := s.Observation
			p.Observation = &obs
		}
		out = append(out, p)
	}
	return out
}

// MarkFlushed clears the dirty flag of the given cards.
func (t *Tracker) MarkFlushed(cardIDs ...string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, id := range cardIDs {
		delete(t.dirty, id)
	}
}
