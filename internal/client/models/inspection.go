// Package models defines the client-side view of the inspection API.
package models

import "time"

// Card statuses an agent can pick.
const (
	CardOK           = "ok"
	CardDefect       = "defect"
	CardNonCompliant = "non_compliant"
)

// Inspection statuses.
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusApproved   = "approved"
	StatusRejected   = "rejected"
)

// ValidCardStatus reports whether s is one of the card statuses.
func ValidCardStatus(s string) bool {
	return s == CardOK || s == CardDefect || s == CardNonCompliant
}

// NeedsPhoto reports whether a card with status s must carry a photo.
func NeedsPhoto(s string) bool {
	return s == CardDefect || s == CardNonCompliant
}

type CardTemplate struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Icon  string `json:"icon"`
	Order int    `json:"order"`
}

type Photo struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type Card struct {
	CardID      string  `json:"cardId"`
	Status      *string `json:"status"`
	Observation *string `json:"observation"`
	Photos      []Photo `json:"photos"`
}

type Inspection struct {
	ID            string     `json:"id"`
	PropertyID    string     `json:"propertyId"`
	CorretorID    string     `json:"corretorId"`
	ScheduledDate string     `json:"scheduledDate"`
	ScheduledTime string     `json:"scheduledTime"`
	Status        string     `json:"status"`
	CompletedAt   *time.Time `json:"completedAt"`
	CreatedAt     time.Time  `json:"createdAt"`
	Cards         []Card     `json:"cards"`
}

// Card returns the card entry for cardID, or nil.
func (i *Inspection) Card(cardID string) *Card {
	for n := range i.Cards {
		if i.Cards[n].CardID == cardID {
			return &i.Cards[n]
		}
	}
	return nil
}

type NewInspection struct {
	PropertyID    string `json:"property_id"`
	CorretorID    string `json:"corretor_id"`
	ScheduledDate string `json:"scheduled_date"`
	ScheduledTime string `json:"scheduled_time"`
}

// CardPatch is one card of an update request. Nil fields are sent as null.
type CardPatch struct {
	CardID      string  `json:"cardId"`
	Status      *string `json:"status"`
	Observation *string `json:"observation"`
}

type InspectionPatch struct {
	ID     string      `json:"id"`
	Status string      `json:"status,omitempty"`
	Cards  []CardPatch `json:"cards,omitempty"`
}

type UploadedPhoto struct {
	ID       string `json:"id"`
	URL      string `json:"url"`
	FileName string `json:"fileName"`
}
