package rest

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/dmitrijs2005/vistoria/internal/server/models"
)

type errorBody struct {
	Error string `json:"error"`
}

type cardTemplateResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Icon  string `json:"icon"`
	Order int    `json:"order"`
}

type photoResponse struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type cardResponse struct {
	CardID      string          `json:"cardId"`
	Status      *string         `json:"status"`
	Observation *string         `json:"observation"`
	Photos      []photoResponse `json:"photos"`
}

type inspectionResponse struct {
	ID            string         `json:"id"`
	PropertyID    string         `json:"propertyId"`
	CorretorID    string         `json:"corretorId"`
	ScheduledDate string         `json:"scheduledDate"`
	ScheduledTime string         `json:"scheduledTime"`
	Status        string         `json:"status"`
	CompletedAt   *time.Time     `json:"completedAt"`
	CreatedAt     time.Time      `json:"createdAt"`
	Cards         []cardResponse `json:"cards"`
}

type uploadResponse struct {
	ID       string `json:"id"`
	URL      string `json:"url"`
	FileName string `json:"fileName"`
}

type createInspectionRequest struct {
	PropertyID    string `json:"property_id"`
	CorretorID    string `json:"corretor_id"`
	ScheduledDate string `json:"scheduled_date"`
	ScheduledTime string `json:"scheduled_time"`
}

// optionalString records whether a key was present; an explicit null or an
// empty string leaves Value nil.
type optionalString struct {
	Value *string
	Set   bool
}

func (o *optionalString) UnmarshalJSON(b []byte) error {
	o.Set = true
	o.Value = nil
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if strings.TrimSpace(s) != "" {
		o.Value = &s
	}
	return nil
}

type cardPatchRequest struct {
	CardID      string         `json:"cardId"`
	Status      optionalString `json:"status"`
	Observation optionalString `json:"observation"`
}

type updateInspectionRequest struct {
	ID     string             `json:"id"`
	Status *string            `json:"status"`
	Cards  []cardPatchRequest `json:"cards"`
}

func (r updateInspectionRequest) toPatch() models.InspectionPatch {
	p := models.InspectionPatch{ID: strings.TrimSpace(r.ID)}
	if r.Status != nil && *r.Status != "" {
		st := models.InspectionStatus(*r.Status)
		p.Status = &st
	}
	for _, c := range r.Cards {
		cp := models.CardPatch{
			CardID:         c.CardID,
			StatusSet:      c.Status.Set,
			Observation:    c.Observation.Value,
			ObservationSet: c.Observation.Set,
		}
		if c.Status.Value != nil {
			st := models.CardStatus(*c.Status.Value)
			cp.Status = &st
		}
		p.Cards = append(p.Cards, cp)
	}
	return p
}

func toCardTemplates(cards []models.CardTemplate) []cardTemplateResponse {
	out := make([]cardTemplateResponse, 0, len(cards))
	for _, c := range cards {
		out = append(out, cardTemplateResponse{ID: c.ID, Name: c.Name, Icon: c.Icon, Order: c.Order})
	}
	return out
}

func toInspection(insp *models.Inspection) inspectionResponse {
	resp := inspectionResponse{
		ID:            insp.ID,
		PropertyID:    insp.PropertyID,
		CorretorID:    insp.CorretorID,
		ScheduledDate: insp.ScheduledDate,
		ScheduledTime: insp.ScheduledTime,
		Status:        string(insp.Status),
		CompletedAt:   insp.CompletedAt,
		CreatedAt:     insp.CreatedAt,
		Cards:         make([]cardResponse, 0, len(insp.Cards)),
	}
	for _, c := range insp.Cards {
		card := cardResponse{
			CardID:      c.CardID,
			Observation: c.Observation,
			Photos:      make([]photoResponse, 0, len(c.Photos)),
		}
		if c.Status != nil {
			st := string(*c.Status)
			card.Status = &st
		}
		for _, p := range c.Photos {
			card.Photos = append(card.Photos, photoResponse{ID: p.ID, URL: p.URL})
		}
		resp.Cards = append(resp.Cards, card)
	}
	return resp
}

func toInspections(insps []*models.Inspection) []inspectionResponse {
	out := make([]inspectionResponse, 0, len(insps))
	for _, insp := range insps {
		out = append(out, toInspection(insp))
	}
	return out
}
