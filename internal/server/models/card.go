package models

import "github.com/dmitrijs2005/vistoria/internal/common"

// CardTemplate is one inspectable area of the fixed checklist catalog.
type CardTemplate struct {
	ID    string
	Name  string
	Icon  string
	Order int
}

// CardStatus is the outcome an agent records for one card.
type CardStatus string

const (
	CardOK           CardStatus = "ok"
	CardDefect       CardStatus = "defect"
	CardNonCompliant CardStatus = "non_compliant"
)

func ParseCardStatus(s string) (CardStatus, error) {
	st := CardStatus(s)
	if !st.Valid() {
		return "", common.Validationf("invalid card status %q", s)
	}
	return st, nil
}

func (s CardStatus) Valid() bool {
	switch s {
	case CardOK, CardDefect, CardNonCompliant:
		return true
	}
	return false
}

// NeedsPhoto reports whether the status must be backed by at least one photo.
func (s CardStatus) NeedsPhoto() bool {
	return s == CardDefect || s == CardNonCompliant
}

// CardInspection is the per-(inspection, card) record. Status and
// Observation are nil until set.
type CardInspection struct {
	ID           int64
	InspectionID string
	CardID       string
	Status       *CardStatus
	Observation  *string
	Photos       []Photo
}

// CardPatch updates one card of an inspection. The *Set flags record whether
// the field was present in the request at all, so that an explicit null can be
// told apart from an omitted key.
type CardPatch struct {
	CardID         string
	Status         *CardStatus
	StatusSet      bool
	Observation    *string
	ObservationSet bool
}
