// Package models defines the inspection aggregate persisted by the server:
// inspections, their per-card observations and the photos attached to them.
package models

import (
	"time"

	"github.com/dmitrijs2005/vistoria/internal/common"
)

// InspectionStatus is the top-level lifecycle state of an inspection.
type InspectionStatus string

const (
	StatusPending    InspectionStatus = "pending"
	StatusInProgress InspectionStatus = "in_progress"
	StatusCompleted  InspectionStatus = "completed"
	StatusApproved   InspectionStatus = "approved"
	StatusRejected   InspectionStatus = "rejected"
)

// transitions lists the statuses reachable from each state, including itself.
var transitions = map[InspectionStatus][]InspectionStatus{
	StatusPending:    {StatusPending, StatusInProgress, StatusCompleted},
	StatusInProgress: {StatusInProgress, StatusCompleted},
	StatusCompleted:  {StatusCompleted, StatusApproved, StatusRejected},
	StatusApproved:   {StatusApproved, StatusRejected},
	StatusRejected:   {StatusApproved, StatusRejected},
}

// ParseInspectionStatus validates s against the known statuses.
func ParseInspectionStatus(s string) (InspectionStatus, error) {
	st := InspectionStatus(s)
	if !st.Valid() {
		return "", common.Validationf("invalid status %q", s)
	}
	return st, nil
}

func (s InspectionStatus) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// CanTransition reports whether an inspection in state s may be moved to next.
func (s InspectionStatus) CanTransition(next InspectionStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Done reports whether s is a state in which the completion timestamp is set.
func (s InspectionStatus) Done() bool {
	switch s {
	case StatusCompleted, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// CheckTransition returns common.ErrInvalidTransition when from -> to is not allowed.
func CheckTransition(from, to InspectionStatus) error {
	if !from.CanTransition(to) {
		return common.Errorf(common.ErrInvalidTransition, "cannot change status from %s to %s", from, to)
	}
	return nil
}

// Inspection is the hydrated aggregate: the inspection row plus its
// card-inspections, each carrying its photos.
type Inspection struct {
	ID            string
	PropertyID    string
	CorretorID    string
	ScheduledDate string // YYYY-MM-DD
	ScheduledTime string // HH:MM
	Status        InspectionStatus
	CompletedAt   *time.Time
	CreatedAt     time.Time
	Cards         []CardInspection
}

// NewInspection holds the inputs of an inspection being scheduled.
type NewInspection struct {
	PropertyID    string
	CorretorID    string
	ScheduledDate string
	ScheduledTime string
}

// InspectionPatch is a partial update of an inspection. A nil Status leaves
// the top-level status alone.
type InspectionPatch struct {
	ID     string
	Status *InspectionStatus
	Cards  []CardPatch
}
