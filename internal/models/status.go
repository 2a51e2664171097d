package models

import (
	"fmt"

	"github.com/starford/ansuz/internal/apperr"
)

// Status is the lifecycle state of an entry, drawn from its kind's set.
type Status string

const (
	// Hypothesis lifecycle.
	StatusActive    Status = "active"
	StatusProven    Status = "proven"
	StatusDisproven Status = "disproven"

	// Literature lifecycle.
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"

	// Knowledge lifecycle.
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"

	// StatusArchived is reachable from every status of every kind.
	StatusArchived Status = "archived"
)

func (s Status) String() string { return string(s) }

// Concluded reports whether s marks a final outcome short of archival.
// Concluded entries live under the knowledge-base root.
func (s Status) Concluded() bool {
	switch s {
	case StatusProven, StatusDisproven, StatusCompleted, StatusPublished:
		return true
	}
	return false
}

// statusSets enumerates the valid statuses per kind, in lifecycle order.
var statusSets = map[Kind][]Status{
	KindHypothesis: {StatusActive, StatusProven, StatusDisproven, StatusArchived},
	KindLiterature: {StatusPending, StatusInProgress, StatusCompleted, StatusArchived},
	KindKnowledge:  {StatusDraft, StatusPublished, StatusArchived},
}

// transitions is the per-kind table of permitted moves. Forward
// progression only; archived is everyone's escape hatch and final.
var transitions = map[Kind]map[Status][]Status{
	KindHypothesis: {
		StatusActive:    {StatusProven, StatusDisproven, StatusArchived},
		StatusProven:    {StatusArchived},
		StatusDisproven: {StatusArchived},
		StatusArchived:  {},
	},
	KindLiterature: {
		StatusPending:    {StatusInProgress, StatusCompleted, StatusArchived},
		StatusInProgress: {StatusCompleted, StatusArchived},
		StatusCompleted:  {StatusArchived},
		StatusArchived:   {},
	},
	KindKnowledge: {
		StatusDraft:     {StatusPublished, StatusArchived},
		StatusPublished: {StatusArchived},
		StatusArchived:  {},
	},
}

// initialStatuses is where each kind starts; create never accepts a
// caller-chosen status.
var initialStatuses = map[Kind]Status{
	KindHypothesis: StatusActive,
	KindLiterature: StatusPending,
	KindKnowledge:  StatusDraft,
}

// InitialStatus returns the status a freshly created entry of kind k gets.
func InitialStatus(k Kind) Status { return initialStatuses[k] }

// Statuses returns the valid status set for a kind, in lifecycle order.
func Statuses(k Kind) []Status {
	return append([]Status(nil), statusSets[k]...)
}

// ValidStatus reports whether s belongs to kind k's status set.
func ValidStatus(k Kind, s Status) bool {
	for _, v := range statusSets[k] {
		if v == s {
			return true
		}
	}
	return false
}

// ParseStatus maps a metadata value to a Status and checks it against the
// kind's set.
func ParseStatus(k Kind, s string) (Status, error) {
	st := Status(s)
	if !ValidStatus(k, st) {
		return "", fmt.Errorf("%w: %q is not a %s status", apperr.ErrInvalidStatus, s, k)
	}
	return st, nil
}

// CanTransition reports whether the table permits moving an entry of kind
// k from one status to another. A same-status move is not a transition;
// callers treat it as an idempotent no-op before consulting the table.
func CanTransition(k Kind, from, to Status) bool {
	for _, v := range transitions[k][from] {
		if v == to {
			return true
		}
	}
	return false
}
