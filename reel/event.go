package reel

import (
	"time"

	"papermill_reel_tracker/models"
)

type EventType string

const (
	EventCreated       EventType = "created"
	EventUpdated       EventType = "updated"
	EventAnnotated     EventType = "annotated"
	EventDeleted       EventType = "deleted"
	EventAssigned      EventType = "assigned"
	EventUnassigned    EventType = "unassigned"
	EventInProgress    EventType = "in_progress"
	EventRuled         EventType = "ruled"
	EventOutputEdited  EventType = "output_edited"
	EventOptionAdded   EventType = "option_added"
	EventOptionRemoved EventType = "option_removed"
)

// Event tells dashboards that something settled in the store.
type Event struct {
	Type      EventType        `json:"type"`
	ReelID    string           `json:"reelId,omitempty"`
	Operator  string           `json:"operator,omitempty"`
	Dimension models.Dimension `json:"dimension,omitempty"`
	Value     string           `json:"value,omitempty"`
	At        time.Time        `json:"at"`
}
