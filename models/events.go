package models

import "time"

// EventKind identifies a lifecycle notification published per collection.
// Events are informational only and never block the CRUD contract.
type EventKind string

const (
	EventChanged   EventKind = "changed"
	EventActive    EventKind = "active"
	EventPaused    EventKind = "paused"
	EventDenied    EventKind = "denied"
	EventCompleted EventKind = "completed"
	EventError     EventKind = "error"
)

// Event is a lifecycle notification for one collection. RecordID is set only
// for record-level events (changed).
type Event struct {
	Collection string    `json:"collection"`
	Kind       EventKind `json:"kind"`
	RecordID   string    `json:"record_id,omitempty"`
	Message    string    `json:"message,omitempty"`
	At         time.Time `json:"at"`
}
