// Package models defines the data types shared between the local store, the
// remote replica adapter, the sync coordinator and the gateway. The sync core
// is agnostic to the domain payload: documents, templates, contacts and
// categories all travel through the same Record shape with their fields kept
// as raw JSON.
package models

import (
	"encoding/json"
	"time"
)

// SyncStatus describes where a record stands relative to the remote replica.
type SyncStatus string

const (
	// StatusSynced means the remote replica is confirmed to hold the same
	// revision as the local head.
	StatusSynced SyncStatus = "synced"

	// StatusPending means the record carries local-only mutations that the
	// coordinator has not yet pushed (or not yet confirmed).
	StatusPending SyncStatus = "pending"

	// StatusConflicted means concurrent revisions of the record diverged and
	// the conflict has not been resolved yet.
	StatusConflicted SyncStatus = "conflicted"

	// StatusError means the last push attempt for this record failed with a
	// non-retryable per-record outcome; the coordinator retries it on the
	// next cycle.
	StatusError SyncStatus = "error"
)

// Record is the unit of storage. The ID is immutable once created; every
// mutation produces a new Revision descending from ParentRevision and a
// strictly greater UpdatedAt. A deleted record is retained as a tombstone
// until the deletion has propagated to the remote replica.
type Record struct {
	ID             string          `json:"id"`
	Revision       string          `json:"revision"`
	ParentRevision string          `json:"parent_revision,omitempty"`
	Fields         json.RawMessage `json:"fields,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	Deleted        bool            `json:"deleted"`
	SyncStatus     SyncStatus      `json:"sync_status,omitempty"`
	LastSyncedAt   *time.Time      `json:"last_synced_at,omitempty"`
}

// State returns the lightweight descriptor for the record.
func (r Record) State() RecordState {
	return RecordState{
		ID:        r.ID,
		Revision:  r.Revision,
		Deleted:   r.Deleted,
		UpdatedAt: r.UpdatedAt,
	}
}

// RecordState is a lightweight record descriptor used where the full payload
// is not needed (state comparison, push outcomes).
type RecordState struct {
	ID        string    `json:"id"`
	Revision  string    `json:"revision"`
	Deleted   bool      `json:"deleted"`
	UpdatedAt time.Time `json:"updated_at"`
}
