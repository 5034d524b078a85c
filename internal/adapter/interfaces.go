// SPDX-License-Identifier: Apache-2.0

// Package adapter provides the transport-layer abstraction for the remote
// replica. The primary abstraction is [RemoteStore], which mirrors the local
// CRUD surface plus the change feed, and is reachable only while online:
// every call may fail with [ErrUnreachable].
//
// Sentinel errors defined in errors.go are mapped from HTTP status codes by
// mapHTTPError so callers can use [errors.Is] for transport-agnostic error
// handling.
package adapter

import (
	"context"

	"github.com/MKhiriev/go-doc-sync/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/remote_store_mock.go -package=mock

// RemoteStore is the network-backed mirror of the collections. Bearer tokens
// are opaque to this core; the surrounding application injects and refreshes
// them via SetToken.
type RemoteStore interface {
	// SetToken stores the bearer token attached to all subsequent requests.
	SetToken(token string)

	// Token returns the currently stored bearer token, empty if unset.
	Token() string

	// Probe performs a short-timeout health check. Coordinators call it
	// before starting a session so that an unreachable replica degrades to
	// offline mode instead of hanging.
	Probe(ctx context.Context) error

	// Get fetches the replica's head revision of one record.
	Get(ctx context.Context, collection string, id string) (models.Record, error)

	// Put writes one record; the replica applies an optimistic check against
	// rec.ParentRevision. Returns [ErrRevisionConflict] when the replica head
	// diverged.
	Put(ctx context.Context, collection string, rec models.Record) (models.Record, error)

	// BulkPut pushes a batch of records; outcomes are reported per record so
	// one bad record never blocks the rest.
	BulkPut(ctx context.Context, collection string, recs []models.Record) ([]models.BulkOutcome, error)

	// Changes pulls records changed since cursor, oldest first, together
	// with the next cursor.
	Changes(ctx context.Context, collection string, cursor string, limit int) ([]models.Record, string, error)

	// Query runs an indexed filter query against the replica.
	Query(ctx context.Context, collection string, q models.Query) ([]models.Record, error)
}
