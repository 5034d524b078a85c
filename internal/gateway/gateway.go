// SPDX-License-Identifier: Apache-2.0

// Package gateway is the read/write façade collaborators call. Every write
// commits to the local store first, so the contract holds even with the
// replica permanently unreachable; the remote side is touched only
// opportunistically. Unreachable errors never escape to callers, only
// NotFound and revision conflicts do.
package gateway

import (
	"context"
	"errors"
	"time"

	"github.com/MKhiriev/go-doc-sync/internal/adapter"
	"github.com/MKhiriev/go-doc-sync/internal/logger"
	"github.com/MKhiriev/go-doc-sync/internal/store"
	"github.com/MKhiriev/go-doc-sync/models"
)

// Gateway serves CRUD for one collection, online or offline.
type Gateway struct {
	collection string
	local      store.LocalStore
	remote     adapter.RemoteStore
	online     func() bool
	kick       func()
	logger     *logger.Logger
}

// New constructs a Gateway. online reports current connectivity (typically
// netmon.Monitor.Online); kick notifies the collection's coordinator about
// fresh pending writes (typically syncer.Coordinator.Kick). Both may be nil
// for purely local operation.
func New(
	collection string,
	local store.LocalStore,
	remote adapter.RemoteStore,
	online func() bool,
	kick func(),
	log *logger.Logger,
) *Gateway {
	if online == nil {
		online = func() bool { return false }
	}
	if kick == nil {
		kick = func() {}
	}

	return &Gateway{
		collection: collection,
		local:      local,
		remote:     remote,
		online:     online,
		kick:       kick,
		logger:     log.WithCollection(collection),
	}
}

// Read returns the record's head revision. While online the replica is
// consulted first and its head reconciled into the local store; on any
// replica failure the call transparently falls back to the local store.
// Returns [store.ErrNotFound] only when both stores miss.
func (g *Gateway) Read(ctx context.Context, id string) (models.Record, error) {
	if g.online() {
		remoteRec, err := g.remote.Get(ctx, g.collection, id)
		switch {
		case err == nil:
			return g.reconcile(ctx, remoteRec)
		case errors.Is(err, adapter.ErrNotFound):
			// The replica genuinely misses it; the local copy may simply not
			// have been pushed yet.
		default:
			g.logger.Debug().Err(err).Str("record", id).Msg("remote read failed; using local store")
		}
	}

	return g.local.Get(ctx, id)
}

// reconcile upserts a replica head into the local store and returns the
// record the caller should see. Unconfirmed local mutations take precedence:
// they are never clobbered here, divergence is left for the sync cycle to
// register and resolve.
func (g *Gateway) reconcile(ctx context.Context, remoteRec models.Record) (models.Record, error) {
	head, err := g.local.Get(ctx, remoteRec.ID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		if remoteRec.Deleted {
			return models.Record{}, store.ErrNotFound
		}
		if err := g.local.ApplyRemote(ctx, remoteRec); err != nil {
			return models.Record{}, err
		}
		return remoteRec, nil

	case err != nil:
		return models.Record{}, err
	}

	if head.SyncStatus != models.StatusSynced || head.Revision == remoteRec.Revision {
		return head, nil
	}

	if remoteRec.Deleted {
		if err := g.local.ApplyRemote(ctx, remoteRec); err != nil {
			return models.Record{}, err
		}
		if err := g.local.Purge(ctx, remoteRec.ID); err != nil {
			return models.Record{}, err
		}
		return models.Record{}, store.ErrNotFound
	}

	if err := g.local.ApplyRemote(ctx, remoteRec); err != nil {
		return models.Record{}, err
	}
	return remoteRec, nil
}

// ReadAll lists local records matching the filter. The local store is the
// source of truth for listings: replica-side results flow in through the
// pull half of the sync cycle.
func (g *Gateway) ReadAll(ctx context.Context, q models.Query) ([]models.Record, error) {
	return g.local.Query(ctx, q)
}

// Write commits the record locally and wakes the coordinator. An empty
// rec.Revision creates the record, otherwise rec.Revision must carry the
// base revision the caller read (stale bases fail with
// [store.ErrRevisionConflict]). While online the new head is also pushed
// directly; a failed opportunistic push just leaves the record pending.
func (g *Gateway) Write(ctx context.Context, rec models.Record) (models.Record, error) {
	var (
		head models.Record
		err  error
	)
	if rec.Revision == "" {
		head, err = g.local.Create(ctx, rec)
	} else {
		head, err = g.local.Update(ctx, rec)
	}
	if err != nil {
		return models.Record{}, err
	}

	g.kick()
	g.pushOpportunistic(ctx, head)

	current, err := g.local.Get(ctx, head.ID)
	if err != nil {
		return head, nil
	}
	return current, nil
}

// Remove writes a tombstone through the same path as Write. baseRevision
// guards against deleting over a concurrent edit.
func (g *Gateway) Remove(ctx context.Context, id string, baseRevision string) error {
	tombstone, err := g.local.Delete(ctx, id, baseRevision)
	if err != nil {
		return err
	}

	g.kick()
	g.pushOpportunistic(ctx, tombstone)
	return nil
}

// pushOpportunistic tries a direct replica write so the record is visible
// remotely without waiting for the next sync cycle. Any failure is
// swallowed: the record stays pending and the coordinator's push, which is
// idempotent per record, picks it up.
func (g *Gateway) pushOpportunistic(ctx context.Context, head models.Record) {
	if !g.online() {
		return
	}

	if _, err := g.remote.Put(ctx, g.collection, head); err != nil {
		g.logger.Debug().Err(err).Str("record", head.ID).Msg("opportunistic push failed; record stays pending")
		return
	}

	if head.Deleted {
		if err := g.local.Purge(ctx, head.ID); err != nil {
			g.logger.Warn().Err(err).Str("record", head.ID).Msg("purging acked tombstone failed")
		}
		return
	}

	if err := g.local.MarkSynced(ctx, head.ID, head.Revision, time.Now().UTC()); err != nil {
		g.logger.Warn().Err(err).Str("record", head.ID).Msg("marking record synced failed")
	}
}

// Search merges local and replica result sets while online, de-duplicated by
// id with the replica version preferred. Offline, or on any replica failure,
// the local result set is returned alone.
func (g *Gateway) Search(ctx context.Context, q models.Query) ([]models.Record, error) {
	localRecs, err := g.local.Query(ctx, q)
	if err != nil {
		return nil, err
	}

	if !g.online() {
		return localRecs, nil
	}

	remoteRecs, err := g.remote.Query(ctx, g.collection, q)
	if err != nil {
		g.logger.Debug().Err(err).Msg("remote search failed; using local results")
		return localRecs, nil
	}

	merged := make([]models.Record, 0, len(remoteRecs)+len(localRecs))
	seen := make(map[string]struct{}, len(remoteRecs))
	for _, rec := range remoteRecs {
		// A remote tombstone still claims its id: a stale live local copy
		// must not slip back into the results.
		seen[rec.ID] = struct{}{}
		if rec.Deleted {
			continue
		}
		merged = append(merged, rec)
	}
	for _, rec := range localRecs {
		if _, ok := seen[rec.ID]; ok {
			continue
		}
		merged = append(merged, rec)
	}

	return merged, nil
}
