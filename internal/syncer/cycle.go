// SPDX-License-Identifier: Apache-2.0
package syncer

import (
	"context"
	"errors"
	"time"

	"github.com/MKhiriev/go-doc-sync/internal/adapter"
	"github.com/MKhiriev/go-doc-sync/internal/store"
	"github.com/MKhiriev/go-doc-sync/internal/utils"
	"github.com/MKhiriev/go-doc-sync/models"
)

// cycle runs one full replication pass: push local pending mutations, pull
// the remote change feed from the persisted cursor, then resolve registered
// conflicts. It reports whether any record moved, so the caller knows to run
// another pass before parking in paused.
func (c *Coordinator) cycle(ctx context.Context) (bool, error) {
	pushed, err := c.push(ctx)
	if err != nil {
		return pushed > 0, err
	}

	pulled, err := c.pull(ctx)
	if err != nil {
		return pushed+pulled > 0, err
	}

	resolved, err := c.resolve(ctx)
	if err != nil {
		return pushed+pulled+resolved > 0, err
	}

	return pushed+pulled+resolved > 0, nil
}

// push uploads every pending local mutation in bounded batches. Outcomes are
// per record: a conflict or a server-side failure on one record never blocks
// the rest of the batch.
func (c *Coordinator) push(ctx context.Context) (int, error) {
	pending, err := c.local.ListPending(ctx)
	if err != nil {
		return 0, err
	}
	if len(pending) == 0 {
		return 0, nil
	}

	c.logger.Debug().Int("records", len(pending)).Msg("pushing pending records")

	var confirmed int
	for start := 0; start < len(pending); start += c.cfg.BatchSize {
		end := min(start+c.cfg.BatchSize, len(pending))
		batch := pending[start:end]

		outcomes, err := c.pushBatch(ctx, batch)
		if err != nil {
			return confirmed, err
		}

		byID := make(map[string]models.Record, len(batch))
		for _, rec := range batch {
			byID[rec.ID] = rec
		}

		for _, outcome := range outcomes {
			rec, ok := byID[outcome.ID]
			if !ok {
				c.logger.Warn().Str("record", outcome.ID).Msg("outcome for a record outside the batch")
				continue
			}

			if err := c.settle(ctx, rec, outcome); err != nil {
				return confirmed, err
			}
			if outcome.Status == models.OutcomeOK {
				confirmed++
			}
		}
	}

	return confirmed, nil
}

func (c *Coordinator) pushBatch(ctx context.Context, batch []models.Record) ([]models.BulkOutcome, error) {
	batchCtx, cancel := context.WithTimeout(ctx, c.cfg.BatchTimeout)
	defer cancel()

	return c.remote.BulkPut(batchCtx, c.collection, batch)
}

// settle applies one push outcome to the local store.
func (c *Coordinator) settle(ctx context.Context, rec models.Record, outcome models.BulkOutcome) error {
	switch outcome.Status {
	case models.OutcomeOK:
		if rec.Deleted {
			// The replica confirmed the deletion; the tombstone has served
			// its purpose.
			return c.local.Purge(ctx, rec.ID)
		}
		return c.local.MarkSynced(ctx, rec.ID, rec.Revision, time.Now().UTC())

	case models.OutcomeConflict:
		return c.registerRemoteBranch(ctx, rec.ID)

	default:
		c.logger.Warn().
			Str("record", rec.ID).
			Str("reason", outcome.Message).
			Msg("replica rejected record")
		c.bus.Publish(models.EventError, rec.ID, outcome.Message)
		return c.local.MarkError(ctx, rec.ID)
	}
}

// registerRemoteBranch fetches the replica's diverged head for a conflicted
// push and registers it locally so the resolve pass can pick a winner.
func (c *Coordinator) registerRemoteBranch(ctx context.Context, id string) error {
	fetchCtx, cancel := context.WithTimeout(ctx, c.cfg.BatchTimeout)
	defer cancel()

	branch, err := c.remote.Get(fetchCtx, c.collection, id)
	if err != nil {
		if errors.Is(err, adapter.ErrNotFound) {
			// The conflicting head vanished between the push and the fetch;
			// the next push attempt re-evaluates from scratch.
			return c.local.MarkError(ctx, id)
		}
		return err
	}

	return c.local.RegisterConflict(ctx, branch)
}

// pull drains the remote change feed from the persisted cursor. The cursor
// advances only after a page has been fully applied, so an interrupted pull
// re-reads at most one page.
func (c *Coordinator) pull(ctx context.Context) (int, error) {
	cursor, err := c.local.Cursor(ctx)
	if err != nil {
		return 0, err
	}

	var applied int
	for {
		pageCtx, cancel := context.WithTimeout(ctx, c.cfg.BatchTimeout)
		page, next, err := c.remote.Changes(pageCtx, c.collection, cursor, c.cfg.BatchSize)
		cancel()
		if err != nil {
			return applied, err
		}

		for _, rec := range page {
			moved, err := c.apply(ctx, rec)
			if err != nil {
				return applied, err
			}
			if moved {
				applied++
			}
		}

		if next != cursor {
			if err := c.local.SaveCursor(ctx, next); err != nil {
				return applied, err
			}
		}

		if len(page) < c.cfg.BatchSize || next == cursor {
			return applied, nil
		}
		cursor = next
	}
}

// apply integrates one pulled record into the local store. Echoes of our own
// pushes are skipped; a record with unconfirmed local mutations becomes a
// registered conflict instead of being overwritten.
func (c *Coordinator) apply(ctx context.Context, rec models.Record) (bool, error) {
	head, err := c.local.Get(ctx, rec.ID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		if rec.Deleted {
			// A tombstone for a record this client never stored.
			return false, nil
		}
		if err := c.local.ApplyRemote(ctx, rec); err != nil {
			return false, err
		}
		c.bus.Publish(models.EventChanged, rec.ID, "")
		return true, nil

	case err != nil:
		return false, err
	}

	if head.Revision == rec.Revision {
		return false, nil
	}

	if head.SyncStatus != models.StatusSynced {
		// Both sides moved since the common ancestor; keep the remote branch
		// next to the local head for the resolve pass.
		if err := c.local.RegisterConflict(ctx, rec); err != nil {
			return false, err
		}
		return true, nil
	}

	if err := c.local.ApplyRemote(ctx, rec); err != nil {
		return false, err
	}
	if rec.Deleted {
		if err := c.local.Purge(ctx, rec.ID); err != nil {
			return false, err
		}
	}
	c.bus.Publish(models.EventChanged, rec.ID, "")
	return true, nil
}

// resolve settles every registered conflict through the configured policy.
// A winning local branch goes back to pending so the next push propagates
// it; a winning remote branch is installed as synced.
func (c *Coordinator) resolve(ctx context.Context) (int, error) {
	conflicts, err := c.local.ListConflicts(ctx)
	if err != nil {
		return 0, err
	}

	var resolved int
	for _, conflict := range conflicts {
		winner, err := c.resolver.Resolve(conflict)
		if err != nil {
			c.logger.Error().Err(err).Str("record", conflict.RecordID).Msg("conflict resolution failed")
			c.bus.Publish(models.EventError, conflict.RecordID, err.Error())
			continue
		}

		head, err := c.local.Get(ctx, conflict.RecordID)
		if err != nil {
			return resolved, err
		}

		status := models.StatusSynced
		if winner.Revision == head.Revision {
			// The local branch won; re-parent it onto the defeated remote
			// head so the next push fast-forwards instead of conflicting
			// again, and keep it pending until that push is confirmed.
			if remoteRev := greatestOtherRevision(conflict.Branches, head.Revision); remoteRev != "" {
				winner.ParentRevision = remoteRev
				winner.Revision = utils.NewRevision(remoteRev)
			}
			status = models.StatusPending
		}

		if err := c.local.ResolveConflict(ctx, conflict.RecordID, winner, status); err != nil {
			return resolved, err
		}

		if status == models.StatusSynced && winner.Deleted {
			// The replica's deletion won; the installed tombstone is already
			// acknowledged and can go right away.
			if err := c.local.Purge(ctx, conflict.RecordID); err != nil {
				return resolved, err
			}
		}

		c.bus.Publish(models.EventChanged, conflict.RecordID, "")
		resolved++
	}

	return resolved, nil
}

// greatestOtherRevision returns the lexicographically greatest revision among
// the branches excluding the local head, empty when none exist.
func greatestOtherRevision(branches []models.Record, headRevision string) string {
	var greatest string
	for _, branch := range branches {
		if branch.Revision == headRevision {
			continue
		}
		if branch.Revision > greatest {
			greatest = branch.Revision
		}
	}
	return greatest
}
