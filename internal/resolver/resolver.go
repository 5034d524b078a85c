// Package resolver picks a winner among diverged revisions of one record.
//
// The shipped policy is last-writer-wins by UpdatedAt with ties broken by
// the lexicographically greatest revision token, which makes resolution
// deterministic across replicas regardless of processing order. The policy
// is intentionally simple and data-loss-permissive: it never merges fields.
// It is a pluggable policy point: the coordinator only requires the
// [ConflictResolver] interface, so a CRDT/merge-based policy can be
// substituted without touching the coordinator.
//
// Known limitation: UpdatedAt comes from client clocks without any
// synchronization guarantee; with drifting clocks last-writer-wins may pick
// the wrong branch. No stronger ordering primitive (vector clocks) is used.
package resolver

import (
	"errors"

	"github.com/MKhiriev/go-doc-sync/models"
)

// ErrEmptyConflict is returned when a conflict carries no branches.
var ErrEmptyConflict = errors.New("conflict has no branches to resolve")

// ConflictResolver selects the winning revision of a conflicted record.
type ConflictResolver interface {
	// Resolve returns the branch that becomes the new head. The losing
	// branches are pruned by the caller.
	Resolve(conflict models.Conflict) (models.Record, error)
}

type lastWriterWins struct{}

// NewLastWriterWins constructs the default resolution policy.
func NewLastWriterWins() ConflictResolver {
	return lastWriterWins{}
}

// Resolve implements ConflictResolver: maximum UpdatedAt wins, ties go to
// the greatest revision token.
func (lastWriterWins) Resolve(conflict models.Conflict) (models.Record, error) {
	if len(conflict.Branches) == 0 {
		return models.Record{}, ErrEmptyConflict
	}

	winner := conflict.Branches[0]
	for _, branch := range conflict.Branches[1:] {
		switch {
		case branch.UpdatedAt.After(winner.UpdatedAt):
			winner = branch
		case branch.UpdatedAt.Equal(winner.UpdatedAt) && branch.Revision > winner.Revision:
			winner = branch
		}
	}

	return winner, nil
}
