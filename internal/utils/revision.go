// Package utils provides small helpers shared across the application:
// revision token generation and ordering, and HTTP response writing.
package utils

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// NewRevision produces an opaque revision token descending from parent.
// Tokens have the form "<generation>-<uuid>": the generation prefix records
// how deep the revision sits in its tree, the uuid suffix makes concurrent
// revisions of the same generation distinct and lexicographically ordered
// for deterministic tie-breaking.
func NewRevision(parent string) string {
	return fmt.Sprintf("%d-%s", RevisionGeneration(parent)+1, newUUID())
}

// RevisionGeneration extracts the generation prefix of a revision token.
// Returns 0 for an empty or malformed token, so a first revision is always
// generation 1.
func RevisionGeneration(revision string) int64 {
	gen, _, ok := strings.Cut(revision, "-")
	if !ok {
		return 0
	}

	n, err := strconv.ParseInt(gen, 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// NewRecordID generates a collection-unique record identifier.
func NewRecordID() string {
	return newUUID()
}

func newUUID() string {
	v7, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}

	return v7.String()
}
