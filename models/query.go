package models

// FilterOp is a comparison operator usable in a query filter.
type FilterOp string

const (
	OpEq  FilterOp = "eq"
	OpLt  FilterOp = "lt"
	OpLte FilterOp = "lte"
	OpGt  FilterOp = "gt"
	OpGte FilterOp = "gte"
)

// Filter is a single predicate on an indexed record column
// (id, created_at, updated_at, sync_status, deleted).
type Filter struct {
	Field string   `json:"field"`
	Op    FilterOp `json:"op"`
	Value any      `json:"value"`
}

// Query describes an indexed record lookup. Tombstones are excluded unless
// IncludeDeleted is set.
type Query struct {
	Filters        []Filter `json:"filters,omitempty"`
	Limit          uint64   `json:"limit,omitempty"`
	IncludeDeleted bool     `json:"include_deleted,omitempty"`
}

// Where returns a query with an extra equality filter appended.
func (q Query) Where(field string, op FilterOp, value any) Query {
	q.Filters = append(q.Filters, Filter{Field: field, Op: op, Value: value})
	return q
}
