package models

// OutcomeStatus classifies the per-record result of a bulk push.
type OutcomeStatus string

const (
	OutcomeOK       OutcomeStatus = "ok"
	OutcomeConflict OutcomeStatus = "conflict"
	OutcomeError    OutcomeStatus = "error"
)

// BulkOutcome is the per-record result of a bulk push. One failing record
// never fails the batch: the replica reports an outcome for every record.
type BulkOutcome struct {
	ID       string        `json:"id"`
	Revision string        `json:"revision,omitempty"`
	Status   OutcomeStatus `json:"status"`
	Message  string        `json:"message,omitempty"`
}

// BulkRequest is the payload of a batched push to the remote replica.
type BulkRequest struct {
	Records []Record `json:"records"`
	Length  int      `json:"length"`
}

// BulkResponse carries per-record outcomes for a bulk push.
type BulkResponse struct {
	Outcomes []BulkOutcome `json:"outcomes"`
	Length   int           `json:"length"`
}

// ChangesResponse is one page of the incremental change feed. Cursor is an
// opaque checkpoint the client persists and passes back on the next pull.
type ChangesResponse struct {
	Records []Record `json:"records"`
	Cursor  string   `json:"cursor"`
	Length  int      `json:"length"`
}
