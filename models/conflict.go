package models

// Conflict groups the revisions of one record that diverged from a common
// ancestor. It exists only transiently: the coordinator hands it to the
// resolver right after every pull and the losing branches are pruned.
type Conflict struct {
	RecordID string   `json:"record_id"`
	Branches []Record `json:"branches"`
}
