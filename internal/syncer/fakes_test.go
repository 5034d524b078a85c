package syncer

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/MKhiriev/go-doc-sync/internal/adapter"
	"github.com/MKhiriev/go-doc-sync/internal/store"
	"github.com/MKhiriev/go-doc-sync/internal/utils"
	"github.com/MKhiriev/go-doc-sync/models"
)

// fakeLocal is an in-memory LocalStore with the same optimistic-concurrency
// semantics as the SQLite implementation, safe for concurrent use.
type fakeLocal struct {
	mu       sync.Mutex
	records  map[string]models.Record
	branches map[string][]models.Record
	cursor   string
}

func newFakeLocal() *fakeLocal {
	return &fakeLocal{
		records:  map[string]models.Record{},
		branches: map[string][]models.Record{},
	}
}

func (f *fakeLocal) seed(recs ...models.Record) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, rec := range recs {
		f.records[rec.ID] = rec
	}
}

func (f *fakeLocal) record(id string) (models.Record, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[id]
	return rec, ok
}

// liveRevisions snapshots the undeleted records as an id-to-revision map.
func (f *fakeLocal) liveRevisions() map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()

	live := map[string]string{}
	for id, rec := range f.records {
		if !rec.Deleted {
			live[id] = rec.Revision
		}
	}
	return live
}

func (f *fakeLocal) Create(_ context.Context, rec models.Record) (models.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if rec.ID == "" {
		rec.ID = utils.NewRecordID()
	}
	if _, ok := f.records[rec.ID]; ok {
		return models.Record{}, store.ErrRecordExists
	}

	now := time.Now().UTC()
	rec.Revision = utils.NewRevision("")
	rec.CreatedAt = now
	rec.UpdatedAt = now
	rec.SyncStatus = models.StatusPending
	f.records[rec.ID] = rec
	return rec, nil
}

func (f *fakeLocal) Get(_ context.Context, id string) (models.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	rec, ok := f.records[id]
	if !ok {
		return models.Record{}, store.ErrNotFound
	}
	return rec, nil
}

func (f *fakeLocal) Update(_ context.Context, rec models.Record) (models.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	head, ok := f.records[rec.ID]
	if !ok {
		return models.Record{}, store.ErrNotFound
	}
	if head.Revision != rec.Revision {
		return models.Record{}, store.ErrRevisionConflict
	}

	rec.ParentRevision = head.Revision
	rec.Revision = utils.NewRevision(head.Revision)
	rec.UpdatedAt = time.Now().UTC()
	rec.SyncStatus = models.StatusPending
	f.records[rec.ID] = rec
	return rec, nil
}

func (f *fakeLocal) Delete(ctx context.Context, id string, baseRevision string) (models.Record, error) {
	rec := models.Record{ID: id, Revision: baseRevision, Deleted: true}
	return f.Update(ctx, rec)
}

func (f *fakeLocal) Query(_ context.Context, _ models.Query) ([]models.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var recs []models.Record
	for _, rec := range f.records {
		if !rec.Deleted {
			recs = append(recs, rec)
		}
	}
	return recs, nil
}

func (f *fakeLocal) ListPending(_ context.Context) ([]models.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var pending []models.Record
	for _, rec := range f.records {
		if rec.SyncStatus == models.StatusPending || rec.SyncStatus == models.StatusError {
			pending = append(pending, rec)
		}
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].ID < pending[j].ID })
	return pending, nil
}

func (f *fakeLocal) ListConflicts(_ context.Context) ([]models.Conflict, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var conflicts []models.Conflict
	for id, branches := range f.branches {
		head := f.records[id]
		conflicts = append(conflicts, models.Conflict{
			RecordID: id,
			Branches: append([]models.Record{head}, branches...),
		})
	}
	sort.Slice(conflicts, func(i, j int) bool { return conflicts[i].RecordID < conflicts[j].RecordID })
	return conflicts, nil
}

func (f *fakeLocal) RegisterConflict(_ context.Context, branch models.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.branches[branch.ID] = append(f.branches[branch.ID], branch)
	if head, ok := f.records[branch.ID]; ok {
		head.SyncStatus = models.StatusConflicted
		f.records[branch.ID] = head
	}
	return nil
}

func (f *fakeLocal) ResolveConflict(_ context.Context, recordID string, winner models.Record, status models.SyncStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	winner.SyncStatus = status
	f.records[recordID] = winner
	delete(f.branches, recordID)
	return nil
}

func (f *fakeLocal) ApplyRemote(_ context.Context, rec models.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	rec.SyncStatus = models.StatusSynced
	f.records[rec.ID] = rec
	return nil
}

func (f *fakeLocal) MarkSynced(_ context.Context, id string, revision string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	rec, ok := f.records[id]
	if !ok || rec.Revision != revision {
		return nil
	}
	rec.SyncStatus = models.StatusSynced
	rec.LastSyncedAt = &at
	f.records[id] = rec
	return nil
}

func (f *fakeLocal) MarkError(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	rec, ok := f.records[id]
	if !ok {
		return store.ErrNotFound
	}
	rec.SyncStatus = models.StatusError
	f.records[id] = rec
	return nil
}

func (f *fakeLocal) Purge(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.records, id)
	return nil
}

func (f *fakeLocal) Cursor(_ context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cursor, nil
}

func (f *fakeLocal) SaveCursor(_ context.Context, cursor string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cursor = cursor
	return nil
}

func (f *fakeLocal) Close() error { return nil }

// fakeRemote is an in-memory RemoteStore with an ordered change feed. Errors
// and per-record outcomes are injectable.
type fakeRemote struct {
	mu       sync.Mutex
	token    string
	records  map[string]models.Record
	feed     []models.Record
	outcomes map[string]models.BulkOutcome

	probeErr error
	callErr  error

	probeCalls int
	bulkCalls  int
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		records:  map[string]models.Record{},
		outcomes: map[string]models.BulkOutcome{},
	}
}

func (f *fakeRemote) seed(recs ...models.Record) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, rec := range recs {
		f.records[rec.ID] = rec
		f.feed = append(f.feed, rec)
	}
}

func (f *fakeRemote) failRecord(id string, outcome models.BulkOutcome) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.outcomes[id] = outcome
}

func (f *fakeRemote) setProbeErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.probeErr = err
}

func (f *fakeRemote) setCallErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.callErr = err
}

func (f *fakeRemote) record(id string) (models.Record, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[id]
	return rec, ok
}

// liveRevisions snapshots the undeleted records as an id-to-revision map.
func (f *fakeRemote) liveRevisions() map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()

	live := map[string]string{}
	for id, rec := range f.records {
		if !rec.Deleted {
			live[id] = rec.Revision
		}
	}
	return live
}

func (f *fakeRemote) SetToken(token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.token = token
}

func (f *fakeRemote) Token() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.token
}

func (f *fakeRemote) Probe(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.probeCalls++
	return f.probeErr
}

func (f *fakeRemote) Get(_ context.Context, _ string, id string) (models.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.callErr != nil {
		return models.Record{}, f.callErr
	}
	rec, ok := f.records[id]
	if !ok {
		return models.Record{}, adapter.ErrNotFound
	}
	return rec, nil
}

func (f *fakeRemote) Put(_ context.Context, _ string, rec models.Record) (models.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.callErr != nil {
		return models.Record{}, f.callErr
	}
	f.records[rec.ID] = rec
	f.feed = append(f.feed, rec)
	return rec, nil
}

func (f *fakeRemote) BulkPut(_ context.Context, _ string, recs []models.Record) ([]models.BulkOutcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.bulkCalls++
	if f.callErr != nil {
		return nil, f.callErr
	}

	outcomes := make([]models.BulkOutcome, 0, len(recs))
	for _, rec := range recs {
		if outcome, ok := f.outcomes[rec.ID]; ok {
			outcomes = append(outcomes, outcome)
			continue
		}
		f.records[rec.ID] = rec
		f.feed = append(f.feed, rec)
		outcomes = append(outcomes, models.BulkOutcome{
			ID:       rec.ID,
			Revision: rec.Revision,
			Status:   models.OutcomeOK,
		})
	}
	return outcomes, nil
}

func (f *fakeRemote) Changes(_ context.Context, _ string, cursor string, limit int) ([]models.Record, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.callErr != nil {
		return nil, "", f.callErr
	}

	start := 0
	if cursor != "" {
		start, _ = strconv.Atoi(cursor)
	}
	if start > len(f.feed) {
		start = len(f.feed)
	}

	end := min(start+limit, len(f.feed))
	page := append([]models.Record(nil), f.feed[start:end]...)
	return page, strconv.Itoa(end), nil
}

func (f *fakeRemote) Query(_ context.Context, _ string, _ models.Query) ([]models.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.callErr != nil {
		return nil, f.callErr
	}
	var recs []models.Record
	for _, rec := range f.records {
		if !rec.Deleted {
			recs = append(recs, rec)
		}
	}
	return recs, nil
}
