package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/go-doc-sync/internal/config"
	"github.com/MKhiriev/go-doc-sync/internal/logger"
	"github.com/MKhiriev/go-doc-sync/internal/service"
	"github.com/MKhiriev/go-doc-sync/internal/store"
	"github.com/MKhiriev/go-doc-sync/models"
)

type recordServiceSpy struct {
	service.RecordService

	onPing    func(ctx context.Context) error
	onGet     func(ctx context.Context, collection string, id string) (models.Record, error)
	onPut     func(ctx context.Context, collection string, rec models.Record) (models.Record, error)
	onBulkPut func(ctx context.Context, collection string, recs []models.Record) ([]models.BulkOutcome, error)
	onChanges func(ctx context.Context, collection string, cursor string, limit int) (models.ChangesResponse, error)
	onQuery   func(ctx context.Context, collection string, q models.Query) ([]models.Record, error)
}

func (s *recordServiceSpy) Ping(ctx context.Context) error {
	if s.onPing == nil {
		return nil
	}
	return s.onPing(ctx)
}

func (s *recordServiceSpy) GetRecord(ctx context.Context, collection string, id string) (models.Record, error) {
	return s.onGet(ctx, collection, id)
}

func (s *recordServiceSpy) PutRecord(ctx context.Context, collection string, rec models.Record) (models.Record, error) {
	return s.onPut(ctx, collection, rec)
}

func (s *recordServiceSpy) BulkPutRecords(ctx context.Context, collection string, recs []models.Record) ([]models.BulkOutcome, error) {
	return s.onBulkPut(ctx, collection, recs)
}

func (s *recordServiceSpy) Changes(ctx context.Context, collection string, cursor string, limit int) (models.ChangesResponse, error) {
	return s.onChanges(ctx, collection, cursor, limit)
}

func (s *recordServiceSpy) QueryRecords(ctx context.Context, collection string, q models.Query) ([]models.Record, error) {
	return s.onQuery(ctx, collection, q)
}

func newTestServer(t *testing.T, spy *recordServiceSpy, cfg config.Server) *httptest.Server {
	t.Helper()

	handler := NewHandler(&service.Services{RecordService: spy}, cfg, logger.Nop())
	srv := httptest.NewServer(handler.Init())
	t.Cleanup(srv.Close)
	return srv
}

func TestHandlerPing(t *testing.T) {
	srv := newTestServer(t, &recordServiceSpy{}, config.Server{})

	resp, err := http.Get(srv.URL + "/api/ping")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Trace-ID"))
}

func TestHandlerGetRecord(t *testing.T) {
	stored := models.Record{ID: "doc-1", Revision: "1-a", Fields: []byte(`{"title":"x"}`), UpdatedAt: time.Now().UTC()}

	tests := []struct {
		name       string
		getErr     error
		wantStatus int
	}{
		{name: "found", wantStatus: http.StatusOK},
		{name: "missing record", getErr: store.ErrNotFound, wantStatus: http.StatusNotFound},
		{name: "storage failure", getErr: store.ErrExecutingQuery, wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, &recordServiceSpy{
				onGet: func(_ context.Context, collection string, id string) (models.Record, error) {
					assert.Equal(t, "documents", collection)
					assert.Equal(t, "doc-1", id)
					if tt.getErr != nil {
						return models.Record{}, tt.getErr
					}
					return stored, nil
				},
			}, config.Server{})

			resp, err := http.Get(srv.URL + "/api/c/documents/doc-1")
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			if tt.wantStatus == http.StatusOK {
				var rec models.Record
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&rec))
				assert.Equal(t, stored.Revision, rec.Revision)
			}
		})
	}
}

func TestHandlerPutRecord(t *testing.T) {
	srv := newTestServer(t, &recordServiceSpy{
		onPut: func(_ context.Context, collection string, rec models.Record) (models.Record, error) {
			assert.Equal(t, "documents", collection)
			assert.Equal(t, "doc-1", rec.ID)
			return rec, nil
		},
	}, config.Server{})

	body, err := json.Marshal(models.Record{ID: "doc-1", Revision: "1-a", Fields: []byte(`{"title":"x"}`)})
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPut, srv.URL+"/api/c/documents/doc-1", bytes.NewReader(body))
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHandlerPutRecordConflict(t *testing.T) {
	srv := newTestServer(t, &recordServiceSpy{
		onPut: func(_ context.Context, _ string, _ models.Record) (models.Record, error) {
			return models.Record{}, store.ErrRevisionConflict
		},
	}, config.Server{})

	body, _ := json.Marshal(models.Record{ID: "doc-1", Revision: "1-stale"})
	req, err := http.NewRequest(http.MethodPut, srv.URL+"/api/c/documents/doc-1", bytes.NewReader(body))
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestHandlerPutRecordIDMismatch(t *testing.T) {
	srv := newTestServer(t, &recordServiceSpy{
		onPut: func(_ context.Context, _ string, _ models.Record) (models.Record, error) {
			t.Fatal("a mismatched record must not reach the service")
			return models.Record{}, nil
		},
	}, config.Server{})

	body, _ := json.Marshal(models.Record{ID: "doc-2", Revision: "1-a"})
	req, err := http.NewRequest(http.MethodPut, srv.URL+"/api/c/documents/doc-1", bytes.NewReader(body))
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandlerBulkPut(t *testing.T) {
	srv := newTestServer(t, &recordServiceSpy{
		onBulkPut: func(_ context.Context, collection string, recs []models.Record) ([]models.BulkOutcome, error) {
			assert.Equal(t, "documents", collection)
			require.Len(t, recs, 2)
			return []models.BulkOutcome{
				{ID: recs[0].ID, Revision: recs[0].Revision, Status: models.OutcomeOK},
				{ID: recs[1].ID, Status: models.OutcomeConflict},
			}, nil
		},
	}, config.Server{})

	request := models.BulkRequest{
		Records: []models.Record{
			{ID: "doc-1", Revision: "1-a"},
			{ID: "doc-2", Revision: "1-b"},
		},
		Length: 2,
	}
	body, err := json.Marshal(request)
	require.NoError(t, err)

	resp, err := http.Post(srv.URL+"/api/c/documents/bulk", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var bulkResponse models.BulkResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&bulkResponse))
	assert.Equal(t, 2, bulkResponse.Length)
	assert.Equal(t, models.OutcomeConflict, bulkResponse.Outcomes[1].Status)
}

func TestHandlerChanges(t *testing.T) {
	srv := newTestServer(t, &recordServiceSpy{
		onChanges: func(_ context.Context, collection string, cursor string, limit int) (models.ChangesResponse, error) {
			assert.Equal(t, "documents", collection)
			assert.Equal(t, "7", cursor)
			assert.Equal(t, 25, limit)
			return models.ChangesResponse{
				Records: []models.Record{{ID: "doc-1", Revision: "2-b"}},
				Cursor:  "8",
				Length:  1,
			}, nil
		},
	}, config.Server{})

	resp, err := http.Get(srv.URL + "/api/c/documents/changes?cursor=7&limit=25")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var changes models.ChangesResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&changes))
	assert.Equal(t, "8", changes.Cursor)
	require.Len(t, changes.Records, 1)
}

func TestHandlerChangesRejectsBadLimit(t *testing.T) {
	srv := newTestServer(t, &recordServiceSpy{}, config.Server{})

	resp, err := http.Get(srv.URL + "/api/c/documents/changes?limit=abc")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandlerQuery(t *testing.T) {
	srv := newTestServer(t, &recordServiceSpy{
		onQuery: func(_ context.Context, collection string, q models.Query) ([]models.Record, error) {
			assert.Equal(t, "documents", collection)
			require.Len(t, q.Filters, 1)
			assert.Equal(t, "updated_at", q.Filters[0].Field)
			return nil, nil
		},
	}, config.Server{})

	body, err := json.Marshal(models.Query{
		Filters: []models.Filter{{Field: "updated_at", Op: models.OpGte, Value: "2026-01-01T00:00:00Z"}},
	})
	require.NoError(t, err)

	resp, err := http.Post(srv.URL+"/api/c/documents/query", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var records []models.Record
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&records))
	assert.Empty(t, records)
}
