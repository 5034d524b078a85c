package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/MKhiriev/go-doc-sync/models"
)

// HTTPClientConfig holds the settings of the replica HTTP endpoint.
type HTTPClientConfig struct {
	BaseURL      string
	Token        string
	Timeout      time.Duration
	ProbeTimeout time.Duration
}

type httpRemoteStore struct {
	client       *resty.Client
	probeTimeout time.Duration

	mu    sync.RWMutex
	token string
}

// NewHTTPRemoteStore constructs a [RemoteStore] speaking the replica's HTTP
// API via resty.
func NewHTTPRemoteStore(cfg HTTPClientConfig) RemoteStore {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:8080"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = 3 * time.Second
	}

	cli := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout)

	return &httpRemoteStore{
		client:       cli,
		probeTimeout: cfg.ProbeTimeout,
		token:        strings.TrimSpace(cfg.Token),
	}
}

func (h *httpRemoteStore) SetToken(token string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.token = strings.TrimSpace(token)
}

func (h *httpRemoteStore) Token() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.token
}

func (h *httpRemoteStore) Probe(ctx context.Context) error {
	probeCtx, cancel := context.WithTimeout(ctx, h.probeTimeout)
	defer cancel()

	resp, err := h.authedRequest(probeCtx).Get("/api/ping")
	if err != nil {
		return fmt.Errorf("%w: probe: %w", ErrUnreachable, err)
	}

	return mapHTTPError(resp)
}

func (h *httpRemoteStore) Get(ctx context.Context, collection string, id string) (models.Record, error) {
	resp, err := h.authedRequest(ctx).Get(recordPath(collection, id))
	if err != nil {
		return models.Record{}, fmt.Errorf("%w: get request: %w", ErrUnreachable, err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.Record{}, err
	}

	var rec models.Record
	if err = json.Unmarshal(resp.Body(), &rec); err != nil {
		return models.Record{}, fmt.Errorf("decode get response: %w", err)
	}

	return rec, nil
}

func (h *httpRemoteStore) Put(ctx context.Context, collection string, rec models.Record) (models.Record, error) {
	resp, err := h.authedRequest(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(rec).
		Put(recordPath(collection, rec.ID))
	if err != nil {
		return models.Record{}, fmt.Errorf("%w: put request: %w", ErrUnreachable, err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.Record{}, err
	}

	var stored models.Record
	if err = json.Unmarshal(resp.Body(), &stored); err != nil {
		return models.Record{}, fmt.Errorf("decode put response: %w", err)
	}

	return stored, nil
}

func (h *httpRemoteStore) BulkPut(ctx context.Context, collection string, recs []models.Record) ([]models.BulkOutcome, error) {
	req := models.BulkRequest{Records: recs, Length: len(recs)}

	resp, err := h.authedRequest(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(req).
		Post(collectionPath(collection) + "/bulk")
	if err != nil {
		return nil, fmt.Errorf("%w: bulk put request: %w", ErrUnreachable, err)
	}
	if err = mapHTTPError(resp); err != nil {
		return nil, err
	}

	var br models.BulkResponse
	if err = json.Unmarshal(resp.Body(), &br); err != nil {
		return nil, fmt.Errorf("decode bulk response: %w", err)
	}

	return br.Outcomes, nil
}

func (h *httpRemoteStore) Changes(ctx context.Context, collection string, cursor string, limit int) ([]models.Record, string, error) {
	req := h.authedRequest(ctx).SetQueryParam("cursor", cursor)
	if limit > 0 {
		req.SetQueryParam("limit", strconv.Itoa(limit))
	}

	resp, err := req.Get(collectionPath(collection) + "/changes")
	if err != nil {
		return nil, "", fmt.Errorf("%w: changes request: %w", ErrUnreachable, err)
	}
	if err = mapHTTPError(resp); err != nil {
		return nil, "", err
	}

	var cr models.ChangesResponse
	if err = json.Unmarshal(resp.Body(), &cr); err != nil {
		return nil, "", fmt.Errorf("decode changes response: %w", err)
	}

	return cr.Records, cr.Cursor, nil
}

func (h *httpRemoteStore) Query(ctx context.Context, collection string, q models.Query) ([]models.Record, error) {
	resp, err := h.authedRequest(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(q).
		Post(collectionPath(collection) + "/query")
	if err != nil {
		return nil, fmt.Errorf("%w: query request: %w", ErrUnreachable, err)
	}
	if err = mapHTTPError(resp); err != nil {
		return nil, err
	}

	var records []models.Record
	if err = json.Unmarshal(resp.Body(), &records); err != nil {
		return nil, fmt.Errorf("decode query response: %w", err)
	}

	return records, nil
}

func (h *httpRemoteStore) authedRequest(ctx context.Context) *resty.Request {
	req := h.client.R().SetContext(ctx)
	if token := h.Token(); token != "" {
		req.SetHeader("Authorization", "Bearer "+token)
	}
	return req
}

func collectionPath(collection string) string {
	return "/api/c/" + collection
}

func recordPath(collection string, id string) string {
	return collectionPath(collection) + "/" + id
}

func mapHTTPError(resp *resty.Response) error {
	code := resp.StatusCode()
	if code >= http.StatusOK && code < http.StatusMultipleChoices {
		return nil
	}

	body := strings.TrimSpace(string(resp.Body()))
	if body == "" {
		body = http.StatusText(code)
	}

	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return fmt.Errorf("%w: http %d: %s", ErrDenied, code, body)
	case code == http.StatusNotFound:
		return fmt.Errorf("%w: http %d: %s", ErrNotFound, code, body)
	case code == http.StatusConflict:
		return fmt.Errorf("%w: http %d: %s", ErrRevisionConflict, code, body)
	case code >= http.StatusInternalServerError:
		return fmt.Errorf("%w: http %d: %s", ErrUnreachable, code, body)
	default:
		return fmt.Errorf("http %d: %s", code, body)
	}
}
