package service

import (
	"context"
	"time"

	"github.com/MKhiriev/go-doc-sync/internal/logger"
	"github.com/MKhiriev/go-doc-sync/internal/store"
	"github.com/MKhiriev/go-doc-sync/models"
)

// maxBatchSize caps one bulk push so a single client cannot monopolize the
// replica with an unbounded batch.
const maxBatchSize = 500

// defaultChangesLimit is used when a changes request carries no limit.
const defaultChangesLimit = 100

type recordService struct {
	records store.RecordRepository

	logger *logger.Logger
}

func NewRecordService(records store.RecordRepository, logger *logger.Logger) RecordService {
	return &recordService{
		records: records,
		logger:  logger,
	}
}

func (s *recordService) Ping(ctx context.Context) error {
	return s.records.Ping(ctx)
}

func (s *recordService) GetRecord(ctx context.Context, collection string, id string) (models.Record, error) {
	if collection == "" {
		return models.Record{}, ErrNoCollection
	}
	if id == "" {
		return models.Record{}, ErrNoRecordID
	}

	return s.records.Get(ctx, collection, id)
}

func (s *recordService) PutRecord(ctx context.Context, collection string, rec models.Record) (models.Record, error) {
	if collection == "" {
		return models.Record{}, ErrNoCollection
	}
	if err := validateRecord(rec); err != nil {
		return models.Record{}, err
	}

	return s.records.Put(ctx, collection, normalize(rec))
}

func (s *recordService) BulkPutRecords(ctx context.Context, collection string, recs []models.Record) ([]models.BulkOutcome, error) {
	if collection == "" {
		return nil, ErrNoCollection
	}
	if len(recs) == 0 {
		return nil, ErrNoRecordsProvided
	}
	if len(recs) > maxBatchSize {
		return nil, ErrBatchTooLarge
	}

	// Malformed records get a per-record outcome instead of failing the
	// batch; only valid ones reach storage.
	valid := make([]models.Record, 0, len(recs))
	rejected := make([]models.BulkOutcome, 0)
	for _, rec := range recs {
		if err := validateRecord(rec); err != nil {
			rejected = append(rejected, models.BulkOutcome{
				ID:      rec.ID,
				Status:  models.OutcomeError,
				Message: err.Error(),
			})
			continue
		}
		valid = append(valid, normalize(rec))
	}

	outcomes, err := s.records.BulkPut(ctx, collection, valid)
	if err != nil {
		return nil, err
	}

	return append(outcomes, rejected...), nil
}

func (s *recordService) Changes(ctx context.Context, collection string, cursor string, limit int) (models.ChangesResponse, error) {
	if collection == "" {
		return models.ChangesResponse{}, ErrNoCollection
	}
	if limit < 0 {
		return models.ChangesResponse{}, ErrInvalidLimit
	}
	if limit == 0 {
		limit = defaultChangesLimit
	}

	records, next, err := s.records.Changes(ctx, collection, cursor, limit)
	if err != nil {
		return models.ChangesResponse{}, err
	}

	return models.ChangesResponse{
		Records: records,
		Cursor:  next,
		Length:  len(records),
	}, nil
}

func (s *recordService) QueryRecords(ctx context.Context, collection string, q models.Query) ([]models.Record, error) {
	if collection == "" {
		return nil, ErrNoCollection
	}

	return s.records.Query(ctx, collection, q)
}

func validateRecord(rec models.Record) error {
	if rec.ID == "" {
		return ErrNoRecordID
	}
	if rec.Revision == "" {
		return ErrNoRevision
	}
	return nil
}

// normalize fills the timestamps a sloppy client omitted so the replica's
// conflict tie-breaking input is never the zero time.
func normalize(rec models.Record) models.Record {
	now := time.Now().UTC()
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = now
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = rec.UpdatedAt
	}
	return rec
}
