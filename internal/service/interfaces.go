package service

import (
	"context"

	"github.com/MKhiriev/go-doc-sync/models"
)

// RecordService is the replica-side application layer between the HTTP
// handlers and the record repository. It validates requests and normalizes
// records before they reach storage.
type RecordService interface {
	Ping(ctx context.Context) error

	GetRecord(ctx context.Context, collection string, id string) (models.Record, error)
	PutRecord(ctx context.Context, collection string, rec models.Record) (models.Record, error)
	BulkPutRecords(ctx context.Context, collection string, recs []models.Record) ([]models.BulkOutcome, error)
	Changes(ctx context.Context, collection string, cursor string, limit int) (models.ChangesResponse, error)
	QueryRecords(ctx context.Context, collection string, q models.Query) ([]models.Record, error)
}
