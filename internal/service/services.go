package service

import (
	"github.com/MKhiriev/go-doc-sync/internal/logger"
	"github.com/MKhiriev/go-doc-sync/internal/store"
)

type Services struct {
	RecordService RecordService
}

func NewServices(records store.RecordRepository, logger *logger.Logger) *Services {
	return &Services{
		RecordService: NewRecordService(records, logger),
	}
}
