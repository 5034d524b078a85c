package http

import (
	"errors"
	"net/http"

	"github.com/MKhiriev/go-doc-sync/internal/service"
	"github.com/MKhiriev/go-doc-sync/internal/store"
)

var errorStatusMap = map[error]int{
	service.ErrNoCollection:      http.StatusBadRequest,
	service.ErrNoRecordID:        http.StatusBadRequest,
	service.ErrNoRevision:        http.StatusBadRequest,
	service.ErrNoRecordsProvided: http.StatusBadRequest,
	service.ErrInvalidLimit:      http.StatusBadRequest,
	service.ErrBatchTooLarge:     http.StatusRequestEntityTooLarge,

	store.ErrNotFound:         http.StatusNotFound,
	store.ErrRevisionConflict: http.StatusConflict,
	store.ErrRecordExists:     http.StatusConflict,
	store.ErrInvalidQuery:     http.StatusBadRequest,

	store.ErrExecutingQuery:        http.StatusInternalServerError,
	store.ErrExecutingStatement:    http.StatusInternalServerError,
	store.ErrBeginningTransaction:  http.StatusInternalServerError,
	store.ErrCommittingTransaction: http.StatusInternalServerError,
	store.ErrScanningRow:           http.StatusInternalServerError,
	store.ErrScanningRows:          http.StatusInternalServerError,
}

func statusFromError(err error) int {
	for target, status := range errorStatusMap {
		if errors.Is(err, target) {
			return status
		}
	}
	return http.StatusInternalServerError
}
