package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/MKhiriev/go-doc-sync/internal/logger"
	"github.com/MKhiriev/go-doc-sync/internal/utils"
	"github.com/MKhiriev/go-doc-sync/models"
)

func (h *Handler) ping(w http.ResponseWriter, r *http.Request) {
	if err := h.services.RecordService.Ping(r.Context()); err != nil {
		log := logger.FromRequest(r)
		log.Error().Err(err).Msg("storage ping failed")
		http.Error(w, "storage unavailable", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (h *Handler) getRecord(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	collection := chi.URLParam(r, "collection")
	id := chi.URLParam(r, "id")

	rec, err := h.services.RecordService.GetRecord(ctx, collection, id)
	if err != nil {
		log.Debug().Err(err).Str("record", id).Msg("error getting record")
		http.Error(w, "error getting record", statusFromError(err))
		return
	}

	utils.WriteJSON(w, rec, http.StatusOK)
}

func (h *Handler) putRecord(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	collection := chi.URLParam(r, "collection")
	id := chi.URLParam(r, "id")

	var rec models.Record
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		log.Err(err).Msg("invalid JSON was passed")
		http.Error(w, "invalid JSON was passed", http.StatusBadRequest)
		return
	}
	if rec.ID == "" {
		rec.ID = id
	}
	if rec.ID != id {
		http.Error(w, "record id does not match the path", http.StatusBadRequest)
		return
	}

	stored, err := h.services.RecordService.PutRecord(ctx, collection, rec)
	if err != nil {
		log.Debug().Err(err).Str("record", id).Msg("error storing record")
		http.Error(w, "error storing record", statusFromError(err))
		return
	}

	utils.WriteJSON(w, stored, http.StatusOK)
}

func (h *Handler) bulkPutRecords(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	collection := chi.URLParam(r, "collection")

	var bulkRequest models.BulkRequest
	if err := json.NewDecoder(r.Body).Decode(&bulkRequest); err != nil {
		log.Err(err).Msg("invalid JSON was passed")
		http.Error(w, "invalid JSON was passed", http.StatusBadRequest)
		return
	}

	outcomes, err := h.services.RecordService.BulkPutRecords(ctx, collection, bulkRequest.Records)
	if err != nil {
		log.Error().Err(err).Msg("error applying bulk push")
		http.Error(w, "error applying bulk push", statusFromError(err))
		return
	}

	response := models.BulkResponse{
		Outcomes: outcomes,
		Length:   len(outcomes),
	}

	utils.WriteJSON(w, response, http.StatusOK)
}

func (h *Handler) changes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	collection := chi.URLParam(r, "collection")
	cursor := r.URL.Query().Get("cursor")

	limit := 0
	if rawLimit := r.URL.Query().Get("limit"); rawLimit != "" {
		parsed, err := strconv.Atoi(rawLimit)
		if err != nil {
			http.Error(w, "limit must be an integer", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	response, err := h.services.RecordService.Changes(ctx, collection, cursor, limit)
	if err != nil {
		log.Error().Err(err).Msg("error reading change feed")
		http.Error(w, "error reading change feed", statusFromError(err))
		return
	}

	utils.WriteJSON(w, response, http.StatusOK)
}

func (h *Handler) queryRecords(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	collection := chi.URLParam(r, "collection")

	var q models.Query
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
		log.Err(err).Msg("invalid JSON was passed")
		http.Error(w, "invalid JSON was passed", http.StatusBadRequest)
		return
	}

	records, err := h.services.RecordService.QueryRecords(ctx, collection, q)
	if err != nil {
		log.Debug().Err(err).Msg("error querying records")
		http.Error(w, "error querying records", statusFromError(err))
		return
	}
	if records == nil {
		records = []models.Record{}
	}

	utils.WriteJSON(w, records, http.StatusOK)
}
