// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Alexei Karpov

package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/akarpov/go-alertsync/internal/logger"
	"github.com/akarpov/go-alertsync/internal/service"
	"github.com/akarpov/go-alertsync/internal/utils"
)

func (h *Handler) listRecords(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	records, err := h.store.GetAll(ctx)
	if err != nil {
		log.Err(err).Str("func", "*Handler.listRecords").Msg("error listing records")
		http.Error(w, "error listing records", statusFromError(err))
		return
	}

	utils.WriteJSON(w, records, http.StatusOK)
}

func (h *Handler) getRecord(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)
	id := chi.URLParam(r, "id")

	record, err := h.store.Get(ctx, id)
	if err != nil {
		log.Err(err).Str("func", "*Handler.getRecord").Str("id", id).Msg("error fetching record")
		http.Error(w, "error fetching record", statusFromError(err))
		return
	}

	utils.WriteJSON(w, record, http.StatusOK)
}

type trackRequest struct {
	Changes map[string]any `json:"changes"`
}

func (h *Handler) trackChange(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)
	id := chi.URLParam(r, "id")

	var req trackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Err(err).Str("func", "*Handler.trackChange").Msg("invalid JSON was passed")
		http.Error(w, "invalid JSON was passed", http.StatusBadRequest)
		return
	}
	if len(req.Changes) == 0 {
		http.Error(w, "no changes provided", http.StatusBadRequest)
		return
	}

	if err := h.engine.TrackLocalChange(ctx, id, req.Changes); err != nil {
		log.Err(err).Str("func", "*Handler.trackChange").Str("id", id).Msg("error tracking local change")
		http.Error(w, "error tracking local change", statusFromError(err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) rollbackChange(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)
	id := chi.URLParam(r, "id")

	if err := h.engine.RollbackLocalChange(ctx, id); err != nil {
		log.Err(err).Str("func", "*Handler.rollbackChange").Str("id", id).Msg("error rolling back local change")
		http.Error(w, err.Error(), statusFromError(err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type resolveRequest struct {
	Strategy string `json:"strategy"`
}

func (h *Handler) resolveConflict(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)
	id := chi.URLParam(r, "id")

	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Err(err).Str("func", "*Handler.resolveConflict").Msg("invalid JSON was passed")
		http.Error(w, "invalid JSON was passed", http.StatusBadRequest)
		return
	}

	strategy, err := service.ParseStrategy(req.Strategy)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	info, err := h.engine.ResolveConflict(ctx, id, strategy)
	if err != nil {
		log.Err(err).Str("func", "*Handler.resolveConflict").Str("id", id).Msg("error resolving conflict")
		http.Error(w, err.Error(), statusFromError(err))
		return
	}

	utils.WriteJSON(w, info, http.StatusOK)
}
