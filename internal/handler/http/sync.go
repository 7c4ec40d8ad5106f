// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Alexei Karpov

package http

import (
	"encoding/json"
	"net/http"

	"github.com/akarpov/go-alertsync/internal/logger"
	"github.com/akarpov/go-alertsync/internal/service"
	"github.com/akarpov/go-alertsync/internal/utils"
	"github.com/akarpov/go-alertsync/models"
)

type applyRequest struct {
	Payload models.DifferentialPayload `json:"payload"`
	Atomic  bool                       `json:"atomic,omitempty"`
}

func (h *Handler) applyDifferential(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	var req applyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Err(err).Str("func", "*Handler.applyDifferential").Msg("invalid JSON was passed")
		http.Error(w, "invalid JSON was passed", http.StatusBadRequest)
		return
	}

	result, err := h.engine.Apply(ctx, req.Payload, service.ApplyOptions{
		Atomic:        req.Atomic,
		ValidateFirst: true,
	})
	if err != nil {
		log.Err(err).Str("func", "*Handler.applyDifferential").Msg("payload rejected")
		http.Error(w, err.Error(), statusFromError(err))
		return
	}

	status := http.StatusOK
	if result.Queued {
		status = http.StatusAccepted
	}
	utils.WriteJSON(w, result, status)
}

func (h *Handler) getState(w http.ResponseWriter, _ *http.Request) {
	utils.WriteJSON(w, h.engine.State(), http.StatusOK)
}
