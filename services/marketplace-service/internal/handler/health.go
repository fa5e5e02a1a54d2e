package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/vasapolrittideah/marketplace-api/services/marketplace-service/internal/payload"
)

const healthTimeout = 2 * time.Second

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	if err := h.pinger.Ping(ctx); err != nil {
		h.logger.Error().Err(err).Msg("store ping failed")
		writeJSON(w, http.StatusServiceUnavailable, payload.HealthResponse{Status: "unavailable", Store: "down"})
		return
	}

	writeJSON(w, http.StatusOK, payload.HealthResponse{Status: "ok", Store: "up"})
}

func (h *Handler) StorageInfo(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.storage.Info())
}
