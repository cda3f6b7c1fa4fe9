package api

import (
	"net/http"
)

type HealthResponse struct {
	Status string `json:"status" example:"ok"`
	Pool   bool   `json:"pool_ready" example:"true"`
}

// health reports liveness plus whether the hash pool can take work.
// @Summary      Health check
// @Tags         Ops
// @Produce      json
// @Success      200  {object}  HealthResponse
// @Router       /health [get]
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Pool:   h.pool.Stats().Ready,
	})
}

// poolStats exposes the hash pool's occupancy counters.
// @Summary      Hash pool stats
// @Tags         Ops
// @Produce      json
// @Success      200  {object}  hashpool.Stats
// @Router       /pool/stats [get]
func (h *Handler) poolStats(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.pool.Stats())
}
