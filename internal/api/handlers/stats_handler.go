package handlers

import (
	"net/http"

	"github.com/testboard/engine/internal/services"
)

type StatsHandler struct {
	svc services.StatsService
}

func NewStatsHandler(svc services.StatsService) *StatsHandler {
	return &StatsHandler{svc: svc}
}

func (h *StatsHandler) Overview(w http.ResponseWriter, r *http.Request) {
	o, err := h.svc.Overview(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	ok(w, r, http.StatusOK, o)
}
