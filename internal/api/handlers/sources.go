package handlers

import (
	"net/http"

	"github.com/Harshitk-cp/factline/internal/service"
)

type SourceHandler struct {
	svc *service.ReliabilityService
}

func NewSourceHandler(svc *service.ReliabilityService) *SourceHandler {
	return &SourceHandler{svc: svc}
}

// List reports baseline and learned ratings for every registered source.
func (h *SourceHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"sources": h.svc.Sources(r.Context())})
}
