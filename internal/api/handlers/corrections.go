package handlers

import (
	"net/http"
	"time"

	"github.com/Harshitk-cp/factline/internal/domain"
)

const (
	defaultCorrectionDays = 7
	maxCorrectionDays     = 90
)

type CorrectionHandler struct {
	corrections domain.CorrectionStore
	now         func() time.Time
}

func NewCorrectionHandler(corrections domain.CorrectionStore) *CorrectionHandler {
	return &CorrectionHandler{corrections: corrections, now: time.Now}
}

// List returns the correction log of the last ?days= days, oldest first.
func (h *CorrectionHandler) List(w http.ResponseWriter, r *http.Request) {
	days, ok := intParam(r, "days", defaultCorrectionDays, maxCorrectionDays)
	if !ok {
		writeError(w, http.StatusBadRequest, "days must be between 1 and 90")
		return
	}

	since := h.now().Add(-time.Duration(days) * 24 * time.Hour)
	records, err := h.corrections.ListSince(r.Context(), since)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list corrections")
		return
	}
	if records == nil {
		records = []domain.CorrectionRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"days":        days,
		"corrections": records,
	})
}
