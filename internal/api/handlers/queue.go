package handlers

import (
	"net/http"
	"time"

	"github.com/Harshitk-cp/factline/internal/domain"
	"github.com/Harshitk-cp/factline/internal/service"
)

type QueueHandler struct {
	queue *service.Queue
	now   func() time.Time
}

func NewQueueHandler(queue *service.Queue) *QueueHandler {
	return &QueueHandler{queue: queue, now: time.Now}
}

type queueResponse struct {
	Size          int                 `json:"size"`
	OldestSeconds float64             `json:"oldest_seconds"`
	Timeout       string              `json:"timeout"`
	Entries       []domain.QueueEntry `json:"entries"`
}

func (h *QueueHandler) List(w http.ResponseWriter, r *http.Request) {
	entries := h.queue.Entries()
	writeJSON(w, http.StatusOK, queueResponse{
		Size:          len(entries),
		OldestSeconds: h.queue.Oldest(h.now()).Seconds(),
		Timeout:       h.queue.Timeout.String(),
		Entries:       entries,
	})
}
