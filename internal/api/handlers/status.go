package handlers

import (
	"errors"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/renameio/v2"
	"go.uber.org/zap"

	"github.com/Harshitk-cp/factline/internal/buildconfig"
	"github.com/Harshitk-cp/factline/internal/domain"
	"github.com/Harshitk-cp/factline/internal/service"
)

type StatusHandler struct {
	state      *service.State
	queue      *service.Queue
	killSwitch string
	logger     *zap.Logger
	now        func() time.Time
}

func NewStatusHandler(state *service.State, queue *service.Queue, killSwitch string, logger *zap.Logger) *StatusHandler {
	return &StatusHandler{state: state, queue: queue, killSwitch: killSwitch, logger: logger, now: time.Now}
}

type statusResponse struct {
	Build      buildconfig.Info   `json:"build"`
	Epoch      string             `json:"epoch"`
	StartedAt  time.Time          `json:"started_at"`
	Uptime     string             `json:"uptime"`
	QueueSize  int                `json:"queue_size"`
	Degraded   map[string]string  `json:"degraded"`
	KillSwitch bool               `json:"kill_switch"`
	LastCycle  *domain.CycleStats `json:"last_cycle,omitempty"`
}

func (h *StatusHandler) Get(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{
		Build:      buildconfig.VersionInfo(),
		Epoch:      h.state.Epoch(),
		StartedAt:  h.state.StartedAt().UTC(),
		Uptime:     h.now().Sub(h.state.StartedAt()).Truncate(time.Second).String(),
		QueueSize:  h.queue.Len(),
		Degraded:   h.state.Degraded(),
		KillSwitch: h.killSwitchActive(),
	}
	if last, ok := h.state.LastCycle(); ok {
		resp.LastCycle = &last
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *StatusHandler) killSwitchActive() bool {
	if h.killSwitch == "" {
		return false
	}
	_, err := os.Stat(h.killSwitch)
	return err == nil
}

// Kill creates the kill switch file. The scheduler stops at the next cycle
// boundary; the running cycle is not interrupted.
func (h *StatusHandler) Kill(w http.ResponseWriter, r *http.Request) {
	if h.killSwitch == "" {
		writeError(w, http.StatusNotImplemented, "kill switch not configured")
		return
	}
	if err := os.MkdirAll(filepath.Dir(h.killSwitch), 0o755); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create kill switch")
		return
	}
	body := []byte(h.now().UTC().Format(time.RFC3339) + "\n")
	if err := renameio.WriteFile(h.killSwitch, body, 0o644); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create kill switch")
		return
	}
	h.logger.Warn("kill switch set via api", zap.String("path", h.killSwitch))
	writeJSON(w, http.StatusAccepted, map[string]bool{"kill_switch": true})
}

// Resume removes the kill switch file. A stopped process must be restarted.
func (h *StatusHandler) Resume(w http.ResponseWriter, r *http.Request) {
	if h.killSwitch == "" {
		writeError(w, http.StatusNotImplemented, "kill switch not configured")
		return
	}
	if err := os.Remove(h.killSwitch); err != nil && !errors.Is(err, fs.ErrNotExist) {
		writeError(w, http.StatusInternalServerError, "failed to remove kill switch")
		return
	}
	h.logger.Info("kill switch cleared via api", zap.String("path", h.killSwitch))
	writeJSON(w, http.StatusOK, map[string]bool{"kill_switch": false})
}
