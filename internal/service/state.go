package service

import (
	"sync"
	"time"

	"github.com/Harshitk-cp/factline/internal/domain"
)

// Collaborator names used for failure tracking and degraded mode.
const (
	ServiceOracle  = "oracle"
	ServiceSpeech  = "speech"
	ServiceAlerts  = "alerts"
	ServiceArchive = "archive"
	ServiceEvents  = "events"
	ServiceAcquire = "acquire"
)

// State is the mutable process state owned by the orchestrator. Nothing in
// the pipeline keeps package-level state; tests build isolated instances.
type State struct {
	mu        sync.RWMutex
	startedAt time.Time
	epoch     string
	cycle     int
	last      *domain.CycleStats
	failures  map[string]int
	degraded  map[string]string
}

func NewState(now time.Time) *State {
	return &State{
		startedAt: now,
		failures:  make(map[string]int),
		degraded:  make(map[string]string),
	}
}

func (s *State) Epoch() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.epoch
}

func (s *State) setEpoch(epoch string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.epoch = epoch
}

// nextCycle increments and returns the cycle counter.
func (s *State) nextCycle() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cycle++
	return s.cycle
}

func (s *State) recordCycle(stats domain.CycleStats) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = &stats
}

// LastCycle returns the stats of the most recent completed cycle.
func (s *State) LastCycle() (domain.CycleStats, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.last == nil {
		return domain.CycleStats{}, false
	}
	return *s.last, true
}

func (s *State) StartedAt() time.Time {
	return s.startedAt
}

// failure increments the consecutive failure count of a collaborator.
func (s *State) failure(service string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[service]++
	return s.failures[service]
}

func (s *State) resetFailures(service string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.failures, service)
}

func (s *State) MarkDegraded(service, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.degraded[service] = reason
}

func (s *State) ClearDegraded(service string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.degraded, service)
}

func (s *State) IsDegraded(service string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.degraded[service]
	return ok
}

// Degraded returns a copy of the degraded collaborators and their reasons.
func (s *State) Degraded() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.degraded))
	for k, v := range s.degraded {
		out[k] = v
	}
	return out
}

func (s *State) clearAllDegraded() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.degraded = make(map[string]string)
	s.failures = make(map[string]int)
}
