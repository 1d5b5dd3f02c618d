package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/renameio/v2"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/Harshitk-cp/factline/internal/acquire"
	"github.com/Harshitk-cp/factline/internal/domain"
)

const (
	DefaultSchedule          = "*/30 * * * *"
	DefaultHeartbeatInterval = time.Minute
)

// HeadlineSource is what the scheduler fetches each cycle from.
type HeadlineSource interface {
	Fetch(ctx context.Context) ([]domain.Headline, error)
}

type SchedulerConfig struct {
	Schedule          string
	KillSwitchPath    string
	HeartbeatPath     string
	HeartbeatInterval time.Duration
}

// Scheduler runs one cycle per schedule boundary. The kill switch file is
// only checked at boundaries, so a running cycle always finishes.
type Scheduler struct {
	pipeline *Pipeline
	source   HeadlineSource
	state    *State
	alerter  *Alerter
	tracker  *FailureTracker
	schedule cron.Schedule
	cfg      SchedulerConfig
	logger   *zap.Logger
	now      func() time.Time

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

func NewScheduler(pipeline *Pipeline, source HeadlineSource, alerter *Alerter, tracker *FailureTracker, cfg SchedulerConfig, logger *zap.Logger) (*Scheduler, error) {
	if cfg.Schedule == "" {
		cfg.Schedule = DefaultSchedule
	}
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = DefaultHeartbeatInterval
	}
	schedule, err := cron.ParseStandard(cfg.Schedule)
	if err != nil {
		return nil, fmt.Errorf("parse schedule %q: %w", cfg.Schedule, err)
	}
	done := make(chan struct{})
	close(done)
	return &Scheduler{
		pipeline: pipeline,
		source:   source,
		state:    pipeline.State,
		alerter:  alerter,
		tracker:  tracker,
		schedule: schedule,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
		done:     done,
	}, nil
}

// Start runs the loop in the background until Stop, context cancellation
// or the kill switch.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.running = true
	go s.run(ctx)
	s.logger.Info("scheduler started", zap.String("schedule", s.cfg.Schedule))
}

// Stop waits for an in-flight cycle to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	<-done
}

// Done is closed when the loop has exited.
func (s *Scheduler) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

func (s *Scheduler) run(ctx context.Context) {
	defer func() {
		s.mu.Lock()
		s.running = false
		close(s.done)
		s.mu.Unlock()
	}()

	for {
		if s.KillSwitchActive() {
			s.logger.Warn("kill switch active, stopping", zap.String("path", s.cfg.KillSwitchPath))
			return
		}
		if _, err := s.RunOnce(context.WithoutCancel(ctx)); err != nil {
			s.logger.Error("cycle failed", zap.Error(err))
		}

		next := s.schedule.Next(s.now())
		if !s.sleepUntil(ctx, next) {
			s.logger.Info("scheduler stopped")
			return
		}
	}
}

// sleepUntil writes heartbeats until next. It returns false when ctx ends.
func (s *Scheduler) sleepUntil(ctx context.Context, next time.Time) bool {
	ticker := time.NewTicker(s.cfg.HeartbeatInterval)
	defer ticker.Stop()
	timer := time.NewTimer(time.Until(next))
	defer timer.Stop()

	s.heartbeat(next)
	for {
		select {
		case <-ctx.Done():
			return false
		case <-timer.C:
			return true
		case <-ticker.C:
			s.heartbeat(next)
		}
	}
}

// RunOnce fetches headlines and runs a single cycle.
func (s *Scheduler) RunOnce(ctx context.Context) (domain.CycleStats, error) {
	headlines, err := s.source.Fetch(ctx)
	switch {
	case errors.Is(err, acquire.ErrAllSourcesFailed):
		s.tracker.Failure(ctx, ServiceAcquire, err)
		s.alerter.Alert(ctx, domain.AlertOffline, "every headline source failed")
	case err != nil:
		s.tracker.Failure(ctx, ServiceAcquire, err)
	default:
		s.tracker.Success(ServiceAcquire)
	}
	return s.pipeline.RunCycle(ctx, headlines)
}

func (s *Scheduler) KillSwitchActive() bool {
	if s.cfg.KillSwitchPath == "" {
		return false
	}
	_, err := os.Stat(s.cfg.KillSwitchPath)
	return err == nil
}

// Heartbeat is the liveness record written between cycles.
type Heartbeat struct {
	Timestamp time.Time          `json:"timestamp"`
	Epoch     string             `json:"epoch"`
	NextCycle time.Time          `json:"next_cycle"`
	Uptime    string             `json:"uptime"`
	Degraded  map[string]string  `json:"degraded,omitempty"`
	Last      *domain.CycleStats `json:"last_cycle,omitempty"`
}

func (s *Scheduler) heartbeat(next time.Time) {
	if s.cfg.HeartbeatPath == "" {
		return
	}
	now := s.now().UTC()
	hb := Heartbeat{
		Timestamp: now,
		Epoch:     s.state.Epoch(),
		NextCycle: next.UTC(),
		Uptime:    now.Sub(s.state.StartedAt()).Truncate(time.Second).String(),
		Degraded:  s.state.Degraded(),
	}
	if last, ok := s.state.LastCycle(); ok {
		hb.Last = &last
	}
	data, err := json.MarshalIndent(hb, "", "  ")
	if err != nil {
		return
	}
	if err := os.MkdirAll(filepath.Dir(s.cfg.HeartbeatPath), 0o755); err != nil {
		s.logger.Warn("failed to create heartbeat dir", zap.Error(err))
		return
	}
	if err := renameio.WriteFile(s.cfg.HeartbeatPath, data, 0o644); err != nil {
		s.logger.Warn("failed to write heartbeat", zap.Error(err))
	}
}
