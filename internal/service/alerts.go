package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Harshitk-cp/factline/internal/archive"
	"github.com/Harshitk-cp/factline/internal/domain"
)

// DefaultCooldowns is the minimum spacing between two alerts of a category.
// Zero means every alert is delivered.
var DefaultCooldowns = map[domain.AlertCategory]time.Duration{
	domain.AlertAPIFailure:    time.Hour,
	domain.AlertCreditsLow:    24 * time.Hour,
	domain.AlertQueueBackup:   6 * time.Hour,
	domain.AlertOffline:       0,
	domain.AlertContradiction: 0,
	domain.AlertGeneral:       time.Hour,
}

const alertPreviewWidth = 120

// Alerter throttles operator alerts per category with one token bucket each.
type Alerter struct {
	notifier  domain.Notifier
	state     *State
	logger    *zap.Logger
	cooldowns map[domain.AlertCategory]time.Duration
	now       func() time.Time

	mu       sync.Mutex
	limiters map[domain.AlertCategory]*rate.Limiter
}

func NewAlerter(notifier domain.Notifier, cooldowns map[domain.AlertCategory]time.Duration, state *State, logger *zap.Logger) *Alerter {
	if cooldowns == nil {
		cooldowns = DefaultCooldowns
	}
	return &Alerter{
		notifier:  notifier,
		state:     state,
		logger:    logger,
		cooldowns: cooldowns,
		now:       time.Now,
		limiters:  make(map[domain.AlertCategory]*rate.Limiter),
	}
}

func (a *Alerter) allow(category domain.AlertCategory) bool {
	cooldown, ok := a.cooldowns[category]
	if !ok {
		cooldown = a.cooldowns[domain.AlertGeneral]
	}
	if cooldown <= 0 {
		return true
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	lim, ok := a.limiters[category]
	if !ok {
		lim = rate.NewLimiter(rate.Every(cooldown), 1)
		a.limiters[category] = lim
	}
	return lim.AllowN(a.now(), 1)
}

// Alert delivers message unless the category is cooling down. It reports
// whether the notifier was called successfully.
func (a *Alerter) Alert(ctx context.Context, category domain.AlertCategory, message string) bool {
	message = archive.Preview(message, alertPreviewWidth)
	if !a.allow(category) {
		a.logger.Info("alert throttled", zap.String("category", string(category)), zap.String("message", message))
		return false
	}
	if err := a.notifier.Notify(ctx, message, category); err != nil {
		a.logger.Error("failed to send alert", zap.String("category", string(category)), zap.Error(err))
		a.state.MarkDegraded(ServiceAlerts, err.Error())
		return false
	}
	a.state.ClearDegraded(ServiceAlerts)
	return true
}

// FailureTracker counts consecutive failures per collaborator. Reaching the
// threshold marks the collaborator degraded and raises an api_failure alert.
// A billing refusal raises credits_low at once.
type FailureTracker struct {
	state     *State
	alerter   *Alerter
	threshold int
	logger    *zap.Logger
}

func NewFailureTracker(state *State, alerter *Alerter, threshold int, logger *zap.Logger) *FailureTracker {
	if threshold <= 0 {
		threshold = 3
	}
	return &FailureTracker{state: state, alerter: alerter, threshold: threshold, logger: logger}
}

func (t *FailureTracker) Success(service string) {
	t.state.resetFailures(service)
}

func (t *FailureTracker) Failure(ctx context.Context, service string, err error) {
	n := t.state.failure(service)
	t.logger.Warn("collaborator call failed",
		zap.String("service", service),
		zap.Int("consecutive", n),
		zap.Error(err),
	)
	if errors.Is(err, domain.ErrCreditsLow) {
		t.state.MarkDegraded(service, err.Error())
		t.alerter.Alert(ctx, domain.AlertCreditsLow, fmt.Sprintf("%s is out of credit: %v", service, err))
		return
	}
	if n < t.threshold {
		return
	}
	t.state.MarkDegraded(service, err.Error())
	t.state.resetFailures(service)
	t.alerter.Alert(ctx, domain.AlertAPIFailure, fmt.Sprintf("%s failed %d times: %v", service, n, err))
}
