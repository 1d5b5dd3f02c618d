package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/Harshitk-cp/factline/internal/domain"
)

func TestAlerter_Cooldown(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	if !h.alerter.Alert(ctx, domain.AlertAPIFailure, "oracle down") {
		t.Fatal("first alert should be delivered")
	}
	if h.alerter.Alert(ctx, domain.AlertAPIFailure, "oracle still down") {
		t.Error("second alert within the cooldown should be throttled")
	}

	h.now = h.now.Add(61 * time.Minute)
	if !h.alerter.Alert(ctx, domain.AlertAPIFailure, "oracle down again") {
		t.Error("alert after the cooldown should be delivered")
	}
	if got := h.notifier.count(domain.AlertAPIFailure); got != 2 {
		t.Errorf("delivered %d api_failure alerts, want 2", got)
	}
}

func TestAlerter_CategoriesAreIndependent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.alerter.Alert(ctx, domain.AlertQueueBackup, "queue at 250")
	if !h.alerter.Alert(ctx, domain.AlertGeneral, "something else") {
		t.Error("a throttled category must not throttle another")
	}
}

func TestAlerter_ZeroCooldownAlwaysDelivers(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if !h.alerter.Alert(ctx, domain.AlertContradiction, "correction") {
			t.Fatalf("contradiction alert %d was throttled", i)
		}
	}
}

func TestAlerter_NotifierFailureDegrades(t *testing.T) {
	h := newHarness(t)
	h.notifier.err = errors.New("telegram unreachable")

	if h.alerter.Alert(context.Background(), domain.AlertOffline, "offline") {
		t.Error("failed delivery should report false")
	}
	if !h.state.IsDegraded(ServiceAlerts) {
		t.Error("alerts should be marked degraded")
	}

	h.notifier.err = nil
	h.alerter.Alert(context.Background(), domain.AlertOffline, "back")
	if h.state.IsDegraded(ServiceAlerts) {
		t.Error("successful delivery should clear degraded")
	}
}

func TestFailureTracker_Threshold(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	boom := errors.New("503")

	h.tracker.Failure(ctx, ServiceSpeech, boom)
	h.tracker.Failure(ctx, ServiceSpeech, boom)
	if h.state.IsDegraded(ServiceSpeech) {
		t.Fatal("degraded before the threshold")
	}
	h.tracker.Failure(ctx, ServiceSpeech, boom)
	if !h.state.IsDegraded(ServiceSpeech) {
		t.Fatal("should be degraded after 3 consecutive failures")
	}
	if got := h.notifier.count(domain.AlertAPIFailure); got != 1 {
		t.Errorf("api_failure alerts = %d, want 1", got)
	}
}

func TestFailureTracker_SuccessResets(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	boom := errors.New("timeout")

	h.tracker.Failure(ctx, ServiceOracle, boom)
	h.tracker.Failure(ctx, ServiceOracle, boom)
	h.tracker.Success(ServiceOracle)
	h.tracker.Failure(ctx, ServiceOracle, boom)

	if h.state.IsDegraded(ServiceOracle) {
		t.Error("failures are only counted while consecutive")
	}
}

func TestFailureTracker_CreditsLowAlertsAtOnce(t *testing.T) {
	h := newHarness(t)
	err := fmt.Errorf("extract: %w", domain.ErrCreditsLow)

	h.tracker.Failure(context.Background(), ServiceOracle, err)
	if !h.state.IsDegraded(ServiceOracle) {
		t.Error("a billing refusal should degrade the oracle without waiting for the threshold")
	}
	if got := h.notifier.count(domain.AlertCreditsLow); got != 1 {
		t.Errorf("credits_low alerts = %d, want 1", got)
	}
	if got := h.notifier.count(domain.AlertAPIFailure); got != 0 {
		t.Errorf("api_failure alerts = %d, want 0", got)
	}
}
