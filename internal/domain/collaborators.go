package domain

import (
	"context"
	"errors"
)

// Speaker renders text to an audio file and returns a reference to it.
type Speaker interface {
	Speak(ctx context.Context, text string) (string, error)
}

type AlertCategory string

const (
	AlertAPIFailure    AlertCategory = "api_failure"
	AlertCreditsLow    AlertCategory = "credits_low"
	AlertQueueBackup   AlertCategory = "queue_backup"
	AlertOffline       AlertCategory = "offline"
	AlertContradiction AlertCategory = "contradiction"
	AlertGeneral       AlertCategory = "general"
)

// ErrCreditsLow marks a collaborator refusing work because the account ran
// out of credit or quota.
var ErrCreditsLow = errors.New("credits low")

// Notifier delivers an operator alert. Throttling is the caller's concern.
type Notifier interface {
	Notify(ctx context.Context, message string, category AlertCategory) error
}

// Publisher performs whole-object upserts to an archival destination.
type Publisher interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error
}

// EventSink receives every publication change.
type EventSink interface {
	Emit(ctx context.Context, e StoryEvent) error
}
