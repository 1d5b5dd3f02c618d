package domain

import "time"

type SourceReliabilityRecord struct {
	SourceID  string    `json:"source_id"`
	Successes int       `json:"successes"`
	Failures  int       `json:"failures"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (r SourceReliabilityRecord) Total() int {
	return r.Successes + r.Failures
}

type AuditEvent string

const (
	AuditSuccess AuditEvent = "success"
	AuditFailure AuditEvent = "failure"
)

type AuditLogEntry struct {
	Timestamp time.Time      `json:"timestamp"`
	SourceID  string         `json:"source_id"`
	Event     AuditEvent     `json:"event"`
	FactHash  string         `json:"fact_hash"`
	Successes int            `json:"successes"`
	Failures  int            `json:"failures"`
	Extra     map[string]any `json:"extra,omitempty"`
}
