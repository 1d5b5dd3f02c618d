package domain

import "time"

type CycleStats struct {
	Cycle      int           `json:"cycle"`
	RunID      string        `json:"run_id"`
	Epoch      string        `json:"epoch"`
	StartedAt  time.Time     `json:"started_at"`
	Duration   time.Duration `json:"duration"`
	Scraped    int           `json:"headlines_scraped"`
	Processed  int           `json:"headlines_processed"`
	Skipped    int           `json:"headlines_skipped"`
	Rejected   int           `json:"facts_rejected"`
	Duplicates int           `json:"duplicates"`
	Published  int           `json:"stories_published"`
	Queued     int           `json:"stories_queued"`
	Merged     int           `json:"stories_merged"`
	Corrected  int           `json:"stories_corrected"`
	Blocked    int           `json:"contradictions_blocked"`
	Unverified int           `json:"matches_unverified"`
	Expired    int           `json:"queue_expired"`
	QueueSize  int           `json:"queue_size"`
}
