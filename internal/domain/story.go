package domain

import (
	"fmt"
	"strings"
	"time"
)

type StoryStatus string

const (
	StoryPublished StoryStatus = "published"
	StoryCorrected StoryStatus = "corrected"
	StoryRetracted StoryStatus = "retracted"
)

func ValidStoryStatus(s string) bool {
	switch StoryStatus(s) {
	case StoryPublished, StoryCorrected, StoryRetracted:
		return true
	}
	return false
}

type CorrectionType string

const (
	CorrectionTypeCorrection CorrectionType = "correction"
	CorrectionTypeRetraction CorrectionType = "retraction"
)

// DayLayout is the layout of epoch and story-id day prefixes.
const DayLayout = "2006-01-02"

type StorySource struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Scores string `json:"scores,omitempty"`
}

type PublishedStory struct {
	ID           string            `json:"id"`
	Day          string            `json:"day"`
	Sequence     int               `json:"sequence"`
	Hash         string            `json:"hash"`
	Fact         string            `json:"fact"`
	Sources      []StorySource     `json:"sources"`
	Attribution  string            `json:"source"`
	AudioRef     string            `json:"audio,omitempty"`
	PublishedAt  time.Time         `json:"published_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
	Status       StoryStatus       `json:"status"`
	OriginalFact string            `json:"original_fact,omitempty"`
	Correction   *CorrectionRecord `json:"correction,omitempty"`
}

// Credits reports whether a source with the given display name is already attributed.
func (s *PublishedStory) Credits(sourceName string) bool {
	for _, src := range s.Sources {
		if strings.EqualFold(src.Name, sourceName) {
			return true
		}
	}
	return false
}

func (s *PublishedStory) SourceNames() []string {
	names := make([]string, 0, len(s.Sources))
	for _, src := range s.Sources {
		names = append(names, src.Name)
	}
	return names
}

type CorrectionRecord struct {
	ID                string         `json:"id"`
	StoryID           string         `json:"story_id"`
	Timestamp         time.Time      `json:"timestamp"`
	Type              CorrectionType `json:"type"`
	OriginalFact      string         `json:"original_fact"`
	CorrectedFact     string         `json:"corrected_fact,omitempty"`
	Reason            string         `json:"reason"`
	CorrectingSources []string       `json:"correcting_sources"`
}

// StoryID builds the date + sequence identifier of a story.
func StoryID(day string, seq int) string {
	return fmt.Sprintf("%s-%03d", day, seq)
}

// DayOfStoryID returns the YYYY-MM-DD prefix of a story id.
func DayOfStoryID(id string) (string, bool) {
	if len(id) < len(DayLayout) {
		return "", false
	}
	day := id[:len(DayLayout)]
	if _, err := time.Parse(DayLayout, day); err != nil {
		return "", false
	}
	return day, true
}

// StoryEvent is emitted to outward-facing sinks for every publication change.
type StoryEvent struct {
	Kind       string            `json:"kind"`
	Story      PublishedStory    `json:"story"`
	Correction *CorrectionRecord `json:"correction,omitempty"`
	EmittedAt  time.Time         `json:"emitted_at"`
}

const (
	EventPublished = "published"
	EventUpdated   = "updated"
	EventCorrected = "corrected"
	EventRetracted = "retracted"
)
