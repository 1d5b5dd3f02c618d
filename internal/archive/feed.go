package archive

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/gorilla/feeds"
	"github.com/mattn/go-runewidth"

	"github.com/Harshitk-cp/factline/internal/domain"
)

const (
	// MaxFeedItems caps the rendered feed.
	MaxFeedItems = 100
	titleWidth   = 80

	FeedKey          = "feed.xml"
	StoriesKey       = "stories.json"
	FlashBriefingKey = "alexa.json"

	// MaxBriefingItems is how many stories a voice briefing reads out.
	MaxBriefingItems = 5
	briefingTime     = "2006-01-02T15:04:05.0Z"
)

type FeedMeta struct {
	Title       string
	Link        string
	Description string
}

// Preview shortens text to width display cells.
func Preview(text string, width int) string {
	return runewidth.Truncate(text, width, "...")
}

// RenderRSS builds an RSS document holding stories and corrections, newest
// first. Corrections are items of their own with the same prominence as the
// stories they amend.
func RenderRSS(meta FeedMeta, stories []domain.PublishedStory, corrections []domain.CorrectionRecord, now time.Time) (string, error) {
	items := make([]*feeds.Item, 0, len(stories)+len(corrections))
	for _, st := range stories {
		items = append(items, storyItem(meta, st))
	}
	for _, c := range corrections {
		items = append(items, correctionItem(meta, c))
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].Created.After(items[j].Created) })
	if len(items) > MaxFeedItems {
		items = items[:MaxFeedItems]
	}

	feed := &feeds.Feed{
		Title:       meta.Title,
		Link:        &feeds.Link{Href: meta.Link},
		Description: meta.Description,
		Created:     now,
		Items:       items,
	}
	rss, err := feed.ToRss()
	if err != nil {
		return "", fmt.Errorf("render rss: %w", err)
	}
	return rss, nil
}

// storyItem marks corrected and retracted stories in both title and body so a
// withdrawn claim never reads as a live one.
func storyItem(meta FeedMeta, st domain.PublishedStory) *feeds.Item {
	title, desc := st.Fact, st.Fact
	switch st.Status {
	case domain.StoryRetracted:
		title = "RETRACTED: " + st.Fact
		desc = "Retracted: " + st.Fact
	case domain.StoryCorrected:
		title = "CORRECTED: " + st.Fact
		if st.OriginalFact != "" {
			desc += "\n\nPreviously reported: " + st.OriginalFact
		}
	}
	if st.Attribution != "" {
		desc += "\n\nSources: " + st.Attribution
	}
	return &feeds.Item{
		Id:          st.ID,
		Title:       Preview(title, titleWidth),
		Link:        &feeds.Link{Href: strings.TrimRight(meta.Link, "/") + "/stories/" + st.ID},
		Description: desc,
		Created:     st.PublishedAt,
		Updated:     st.UpdatedAt,
	}
}

func correctionItem(meta FeedMeta, c domain.CorrectionRecord) *feeds.Item {
	label := "CORRECTION"
	body := fmt.Sprintf("Previously reported: %s\nCorrected: %s", c.OriginalFact, c.CorrectedFact)
	if c.Type == domain.CorrectionTypeRetraction {
		label = "RETRACTION"
		body = "Retracted: " + c.OriginalFact
	}
	if c.Reason != "" {
		body += "\nReason: " + c.Reason
	}
	if len(c.CorrectingSources) > 0 {
		body += "\nSources: " + strings.Join(c.CorrectingSources, ", ")
	}
	return &feeds.Item{
		Id:          c.ID,
		Title:       Preview(label+": "+c.OriginalFact, titleWidth),
		Link:        &feeds.Link{Href: strings.TrimRight(meta.Link, "/") + "/stories/" + c.StoryID},
		Description: body,
		Created:     c.Timestamp,
	}
}

type briefingItem struct {
	UID            string `json:"uid"`
	UpdateDate     string `json:"updateDate"`
	TitleText      string `json:"titleText"`
	MainText       string `json:"mainText"`
	RedirectionURL string `json:"redirectionUrl"`
}

// FlashBriefingJSON renders the newest live stories in the voice assistant
// flash briefing format. Retracted stories are left out.
func FlashBriefingJSON(meta FeedMeta, stories []domain.PublishedStory) ([]byte, error) {
	live := make([]domain.PublishedStory, 0, len(stories))
	for _, st := range stories {
		if st.Status != domain.StoryRetracted {
			live = append(live, st)
		}
	}
	sort.SliceStable(live, func(i, j int) bool { return live[i].UpdatedAt.After(live[j].UpdatedAt) })
	if len(live) > MaxBriefingItems {
		live = live[:MaxBriefingItems]
	}

	items := make([]briefingItem, 0, len(live))
	for _, st := range live {
		names := st.SourceNames()
		if len(names) > 2 {
			names = names[:2]
		}
		title := meta.Title
		if len(names) > 0 {
			title += ": " + strings.Join(names, ", ")
		}
		items = append(items, briefingItem{
			UID:            st.ID,
			UpdateDate:     st.UpdatedAt.UTC().Format(briefingTime),
			TitleText:      title,
			MainText:       st.Fact,
			RedirectionURL: meta.Link,
		})
	}
	return json.MarshalIndent(items, "", "  ")
}

type storiesDoc struct {
	Date        string                    `json:"date"`
	Updated     time.Time                 `json:"updated"`
	Stories     []domain.PublishedStory   `json:"stories"`
	Corrections []domain.CorrectionRecord `json:"corrections"`
}

// StoriesJSON is the machine-readable companion of the RSS feed.
func StoriesJSON(day string, stories []domain.PublishedStory, corrections []domain.CorrectionRecord, now time.Time) ([]byte, error) {
	if stories == nil {
		stories = []domain.PublishedStory{}
	}
	if corrections == nil {
		corrections = []domain.CorrectionRecord{}
	}
	return json.MarshalIndent(storiesDoc{Date: day, Updated: now, Stories: stories, Corrections: corrections}, "", "  ")
}

// DayArchiveKey is the object key of a day's compressed archive.
func DayArchiveKey(day string) string {
	return fmt.Sprintf("archive/%s/%s.json.gz", day[:4], day)
}

// GzipJSON encodes v as gzip-compressed JSON.
func GzipJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if err := json.NewEncoder(zw).Encode(v); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
