// Package acquire pulls headlines from the registered sources. Each source
// is tried as an RSS/Atom feed first and falls back to scraping its front
// page with a CSS selector.
package acquire

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"go.uber.org/zap"

	"github.com/Harshitk-cp/factline/internal/buildconfig"
	"github.com/Harshitk-cp/factline/internal/domain"
)

const (
	// MaxPerSource caps headlines taken from one source per cycle.
	MaxPerSource = 10
	// MinHeadlineLen drops navigation labels and other fragments.
	MinHeadlineLen = 20
)

var userAgent = buildconfig.UserAgent() + " (facts only; RSS reader)"

// Source yields the current headlines of one or more outlets.
type Source interface {
	Fetch(ctx context.Context) ([]domain.Headline, error)
}

// Outlet fetches one registered source.
type Outlet struct {
	src    domain.Source
	client *http.Client
	parser *gofeed.Parser
	now    func() time.Time
}

func NewOutlet(src domain.Source, client *http.Client) *Outlet {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &Outlet{src: src, client: client, parser: gofeed.NewParser(), now: time.Now}
}

func (o *Outlet) Fetch(ctx context.Context) ([]domain.Headline, error) {
	var (
		headlines []domain.Headline
		feedErr   error
	)
	if o.src.FeedURL != "" {
		headlines, feedErr = o.fetchFeed(ctx)
		if len(headlines) > 0 {
			return headlines, nil
		}
	}
	if o.src.PageURL == "" || o.src.Selector == "" {
		if feedErr != nil {
			return nil, feedErr
		}
		return nil, nil
	}
	headlines, err := o.fetchPage(ctx)
	if err != nil {
		if feedErr != nil {
			return nil, fmt.Errorf("%w; page: %v", feedErr, err)
		}
		return nil, err
	}
	return headlines, nil
}

func (o *Outlet) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	resp, err := o.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("%s returned %s", url, resp.Status)
	}
	return resp, nil
}

func (o *Outlet) fetchFeed(ctx context.Context) ([]domain.Headline, error) {
	resp, err := o.get(ctx, o.src.FeedURL)
	if err != nil {
		return nil, fmt.Errorf("fetch feed %s: %w", o.src.ID, err)
	}
	defer resp.Body.Close()

	feed, err := o.parser.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", o.src.ID, err)
	}
	var out []domain.Headline
	for _, item := range feed.Items {
		if len(out) == MaxPerSource {
			break
		}
		if h, ok := o.headline(item.Title, item.Link); ok {
			out = append(out, h)
		}
	}
	return out, nil
}

func (o *Outlet) fetchPage(ctx context.Context) ([]domain.Headline, error) {
	resp, err := o.get(ctx, o.src.PageURL)
	if err != nil {
		return nil, fmt.Errorf("fetch page %s: %w", o.src.ID, err)
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse page %s: %w", o.src.ID, err)
	}
	var out []domain.Headline
	doc.Find(o.src.Selector).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		link, _ := sel.Attr("href")
		if link == "" {
			link, _ = sel.Find("a").First().Attr("href")
		}
		if h, ok := o.headline(sel.Text(), link); ok {
			out = append(out, h)
		}
		return len(out) < MaxPerSource
	})
	return out, nil
}

func (o *Outlet) headline(text, link string) (domain.Headline, bool) {
	text = strings.Join(strings.Fields(text), " ")
	if len(text) <= MinHeadlineLen {
		return domain.Headline{}, false
	}
	return domain.Headline{
		Text:           text,
		SourceID:       o.src.ID,
		SourceName:     o.src.Name,
		BaselineRating: o.src.Accuracy,
		URL:            link,
		Timestamp:      o.now().UTC(),
	}, true
}

// Multi fetches every outlet in order. A failing outlet is logged and
// skipped; the error is returned only when every outlet failed.
type Multi struct {
	outlets []Source
	names   []string
	pause   time.Duration
	logger  *zap.Logger
}

// NewMulti builds outlets for every enabled source. pause is slept between
// outlets.
func NewMulti(sources []domain.Source, client *http.Client, pause time.Duration, logger *zap.Logger) *Multi {
	m := &Multi{pause: pause, logger: logger}
	for _, src := range sources {
		if src.Disabled {
			continue
		}
		m.outlets = append(m.outlets, NewOutlet(src, client))
		m.names = append(m.names, src.ID)
	}
	return m
}

var ErrAllSourcesFailed = errors.New("all sources failed")

func (m *Multi) Fetch(ctx context.Context) ([]domain.Headline, error) {
	var (
		all    []domain.Headline
		failed int
	)
	for i, outlet := range m.outlets {
		if i > 0 && m.pause > 0 {
			select {
			case <-ctx.Done():
				return all, ctx.Err()
			case <-time.After(m.pause):
			}
		}
		headlines, err := outlet.Fetch(ctx)
		if err != nil {
			failed++
			m.logger.Warn("source fetch failed", zap.String("source_id", m.names[i]), zap.Error(err))
			continue
		}
		m.logger.Debug("fetched headlines", zap.String("source_id", m.names[i]), zap.Int("count", len(headlines)))
		all = append(all, headlines...)
	}
	if len(m.outlets) > 0 && failed == len(m.outlets) {
		return nil, ErrAllSourcesFailed
	}
	return all, nil
}
