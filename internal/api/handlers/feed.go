package handlers

import (
	"net/http"
	"time"

	"github.com/Harshitk-cp/factline/internal/archive"
	"github.com/Harshitk-cp/factline/internal/domain"
)

// FeedHandler renders the RSS feed on demand from the stores, the same
// document the publisher uploads after every change.
type FeedHandler struct {
	stories     domain.StoryStore
	corrections domain.CorrectionStore
	meta        archive.FeedMeta
	lookback    time.Duration
	now         func() time.Time
}

func NewFeedHandler(stories domain.StoryStore, corrections domain.CorrectionStore, meta archive.FeedMeta, lookback time.Duration) *FeedHandler {
	if lookback <= 0 {
		lookback = 7 * 24 * time.Hour
	}
	return &FeedHandler{stories: stories, corrections: corrections, meta: meta, lookback: lookback, now: time.Now}
}

func (h *FeedHandler) RSS(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	since := now.Add(-h.lookback)

	stories, err := h.stories.ListSince(r.Context(), since)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load stories")
		return
	}
	corrections, err := h.corrections.ListSince(r.Context(), since)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load corrections")
		return
	}

	rss, err := archive.RenderRSS(h.meta, stories, corrections, now)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to render feed")
		return
	}
	w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(rss))
}
