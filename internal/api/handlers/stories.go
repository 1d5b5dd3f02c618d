package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Harshitk-cp/factline/internal/domain"
	"github.com/Harshitk-cp/factline/internal/store"
)

type StoryHandler struct {
	stories domain.StoryStore
	now     func() time.Time
}

func NewStoryHandler(stories domain.StoryStore) *StoryHandler {
	return &StoryHandler{stories: stories, now: time.Now}
}

type storiesResponse struct {
	Day     string                  `json:"day"`
	Stories []domain.PublishedStory `json:"stories"`
}

// List returns one day's stories in publication order. The day defaults to
// the current UTC day.
func (h *StoryHandler) List(w http.ResponseWriter, r *http.Request) {
	day := r.URL.Query().Get("day")
	if day == "" {
		day = h.now().UTC().Format(domain.DayLayout)
	} else if _, err := time.Parse(domain.DayLayout, day); err != nil {
		writeError(w, http.StatusBadRequest, "day must be YYYY-MM-DD")
		return
	}

	stories, err := h.stories.ListByDay(r.Context(), day)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list stories")
		return
	}
	if stories == nil {
		stories = []domain.PublishedStory{}
	}
	writeJSON(w, http.StatusOK, storiesResponse{Day: day, Stories: stories})
}

func (h *StoryHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := domain.DayOfStoryID(id); !ok {
		writeError(w, http.StatusBadRequest, "invalid story id")
		return
	}

	story, err := h.stories.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "story not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to get story")
		return
	}
	writeJSON(w, http.StatusOK, story)
}
