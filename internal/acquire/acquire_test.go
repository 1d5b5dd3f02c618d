package acquire

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Harshitk-cp/factline/internal/domain"
)

const rssBody = `<?xml version="1.0"?>
<rss version="2.0"><channel><title>Wire</title>
<item><title>Earthquake of magnitude 6.1 strikes northern Chile</title><link>https://wire.example/1</link></item>
<item><title>Short one</title><link>https://wire.example/2</link></item>
<item><title>  Central bank raises   interest rates by 0.25 points </title><link>https://wire.example/3</link></item>
</channel></rss>`

const pageBody = `<html><body>
<h2 class="hl"><a href="/a">Parliament approves new budget of 4 billion euros</a></h2>
<h2 class="hl"><a href="/b">Menu</a></h2>
</body></html>`

func TestOutlet_Feed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("User-Agent"), "factline")
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(rssBody))
	}))
	defer srv.Close()

	o := NewOutlet(domain.Source{ID: "wire", Name: "Wire", Accuracy: 9.1, FeedURL: srv.URL}, srv.Client())
	got, err := o.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2, "short titles are dropped")
	assert.Equal(t, "Earthquake of magnitude 6.1 strikes northern Chile", got[0].Text)
	assert.Equal(t, "Central bank raises interest rates by 0.25 points", got[1].Text)
	assert.Equal(t, "wire", got[0].SourceID)
	assert.Equal(t, 9.1, got[0].BaselineRating)
	assert.Equal(t, "https://wire.example/1", got[0].URL)
}

func TestOutlet_FallsBackToPage(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/feed", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(pageBody))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	o := NewOutlet(domain.Source{ID: "paper", FeedURL: srv.URL + "/feed", PageURL: srv.URL + "/", Selector: "h2.hl"}, srv.Client())
	got, err := o.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Parliament approves new budget of 4 billion euros", got[0].Text)
	assert.Equal(t, "/a", got[0].URL)
}

func TestOutlet_FeedErrorWithoutFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewOutlet(domain.Source{ID: "x", FeedURL: srv.URL}, srv.Client()).Fetch(context.Background())
	assert.Error(t, err)
}

type stubSource struct {
	headlines []domain.Headline
	err       error
}

func (s stubSource) Fetch(context.Context) ([]domain.Headline, error) { return s.headlines, s.err }

func TestMulti_SkipsFailingOutlets(t *testing.T) {
	m := &Multi{
		outlets: []Source{
			stubSource{err: assert.AnError},
			stubSource{headlines: []domain.Headline{{Text: "a"}, {Text: "b"}}},
		},
		names:  []string{"bad", "good"},
		logger: zap.NewNop(),
	}
	got, err := m.Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 2)

	m.outlets = []Source{stubSource{err: assert.AnError}}
	m.names = []string{"bad"}
	_, err = m.Fetch(context.Background())
	assert.ErrorIs(t, err, ErrAllSourcesFailed)
}

func TestNewMulti_SkipsDisabled(t *testing.T) {
	m := NewMulti([]domain.Source{{ID: "a"}, {ID: "b", Disabled: true}}, nil, 0, zap.NewNop())
	assert.Equal(t, []string{"a"}, m.names)
}
