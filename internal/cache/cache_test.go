package cache

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Harshitk-cp/factline/internal/domain"
)

func exercise(t *testing.T, c domain.HeadlineCache) {
	t.Helper()
	ctx := context.Background()

	seen, err := c.SeenHeadline(ctx, "2024-03-01", "abc")
	require.NoError(t, err)
	assert.False(t, seen)

	require.NoError(t, c.MarkHeadline(ctx, "2024-03-01", "abc"))
	seen, err = c.SeenHeadline(ctx, "2024-03-01", "abc")
	require.NoError(t, err)
	assert.True(t, seen)

	seen, err = c.SeenHeadline(ctx, "2024-03-02", "abc")
	require.NoError(t, err)
	assert.False(t, seen, "epochs are independent")

	_, ok, err := c.GetExtraction(ctx, "2024-03-01", "abc")
	require.NoError(t, err)
	assert.False(t, ok)

	want := domain.ExtractedFact{Fact: "F", Confidence: 90, Newsworthy: true, Provenance: domain.ProvenanceStrict}
	require.NoError(t, c.PutExtraction(ctx, "2024-03-01", "abc", want))
	got, ok, err := c.GetExtraction(ctx, "2024-03-01", "abc")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want, got)

	require.NoError(t, c.MarkHeadline(ctx, "2024-03-02", "def"))
	require.NoError(t, c.Reset(ctx, "2024-03-02"))

	seen, _ = c.SeenHeadline(ctx, "2024-03-01", "abc")
	assert.False(t, seen, "old epoch dropped")
	_, ok, _ = c.GetExtraction(ctx, "2024-03-01", "abc")
	assert.False(t, ok)
	seen, _ = c.SeenHeadline(ctx, "2024-03-02", "def")
	assert.True(t, seen, "current epoch kept")
}

func TestMemory(t *testing.T) {
	m, err := NewMemory("")
	require.NoError(t, err)
	exercise(t, m)
}

func TestMemory_PersistsAcrossRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	ctx := context.Background()

	m, err := NewMemory(path)
	require.NoError(t, err)
	require.NoError(t, m.MarkHeadline(ctx, "2024-03-01", "abc"))

	again, err := NewMemory(path)
	require.NoError(t, err)
	seen, err := again.SeenHeadline(ctx, "2024-03-01", "abc")
	require.NoError(t, err)
	assert.True(t, seen)
}

func TestRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	c := NewRedisWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	defer c.Close()

	require.NoError(t, c.Ping(context.Background()))
	exercise(t, c)

	mr.FastForward(TTL + 1)
	assert.False(t, mr.Exists(processedKey("2024-03-02")), "keys expire")
}
