package similarity

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCache(t *testing.T, model string) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewCache(rdb, model, time.Hour), mr
}

func TestCacheRoundTrip(t *testing.T) {
	cache, _ := testCache(t, "test-model")
	ctx := context.Background()

	_, ok := cache.Get(ctx, "persona context")
	assert.False(t, ok)

	vec := []float64{0.1, -0.2, 0.3}
	cache.Put(ctx, "persona context", vec)

	got, ok := cache.Get(ctx, "persona context")
	require.True(t, ok)
	assert.Equal(t, vec, got)
}

func TestCacheKeyIncludesModel(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	ctx := context.Background()
	a := NewCache(rdb, "model-a", time.Hour)
	b := NewCache(rdb, "model-b", time.Hour)

	a.Put(ctx, "text", []float64{1})
	_, ok := b.Get(ctx, "text")
	assert.False(t, ok, "different models must not share entries")
}

func TestCacheEntryExpires(t *testing.T) {
	cache, mr := testCache(t, "test-model")
	ctx := context.Background()

	cache.Put(ctx, "text", []float64{1, 2})
	mr.FastForward(2 * time.Hour)

	_, ok := cache.Get(ctx, "text")
	assert.False(t, ok)
}

func TestCacheCorruptEntryIsAMiss(t *testing.T) {
	cache, mr := testCache(t, "test-model")
	ctx := context.Background()

	cache.Put(ctx, "text", []float64{1})
	// Overwrite the stored value with junk directly.
	var key string
	for _, k := range mr.Keys() {
		key = k
	}
	require.NotEmpty(t, key)
	mr.Set(key, "not json")

	_, ok := cache.Get(ctx, "text")
	assert.False(t, ok)
}

func TestScorerUsesCacheOnSecondCall(t *testing.T) {
	cache, _ := testCache(t, "test-model")
	emb := &fakeEmbedder{vecs: map[string][]float64{
		"a": {1, 0},
		"b": {0.5, 0.5},
	}}
	s := New(emb, cache)
	ctx := context.Background()

	first := s.Score(ctx, "a", "b")
	second := s.Score(ctx, "a", "b")

	assert.Equal(t, first, second)
	require.Len(t, emb.calls, 1, "second score must be served from cache")
	assert.ElementsMatch(t, []string{"a", "b"}, emb.calls[0])
}

func TestScorerEmbedsOnlyMissingTexts(t *testing.T) {
	cache, _ := testCache(t, "test-model")
	emb := &fakeEmbedder{vecs: map[string][]float64{
		"a": {1, 0},
		"b": {0, 1},
		"c": {1, 1},
	}}
	s := New(emb, cache)
	ctx := context.Background()

	s.Score(ctx, "a", "b")
	s.Score(ctx, "a", "c")

	require.Len(t, emb.calls, 2)
	assert.Equal(t, []string{"c"}, emb.calls[1])
}
