package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type quotePayload struct {
	Ticker string  `json:"ticker"`
	Price  float64 `json:"price"`
	Volume int64   `json:"volume"`
}

func TestCacheRoundTrip(t *testing.T) {
	s := NewService("")
	ctx := context.Background()

	in := quotePayload{Ticker: "AAPL", Price: 187.42, Volume: 52_100_300}
	s.Set(ctx, "quote:AAPL", in, time.Minute)

	var out quotePayload
	require.True(t, s.Get(ctx, "quote:AAPL", &out))
	assert.Equal(t, in, out)
}

func TestCacheMissOnUnknownKey(t *testing.T) {
	s := NewService("")

	var out quotePayload
	assert.False(t, s.Get(context.Background(), "quote:TSLA", &out))
}

func TestCacheExpiry(t *testing.T) {
	s := NewService("")
	ctx := context.Background()

	base := time.Date(2024, 6, 3, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }

	s.Set(ctx, "quote:NVDA", quotePayload{Ticker: "NVDA", Price: 1200}, 60*time.Second)

	// Still valid one second before expiry.
	s.now = func() time.Time { return base.Add(59 * time.Second) }
	var out quotePayload
	require.True(t, s.Get(ctx, "quote:NVDA", &out))

	// Expired at TTL + epsilon, and lazily evicted.
	s.now = func() time.Time { return base.Add(61 * time.Second) }
	assert.False(t, s.Get(ctx, "quote:NVDA", &out))

	s.mu.RLock()
	_, still := s.mem["quote:NVDA"]
	s.mu.RUnlock()
	assert.False(t, still, "expired entry should be evicted on read")
}

func TestCacheDelete(t *testing.T) {
	s := NewService("")
	ctx := context.Background()

	s.Set(ctx, "trending", []string{"GME", "AMC"}, time.Minute)
	s.Delete(ctx, "trending")

	var out []string
	assert.False(t, s.Get(ctx, "trending", &out))
}

func TestCacheOverwriteLastWriteWins(t *testing.T) {
	s := NewService("")
	ctx := context.Background()

	s.Set(ctx, "quote:MSFT", quotePayload{Ticker: "MSFT", Price: 420.0}, time.Minute)
	s.Set(ctx, "quote:MSFT", quotePayload{Ticker: "MSFT", Price: 421.5}, time.Minute)

	var out quotePayload
	require.True(t, s.Get(ctx, "quote:MSFT", &out))
	assert.Equal(t, 421.5, out.Price)
}

// With the remote backend unreachable the cache must behave identically
// from the caller's perspective, only routed to the in-process store.
func TestCacheFallbackTransparency(t *testing.T) {
	// Port 1 refuses connections, so the one-time probe fails fast and
	// marks the backend unavailable for good.
	s := NewService("redis://127.0.0.1:1/0")
	ctx := context.Background()

	in := quotePayload{Ticker: "AMD", Price: 160.25, Volume: 9000}
	s.Set(ctx, "quote:AMD", in, time.Minute)

	var out quotePayload
	require.True(t, s.Get(ctx, "quote:AMD", &out))
	assert.Equal(t, in, out)

	s.Delete(ctx, "quote:AMD")
	assert.False(t, s.Get(ctx, "quote:AMD", &out))

	// Sticky selection: the failed probe is never retried.
	assert.Nil(t, s.backend())
}

func TestCacheInvalidURLFallsBack(t *testing.T) {
	s := NewService("://not-a-url")
	ctx := context.Background()

	s.Set(ctx, "k", "v", time.Minute)
	var out string
	require.True(t, s.Get(ctx, "k", &out))
	assert.Equal(t, "v", out)
}
