package sentiment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trading_assistant/services/cache"
)

func TestScoreText(t *testing.T) {
	cases := []struct {
		name string
		text string
		want float64
	}{
		{"all bullish", "NVDA to the moon, rocket incoming, bullish", 1.0},
		{"all bearish", "total dump, bearish crash incoming", -1.0},
		{"mixed", "bullish breakout but puts look tempting", 1.0 / 3.0},
		{"no keywords", "quarterly report released today", 0.0},
		{"empty", "", 0.0},
	}

	for _, tc := range cases {
		assert.InDelta(t, tc.want, ScoreText(tc.text), 1e-9, tc.name)
	}
}

func TestScoreTextCountsUniqueWords(t *testing.T) {
	// Repeating a keyword must not amplify the score.
	single := ScoreText("moon")
	repeated := ScoreText("moon moon moon moon")
	assert.Equal(t, single, repeated)
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "bullish", Label(0.3))
	assert.Equal(t, "bullish", Label(0.9))
	assert.Equal(t, "bearish", Label(-0.3))
	assert.Equal(t, "bearish", Label(-1.0))
	assert.Equal(t, "neutral", Label(0.0))
	assert.Equal(t, "neutral", Label(0.29))
	assert.Equal(t, "neutral", Label(-0.29))
}

func TestCombined(t *testing.T) {
	reddit := &RedditReport{Ticker: "GME", AvgSentiment: 0.5, PostCount: 12}
	news := &NewsReport{Ticker: "GME", AvgSentiment: -0.5, ArticleCount: 4}

	report := Combined(reddit, news)

	// 0.5*0.4 + (-0.5)*0.6 = -0.1
	assert.InDelta(t, -0.1, report.CombinedSentiment, 1e-9)
	assert.Equal(t, "neutral", report.SentimentLabel)
	assert.Equal(t, "GME", report.Ticker)
	assert.Equal(t, 12, report.RedditPosts)
	assert.Equal(t, 4, report.NewsArticles)
}

func TestCombinedTickerFallsBackToNews(t *testing.T) {
	report := Combined(&RedditReport{}, &NewsReport{Ticker: "AMD"})
	assert.Equal(t, "AMD", report.Ticker)
}

func newRedditTestService(t *testing.T, apiHandler http.HandlerFunc) *Service {
	t.Helper()

	auth := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "test-token",
			"expires_in":   3600,
		})
	}))
	t.Cleanup(auth.Close)

	api := httptest.NewServer(apiHandler)
	t.Cleanup(api.Close)

	s := NewService(cache.NewService(""), Options{
		RedditClientID:     "id",
		RedditClientSecret: "secret",
		RedditUserAgent:    "trading_assistant_test",
		SentimentTTL:       time.Minute,
		NewsTTL:            time.Minute,
	})
	s.redditAuthURL = auth.URL
	s.redditAPIURL = api.URL
	return s
}

func redditListingJSON(titles ...string) map[string]interface{} {
	children := make([]map[string]interface{}, 0, len(titles))
	for _, title := range titles {
		children = append(children, map[string]interface{}{
			"data": map[string]interface{}{
				"title":        title,
				"selftext":     "",
				"score":        10,
				"num_comments": 3,
				"permalink":    "/r/wallstreetbets/comments/abc",
				"created_utc":  1710000000.0,
			},
		})
	}
	return map[string]interface{}{
		"data": map[string]interface{}{"children": children},
	}
}

func TestRedditSentimentScoresPosts(t *testing.T) {
	s := newRedditTestService(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(redditListingJSON("NVDA to the moon", "bearish on NVDA, expecting a dump"))
	})

	report := s.RedditSentiment(context.Background(), "NVDA", []string{"wallstreetbets"}, 25)

	require.NotNil(t, report)
	assert.Equal(t, "NVDA", report.Ticker)
	assert.Equal(t, 2, report.PostCount)
	require.Len(t, report.Posts, 2)
	assert.Equal(t, 1.0, report.Posts[0].SentimentScore)
	assert.Equal(t, -1.0, report.Posts[1].SentimentScore)
	assert.InDelta(t, 0.0, report.AvgSentiment, 1e-9)
	assert.Equal(t, "neutral", report.SentimentLabel)
}

func TestRedditSentimentCached(t *testing.T) {
	calls := 0
	s := newRedditTestService(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		json.NewEncoder(w).Encode(redditListingJSON("AAPL breakout, very bullish"))
	})

	first := s.RedditSentiment(context.Background(), "AAPL", nil, 25)
	second := s.RedditSentiment(context.Background(), "AAPL", nil, 25)

	// Default subreddit fan-out is three requests; the second call is
	// served entirely from cache.
	assert.Equal(t, 3, calls)
	assert.Equal(t, first.AvgSentiment, second.AvgSentiment)
	assert.Equal(t, first.PostCount, second.PostCount)
}

func TestRedditSentimentUpstreamFailure(t *testing.T) {
	s := newRedditTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	report := s.RedditSentiment(context.Background(), "TSLA", []string{"stocks"}, 25)

	require.NotNil(t, report)
	assert.Zero(t, report.PostCount)
	assert.Equal(t, "neutral", report.SentimentLabel)
}

func TestNewsSentimentScoresHeadlines(t *testing.T) {
	news := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "MSFT", r.URL.Query().Get("q"))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"articles": []map[string]interface{}{
				{
					"title":       "MSFT earnings beat, shares surge",
					"description": "",
					"url":         "https://example.com/a",
					"publishedAt": "2025-03-12T10:00:00Z",
					"source":      map[string]string{"name": "Example"},
				},
			},
		})
	}))
	t.Cleanup(news.Close)

	s := NewService(cache.NewService(""), Options{
		NewsAPIKey:   "key",
		NewsBaseURL:  news.URL,
		SentimentTTL: time.Minute,
		NewsTTL:      time.Minute,
	})

	report := s.NewsSentiment(context.Background(), "MSFT", 10)

	require.NotNil(t, report)
	assert.Equal(t, 1, report.ArticleCount)
	assert.Equal(t, 1.0, report.Articles[0].SentimentScore)
	assert.Equal(t, "bullish", report.SentimentLabel)
}

func TestTrendingTickersRanksByMentions(t *testing.T) {
	s := newRedditTestService(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(redditListingJSON(
			"GME GME GME",
			"GME and AMC",
			"AMC squeeze THE BIG ONE",
		))
	})

	trending := s.TrendingTickers(context.Background())

	require.NotEmpty(t, trending)
	assert.Equal(t, "GME", trending[0].Ticker)
	for _, tt := range trending {
		assert.NotEqual(t, "THE", tt.Ticker)
		assert.NotEqual(t, "AND", tt.Ticker)
	}
}
