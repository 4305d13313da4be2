package sentiment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"trading_assistant/services/cache"
)

var positiveWords = wordSet(
	"moon", "rocket", "bull", "bullish", "long", "calls", "buy", "surge",
	"breakout", "green", "up", "high", "profit", "gain", "squeeze", "yolo",
	"diamond", "hands", "tendies", "earnings", "beat", "upgrade",
)

var negativeWords = wordSet(
	"bear", "bearish", "short", "puts", "sell", "dump", "crash", "red",
	"down", "low", "loss", "bag", "drill", "tank", "fade", "miss",
	"downgrade", "overvalued", "bubble", "fear",
)

var wordPattern = regexp.MustCompile(`\w+`)

// tickerPattern matches candidate tickers in post bodies
var tickerPattern = regexp.MustCompile(`\b([A-Z]{2,5})\b`)

var tickerStopWords = wordSet(
	"THE", "AND", "FOR", "ARE", "BUT", "NOT", "YOU", "ALL",
	"CAN", "HER", "WAS", "ONE", "OUR", "OUT", "HAS", "ITS",
	"JUST", "LIKE", "BEEN", "THIS", "THAT", "WITH", "HAVE",
	"FROM", "THEY", "WILL", "WHAT", "WHEN", "YOUR", "SAID",
	"EACH", "SOME", "INTO", "THAN", "THEM", "VERY", "ALSO",
	"YOLO", "IMO", "DD", "TL", "EDIT", "UPDATE", "PSA", "FYI",
)

func wordSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// ScoreText scores text sentiment from -1.0 (bearish) to 1.0 (bullish)
// using keyword matching.
func ScoreText(text string) float64 {
	words := make(map[string]struct{})
	for _, w := range wordPattern.FindAllString(strings.ToLower(text), -1) {
		words[w] = struct{}{}
	}

	var pos, neg int
	for w := range words {
		if _, ok := positiveWords[w]; ok {
			pos++
		}
		if _, ok := negativeWords[w]; ok {
			neg++
		}
	}
	total := pos + neg
	if total == 0 {
		return 0.0
	}
	return float64(pos-neg) / float64(total)
}

// Label maps a score to a sentiment label
func Label(score float64) string {
	if score >= 0.3 {
		return "bullish"
	}
	if score <= -0.3 {
		return "bearish"
	}
	return "neutral"
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

// Post is one scored Reddit post
type Post struct {
	Subreddit      string  `json:"subreddit"`
	Title          string  `json:"title"`
	Score          int     `json:"score"`
	NumComments    int     `json:"num_comments"`
	SentimentScore float64 `json:"sentiment_score"`
	URL            string  `json:"url"`
	CreatedUTC     float64 `json:"created_utc"`
}

// RedditReport aggregates Reddit sentiment for a ticker
type RedditReport struct {
	Ticker         string  `json:"ticker"`
	Source         string  `json:"source"`
	PostCount      int     `json:"post_count"`
	AvgSentiment   float64 `json:"avg_sentiment"`
	SentimentLabel string  `json:"sentiment_label"`
	Posts          []Post  `json:"posts"`
}

// Article is one scored news headline
type Article struct {
	Title          string  `json:"title"`
	Source         string  `json:"source"`
	URL            string  `json:"url"`
	PublishedAt    string  `json:"published_at"`
	SentimentScore float64 `json:"sentiment_score"`
}

// NewsReport aggregates news sentiment for a ticker
type NewsReport struct {
	Ticker         string    `json:"ticker"`
	Source         string    `json:"source"`
	ArticleCount   int       `json:"article_count"`
	AvgSentiment   float64   `json:"avg_sentiment"`
	SentimentLabel string    `json:"sentiment_label"`
	Articles       []Article `json:"articles"`
}

// CombinedReport blends Reddit and news sentiment
type CombinedReport struct {
	Ticker            string  `json:"ticker"`
	CombinedSentiment float64 `json:"combined_sentiment"`
	SentimentLabel    string  `json:"sentiment_label"`
	RedditSentiment   float64 `json:"reddit_sentiment"`
	NewsSentiment     float64 `json:"news_sentiment"`
	RedditPosts       int     `json:"reddit_posts"`
	NewsArticles      int     `json:"news_articles"`
}

// TrendingTicker is a ticker ranked by Reddit mention count
type TrendingTicker struct {
	Ticker   string `json:"ticker"`
	Mentions int    `json:"mentions"`
}

// Service aggregates market sentiment from Reddit and news headlines.
// Every result is cached; upstream failures produce empty reports, not
// errors, so the dashboard always renders.
type Service struct {
	cache *cache.Service

	redditClientID     string
	redditClientSecret string
	redditUserAgent    string
	redditAuthURL      string
	redditAPIURL       string

	newsAPIKey  string
	newsBaseURL string

	sentimentTTL time.Duration
	newsTTL      time.Duration

	httpClient *http.Client

	mu             sync.Mutex
	redditToken    string
	redditTokenExp time.Time
}

// Options configures the sentiment service
type Options struct {
	RedditClientID     string
	RedditClientSecret string
	RedditUserAgent    string
	NewsAPIKey         string
	NewsBaseURL        string
	SentimentTTL       time.Duration
	NewsTTL            time.Duration
}

// NewService creates a sentiment service
func NewService(cacheService *cache.Service, opts Options) *Service {
	return &Service{
		cache:              cacheService,
		redditClientID:     opts.RedditClientID,
		redditClientSecret: opts.RedditClientSecret,
		redditUserAgent:    opts.RedditUserAgent,
		redditAuthURL:      "https://www.reddit.com",
		redditAPIURL:       "https://oauth.reddit.com",
		newsAPIKey:         opts.NewsAPIKey,
		newsBaseURL:        opts.NewsBaseURL,
		sentimentTTL:       opts.SentimentTTL,
		newsTTL:            opts.NewsTTL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// redditAccessToken fetches (or reuses) an app-only OAuth token
func (s *Service) redditAccessToken(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.redditToken != "" && time.Now().Before(s.redditTokenExp) {
		return s.redditToken, nil
	}

	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.redditAuthURL+"/api/v1/access_token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(s.redditClientID, s.redditClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", s.redditUserAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("reddit auth failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("reddit auth returned status %d", resp.StatusCode)
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", err
	}

	s.redditToken = tokenResp.AccessToken
	s.redditTokenExp = time.Now().Add(time.Duration(tokenResp.ExpiresIn-60) * time.Second)
	return s.redditToken, nil
}

type redditListing struct {
	Data struct {
		Children []struct {
			Data struct {
				Title       string  `json:"title"`
				Selftext    string  `json:"selftext"`
				Score       int     `json:"score"`
				NumComments int     `json:"num_comments"`
				Permalink   string  `json:"permalink"`
				CreatedUTC  float64 `json:"created_utc"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// redditGet performs an authenticated GET against the Reddit API
func (s *Service) redditGet(ctx context.Context, path string, params url.Values) (*redditListing, error) {
	token, err := s.redditAccessToken(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		s.redditAPIURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("User-Agent", s.redditUserAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("reddit returned status %d: %s", resp.StatusCode, string(body))
	}

	var listing redditListing
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return nil, err
	}
	return &listing, nil
}

// RedditSentiment scores recent Reddit posts mentioning a ticker
func (s *Service) RedditSentiment(ctx context.Context, ticker string, subreddits []string, limit int) *RedditReport {
	if len(subreddits) == 0 {
		subreddits = []string{"wallstreetbets", "stocks", "options"}
	}
	if limit <= 0 {
		limit = 25
	}

	cacheKey := "reddit_sentiment:" + ticker
	var cached RedditReport
	if s.cache.Get(ctx, cacheKey, &cached) {
		return &cached
	}

	posts := []Post{}
	var totalScore float64

	if s.redditClientID != "" {
		for _, sub := range subreddits {
			listing, err := s.redditGet(ctx, "/r/"+sub+"/search", url.Values{
				"q":           {ticker},
				"restrict_sr": {"1"},
				"sort":        {"new"},
				"t":           {"day"},
				"limit":       {fmt.Sprint(limit)},
			})
			if err != nil {
				log.Printf("Reddit fetch error for %s in r/%s: %v", ticker, sub, err)
				continue
			}
			for _, child := range listing.Data.Children {
				p := child.Data
				score := ScoreText(p.Title + " " + p.Selftext)
				totalScore += score
				posts = append(posts, Post{
					Subreddit:      sub,
					Title:          p.Title,
					Score:          p.Score,
					NumComments:    p.NumComments,
					SentimentScore: round3(score),
					URL:            "https://reddit.com" + p.Permalink,
					CreatedUTC:     p.CreatedUTC,
				})
			}
		}
	}

	avg := 0.0
	if len(posts) > 0 {
		avg = round3(totalScore / float64(len(posts)))
	}
	report := &RedditReport{
		Ticker:         ticker,
		Source:         "reddit",
		PostCount:      len(posts),
		AvgSentiment:   avg,
		SentimentLabel: Label(avg),
		Posts:          capPosts(posts, 20),
	}
	s.cache.Set(ctx, cacheKey, report, s.sentimentTTL)
	return report
}

// NewsSentiment scores recent news headlines for a ticker
func (s *Service) NewsSentiment(ctx context.Context, ticker string, limit int) *NewsReport {
	if limit <= 0 {
		limit = 10
	}

	cacheKey := "news_sentiment:" + ticker
	var cached NewsReport
	if s.cache.Get(ctx, cacheKey, &cached) {
		return &cached
	}

	articles := []Article{}
	var totalScore float64

	if s.newsAPIKey != "" {
		params := url.Values{
			"q":        {ticker},
			"sortBy":   {"publishedAt"},
			"pageSize": {fmt.Sprint(limit)},
			"apiKey":   {s.newsAPIKey},
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet,
			s.newsBaseURL+"/everything?"+params.Encode(), nil)
		if err == nil {
			resp, err := s.httpClient.Do(req)
			if err != nil {
				log.Printf("News fetch error for %s: %v", ticker, err)
			} else {
				defer resp.Body.Close()
				var newsResp struct {
					Articles []struct {
						Title       string `json:"title"`
						Description string `json:"description"`
						URL         string `json:"url"`
						PublishedAt string `json:"publishedAt"`
						Source      struct {
							Name string `json:"name"`
						} `json:"source"`
					} `json:"articles"`
				}
				if resp.StatusCode == http.StatusOK &&
					json.NewDecoder(resp.Body).Decode(&newsResp) == nil {
					for _, a := range newsResp.Articles {
						score := ScoreText(a.Title + " " + a.Description)
						totalScore += score
						articles = append(articles, Article{
							Title:          a.Title,
							Source:         a.Source.Name,
							URL:            a.URL,
							PublishedAt:    a.PublishedAt,
							SentimentScore: round3(score),
						})
					}
				}
			}
		}
	}

	avg := 0.0
	if len(articles) > 0 {
		avg = round3(totalScore / float64(len(articles)))
	}
	report := &NewsReport{
		Ticker:         ticker,
		Source:         "news",
		ArticleCount:   len(articles),
		AvgSentiment:   avg,
		SentimentLabel: Label(avg),
		Articles:       articles,
	}
	s.cache.Set(ctx, cacheKey, report, s.newsTTL)
	return report
}

// Reddit and news weights for the combined score. News is weighted
// heavier as it is the less noisy source.
const (
	redditWeight = 0.4
	newsWeight   = 0.6
)

// Combined blends Reddit and news sentiment into a single score
func Combined(reddit *RedditReport, news *NewsReport) *CombinedReport {
	combined := round3(reddit.AvgSentiment*redditWeight + news.AvgSentiment*newsWeight)
	ticker := reddit.Ticker
	if ticker == "" {
		ticker = news.Ticker
	}
	return &CombinedReport{
		Ticker:            ticker,
		CombinedSentiment: combined,
		SentimentLabel:    Label(combined),
		RedditSentiment:   reddit.AvgSentiment,
		NewsSentiment:     news.AvgSentiment,
		RedditPosts:       reddit.PostCount,
		NewsArticles:      news.ArticleCount,
	}
}

// TrendingTickers ranks tickers by mention count on r/wallstreetbets
func (s *Service) TrendingTickers(ctx context.Context) []TrendingTicker {
	cacheKey := "trending_tickers"
	var cached []TrendingTicker
	if s.cache.Get(ctx, cacheKey, &cached) {
		return cached
	}

	if s.redditClientID == "" {
		return []TrendingTicker{}
	}

	listing, err := s.redditGet(ctx, "/r/wallstreetbets/hot", url.Values{"limit": {"50"}})
	if err != nil {
		log.Printf("Trending tickers error: %v", err)
		return []TrendingTicker{}
	}

	counts := map[string]int{}
	for _, child := range listing.Data.Children {
		text := child.Data.Title + " " + child.Data.Selftext
		for _, match := range tickerPattern.FindAllString(text, -1) {
			if _, stop := tickerStopWords[match]; !stop {
				counts[match]++
			}
		}
	}

	trending := make([]TrendingTicker, 0, len(counts))
	for t, c := range counts {
		trending = append(trending, TrendingTicker{Ticker: t, Mentions: c})
	}
	sort.Slice(trending, func(i, j int) bool {
		if trending[i].Mentions != trending[j].Mentions {
			return trending[i].Mentions > trending[j].Mentions
		}
		return trending[i].Ticker < trending[j].Ticker
	})
	if len(trending) > 15 {
		trending = trending[:15]
	}

	s.cache.Set(ctx, cacheKey, trending, s.sentimentTTL)
	return trending
}

func capPosts(posts []Post, max int) []Post {
	if len(posts) > max {
		return posts[:max]
	}
	return posts
}
