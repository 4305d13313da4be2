package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"trading_assistant/services/cache"
)

// Service fetches quotes, intraday series and options data from Alpha
// Vantage. Every fetch is shielded by the cache so repeated requests
// within the TTL never hit the upstream API.
type Service struct {
	apiKey     string
	baseURL    string
	cache      *cache.Service
	quoteTTL   time.Duration
	httpClient *http.Client

	now func() time.Time
}

// NewService creates a market data service
func NewService(apiKey, baseURL string, cacheService *cache.Service, quoteTTL time.Duration) *Service {
	return &Service{
		apiKey:   apiKey,
		baseURL:  baseURL,
		cache:    cacheService,
		quoteTTL: quoteTTL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		now: time.Now,
	}
}

// Quote is a realtime snapshot for a single symbol
type Quote struct {
	Ticker        string  `json:"ticker"`
	Symbol        string  `json:"symbol"`
	Market        string  `json:"market"`
	Price         float64 `json:"price"`
	Change        float64 `json:"change"`
	ChangePercent string  `json:"change_percent"`
	Volume        int64   `json:"volume"`
	High          float64 `json:"high"`
	Low           float64 `json:"low"`
	Open          float64 `json:"open"`
	PreviousClose float64 `json:"previous_close"`
	Timestamp     string  `json:"timestamp"`
}

// CandlePoint is one bar of an intraday series
type CandlePoint struct {
	Timestamp string  `json:"timestamp"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    int64   `json:"volume"`
}

// IntradaySeries is an intraday price series for a symbol
type IntradaySeries struct {
	Ticker   string        `json:"ticker"`
	Symbol   string        `json:"symbol"`
	Market   string        `json:"market"`
	Interval string        `json:"interval"`
	Data     []CandlePoint `json:"data"`
}

// OptionContract is a single option in a chain
type OptionContract struct {
	Strike            float64 `json:"strike"`
	Expiration        string  `json:"expiration"`
	LastPrice         float64 `json:"last_price"`
	Bid               float64 `json:"bid"`
	Ask               float64 `json:"ask"`
	Volume            int64   `json:"volume"`
	OpenInterest      int64   `json:"open_interest"`
	ImpliedVolatility float64 `json:"implied_volatility"`
}

// OptionsChain groups calls and puts for a ticker
type OptionsChain struct {
	Ticker          string           `json:"ticker"`
	Calls           []OptionContract `json:"calls"`
	Puts            []OptionContract `json:"puts"`
	TotalCallVolume int64            `json:"total_call_volume"`
	TotalPutVolume  int64            `json:"total_put_volume"`
}

// SearchResult is a symbol search match
type SearchResult struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
	Type   string `json:"type"`
	Region string `json:"region"`
}

// MarketSession describes open/close state for one market
type MarketSession struct {
	IsOpen    bool   `json:"is_open"`
	NextOpen  string `json:"next_open,omitempty"`
	NextClose string `json:"next_close,omitempty"`
}

// request performs an Alpha Vantage API call and decodes the top-level
// JSON object. API-level errors ("Error Message", rate limit "Note")
// come back as errors.
func (s *Service) request(ctx context.Context, params url.Values) (map[string]json.RawMessage, error) {
	params.Set("apikey", s.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("market data request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("market data API returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var data map[string]json.RawMessage
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("invalid market data response: %w", err)
	}
	if _, ok := data["Error Message"]; ok {
		return nil, fmt.Errorf("market data API error for %s", params.Get("symbol"))
	}
	if _, ok := data["Note"]; ok {
		return nil, fmt.Errorf("market data API rate limited")
	}
	return data, nil
}

// GetQuote returns the realtime quote for a ticker
func (s *Service) GetQuote(ctx context.Context, ticker, market string) (*Quote, error) {
	symbol := resolveSymbol(ticker, market)
	cacheKey := "quote:" + symbol

	var cached Quote
	if s.cache.Get(ctx, cacheKey, &cached) {
		return &cached, nil
	}

	data, err := s.request(ctx, url.Values{
		"function": {"GLOBAL_QUOTE"},
		"symbol":   {symbol},
	})
	if err != nil {
		return nil, err
	}

	raw, ok := data["Global Quote"]
	if !ok {
		return nil, fmt.Errorf("no quote data for %s", ticker)
	}
	var fields map[string]string
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("invalid quote payload for %s: %w", ticker, err)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("no quote data for %s", ticker)
	}

	quote := &Quote{
		Ticker:        ticker,
		Symbol:        symbol,
		Market:        market,
		Price:         parseFloat(fields["05. price"]),
		Change:        parseFloat(fields["09. change"]),
		ChangePercent: fields["10. change percent"],
		Volume:        parseInt(fields["06. volume"]),
		High:          parseFloat(fields["03. high"]),
		Low:           parseFloat(fields["04. low"]),
		Open:          parseFloat(fields["02. open"]),
		PreviousClose: parseFloat(fields["08. previous close"]),
		Timestamp:     s.now().UTC().Format(time.RFC3339),
	}
	if quote.ChangePercent == "" {
		quote.ChangePercent = "0%"
	}

	s.cache.Set(ctx, cacheKey, quote, s.quoteTTL)
	return quote, nil
}

// GetIntraday returns intraday time series data
func (s *Service) GetIntraday(ctx context.Context, ticker, interval, market string) (*IntradaySeries, error) {
	symbol := resolveSymbol(ticker, market)
	cacheKey := "intraday:" + symbol + ":" + interval

	var cached IntradaySeries
	if s.cache.Get(ctx, cacheKey, &cached) {
		return &cached, nil
	}

	data, err := s.request(ctx, url.Values{
		"function":   {"TIME_SERIES_INTRADAY"},
		"symbol":     {symbol},
		"interval":   {interval},
		"outputsize": {"compact"},
	})
	if err != nil {
		return nil, err
	}

	raw, ok := data[fmt.Sprintf("Time Series (%s)", interval)]
	if !ok {
		return nil, fmt.Errorf("no intraday data for %s", ticker)
	}
	var series map[string]map[string]string
	if err := json.Unmarshal(raw, &series); err != nil {
		return nil, fmt.Errorf("invalid intraday payload for %s: %w", ticker, err)
	}

	points := make([]CandlePoint, 0, len(series))
	for timestamp, values := range series {
		points = append(points, CandlePoint{
			Timestamp: timestamp,
			Open:      parseFloat(values["1. open"]),
			High:      parseFloat(values["2. high"]),
			Low:       parseFloat(values["3. low"]),
			Close:     parseFloat(values["4. close"]),
			Volume:    parseInt(values["5. volume"]),
		})
	}

	result := &IntradaySeries{
		Ticker:   ticker,
		Symbol:   symbol,
		Market:   market,
		Interval: interval,
		Data:     points,
	}
	s.cache.Set(ctx, cacheKey, result, s.quoteTTL)
	return result, nil
}

// GetOptionsChain returns realtime options data for a ticker
func (s *Service) GetOptionsChain(ctx context.Context, ticker string) (*OptionsChain, error) {
	cacheKey := "options:" + ticker

	var cached OptionsChain
	if s.cache.Get(ctx, cacheKey, &cached) {
		return &cached, nil
	}

	data, err := s.request(ctx, url.Values{
		"function": {"REALTIME_OPTIONS"},
		"symbol":   {ticker},
	})
	if err != nil {
		return nil, err
	}

	raw, ok := data["data"]
	if !ok {
		return nil, fmt.Errorf("no options data for %s", ticker)
	}
	var options []map[string]string
	if err := json.Unmarshal(raw, &options); err != nil {
		return nil, fmt.Errorf("invalid options payload for %s: %w", ticker, err)
	}

	chain := &OptionsChain{Ticker: ticker, Calls: []OptionContract{}, Puts: []OptionContract{}}
	for _, option := range options {
		entry := OptionContract{
			Strike:            parseFloat(option["strike"]),
			Expiration:        option["expiration"],
			LastPrice:         parseFloat(option["last"]),
			Bid:               parseFloat(option["bid"]),
			Ask:               parseFloat(option["ask"]),
			Volume:            parseInt(option["volume"]),
			OpenInterest:      parseInt(option["open_interest"]),
			ImpliedVolatility: parseFloat(option["implied_volatility"]),
		}
		if strings.EqualFold(option["type"], "call") {
			chain.Calls = append(chain.Calls, entry)
			chain.TotalCallVolume += entry.Volume
		} else {
			chain.Puts = append(chain.Puts, entry)
			chain.TotalPutVolume += entry.Volume
		}
	}

	s.cache.Set(ctx, cacheKey, chain, s.quoteTTL)
	return chain, nil
}

// Search looks up symbols by keyword
func (s *Service) Search(ctx context.Context, query string) ([]SearchResult, error) {
	data, err := s.request(ctx, url.Values{
		"function": {"SYMBOL_SEARCH"},
		"keywords": {query},
	})
	if err != nil {
		return nil, err
	}

	raw, ok := data["bestMatches"]
	if !ok {
		return []SearchResult{}, nil
	}
	var matches []map[string]string
	if err := json.Unmarshal(raw, &matches); err != nil {
		return nil, fmt.Errorf("invalid search payload: %w", err)
	}

	results := make([]SearchResult, 0, len(matches))
	for _, m := range matches {
		results = append(results, SearchResult{
			Symbol: m["1. symbol"],
			Name:   m["2. name"],
			Type:   m["3. type"],
			Region: m["4. region"],
		})
	}
	return results, nil
}

// MarketStatus reports open/close state for the US and Indian markets
// using fixed-offset approximations of exchange local time.
func (s *Service) MarketStatus() map[string]MarketSession {
	now := s.now().UTC()
	weekday := now.Weekday() != time.Saturday && now.Weekday() != time.Sunday
	usHour := (now.Hour() - 5 + 24) % 24    // EST approximation
	indiaHour := (now.Hour() + 5 + 24) % 24 // IST approximation

	status := map[string]MarketSession{}

	us := MarketSession{IsOpen: weekday && usHour >= 9 && usHour < 16}
	if !us.IsOpen {
		us.NextOpen = "09:30 ET"
	} else {
		us.NextClose = "16:00 ET"
	}
	status["US"] = us

	in := MarketSession{IsOpen: weekday && indiaHour >= 9 && indiaHour < 15}
	if !in.IsOpen {
		in.NextOpen = "09:15 IST"
	} else {
		in.NextClose = "15:30 IST"
	}
	status["IN"] = in

	return status
}

// resolveSymbol maps a ticker to the provider's symbol format
func resolveSymbol(ticker, market string) string {
	if market == "IN" {
		return ticker + ".BSE"
	}
	return ticker
}

func parseFloat(s string) float64 {
	v, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return v
}

func parseInt(s string) int64 {
	v, _ := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	return v
}
