package voice

import (
	"regexp"
	"strconv"
	"strings"
)

// tickerPattern matches uppercase words that look like stock tickers
var tickerPattern = regexp.MustCompile(`\b([A-Z]{1,5})\b`)

// pricePattern matches dollar amounts mentioned in a transcript
var pricePattern = regexp.MustCompile(`\$?([\d]+\.?\d*)`)

// actionKeywords maps an idea type to the phrases that imply it.
// Order matters: the first matching action wins.
var actionKeywords = []struct {
	action   string
	keywords []string
}{
	{"buy", []string{"buy", "long", "call", "bullish", "accumulate"}},
	{"sell", []string{"sell", "short", "put", "bearish", "dump", "exit"}},
	{"watch", []string{"watch", "monitor", "track", "keep an eye"}},
	{"options", []string{"option", "options", "call", "put", "strike", "expiry"}},
}

var commonWords = map[string]struct{}{
	"I": {}, "A": {}, "THE": {}, "AND": {}, "OR": {}, "BUT": {}, "FOR": {},
	"AT": {}, "TO": {}, "IN": {}, "ON": {}, "IS": {}, "IT": {}, "IF": {},
}

const maxTickers = 5

// Intent is the structured trading idea extracted from a voice transcript
type Intent struct {
	IdeaType        string   `json:"idea_type"`
	Tickers         []string `json:"tickers"`
	EntryPrice      *float64 `json:"entry_price,omitempty"`
	TargetPrice     *float64 `json:"target_price,omitempty"`
	StopLoss        *float64 `json:"stop_loss,omitempty"`
	Notes           string   `json:"notes"`
	VoiceTranscript string   `json:"voice_transcript"`
}

// ParseIntent parses a voice transcript into a structured trading idea.
// Detection is keyword based: the action comes from trade vocabulary,
// tickers from uppercase words, and up to three prices map to entry,
// target and stop loss in order of mention.
func ParseIntent(transcript string) Intent {
	lower := strings.ToLower(transcript)

	ideaType := "watch"
	for _, entry := range actionKeywords {
		if containsAny(lower, entry.keywords) {
			ideaType = entry.action
			break
		}
	}

	tickers := []string{}
	for _, match := range tickerPattern.FindAllString(transcript, -1) {
		if _, common := commonWords[match]; common || len(match) < 2 {
			continue
		}
		tickers = append(tickers, match)
		if len(tickers) == maxTickers {
			break
		}
	}

	var prices []float64
	for _, m := range pricePattern.FindAllStringSubmatch(transcript, -1) {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			prices = append(prices, v)
		}
	}

	intent := Intent{
		IdeaType:        ideaType,
		Tickers:         tickers,
		Notes:           transcript,
		VoiceTranscript: transcript,
	}
	if len(prices) >= 1 {
		intent.EntryPrice = &prices[0]
	}
	if len(prices) >= 2 {
		intent.TargetPrice = &prices[1]
	}
	if len(prices) >= 3 {
		intent.StopLoss = &prices[2]
	}
	return intent
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
