// Package analyzer produces a structured analysis for raw chat messages.
// It defines the analysis data model and a Client capability with
// interchangeable backends (OpenAI, Gemini, disabled).
package analyzer

import "strings"

// Sentiment classifies the overall tone of a message.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
	SentimentUnknown  Sentiment = "unknown"
)

// ParseSentiment maps a free-form value onto the closed sentiment set.
// Unrecognized values become SentimentUnknown.
func ParseSentiment(s string) Sentiment {
	switch Sentiment(strings.ToLower(strings.TrimSpace(s))) {
	case SentimentPositive:
		return SentimentPositive
	case SentimentNegative:
		return SentimentNegative
	case SentimentNeutral:
		return SentimentNeutral
	default:
		return SentimentUnknown
	}
}

// Intent classifies what the author is trying to do.
type Intent string

const (
	IntentQuestion       Intent = "question"
	IntentStatement      Intent = "statement"
	IntentCommand        Intent = "command"
	IntentGreeting       Intent = "greeting"
	IntentOpinion        Intent = "opinion"
	IntentRecommendation Intent = "recommendation"
	IntentOther          Intent = "other"
	IntentUnknown        Intent = "unknown"
)

// ParseIntent maps a free-form value onto the closed intent set.
func ParseIntent(s string) Intent {
	switch Intent(strings.ToLower(strings.TrimSpace(s))) {
	case IntentQuestion:
		return IntentQuestion
	case IntentStatement:
		return IntentStatement
	case IntentCommand:
		return IntentCommand
	case IntentGreeting:
		return IntentGreeting
	case IntentOpinion:
		return IntentOpinion
	case IntentRecommendation:
		return IntentRecommendation
	case IntentOther:
		return IntentOther
	default:
		return IntentUnknown
	}
}

// CryptoSentiment classifies market-directional tone.
type CryptoSentiment string

const (
	CryptoBullish CryptoSentiment = "bullish"
	CryptoBearish CryptoSentiment = "bearish"
	CryptoNeutral CryptoSentiment = "neutral"
	CryptoUnknown CryptoSentiment = "unknown"
)

// ParseCryptoSentiment maps a free-form value onto the closed set.
func ParseCryptoSentiment(s string) CryptoSentiment {
	switch CryptoSentiment(strings.ToLower(strings.TrimSpace(s))) {
	case CryptoBullish:
		return CryptoBullish
	case CryptoBearish:
		return CryptoBearish
	case CryptoNeutral:
		return CryptoNeutral
	default:
		return CryptoUnknown
	}
}

// Analysis is the structured enrichment attached to a persisted message.
// Slice fields preserve insertion order.
type Analysis struct {
	Sentiment         Sentiment         `json:"sentiment"`
	Topics            []string          `json:"topics"`
	Entities          []string          `json:"entities"`
	Intent            Intent            `json:"intent"`
	CryptoSentiment   CryptoSentiment   `json:"cryptoSentiment"`
	MentionedCoins    []string          `json:"mentionedCoins"`
	ScamIndicators    []string          `json:"scamIndicators"`
	PriceTargets      map[string]string `json:"priceTargets"`
	ContractAddresses []string          `json:"contractAddresses,omitempty"`
}

// Degraded returns the analysis used when the backend is unavailable or fails.
func Degraded() Analysis {
	return Analysis{
		Sentiment:       SentimentNeutral,
		Topics:          []string{},
		Entities:        []string{},
		Intent:          IntentUnknown,
		CryptoSentiment: CryptoUnknown,
		MentionedCoins:  []string{},
		ScamIndicators:  []string{},
		PriceTargets:    map[string]string{},
	}
}

// Normalize coerces enum fields onto their closed sets, drops blank list
// entries, and replaces nil collections with empty ones so persisted
// documents always carry well-formed shapes.
func (a Analysis) Normalize() Analysis {
	a.Sentiment = ParseSentiment(string(a.Sentiment))
	a.Intent = ParseIntent(string(a.Intent))
	a.CryptoSentiment = ParseCryptoSentiment(string(a.CryptoSentiment))
	a.Topics = cleanList(a.Topics)
	a.Entities = cleanList(a.Entities)
	a.MentionedCoins = cleanList(a.MentionedCoins)
	a.ScamIndicators = cleanList(a.ScamIndicators)
	if a.PriceTargets == nil {
		a.PriceTargets = map[string]string{}
	}
	if a.ContractAddresses != nil {
		a.ContractAddresses = cleanList(a.ContractAddresses)
	}
	return a
}

// HasTopic reports whether the analysis already carries the given topic.
func (a Analysis) HasTopic(topic string) bool {
	for _, t := range a.Topics {
		if t == topic {
			return true
		}
	}
	return false
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
