// Package quality computes the composite quality score used to rank users.
package quality

import (
	"github.com/mlavrik/coinpulse/internal/analyzer"
	"github.com/mlavrik/coinpulse/internal/textfilter"
)

// Score derives a non-negative integer score from the raw text and its
// analysis. It is deterministic and side-effect free.
//
// Low-effort text (too short, repeated characters, low alphanumeric ratio)
// scores 0 outright. Otherwise the score starts at 1, earns capped bonuses
// for topical richness, positive tone, directional crypto sentiment, coin
// mentions and recognizable intent, and loses 5 points each for negative
// sentiment and for a profanity match.
func Score(text string, a analyzer.Analysis) int {
	if textfilter.IsLowEffort(text) {
		return 0
	}

	score := 1

	score += min(5, len(a.Topics))
	if a.Sentiment == analyzer.SentimentPositive {
		score += 3
	}
	if a.CryptoSentiment == analyzer.CryptoBullish || a.CryptoSentiment == analyzer.CryptoBearish {
		score += 2
	}
	score += min(5, 2*len(a.MentionedCoins))
	switch a.Intent {
	case analyzer.IntentQuestion:
		score += 2
	case analyzer.IntentStatement, analyzer.IntentOpinion, analyzer.IntentRecommendation:
		score++
	}

	if a.Sentiment == analyzer.SentimentNegative {
		score -= 5
	}
	if textfilter.MatchesProfanity(text) {
		score -= 5
	}

	return max(0, score)
}
