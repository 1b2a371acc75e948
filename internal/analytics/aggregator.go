// Package analytics implements the read-side aggregations over the enriched
// message corpus: chat overview stats, topic insights, crypto stats and the
// quality-weighted leaderboard. All queries scope by the normalized chat-id
// set, and an empty corpus always yields an empty well-formed result.
package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"
	"unicode"

	"golang.org/x/sync/errgroup"

	"github.com/mlavrik/coinpulse/internal/analyzer"
	"github.com/mlavrik/coinpulse/internal/chatid"
	"github.com/mlavrik/coinpulse/internal/database"
)

const (
	topTopicsSimple   = 5
	topTopicsEnhanced = 15
	topActiveUsers    = 5
	relatedTopicsMax  = 3
	sampleMessagesMax = 3
	sampleTextMax     = 100
	// DefaultLeaderboardSize is the leaderboard limit when none is given.
	DefaultLeaderboardSize = 10
)

// MessageSource supplies the chat-scoped record set. database.Store
// satisfies it.
type MessageSource interface {
	MessagesForChat(ctx context.Context, chatIDs []int64) ([]database.Message, error)
}

// Aggregator executes the read paths.
type Aggregator struct {
	source MessageSource
	logger *slog.Logger
	now    func() time.Time
	enrich func(topic string, count int, msgs []database.Message) TopicInsight
}

// New creates an Aggregator over the given source.
func New(source MessageSource, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{
		source: source,
		logger: logger.With("component", "aggregator"),
		now:    time.Now,
		enrich: enrichTopic,
	}
}

func (a *Aggregator) fetch(ctx context.Context, chatID int64) ([]database.Message, error) {
	msgs, err := a.source.MessagesForChat(ctx, chatid.Normalize(chatID))
	if err != nil {
		return nil, fmt.Errorf("fetch chat scope: %w", err)
	}
	return msgs, nil
}

// ChatStats returns the overview aggregate for a chat.
func (a *Aggregator) ChatStats(ctx context.Context, chatID int64) (ChatStats, error) {
	msgs, err := a.fetch(ctx, chatID)
	if err != nil {
		return ChatStats{}, err
	}

	stats := ChatStats{
		TotalMessages: len(msgs),
		Sentiments:    []ValueCount{},
		Topics:        []ValueCount{},
		ActiveUsers:   []ActiveUser{},
	}

	users := map[int64]*ActiveUser{}
	sentiments := map[string]int{}
	for i := range msgs {
		m := &msgs[i]
		if s := m.Analysis.Sentiment; s != "" {
			sentiments[string(s)]++
		}
		if m.UserID.Valid {
			u, ok := users[m.UserID.Int64]
			if !ok {
				u = &ActiveUser{
					UserID:    m.UserID.Int64,
					Username:  m.Username,
					FirstName: m.FirstName,
					LastName:  m.LastName,
				}
				users[m.UserID.Int64] = u
			}
			u.MessageCount++
		}
	}

	stats.UniqueUsers = len(users)
	stats.Sentiments = sortedCounts(sentiments)
	stats.Topics = topN(topicCounts(msgs), topTopicsSimple)

	for _, u := range users {
		stats.ActiveUsers = append(stats.ActiveUsers, *u)
	}
	sort.Slice(stats.ActiveUsers, func(i, j int) bool {
		if stats.ActiveUsers[i].MessageCount != stats.ActiveUsers[j].MessageCount {
			return stats.ActiveUsers[i].MessageCount > stats.ActiveUsers[j].MessageCount
		}
		return stats.ActiveUsers[i].UserID < stats.ActiveUsers[j].UserID
	})
	if len(stats.ActiveUsers) > topActiveUsers {
		stats.ActiveUsers = stats.ActiveUsers[:topActiveUsers]
	}

	return stats, nil
}

// Topics returns the enriched topic insights, degrading to the simple
// {topic, count, lastMentioned} list if the enriched computation fails for
// any reason.
func (a *Aggregator) Topics(ctx context.Context, chatID int64) (TopicsReport, error) {
	msgs, err := a.fetch(ctx, chatID)
	if err != nil {
		return TopicsReport{}, err
	}

	insights, enrichErr := a.enrichedTopics(ctx, msgs)
	if enrichErr != nil {
		a.logger.WarnContext(ctx, "Enriched topic aggregation failed, falling back to simple list",
			"chat_id", chatID, "error", enrichErr)
		return TopicsReport{Simple: simpleTopics(msgs), Degraded: true}, nil
	}
	return TopicsReport{Insights: insights}, nil
}

// enrichedTopics computes per-topic insights, fanning the per-topic work out
// across goroutines. A panic in any sub-computation is converted to an error
// so the caller can degrade instead of crashing.
func (a *Aggregator) enrichedTopics(ctx context.Context, msgs []database.Message) (result []TopicInsight, err error) {
	defer func() {
		if r := recover(); r != nil {
			result, err = nil, fmt.Errorf("topic enrichment panicked: %v", r)
		}
	}()

	ranked := topN(filteredTopicCounts(msgs), topTopicsEnhanced)
	insights := make([]TopicInsight, len(ranked))

	g, gctx := errgroup.WithContext(ctx)
	for i, vc := range ranked {
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("enrich topic %q panicked: %v", vc.Value, r)
				}
			}()
			if gctx.Err() != nil {
				return gctx.Err()
			}
			insights[i] = a.enrich(vc.Value, vc.Count, msgs)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return insights, nil
}

func enrichTopic(topic string, count int, msgs []database.Message) TopicInsight {
	insight := TopicInsight{
		Topic:          topic,
		Count:          count,
		RelatedTopics:  []ValueCount{},
		SampleMessages: []SampleMessage{},
	}

	users := map[int64]struct{}{}
	sentiments := map[string]int{}
	related := map[string]int{}
	var carriers []*database.Message

	for i := range msgs {
		m := &msgs[i]
		if !m.Analysis.HasTopic(topic) {
			continue
		}
		carriers = append(carriers, m)

		if insight.FirstMentioned.IsZero() || m.Date.Before(insight.FirstMentioned) {
			insight.FirstMentioned = m.Date
		}
		if m.Date.After(insight.LastMentioned) {
			insight.LastMentioned = m.Date
		}
		if m.UserID.Valid {
			users[m.UserID.Int64] = struct{}{}
		}
		sentiments[string(m.Analysis.Sentiment)]++
		for _, other := range m.Analysis.Topics {
			if other != topic {
				related[other]++
			}
		}
	}

	insight.UniqueUsers = len(users)
	insight.DaysActive = daysBetween(insight.FirstMentioned, insight.LastMentioned)
	if insight.DaysActive > 0 {
		insight.MessagesPerDay = float64(len(carriers)) / float64(insight.DaysActive)
	}
	if ranked := sortedCounts(sentiments); len(ranked) > 0 {
		insight.DominantSentiment = ranked[0].Value
	}
	insight.RelatedTopics = topN(related, relatedTopicsMax)

	// Most recent carriers as samples; the fetch order is date ascending.
	for i := len(carriers) - 1; i >= 0 && len(insight.SampleMessages) < sampleMessagesMax; i-- {
		m := carriers[i]
		insight.SampleMessages = append(insight.SampleMessages, SampleMessage{
			Author: m.DisplayName(),
			Text:   truncate(m.Text, sampleTextMax),
			Date:   m.Date,
		})
	}

	return insight
}

func simpleTopics(msgs []database.Message) []SimpleTopic {
	counts := filteredTopicCounts(msgs)
	lastSeen := map[string]time.Time{}
	for i := range msgs {
		m := &msgs[i]
		for _, topic := range m.Analysis.Topics {
			if m.Date.After(lastSeen[topic]) {
				lastSeen[topic] = m.Date
			}
		}
	}

	out := make([]SimpleTopic, 0, topTopicsEnhanced)
	for _, vc := range topN(counts, topTopicsEnhanced) {
		out = append(out, SimpleTopic{Topic: vc.Value, Count: vc.Count, LastMentioned: lastSeen[vc.Value]})
	}
	return out
}

// CryptoStats returns the crypto-focused aggregate for a chat.
func (a *Aggregator) CryptoStats(ctx context.Context, chatID int64) (CryptoStats, error) {
	msgs, err := a.fetch(ctx, chatID)
	if err != nil {
		return CryptoStats{}, err
	}

	stats := CryptoStats{
		MentionedCoins:  []CoinStats{},
		CryptoSentiment: map[string]int{},
		PotentialScams:  []ScamCandidate{},
	}

	type coinAgg struct {
		CoinStats
		indicators map[string]int
		carriers   []*database.Message
	}
	coins := map[string]*coinAgg{}

	for i := range msgs {
		m := &msgs[i]
		cs := m.Analysis.CryptoSentiment
		isCrypto := len(m.Analysis.MentionedCoins) > 0 || cs != analyzer.CryptoUnknown
		if !isCrypto {
			continue
		}
		stats.TotalMessages++
		if cs != analyzer.CryptoUnknown {
			stats.CryptoSentiment[string(cs)]++
		}

		for _, coin := range m.Analysis.MentionedCoins {
			agg, ok := coins[coin]
			if !ok {
				agg = &coinAgg{
					CoinStats:  CoinStats{Coin: coin, FirstMentioned: m.Date, RecentMessages: []SampleMessage{}},
					indicators: map[string]int{},
				}
				coins[coin] = agg
			}
			agg.Count++
			if m.Date.Before(agg.FirstMentioned) {
				agg.FirstMentioned = m.Date
			}
			if m.Date.After(agg.LastMentioned) {
				agg.LastMentioned = m.Date
			}
			switch cs {
			case analyzer.CryptoBullish:
				agg.BullishCount++
			case analyzer.CryptoBearish:
				agg.BearishCount++
			}
			for _, ind := range m.Analysis.ScamIndicators {
				agg.indicators[ind]++
			}
			agg.carriers = append(agg.carriers, m)
		}
	}

	var scams []ScamCandidate
	for _, agg := range coins {
		for i := len(agg.carriers) - 1; i >= 0 && len(agg.RecentMessages) < sampleMessagesMax; i-- {
			m := agg.carriers[i]
			agg.RecentMessages = append(agg.RecentMessages, SampleMessage{
				Author: m.DisplayName(),
				Text:   truncate(m.Text, sampleTextMax),
				Date:   m.Date,
			})
		}
		stats.MentionedCoins = append(stats.MentionedCoins, agg.CoinStats)

		if len(agg.indicators) > 0 {
			total := 0
			for _, n := range agg.indicators {
				total += n
			}
			scams = append(scams, ScamCandidate{
				Coin:           agg.Coin,
				MessageCount:   agg.Count,
				IndicatorCount: total,
				ScamScore:      float64(total) / float64(agg.Count),
				TopIndicators:  topN(agg.indicators, relatedTopicsMax),
			})
		}
	}

	sort.Slice(stats.MentionedCoins, func(i, j int) bool {
		if stats.MentionedCoins[i].Count != stats.MentionedCoins[j].Count {
			return stats.MentionedCoins[i].Count > stats.MentionedCoins[j].Count
		}
		return stats.MentionedCoins[i].Coin < stats.MentionedCoins[j].Coin
	})
	sort.Slice(scams, func(i, j int) bool {
		if scams[i].IndicatorCount != scams[j].IndicatorCount {
			return scams[i].IndicatorCount > scams[j].IndicatorCount
		}
		return scams[i].Coin < scams[j].Coin
	})
	if scams != nil {
		stats.PotentialScams = scams
	}

	return stats, nil
}

// Leaderboard returns the top-limit users ranked by summed quality score.
func (a *Aggregator) Leaderboard(ctx context.Context, chatID int64, limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 {
		limit = DefaultLeaderboardSize
	}

	msgs, err := a.fetch(ctx, chatID)
	if err != nil {
		return nil, err
	}

	type userAgg struct {
		LeaderboardEntry
		positives int
		questions int
		first     time.Time
		topics    []string
	}
	users := map[int64]*userAgg{}

	for i := range msgs {
		m := &msgs[i]
		if !m.UserID.Valid {
			continue
		}
		u, ok := users[m.UserID.Int64]
		if !ok {
			u = &userAgg{
				LeaderboardEntry: LeaderboardEntry{
					UserID:    m.UserID.Int64,
					Username:  m.Username,
					FirstName: m.FirstName,
					LastName:  m.LastName,
					TopTopics: []string{},
				},
				first: m.Date,
			}
			users[m.UserID.Int64] = u
		}

		u.TotalPoints += m.QualityScore
		u.MessageCount++
		if m.QualityScore > u.HighestScore {
			u.HighestScore = m.QualityScore
		}
		if m.Date.Before(u.first) {
			u.first = m.Date
		}
		if m.Date.After(u.LastActive) {
			u.LastActive = m.Date
		}
		if m.Analysis.Sentiment == analyzer.SentimentPositive {
			u.positives++
		}
		if m.Analysis.Intent == analyzer.IntentQuestion {
			u.questions++
		}
		// First three topics across the per-message lists in message order;
		// a topic repeated across messages keeps its repeats.
		for _, topic := range m.Analysis.Topics {
			if len(u.topics) == 3 {
				break
			}
			u.topics = append(u.topics, topic)
		}
	}

	now := a.now()
	entries := make([]LeaderboardEntry, 0, len(users))
	for _, u := range users {
		u.AveragePoints = math.Round(float64(u.TotalPoints)/float64(u.MessageCount)*10) / 10
		u.PositiveRate = int(math.Round(100 * float64(u.positives) / float64(u.MessageCount)))
		u.QuestionsRate = int(math.Round(100 * float64(u.questions) / float64(u.MessageCount)))
		u.DaysSinceFirstMessage = int(math.Round(now.Sub(u.first).Hours() / 24))
		u.TopTopics = u.topics
		if u.TopTopics == nil {
			u.TopTopics = []string{}
		}
		entries = append(entries, u.LeaderboardEntry)
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].TotalPoints != entries[j].TotalPoints {
			return entries[i].TotalPoints > entries[j].TotalPoints
		}
		if entries[i].MessageCount != entries[j].MessageCount {
			return entries[i].MessageCount > entries[j].MessageCount
		}
		return rankName(entries[i]) < rankName(entries[j])
	})
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func rankName(e LeaderboardEntry) string {
	if e.Username != "" {
		return e.Username
	}
	return e.FirstName
}

// topicCounts unwinds analysis.topics over the record set.
func topicCounts(msgs []database.Message) map[string]int {
	counts := map[string]int{}
	for i := range msgs {
		for _, topic := range msgs[i].Analysis.Topics {
			counts[topic]++
		}
	}
	return counts
}

// filteredTopicCounts is topicCounts minus topics with no alphanumeric
// character. The topics report drops them; the chat overview keeps them.
func filteredTopicCounts(msgs []database.Message) map[string]int {
	counts := topicCounts(msgs)
	for topic := range counts {
		if !hasAlphanumeric(topic) {
			delete(counts, topic)
		}
	}
	return counts
}

func hasAlphanumeric(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

func sortedCounts(counts map[string]int) []ValueCount {
	out := make([]ValueCount, 0, len(counts))
	for v, c := range counts {
		out = append(out, ValueCount{Value: v, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value < out[j].Value
	})
	return out
}

func topN(counts map[string]int, n int) []ValueCount {
	ranked := sortedCounts(counts)
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// daysBetween is the inclusive day window between two instants.
func daysBetween(first, last time.Time) int {
	if first.IsZero() || last.IsZero() {
		return 0
	}
	return int(last.Sub(first).Hours()/24) + 1
}

func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return "..."
	}
	return string(runes[:maxLen-3]) + "..."
}
