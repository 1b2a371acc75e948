package analytics

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mlavrik/coinpulse/internal/analyzer"
	"github.com/mlavrik/coinpulse/internal/database"
)

const (
	superID = int64(-1001234567890)
	plainID = int64(-1234567890)
)

var baseDate = time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)

// fakeSource returns messages whose chat_id is in the requested scope.
type fakeSource struct {
	messages []database.Message
	err      error
}

func (f *fakeSource) MessagesForChat(_ context.Context, chatIDs []int64) ([]database.Message, error) {
	if f.err != nil {
		return nil, f.err
	}
	scope := map[int64]bool{}
	for _, id := range chatIDs {
		scope[id] = true
	}
	var out []database.Message
	for _, m := range f.messages {
		if scope[m.ChatID] {
			out = append(out, m)
		}
	}
	return out, nil
}

type msgOpt func(*database.Message)

func withUser(id int64, username string) msgOpt {
	return func(m *database.Message) {
		m.UserID = sql.NullInt64{Int64: id, Valid: true}
		m.Username = username
	}
}

func withScore(score int) msgOpt {
	return func(m *database.Message) { m.QualityScore = score }
}

func withDate(d time.Time) msgOpt {
	return func(m *database.Message) { m.Date = d }
}

func withAnalysis(a analyzer.Analysis) msgOpt {
	return func(m *database.Message) { m.Analysis = database.AnalysisColumn{Analysis: a.Normalize()} }
}

func msg(chatID int64, text string, opts ...msgOpt) database.Message {
	m := database.Message{
		ChatID:   chatID,
		Text:     text,
		Date:     baseDate,
		Analysis: database.AnalysisColumn{Analysis: analyzer.Degraded()},
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

func newAggregator(src MessageSource) *Aggregator {
	a := New(src, slog.New(slog.NewTextHandler(io.Discard, nil)))
	a.now = func() time.Time { return baseDate.Add(72 * time.Hour) }
	return a
}

func TestChatStats(t *testing.T) {
	t.Parallel()

	src := &fakeSource{messages: []database.Message{
		msg(superID, "btc looks strong today",
			withUser(1, "alice"),
			withAnalysis(analyzer.Analysis{Sentiment: analyzer.SentimentPositive, Topics: []string{"crypto", "btc"}})),
		msg(superID, "eth gas is brutal",
			withUser(2, "bob"),
			withAnalysis(analyzer.Analysis{Sentiment: analyzer.SentimentNegative, Topics: []string{"crypto", "eth"}})),
		msg(superID, "anyone watching sol?",
			withUser(1, "alice"),
			withAnalysis(analyzer.Analysis{Sentiment: analyzer.SentimentPositive, Topics: []string{"crypto"}})),
	}}
	agg := newAggregator(src)

	stats, err := agg.ChatStats(context.Background(), superID)
	require.NoError(t, err)

	assert.Equal(t, 3, stats.TotalMessages)
	assert.Equal(t, 2, stats.UniqueUsers)
	require.NotEmpty(t, stats.Sentiments)
	assert.Equal(t, ValueCount{Value: "positive", Count: 2}, stats.Sentiments[0])
	require.NotEmpty(t, stats.Topics)
	assert.Equal(t, ValueCount{Value: "crypto", Count: 3}, stats.Topics[0])
	require.Len(t, stats.ActiveUsers, 2)
	assert.Equal(t, "alice", stats.ActiveUsers[0].Username)
	assert.Equal(t, 2, stats.ActiveUsers[0].MessageCount)
}

func TestChatStatsKeepsNonAlphanumericTopics(t *testing.T) {
	t.Parallel()

	src := &fakeSource{messages: []database.Message{
		msg(superID, ":-)",
			withUser(1, "alice"),
			withAnalysis(analyzer.Analysis{Topics: []string{"!!!", "btc"}})),
		msg(superID, "!!!",
			withUser(2, "bob"),
			withAnalysis(analyzer.Analysis{Topics: []string{"!!!"}})),
	}}
	agg := newAggregator(src)

	stats, err := agg.ChatStats(context.Background(), superID)
	require.NoError(t, err)

	// The overview counts every topic; only the topics report filters
	// entries without an alphanumeric character.
	require.Len(t, stats.Topics, 2)
	assert.Equal(t, ValueCount{Value: "!!!", Count: 2}, stats.Topics[0])
	assert.Equal(t, ValueCount{Value: "btc", Count: 1}, stats.Topics[1])
}

func TestChatStatsEmptyCorpus(t *testing.T) {
	t.Parallel()

	agg := newAggregator(&fakeSource{})

	stats, err := agg.ChatStats(context.Background(), -1009999999999)
	require.NoError(t, err)
	assert.Equal(t, ChatStats{
		TotalMessages: 0,
		UniqueUsers:   0,
		Sentiments:    []ValueCount{},
		Topics:        []ValueCount{},
		ActiveUsers:   []ActiveUser{},
	}, stats)
}

func TestChatStatsNormalizesChatID(t *testing.T) {
	t.Parallel()

	src := &fakeSource{messages: []database.Message{
		msg(superID, "written under the supergroup encoding", withUser(1, "alice")),
		msg(plainID, "written under the plain encoding", withUser(2, "bob")),
	}}
	agg := newAggregator(src)

	bySuper, err := agg.ChatStats(context.Background(), superID)
	require.NoError(t, err)
	byPlain, err := agg.ChatStats(context.Background(), plainID)
	require.NoError(t, err)

	assert.Equal(t, 2, bySuper.TotalMessages)
	assert.Equal(t, bySuper, byPlain)
}

func TestChatStatsSourceError(t *testing.T) {
	t.Parallel()

	agg := newAggregator(&fakeSource{err: errors.New("store offline")})
	_, err := agg.ChatStats(context.Background(), superID)
	assert.Error(t, err)
}

func TestTopicsEnriched(t *testing.T) {
	t.Parallel()

	src := &fakeSource{messages: []database.Message{
		msg(superID, "defi summer is back, yields everywhere",
			withUser(1, "alice"), withDate(baseDate),
			withAnalysis(analyzer.Analysis{Sentiment: analyzer.SentimentPositive, Topics: []string{"defi", "yield"}})),
		msg(superID, "defi protocols keep getting exploited though",
			withUser(2, "bob"), withDate(baseDate.Add(24*time.Hour)),
			withAnalysis(analyzer.Analysis{Sentiment: analyzer.SentimentNegative, Topics: []string{"defi", "security"}})),
		msg(superID, "yield farming on stables feels safe enough",
			withUser(1, "alice"), withDate(baseDate.Add(48*time.Hour)),
			withAnalysis(analyzer.Analysis{Sentiment: analyzer.SentimentPositive, Topics: []string{"defi", "yield"}})),
		msg(superID, ":-) !!!",
			withUser(3, "carol"),
			withAnalysis(analyzer.Analysis{Topics: []string{"defi", "!!!"}})),
	}}
	agg := newAggregator(src)

	report, err := agg.Topics(context.Background(), superID)
	require.NoError(t, err)
	require.False(t, report.Degraded)
	require.NotEmpty(t, report.Insights)

	top := report.Insights[0]
	assert.Equal(t, "defi", top.Topic)
	assert.Equal(t, 4, top.Count)
	assert.Equal(t, 3, top.UniqueUsers)
	assert.Equal(t, baseDate, top.FirstMentioned)
	assert.Equal(t, baseDate.Add(48*time.Hour), top.LastMentioned)
	assert.Equal(t, 3, top.DaysActive)
	require.NotEmpty(t, top.RelatedTopics)
	assert.Equal(t, "yield", top.RelatedTopics[0].Value)
	require.NotEmpty(t, top.SampleMessages)
	assert.LessOrEqual(t, len(top.SampleMessages), 3)
	assert.Equal(t, "@alice", top.SampleMessages[1].Author)

	// Topics without any alphanumeric character are filtered out.
	for _, insight := range report.Insights {
		assert.NotEqual(t, "!!!", insight.Topic)
	}
}

func TestTopicsSampleTruncation(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("hodl and never sell ", 20) // 400 chars
	src := &fakeSource{messages: []database.Message{
		msg(superID, long,
			withUser(1, "alice"),
			withAnalysis(analyzer.Analysis{Topics: []string{"hodl"}})),
	}}
	agg := newAggregator(src)

	report, err := agg.Topics(context.Background(), superID)
	require.NoError(t, err)
	require.NotEmpty(t, report.Insights)
	require.NotEmpty(t, report.Insights[0].SampleMessages)
	sample := report.Insights[0].SampleMessages[0]
	assert.Len(t, []rune(sample.Text), 100)
	assert.True(t, strings.HasSuffix(sample.Text, "..."))
}

func TestTopicsDegradesToSimpleListOnEnrichmentFailure(t *testing.T) {
	t.Parallel()

	src := &fakeSource{messages: []database.Message{
		msg(superID, "defi yields are looking juicy again",
			withUser(1, "alice"), withDate(baseDate),
			withAnalysis(analyzer.Analysis{Topics: []string{"defi", "yield"}})),
		msg(superID, "defi got exploited again, shocking",
			withUser(2, "bob"), withDate(baseDate.Add(24*time.Hour)),
			withAnalysis(analyzer.Analysis{Topics: []string{"defi", "!!!"}})),
	}}
	agg := newAggregator(src)
	agg.enrich = func(string, int, []database.Message) TopicInsight {
		panic("enrichment exploded")
	}

	report, err := agg.Topics(context.Background(), superID)
	require.NoError(t, err, "enrichment failure degrades, it does not surface")
	assert.True(t, report.Degraded)
	assert.Empty(t, report.Insights)

	require.Len(t, report.Simple, 2)
	assert.Equal(t, SimpleTopic{Topic: "defi", Count: 2, LastMentioned: baseDate.Add(24 * time.Hour)}, report.Simple[0])
	assert.Equal(t, SimpleTopic{Topic: "yield", Count: 1, LastMentioned: baseDate}, report.Simple[1])
}

func TestTopicsEmptyCorpus(t *testing.T) {
	t.Parallel()

	agg := newAggregator(&fakeSource{})
	report, err := agg.Topics(context.Background(), superID)
	require.NoError(t, err)
	assert.False(t, report.Degraded)
	assert.Empty(t, report.Insights)
}

func TestCryptoStats(t *testing.T) {
	t.Parallel()

	src := &fakeSource{messages: []database.Message{
		msg(superID, "PEPE to the moon",
			withUser(1, "alice"), withDate(baseDate),
			withAnalysis(analyzer.Analysis{CryptoSentiment: analyzer.CryptoBullish, MentionedCoins: []string{"PEPE"}})),
		msg(superID, "PEPE chart looks heavy",
			withUser(2, "bob"), withDate(baseDate.Add(time.Hour)),
			withAnalysis(analyzer.Analysis{CryptoSentiment: analyzer.CryptoBearish, MentionedCoins: []string{"PEPE"}})),
		msg(superID, "guaranteed 100x on SAFEMOON, send now, last chance",
			withUser(3, "carol"), withDate(baseDate.Add(2*time.Hour)),
			withAnalysis(analyzer.Analysis{
				CryptoSentiment: analyzer.CryptoBullish,
				MentionedCoins:  []string{"SAFEMOON"},
				ScamIndicators:  []string{"unrealistic promises", "urgency"},
			})),
		msg(superID, "nothing crypto about this message at all",
			withUser(1, "alice"), withDate(baseDate.Add(3*time.Hour))),
	}}
	agg := newAggregator(src)

	stats, err := agg.CryptoStats(context.Background(), superID)
	require.NoError(t, err)

	// The degraded fourth message has unknown crypto sentiment and no coins.
	assert.Equal(t, 3, stats.TotalMessages)
	assert.Equal(t, map[string]int{"bullish": 2, "bearish": 1}, stats.CryptoSentiment)

	require.Len(t, stats.MentionedCoins, 2)
	pepe := stats.MentionedCoins[0]
	assert.Equal(t, "PEPE", pepe.Coin)
	assert.Equal(t, 2, pepe.Count)
	assert.Equal(t, 1, pepe.BullishCount)
	assert.Equal(t, 1, pepe.BearishCount)
	assert.Equal(t, baseDate, pepe.FirstMentioned)
	assert.Equal(t, baseDate.Add(time.Hour), pepe.LastMentioned)
	assert.LessOrEqual(t, len(pepe.RecentMessages), 3)

	require.Len(t, stats.PotentialScams, 1)
	scam := stats.PotentialScams[0]
	assert.Equal(t, "SAFEMOON", scam.Coin)
	assert.Equal(t, 1, scam.MessageCount)
	assert.Equal(t, 2, scam.IndicatorCount)
	assert.InDelta(t, 2.0, scam.ScamScore, 1e-9)
	assert.Len(t, scam.TopIndicators, 2)
}

func TestCryptoStatsEmptyCorpus(t *testing.T) {
	t.Parallel()

	agg := newAggregator(&fakeSource{})
	stats, err := agg.CryptoStats(context.Background(), superID)
	require.NoError(t, err)
	assert.Equal(t, CryptoStats{
		MentionedCoins:  []CoinStats{},
		CryptoSentiment: map[string]int{},
		PotentialScams:  []ScamCandidate{},
		TotalMessages:   0,
	}, stats)
}

func TestLeaderboard(t *testing.T) {
	t.Parallel()

	src := &fakeSource{messages: []database.Message{
		msg(superID, "alpha: rotate into L2s before the unlock",
			withUser(1, "alice"), withScore(10), withDate(baseDate),
			withAnalysis(analyzer.Analysis{Sentiment: analyzer.SentimentPositive, Intent: analyzer.IntentRecommendation, Topics: []string{"l2", "alpha"}})),
		msg(superID, "what is the float on that one?",
			withUser(1, "alice"), withScore(5), withDate(baseDate.Add(24*time.Hour)),
			withAnalysis(analyzer.Analysis{Sentiment: analyzer.SentimentNeutral, Intent: analyzer.IntentQuestion, Topics: []string{"tokenomics"}})),
		msg(superID, "gm",
			withUser(2, "bob"), withScore(0), withDate(baseDate),
			withAnalysis(analyzer.Analysis{Intent: analyzer.IntentGreeting})),
		msg(superID, "interesting take on the unlock schedule",
			withUser(2, "bob"), withScore(7), withDate(baseDate.Add(48*time.Hour)),
			withAnalysis(analyzer.Analysis{Sentiment: analyzer.SentimentPositive, Intent: analyzer.IntentStatement, Topics: []string{"tokenomics"}})),
	}}
	agg := newAggregator(src)

	entries, err := agg.Leaderboard(context.Background(), superID, 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	alice := entries[0]
	assert.Equal(t, int64(1), alice.UserID)
	assert.Equal(t, 15, alice.TotalPoints)
	assert.Equal(t, 2, alice.MessageCount)
	assert.InDelta(t, 7.5, alice.AveragePoints, 1e-9)
	assert.Equal(t, 50, alice.PositiveRate)
	assert.Equal(t, 50, alice.QuestionsRate)
	assert.Equal(t, 10, alice.HighestScore)
	// now is baseDate+72h, first message at baseDate: 3 days.
	assert.Equal(t, 3, alice.DaysSinceFirstMessage)
	assert.Equal(t, baseDate.Add(24*time.Hour), alice.LastActive)
	assert.Equal(t, []string{"l2", "alpha", "tokenomics"}, alice.TopTopics)

	bob := entries[1]
	assert.Equal(t, int64(2), bob.UserID)
	assert.Equal(t, 7, bob.TotalPoints)
	assert.InDelta(t, 3.5, bob.AveragePoints, 1e-9)
}

func TestLeaderboardTopTopicsKeepRepeats(t *testing.T) {
	t.Parallel()

	src := &fakeSource{messages: []database.Message{
		msg(superID, "btc halving is priced in",
			withUser(1, "alice"), withScore(5), withDate(baseDate),
			withAnalysis(analyzer.Analysis{Topics: []string{"btc"}})),
		msg(superID, "btc dominance keeps climbing, alts bleeding",
			withUser(1, "alice"), withScore(5), withDate(baseDate.Add(time.Hour)),
			withAnalysis(analyzer.Analysis{Topics: []string{"btc", "alts", "dominance"}})),
	}}
	agg := newAggregator(src)

	entries, err := agg.Leaderboard(context.Background(), superID, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	// First three of the concatenated per-message topic lists, repeats kept.
	assert.Equal(t, []string{"btc", "btc", "alts"}, entries[0].TopTopics)
}

func TestLeaderboardTieBreaks(t *testing.T) {
	t.Parallel()

	src := &fakeSource{messages: []database.Message{
		// Same total points; zed has more messages so ranks above anna.
		msg(superID, "one big score", withUser(1, "anna"), withScore(10)),
		msg(superID, "first of two", withUser(2, "zed"), withScore(5)),
		msg(superID, "second of two", withUser(2, "zed"), withScore(5)),
		// Same points and count as anna; loses the name tie-break to anna.
		msg(superID, "also one big score", withUser(3, "bertha"), withScore(10)),
	}}
	agg := newAggregator(src)

	entries, err := agg.Leaderboard(context.Background(), superID, 10)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "zed", entries[0].Username)
	assert.Equal(t, "anna", entries[1].Username)
	assert.Equal(t, "bertha", entries[2].Username)
}

func TestLeaderboardLimitAndEmpty(t *testing.T) {
	t.Parallel()

	var messages []database.Message
	for i := int64(1); i <= 15; i++ {
		messages = append(messages, msg(superID, "steady contribution from this user",
			withUser(i, ""), withScore(int(i))))
	}
	agg := newAggregator(&fakeSource{messages: messages})

	entries, err := agg.Leaderboard(context.Background(), superID, 0)
	require.NoError(t, err)
	assert.Len(t, entries, DefaultLeaderboardSize)

	empty, err := agg.Leaderboard(context.Background(), -1009999999999, 0)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestLeaderboardSameDayIsZeroDays(t *testing.T) {
	t.Parallel()

	src := &fakeSource{messages: []database.Message{
		msg(superID, "posted just now basically", withUser(1, "alice"), withScore(3)),
	}}
	agg := newAggregator(src)
	agg.now = func() time.Time { return baseDate.Add(2 * time.Hour) }

	entries, err := agg.Leaderboard(context.Background(), superID, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 0, entries[0].DaysSinceFirstMessage)
}

func TestInsertThenStatsIncludesRecord(t *testing.T) {
	t.Parallel()

	src := &fakeSource{}
	agg := newAggregator(src)

	before, err := agg.ChatStats(context.Background(), superID)
	require.NoError(t, err)
	require.Equal(t, 0, before.TotalMessages)

	src.messages = append(src.messages, msg(superID, "freshly ingested message about BTC",
		withUser(7, "dana"),
		withAnalysis(analyzer.Analysis{Sentiment: analyzer.SentimentPositive, Topics: []string{"btc"}})))

	after, err := agg.ChatStats(context.Background(), superID)
	require.NoError(t, err)
	assert.Equal(t, 1, after.TotalMessages)
	assert.Equal(t, ValueCount{Value: "btc", Count: 1}, after.Topics[0])
}
