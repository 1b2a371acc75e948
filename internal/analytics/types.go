package analytics

import "time"

// ValueCount is a generic grouped counter row.
type ValueCount struct {
	Value string
	Count int
}

// ActiveUser is one row of the per-chat activity ranking.
type ActiveUser struct {
	UserID       int64
	Username     string
	FirstName    string
	LastName     string
	MessageCount int
}

// ChatStats is the overview aggregate for one chat.
type ChatStats struct {
	TotalMessages int
	UniqueUsers   int
	Sentiments    []ValueCount
	Topics        []ValueCount
	ActiveUsers   []ActiveUser
}

// SampleMessage is a short excerpt shown in aggregate views.
type SampleMessage struct {
	Author string
	Text   string
	Date   time.Time
}

// TopicInsight is the enriched per-topic aggregate.
type TopicInsight struct {
	Topic             string
	Count             int
	FirstMentioned    time.Time
	LastMentioned     time.Time
	UniqueUsers       int
	DaysActive        int
	MessagesPerDay    float64
	DominantSentiment string
	RelatedTopics     []ValueCount
	SampleMessages    []SampleMessage
}

// SimpleTopic is the degraded per-topic aggregate used when the enriched
// computation fails.
type SimpleTopic struct {
	Topic         string
	Count         int
	LastMentioned time.Time
}

// TopicsReport carries either the enriched insights or the simple fallback.
type TopicsReport struct {
	Insights []TopicInsight
	Simple   []SimpleTopic
	Degraded bool
}

// CoinStats is the per-coin aggregate.
type CoinStats struct {
	Coin           string
	Count          int
	FirstMentioned time.Time
	LastMentioned  time.Time
	RecentMessages []SampleMessage
	BullishCount   int
	BearishCount   int
}

// ScamCandidate is a coin that co-occurs with scam indicators.
type ScamCandidate struct {
	Coin           string
	MessageCount   int
	IndicatorCount int
	ScamScore      float64
	TopIndicators  []ValueCount
}

// CryptoStats is the crypto-focused aggregate for one chat.
type CryptoStats struct {
	MentionedCoins  []CoinStats
	CryptoSentiment map[string]int
	PotentialScams  []ScamCandidate
	TotalMessages   int
}

// LeaderboardEntry is one row of the quality-weighted user ranking.
type LeaderboardEntry struct {
	UserID                int64
	Username              string
	FirstName             string
	LastName              string
	TotalPoints           int
	MessageCount          int
	AveragePoints         float64
	PositiveRate          int
	QuestionsRate         int
	HighestScore          int
	DaysSinceFirstMessage int
	LastActive            time.Time
	TopTopics             []string
}
