package analyzer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mlavrik/coinpulse/internal/contract"
)

type stubBackend struct {
	mu      sync.Mutex
	content string
	err     error
	calls   int
}

func (s *stubBackend) name() string { return "stub" }

func (s *stubBackend) complete(_ context.Context, _, _ string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.content, s.err
}

func (s *stubBackend) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func newTestService(b backend) *service {
	return &service{
		backend: b,
		timeout: time.Second,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestAnalyzeUnconfiguredDegrades(t *testing.T) {
	t.Parallel()

	svc := newTestService(nil)
	svc.backend = nil

	a := svc.Analyze(context.Background(), "is SOL going to recover this quarter?")
	assert.Equal(t, SentimentNeutral, a.Sentiment)
	assert.Equal(t, IntentUnknown, a.Intent)
	assert.Empty(t, a.Topics)
	assert.False(t, svc.Available())

	st := svc.Status()
	assert.False(t, st.Configured)
	assert.Equal(t, "analyzer API key not configured", st.LastError)
}

func TestAnalyzeStrictParse(t *testing.T) {
	t.Parallel()

	stub := &stubBackend{content: `{
		"sentiment": "positive",
		"topics": ["crypto", "memecoin"],
		"entities": ["PEPE"],
		"intent": "statement",
		"cryptoSentiment": "bullish",
		"mentionedCoins": ["PEPE"],
		"scamIndicators": [],
		"priceTargets": {"PEPE": "0.001"}
	}`}
	svc := newTestService(stub)

	a := svc.Analyze(context.Background(), "Just aped into $PEPE, looks bullish")
	assert.Equal(t, SentimentPositive, a.Sentiment)
	assert.Equal(t, []string{"crypto", "memecoin"}, a.Topics)
	assert.Equal(t, IntentStatement, a.Intent)
	assert.Equal(t, CryptoBullish, a.CryptoSentiment)
	assert.Equal(t, []string{"PEPE"}, a.MentionedCoins)
	assert.Equal(t, map[string]string{"PEPE": "0.001"}, a.PriceTargets)
	assert.Equal(t, 1, stub.callCount())
}

func TestAnalyzeProfanityShortCircuit(t *testing.T) {
	t.Parallel()

	stub := &stubBackend{content: `{"sentiment":"positive"}`}
	svc := newTestService(stub)

	a := svc.Analyze(context.Background(), "f u c k this")
	assert.Equal(t, SentimentNegative, a.Sentiment)
	assert.Equal(t, []string{"profanity"}, a.Topics)
	assert.Equal(t, IntentStatement, a.Intent)
	assert.Equal(t, CryptoNeutral, a.CryptoSentiment)
	assert.Zero(t, stub.callCount(), "backend must not be called for sentinel matches")
}

func TestAnalyzeProfanityWhenUnconfigured(t *testing.T) {
	t.Parallel()

	svc := newTestService(nil)
	require.False(t, svc.Available())

	a := svc.Analyze(context.Background(), "f u c k this")
	assert.Equal(t, SentimentNegative, a.Sentiment)
	assert.Equal(t, []string{"profanity"}, a.Topics)
	assert.Equal(t, IntentStatement, a.Intent)
	assert.Equal(t, CryptoNeutral, a.CryptoSentiment)
}

func TestAnalyzeProfanityWhenBreakerOpen(t *testing.T) {
	t.Parallel()

	stub := &stubBackend{err: errors.New("upstream down")}
	svc := newTestService(stub)

	for i := 0; i < breakerThreshold; i++ {
		svc.Analyze(context.Background(), "a perfectly ordinary message to trip the breaker")
	}
	require.False(t, svc.Available())

	before := stub.callCount()
	a := svc.Analyze(context.Background(), "f u c k this")
	assert.Equal(t, SentimentNegative, a.Sentiment)
	assert.Equal(t, []string{"profanity"}, a.Topics)
	assert.Equal(t, before, stub.callCount(), "sentinel matches never reach the backend")
}

func TestAnalyzeBlankTextSkipsBackend(t *testing.T) {
	t.Parallel()

	stub := &stubBackend{content: `{}`}
	svc := newTestService(stub)

	a := svc.Analyze(context.Background(), "   ")
	assert.Equal(t, SentimentNeutral, a.Sentiment)
	assert.Zero(t, stub.callCount())
}

func TestAnalyzeSalvagesMalformedOutput(t *testing.T) {
	t.Parallel()

	stub := &stubBackend{content: `Sure! Here is the analysis:
sentiment: "negative", intent: "opinion", cryptoSentiment: "bearish"
topics: ["rug", "scam"], mentionedCoins: ["SQUID"], scamIndicators: ["urgency"]`}
	svc := newTestService(stub)

	a := svc.Analyze(context.Background(), "SQUID is an obvious rug, sell now before it collapses")
	assert.Equal(t, SentimentNegative, a.Sentiment)
	assert.Equal(t, IntentOpinion, a.Intent)
	assert.Equal(t, CryptoBearish, a.CryptoSentiment)
	assert.Equal(t, []string{"rug", "scam"}, a.Topics)
	assert.Equal(t, []string{"SQUID"}, a.MentionedCoins)
	assert.Equal(t, []string{"urgency"}, a.ScamIndicators)

	// Salvage is local recovery, not a provider failure.
	assert.Equal(t, 0, svc.Status().ConsecutiveFailures)
	assert.True(t, svc.Available())
}

func TestAnalyzeObscenityOverridesSentiment(t *testing.T) {
	t.Parallel()

	stub := &stubBackend{content: `{"sentiment":"positive","intent":"statement","cryptoSentiment":"neutral"}`}
	svc := newTestService(stub)

	// Embedded obscenity dodges the word-boundary sentinel, so the backend
	// is consulted, but the substring post-check still flips the sentiment.
	a := svc.Analyze(context.Background(), "absofuckinglutely mooning right now")
	assert.Equal(t, SentimentNegative, a.Sentiment)
	assert.Equal(t, 1, stub.callCount())
}

func TestAnalyzeMergesContractDetection(t *testing.T) {
	t.Parallel()

	const address = "Hpfp9q3kzSXaNgP5jchsNkh2FWZpRUDzqYmjGPEMpump"

	stub := &stubBackend{content: `{"sentiment":"neutral","intent":"statement","cryptoSentiment":"neutral","topics":["crypto"]}`}
	svc := newTestService(stub)

	a := svc.Analyze(context.Background(), "new gem: "+address+" ape now 100x")
	assert.Contains(t, a.Topics, "token_address")
	assert.Contains(t, a.Topics, "contract_address")
	assert.Contains(t, a.Topics, "memecoin")
	assert.Contains(t, a.Topics, "new_token")
	assert.Equal(t, []string{address}, a.ContractAddresses)
}

func TestAnalyzeContractMergeOnFailure(t *testing.T) {
	t.Parallel()

	const address = "Hpfp9q3kzSXaNgP5jchsNkh2FWZpRUDzqYmjGPEMpump"

	stub := &stubBackend{err: errors.New("rate limited")}
	svc := newTestService(stub)

	a := svc.Analyze(context.Background(), "check "+address+" pump incoming")
	assert.Equal(t, SentimentNeutral, a.Sentiment)
	assert.Equal(t, IntentUnknown, a.Intent)
	assert.Contains(t, a.Topics, "token_address")
	assert.Equal(t, []string{address}, a.ContractAddresses)
}

func TestCircuitBreakerTripsAfterFiveFailures(t *testing.T) {
	t.Parallel()

	stub := &stubBackend{err: errors.New("upstream exploded")}
	svc := newTestService(stub)

	for i := 0; i < breakerThreshold; i++ {
		require.True(t, svc.Available(), "breaker must stay closed before threshold")
		svc.Analyze(context.Background(), "another perfectly reasonable message here")
	}

	assert.False(t, svc.Available())
	st := svc.Status()
	assert.False(t, st.Available)
	assert.Equal(t, breakerThreshold, st.ConsecutiveFailures)
	assert.Equal(t, "upstream exploded", st.LastError)

	// Open breaker: degraded result without touching the backend.
	before := stub.callCount()
	a := svc.Analyze(context.Background(), "yet another perfectly reasonable message")
	assert.Equal(t, SentimentNeutral, a.Sentiment)
	assert.Equal(t, before, stub.callCount())
}

func TestCircuitBreakerSuccessResetsCounter(t *testing.T) {
	t.Parallel()

	stub := &stubBackend{err: errors.New("flaky")}
	svc := newTestService(stub)

	for i := 0; i < breakerThreshold-1; i++ {
		svc.Analyze(context.Background(), "some message that reaches the backend")
	}
	assert.Equal(t, breakerThreshold-1, svc.Status().ConsecutiveFailures)

	stub.mu.Lock()
	stub.err = nil
	stub.content = `{"sentiment":"neutral","intent":"statement","cryptoSentiment":"neutral"}`
	stub.mu.Unlock()

	svc.Analyze(context.Background(), "and now the backend recovered nicely")
	assert.Equal(t, 0, svc.Status().ConsecutiveFailures)
	assert.True(t, svc.Available())
}

func TestResetClosesBreaker(t *testing.T) {
	t.Parallel()

	stub := &stubBackend{err: errors.New("down")}
	svc := newTestService(stub)

	for i := 0; i < breakerThreshold; i++ {
		svc.Analyze(context.Background(), "message number something for the breaker")
	}
	require.False(t, svc.Available())

	svc.Reset()
	assert.True(t, svc.Available())
	assert.Equal(t, 0, svc.Status().ConsecutiveFailures)
}

func TestMergeDetectionIdempotent(t *testing.T) {
	t.Parallel()

	const address = "Hpfp9q3kzSXaNgP5jchsNkh2FWZpRUDzqYmjGPEMpump"

	d := contract.Detect(address + " pump it")
	once := MergeDetection(Degraded(), d)
	twice := MergeDetection(once, d)
	assert.Equal(t, once, twice)
}
