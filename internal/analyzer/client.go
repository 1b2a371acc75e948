package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/mlavrik/coinpulse/internal/contract"
	"github.com/mlavrik/coinpulse/internal/textfilter"
)

// Client is the analysis capability used by the ingest pipeline and the
// health command. Analyze never returns an error: failures degrade to a
// neutral analysis with contract-detector topics still merged.
type Client interface {
	Analyze(ctx context.Context, text string) Analysis
	Available() bool
	Status() Status
	Reset()
}

// Status describes the analyzer for the health command.
type Status struct {
	Provider            string
	Configured          bool
	Available           bool
	ConsecutiveFailures int
	LastError           string
}

// Config carries the analyzer settings relevant to all backends.
type Config struct {
	Provider    string
	APIKey      string
	Model       string
	Timeout     time.Duration
	Temperature float32
	MaxTokens   int
	RateRPS     float64
}

const breakerThreshold = 5

// backend performs a single raw completion call and returns the model output.
type backend interface {
	name() string
	complete(ctx context.Context, systemPrompt, text string) (string, error)
}

// service wraps a backend with the profanity short-circuit, availability
// gate, rate smoothing, parsing and the circuit breaker.
type service struct {
	backend backend
	timeout time.Duration
	limiter *rate.Limiter
	logger  *slog.Logger

	mu       sync.Mutex
	failures int
	tripped  bool
	lastErr  error
}

// New builds a Client for the configured provider. A missing API key yields
// a permanently unavailable client rather than an error: ingest continues
// with degraded analyses and health reports the reason.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("component", "analyzer")

	if cfg.APIKey == "" {
		log.Warn("Analyzer API key not configured, analyses will be degraded")
		return &service{backend: nil, logger: log}, nil
	}

	var (
		b   backend
		err error
	)
	switch cfg.Provider {
	case "gemini":
		b, err = newGeminiBackend(ctx, cfg)
	default:
		b = newOpenAIBackend(cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s backend: %w", cfg.Provider, err)
	}

	var limiter *rate.Limiter
	if cfg.RateRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateRPS), 1)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	log.Info("Analyzer initialized", "provider", b.name(), "model", cfg.Model)
	return &service{
		backend: b,
		timeout: timeout,
		limiter: limiter,
		logger:  log,
	}, nil
}

func (s *service) Analyze(ctx context.Context, text string) Analysis {
	det := contract.Detect(text)

	if textfilter.IsBlank(text) {
		return finalize(text, Degraded(), det)
	}

	// The sentinel is checked before the availability gate: matches get the
	// fixed analysis even when no backend is configured or the breaker is open.
	if textfilter.MatchesProfanity(text) {
		return finalize(text, profanityAnalysis(), det)
	}

	if !s.Available() {
		return finalize(text, Degraded(), det)
	}

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			s.recordFailure(err)
			return finalize(text, Degraded(), det)
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	content, err := s.backend.complete(callCtx, systemPrompt, text)
	if err != nil {
		s.recordFailure(err)
		s.logger.WarnContext(ctx, "Analyzer call failed, using degraded analysis",
			"provider", s.backend.name(), "error", err)
		return finalize(text, Degraded(), det)
	}
	s.recordSuccess()

	parsed, err := parseAnalysis(content)
	if err != nil {
		// Malformed output is salvaged locally; it is not a provider failure
		// and does not feed the breaker.
		s.logger.DebugContext(ctx, "Strict parse failed, salvaging", "error", err)
		parsed = salvageAnalysis(content)
	}

	return finalize(text, parsed, det)
}

func (s *service) Available() bool {
	if s.backend == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.tripped
}

func (s *service) Status() Status {
	st := Status{Configured: s.backend != nil}
	if s.backend != nil {
		st.Provider = s.backend.name()
	} else {
		st.LastError = "analyzer API key not configured"
		return st
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	st.Available = !s.tripped
	st.ConsecutiveFailures = s.failures
	if s.lastErr != nil {
		st.LastError = s.lastErr.Error()
	}
	return st
}

// Reset closes the breaker and clears the failure counter. The breaker
// otherwise stays open until process restart.
func (s *service) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = 0
	s.tripped = false
	s.lastErr = nil
}

func (s *service) recordFailure(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures++
	s.lastErr = err
	if s.failures >= breakerThreshold && !s.tripped {
		s.tripped = true
		s.logger.Warn("Analyzer circuit breaker opened", "consecutive_failures", s.failures)
	}
}

func (s *service) recordSuccess() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = 0
	s.lastErr = nil
}

// profanityAnalysis is the fixed result for sentinel matches; the external
// backend is never consulted for them.
func profanityAnalysis() Analysis {
	return Analysis{
		Sentiment:       SentimentNegative,
		Topics:          []string{"profanity"},
		Entities:        []string{},
		Intent:          IntentStatement,
		CryptoSentiment: CryptoNeutral,
		MentionedCoins:  []string{},
		ScamIndicators:  []string{},
		PriceTargets:    map[string]string{},
	}
}

// finalize normalizes the analysis, applies the obscenity sentiment
// override, and merges the contract-detector result.
func finalize(text string, a Analysis, det contract.Detection) Analysis {
	a = a.Normalize()

	if textfilter.ContainsObscenity(text) {
		a.Sentiment = SentimentNegative
	}

	return MergeDetection(a, det)
}

// MergeDetection appends the detector's topic tags (skipping ones already
// present) and copies detected addresses into the analysis. It is
// idempotent, so the ingest pipeline may apply it again after Analyze.
func MergeDetection(a Analysis, det contract.Detection) Analysis {
	for _, topic := range det.Topics() {
		if !a.HasTopic(topic) {
			a.Topics = append(a.Topics, topic)
		}
	}
	if len(det.Addresses) > 0 && len(a.ContractAddresses) == 0 {
		a.ContractAddresses = append([]string(nil), det.Addresses...)
	}
	return a
}

// parseAnalysis is the strict primary parse of the backend output.
func parseAnalysis(content string) (Analysis, error) {
	var a Analysis
	if err := json.Unmarshal([]byte(content), &a); err != nil {
		return Analysis{}, fmt.Errorf("analysis JSON parse: %w", err)
	}
	return a, nil
}
