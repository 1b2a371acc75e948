// Package ingest orchestrates the write path for incoming chat events:
// scope filter, command skip, analysis, contract-detector merge, quality
// scoring and the append-only insert. Processing is at-most-once; a store
// failure is logged and the event is dropped without retry.
package ingest

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"
	"time"

	"github.com/mlavrik/coinpulse/internal/analyzer"
	"github.com/mlavrik/coinpulse/internal/contract"
	"github.com/mlavrik/coinpulse/internal/database"
	"github.com/mlavrik/coinpulse/internal/quality"
	"github.com/mlavrik/coinpulse/internal/textfilter"
)

// Sender identifies the author of an event. Nil means the platform did not
// attach one (channel posts, anonymous admins).
type Sender struct {
	ID        int64
	Username  string
	FirstName string
	LastName  string
}

// Event is the platform-agnostic shape of an incoming message. Date is epoch
// seconds as delivered by the platform.
type Event struct {
	ChatType  string
	ChatID    int64
	ChatTitle string
	MessageID int64
	From      *Sender
	Date      int64
	Text      string
}

// MessageWriter is the slice of the store the pipeline needs.
type MessageWriter interface {
	SaveMessage(ctx context.Context, message *database.Message) error
}

// Pipeline runs the ingest steps for one event at a time. Instances are safe
// for concurrent use; all shared state lives in the analyzer and the store.
type Pipeline struct {
	analyzer analyzer.Client
	store    MessageWriter
	logger   *slog.Logger
}

// New creates an ingest pipeline.
func New(client analyzer.Client, store MessageWriter, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		analyzer: client,
		store:    store,
		logger:   logger.With("component", "ingest"),
	}
}

// Process ingests one event and reports whether a record was persisted.
// Events outside group chats, without text, or carrying a command are
// skipped. Analyzer failures never block persistence; the degraded analysis
// is stored instead.
func (p *Pipeline) Process(ctx context.Context, ev Event) bool {
	if ev.ChatType != "group" && ev.ChatType != "supergroup" {
		return false
	}
	if strings.TrimSpace(ev.Text) == "" {
		return false
	}
	if textfilter.IsCommand(ev.Text) {
		return false
	}

	a := p.analyzer.Analyze(ctx, ev.Text)
	// Analyze merges the detection itself; re-applying keeps the invariant
	// even for test doubles that do not.
	a = analyzer.MergeDetection(a, contract.Detect(ev.Text))

	msg := &database.Message{
		MessageID:    ev.MessageID,
		ChatID:       ev.ChatID,
		ChatTitle:    ev.ChatTitle,
		Text:         ev.Text,
		Date:         time.Unix(ev.Date, 0).UTC(),
		QualityScore: quality.Score(ev.Text, a),
		Analysis:     database.AnalysisColumn{Analysis: a},
	}
	if ev.From != nil {
		msg.UserID = sql.NullInt64{Int64: ev.From.ID, Valid: true}
		msg.Username = ev.From.Username
		msg.FirstName = ev.From.FirstName
		msg.LastName = ev.From.LastName
	}

	if err := p.store.SaveMessage(ctx, msg); err != nil {
		p.logger.ErrorContext(ctx, "Failed to persist message, dropping event",
			"chat_id", ev.ChatID, "message_id", ev.MessageID, "error", err)
		return false
	}
	return true
}
