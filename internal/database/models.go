package database

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mlavrik/coinpulse/internal/analyzer"
)

// Message is one persisted chat event with its enrichment. Records are
// append-only: created exactly once at ingest, never mutated or deleted by
// the application.
type Message struct {
	ID        uint      `db:"id"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`

	MessageID int64         `db:"message_id"`
	ChatID    int64         `db:"chat_id"`
	ChatTitle string        `db:"chat_title"`
	UserID    sql.NullInt64 `db:"user_id"`
	Username  string        `db:"username"`
	FirstName string        `db:"first_name"`
	LastName  string        `db:"last_name"`
	Text      string        `db:"text"`
	Date      time.Time     `db:"date"`

	QualityScore int            `db:"quality_score"`
	Sentiment    string         `db:"sentiment"`
	CryptoSent   string         `db:"crypto_sentiment"`
	Analysis     AnalysisColumn `db:"analysis"`
}

// AnalysisColumn stores the full analysis substructure as a JSON document.
// The sentiment and crypto_sentiment scalar columns are extracted copies
// kept for indexing; this column is the source of truth for list fields.
type AnalysisColumn struct {
	analyzer.Analysis
}

// Value implements driver.Valuer.
func (c AnalysisColumn) Value() (driver.Value, error) {
	b, err := json.Marshal(c.Analysis)
	if err != nil {
		return nil, fmt.Errorf("marshal analysis: %w", err)
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (c *AnalysisColumn) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		c.Analysis = analyzer.Degraded()
		return nil
	case string:
		return json.Unmarshal([]byte(v), &c.Analysis)
	case []byte:
		return json.Unmarshal(v, &c.Analysis)
	default:
		return fmt.Errorf("unsupported analysis column type %T", src)
	}
}

// DisplayName returns the best available handle for the message author.
func (m *Message) DisplayName() string {
	if m.Username != "" {
		return "@" + m.Username
	}
	if m.FirstName != "" {
		return m.FirstName
	}
	return "anonymous"
}

// Subscription status values. Housekeeping moves overdue non-terminal rows
// to expired; expired and cancelled are terminal.
const (
	SubscriptionActive    = "active"
	SubscriptionPending   = "pending"
	SubscriptionExpired   = "expired"
	SubscriptionCancelled = "cancelled"
)

// Subscription is an ancillary record gating optional features per chat.
// Only the expiry sweep touches these from the core.
type Subscription struct {
	ID        uint      `db:"id"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`

	ChatID    int64        `db:"chat_id"`
	Plan      string       `db:"plan"`
	Status    string       `db:"status"`
	ExpiresAt sql.NullTime `db:"expires_at"`
	Note      string       `db:"note"`
}
