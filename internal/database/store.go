package database

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
)

// Store defines the data access interface. Message writes are append-only;
// there is no update or delete path for message records.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// SaveMessage inserts a new message record. Inserts are not deduplicated
	// on (chat_id, message_id): the platform may redeliver and the corpus
	// tolerates duplicates.
	SaveMessage(ctx context.Context, message *Message) error

	// MessagesForChat retrieves all records whose chat_id is in the given
	// equivalence set, ordered by event date ascending.
	MessagesForChat(ctx context.Context, chatIDs []int64) ([]Message, error)

	// CountMessagesForChat counts records in the chat scope.
	CountMessagesForChat(ctx context.Context, chatIDs []int64) (int64, error)

	// SaveSubscription inserts an ancillary subscription record.
	SaveSubscription(ctx context.Context, sub *Subscription) error

	// ExpireDueSubscriptions transitions non-terminal subscriptions whose
	// expires_at has passed to the expired status, annotating them with
	// note. Returns the number of rows transitioned. Idempotent.
	ExpireDueSubscriptions(ctx context.Context, now time.Time, note string) (int64, error)
}

// sqlxStore implements Store on sqlx.
type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a new Store implementation backed by sqlx.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
	}
}

// Ping checks the database connection.
func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// SaveMessage inserts a new message record.
func (s *sqlxStore) SaveMessage(ctx context.Context, message *Message) error {
	if message == nil {
		return fmt.Errorf("cannot save nil message")
	}
	if message.ChatID == 0 {
		return fmt.Errorf("message must have a non-zero chat_id")
	}
	if message.Text == "" {
		return fmt.Errorf("message must have non-empty text")
	}
	if message.QualityScore < 0 {
		return fmt.Errorf("quality score must be non-negative")
	}

	now := time.Now().UTC()
	message.CreatedAt = now
	message.UpdatedAt = now
	message.Sentiment = string(message.Analysis.Sentiment)
	message.CryptoSent = string(message.Analysis.CryptoSentiment)

	query := `INSERT INTO messages (
			message_id, chat_id, chat_title, user_id, username, first_name, last_name,
			text, date, quality_score, sentiment, crypto_sentiment, analysis,
			created_at, updated_at
		) VALUES (
			:message_id, :chat_id, :chat_title, :user_id, :username, :first_name, :last_name,
			:text, :date, :quality_score, :sentiment, :crypto_sentiment, :analysis,
			:created_at, :updated_at
		)`

	res, err := s.db.NamedExecContext(ctx, query, message)
	if err != nil {
		return fmt.Errorf("failed to save message: %w", err)
	}
	if id, err := res.LastInsertId(); err == nil {
		message.ID = uint(id)
	}

	s.logger.DebugContext(ctx, "Saved message",
		"chat_id", message.ChatID,
		"message_id", message.MessageID,
		"quality_score", message.QualityScore)
	return nil
}

// MessagesForChat retrieves all records in the chat scope, oldest first.
func (s *sqlxStore) MessagesForChat(ctx context.Context, chatIDs []int64) ([]Message, error) {
	if len(chatIDs) == 0 {
		return nil, fmt.Errorf("chat id set is empty")
	}

	query, args, err := sqlx.In(
		`SELECT * FROM messages WHERE chat_id IN (?) ORDER BY date ASC`, chatIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to build chat scope query: %w", err)
	}
	query = s.db.Rebind(query)

	var messages []Message
	if err := s.db.SelectContext(ctx, &messages, query, args...); err != nil {
		return nil, fmt.Errorf("failed to fetch messages for chat: %w", err)
	}
	return messages, nil
}

// CountMessagesForChat counts records in the chat scope.
func (s *sqlxStore) CountMessagesForChat(ctx context.Context, chatIDs []int64) (int64, error) {
	if len(chatIDs) == 0 {
		return 0, fmt.Errorf("chat id set is empty")
	}

	query, args, err := sqlx.In(`SELECT COUNT(*) FROM messages WHERE chat_id IN (?)`, chatIDs)
	if err != nil {
		return 0, fmt.Errorf("failed to build count query: %w", err)
	}
	query = s.db.Rebind(query)

	var count int64
	if err := s.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("failed to count messages: %w", err)
	}
	return count, nil
}

// SaveSubscription inserts an ancillary subscription record.
func (s *sqlxStore) SaveSubscription(ctx context.Context, sub *Subscription) error {
	if sub == nil {
		return fmt.Errorf("cannot save nil subscription")
	}
	if sub.ChatID == 0 {
		return fmt.Errorf("subscription must have a non-zero chat_id")
	}

	now := time.Now().UTC()
	sub.CreatedAt = now
	sub.UpdatedAt = now

	query := `INSERT INTO subscriptions (chat_id, plan, status, expires_at, note, created_at, updated_at)
		VALUES (:chat_id, :plan, :status, :expires_at, :note, :created_at, :updated_at)`

	res, err := s.db.NamedExecContext(ctx, query, sub)
	if err != nil {
		return fmt.Errorf("failed to save subscription: %w", err)
	}
	if id, err := res.LastInsertId(); err == nil {
		sub.ID = uint(id)
	}
	return nil
}

// ExpireDueSubscriptions sweeps overdue non-terminal subscriptions.
func (s *sqlxStore) ExpireDueSubscriptions(ctx context.Context, now time.Time, note string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE subscriptions
		 SET status = ?, note = ?, updated_at = ?
		 WHERE status IN (?, ?) AND expires_at IS NOT NULL AND expires_at < ?`,
		SubscriptionExpired, note, now.UTC(),
		SubscriptionActive, SubscriptionPending, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to expire subscriptions: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read expiry sweep result: %w", err)
	}
	if affected > 0 {
		s.logger.InfoContext(ctx, "Expired overdue subscriptions", "count", affected)
	}
	return affected, nil
}
