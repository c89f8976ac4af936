package outbox

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/tOgg1/coachdesk/internal/models"
)

// Store persists failed pending messages and per-conversation composer
// drafts in a local SQLite database, so an explicit retry survives a
// restart of the dashboard.
type Store struct {
	db *sql.DB
}

// OpenStore opens (creating if needed) the outbox database at path.
func OpenStore(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("outbox path required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create outbox directory: %w", err)
	}

	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)&_pragma=synchronous(NORMAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open outbox database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to outbox database: %w", err)
	}

	store := &Store{db: db}
	if err := store.ensureSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) ensureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS outbox_messages (
			temp_id TEXT PRIMARY KEY,
			idempotency_key TEXT NOT NULL,
			conversation_id TEXT NOT NULL,
			content TEXT NOT NULL,
			attachment_url TEXT,
			attachment_mime TEXT,
			attachment_name TEXT,
			attachment_size INTEGER,
			submitted_at TEXT NOT NULL,
			last_error TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS drafts (
			conversation_id TEXT PRIMARY KEY,
			content TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS outbox_conversation_idx ON outbox_messages(conversation_id, submitted_at)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to initialize outbox schema: %w", err)
		}
	}
	return nil
}

// SaveFailed upserts a failed entry.
func (s *Store) SaveFailed(ctx context.Context, entry models.PendingMessage) error {
	if s == nil || s.db == nil {
		return errors.New("outbox store unavailable")
	}

	var url, mime, name string
	var size int64
	if entry.Attachment != nil {
		url = entry.Attachment.URL
		mime = entry.Attachment.MimeType
		name = entry.Attachment.Name
		size = entry.Attachment.Size
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO outbox_messages (
			temp_id, idempotency_key, conversation_id, content,
			attachment_url, attachment_mime, attachment_name, attachment_size,
			submitted_at, last_error
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(temp_id) DO UPDATE SET
			last_error = excluded.last_error
	`,
		entry.TempID,
		entry.IdempotencyKey,
		entry.ConversationID,
		entry.Content,
		url,
		mime,
		name,
		size,
		entry.SubmittedAt.UTC().Format(time.RFC3339Nano),
		entry.LastError,
	)
	if err != nil {
		return fmt.Errorf("failed to store outbox entry: %w", err)
	}
	return nil
}

// Delete removes an entry after it was reconciled or discarded.
func (s *Store) Delete(ctx context.Context, tempID string) error {
	if s == nil || s.db == nil {
		return errors.New("outbox store unavailable")
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM outbox_messages WHERE temp_id = ?`, tempID); err != nil {
		return fmt.Errorf("failed to delete outbox entry: %w", err)
	}
	return nil
}

// ListFailed returns every persisted entry in submission order, marked
// failed so the user can retry or discard.
func (s *Store) ListFailed(ctx context.Context) ([]models.PendingMessage, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("outbox store unavailable")
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT temp_id, idempotency_key, conversation_id, content,
		       attachment_url, attachment_mime, attachment_name, attachment_size,
		       submitted_at, last_error
		FROM outbox_messages
		ORDER BY submitted_at ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query outbox: %w", err)
	}
	defer rows.Close()

	var entries []models.PendingMessage
	for rows.Next() {
		var (
			entry      models.PendingMessage
			url        sql.NullString
			mime       sql.NullString
			name       sql.NullString
			size       sql.NullInt64
			submitted  string
			lastError  sql.NullString
		)
		if err := rows.Scan(
			&entry.TempID,
			&entry.IdempotencyKey,
			&entry.ConversationID,
			&entry.Content,
			&url, &mime, &name, &size,
			&submitted,
			&lastError,
		); err != nil {
			return nil, fmt.Errorf("failed to scan outbox row: %w", err)
		}

		if url.String != "" {
			entry.Attachment = &models.Attachment{
				URL:      url.String,
				MimeType: mime.String,
				Name:     name.String,
				Size:     size.Int64,
			}
		}
		if parsed, err := time.Parse(time.RFC3339Nano, submitted); err == nil {
			entry.SubmittedAt = parsed
		}
		entry.Status = models.PendingFailed
		entry.LastError = lastError.String
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("outbox query error: %w", err)
	}
	return entries, nil
}

// SaveDraft upserts the composer draft for a conversation.
func (s *Store) SaveDraft(ctx context.Context, conversationID, content string) error {
	if s == nil || s.db == nil {
		return errors.New("outbox store unavailable")
	}
	if strings.TrimSpace(content) == "" {
		return s.DeleteDraft(ctx, conversationID)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO drafts (conversation_id, content, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(conversation_id) DO UPDATE SET
			content = excluded.content,
			updated_at = excluded.updated_at
	`, conversationID, content, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to store draft: %w", err)
	}
	return nil
}

// Draft returns the stored draft for a conversation, if any.
func (s *Store) Draft(ctx context.Context, conversationID string) (string, bool, error) {
	if s == nil || s.db == nil {
		return "", false, errors.New("outbox store unavailable")
	}
	var content string
	err := s.db.QueryRowContext(ctx, `SELECT content FROM drafts WHERE conversation_id = ?`, conversationID).Scan(&content)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read draft: %w", err)
	}
	return content, true, nil
}

// DeleteDraft removes the draft for a conversation.
func (s *Store) DeleteDraft(ctx context.Context, conversationID string) error {
	if s == nil || s.db == nil {
		return errors.New("outbox store unavailable")
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM drafts WHERE conversation_id = ?`, conversationID); err != nil {
		return fmt.Errorf("failed to delete draft: %w", err)
	}
	return nil
}
