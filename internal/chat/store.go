package chat

import (
	"context"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/ziadkadry99/knowbase/internal/db"
	"github.com/ziadkadry99/knowbase/internal/llm"
)

// Store persists chats, messages and feedback.
type Store struct {
	db *db.DB
}

// NewStore creates a chat store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

func newChatID() string {
	u := uuid.New()
	return "chat_" + hex.EncodeToString(u[:])[:8]
}

// CreateChat creates a new chat session. An empty name gets an
// auto-generated "Chat N" name based on the current chat count.
func (s *Store) CreateChat(ctx context.Context, name string) (*Chat, error) {
	if name == "" {
		count, err := s.Count(ctx)
		if err != nil {
			return nil, err
		}
		name = fmt.Sprintf("Chat %d", count+1)
	}

	id := newChatID()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO chats (id, name) VALUES (?, ?)`, id, name)
	if err != nil {
		return nil, fmt.Errorf("creating chat: %w", err)
	}
	return s.GetChat(ctx, id)
}

// GetChat retrieves a chat by id.
func (s *Store) GetChat(ctx context.Context, id string) (*Chat, error) {
	var c Chat
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, created_at, last_activity FROM chats WHERE id = ?`, id,
	).Scan(&c.ID, &c.Name, &c.CreatedAt, &c.LastActivity)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("chat %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting chat: %w", err)
	}
	return &c, nil
}

// ListChats returns all chats, most recently active first.
func (s *Store) ListChats(ctx context.Context) ([]Chat, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, created_at, last_activity FROM chats ORDER BY last_activity DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing chats: %w", err)
	}
	defer rows.Close()

	var chats []Chat
	for rows.Next() {
		var c Chat
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt, &c.LastActivity); err != nil {
			return nil, fmt.Errorf("scanning chat: %w", err)
		}
		chats = append(chats, c)
	}
	return chats, rows.Err()
}

// Count returns the number of chats.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chats`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting chats: %w", err)
	}
	return n, nil
}

// DefaultChatID returns the oldest chat's id, or empty when none exist.
func (s *Store) DefaultChatID(ctx context.Context) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM chats ORDER BY created_at ASC, id ASC LIMIT 1`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("getting default chat: %w", err)
	}
	return id, nil
}

// DeleteChat removes a chat and, via cascade, its messages and feedback.
func (s *Store) DeleteChat(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM chats WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting chat: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("chat %s: %w", id, ErrNotFound)
	}
	return nil
}

// ClearHistory deletes a chat's messages but keeps the chat itself.
func (s *Store) ClearHistory(ctx context.Context, chatID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM chat_messages WHERE chat_id = ?`, chatID)
	if err != nil {
		return fmt.Errorf("clearing chat history: %w", err)
	}
	return nil
}

// AddMessage appends a message to a chat and bumps the chat's last
// activity in the same transaction.
func (s *Store) AddMessage(ctx context.Context, chatID, role, content string, files []string, metadata json.RawMessage) (int64, error) {
	var filesJSON any
	if len(files) > 0 {
		data, err := json.Marshal(files)
		if err != nil {
			return 0, fmt.Errorf("encoding files: %w", err)
		}
		filesJSON = string(data)
	}
	var metadataJSON any
	if len(metadata) > 0 {
		metadataJSON = string(metadata)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO chat_messages (chat_id, role, content, files, metadata)
		 VALUES (?, ?, ?, ?, ?)`,
		chatID, role, content, filesJSON, metadataJSON)
	if err != nil {
		return 0, fmt.Errorf("inserting message: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting message id: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE chats SET last_activity = datetime('now') WHERE id = ?`, chatID); err != nil {
		return 0, fmt.Errorf("updating chat activity: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing message: %w", err)
	}
	return id, nil
}

// Messages returns a chat's messages in chronological order.
func (s *Store) Messages(ctx context.Context, chatID string) ([]Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, chat_id, role, content, files, metadata, timestamp
		 FROM chat_messages WHERE chat_id = ? ORDER BY timestamp ASC, id ASC`, chatID)
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var m Message
		var filesJSON, metadataJSON sql.NullString
		if err := rows.Scan(&m.ID, &m.ChatID, &m.Role, &m.Content, &filesJSON, &metadataJSON, &m.Timestamp); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		if filesJSON.Valid && filesJSON.String != "" {
			if err := json.Unmarshal([]byte(filesJSON.String), &m.Files); err != nil {
				return nil, fmt.Errorf("decoding message files: %w", err)
			}
		}
		if metadataJSON.Valid && metadataJSON.String != "" {
			m.Metadata = json.RawMessage(metadataJSON.String)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// HistoryForModel returns the last maxMessages messages of a chat shaped
// for the completion provider. Attached filenames on user turns are folded
// into the message content so the model sees them.
func (s *Store) HistoryForModel(ctx context.Context, chatID string, maxMessages int) ([]llm.Message, error) {
	messages, err := s.Messages(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if maxMessages > 0 && len(messages) > maxMessages {
		messages = messages[len(messages)-maxMessages:]
	}

	history := make([]llm.Message, 0, len(messages))
	for _, m := range messages {
		content := m.Content
		if m.Role == string(llm.RoleUser) && len(m.Files) > 0 {
			content = fmt.Sprintf("%s\n[Attached files: %s]", content, strings.Join(m.Files, ", "))
		}
		history = append(history, llm.Message{Role: llm.Role(m.Role), Content: content})
	}
	return history, nil
}

// AddFeedback records a rating for an assistant message.
func (s *Store) AddFeedback(ctx context.Context, messageID int64, rating int, comment string) (int64, error) {
	var commentVal any
	if comment != "" {
		commentVal = comment
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO feedback (message_id, rating, comment) VALUES (?, ?, ?)`,
		messageID, rating, commentVal)
	if err != nil {
		return 0, fmt.Errorf("adding feedback: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting feedback id: %w", err)
	}
	return id, nil
}

// MessageFeedback returns the most recent feedback for a message, or nil
// when the message has none.
func (s *Store) MessageFeedback(ctx context.Context, messageID int64) (*Feedback, error) {
	var f Feedback
	var comment sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT id, message_id, rating, comment, timestamp
		 FROM feedback WHERE message_id = ? ORDER BY timestamp DESC, id DESC LIMIT 1`, messageID,
	).Scan(&f.ID, &f.MessageID, &f.Rating, &comment, &f.Timestamp)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting feedback: %w", err)
	}
	f.Comment = comment.String
	return &f, nil
}
