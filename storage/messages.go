package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ListMessages returns every message in insertion order.
func (s *Store) ListMessages() ([]Message, error) {
	rows, err := s.db.Query(
		`SELECT
			seq,
			message_id,
			content,
			is_palindrome,
			created_at
		FROM messages
		ORDER BY seq ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	messages := make([]Message, 0)
	for rows.Next() {
		message, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan message row: %w", err)
		}
		messages = append(messages, *message)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate message rows: %w", err)
	}

	return messages, nil
}

// GetMessage fetches one message by message ID.
func (s *Store) GetMessage(messageID string) (*Message, error) {
	if messageID == "" {
		return nil, errors.New("message_id is required")
	}

	row := s.db.QueryRow(
		`SELECT
			seq,
			message_id,
			content,
			is_palindrome,
			created_at
		FROM messages
		WHERE message_id = ?`,
		messageID,
	)

	message, err := scanMessage(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &NotFoundError{Key: "ID", Value: messageID}
		}
		return nil, fmt.Errorf("get message %q: %w", messageID, err)
	}

	return message, nil
}

// CreateMessage stores content as a new message, assigning its ID,
// creation time and palindrome flag.
func (s *Store) CreateMessage(content string) (*Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, errors.New("content is required")
	}

	message := Message{
		MessageID:    uuid.NewString(),
		Content:      content,
		IsPalindrome: IsPalindrome(content),
		CreatedAt:    s.now().UTC().Format(time.RFC3339),
	}

	isPalindrome := 0
	if message.IsPalindrome {
		isPalindrome = 1
	}

	res, err := s.db.Exec(
		`INSERT INTO messages (
			message_id,
			content,
			is_palindrome,
			created_at
		) VALUES (?, ?, ?, ?)`,
		message.MessageID,
		message.Content,
		isPalindrome,
		message.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert message %q: %w", message.MessageID, err)
	}

	seq, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("read sequence for message %q: %w", message.MessageID, err)
	}
	message.Seq = seq

	return &message, nil
}

// DeleteMessage removes a message by ID.
func (s *Store) DeleteMessage(messageID string) error {
	if messageID == "" {
		return errors.New("message_id is required")
	}

	res, err := s.db.Exec(`DELETE FROM messages WHERE message_id = ?`, messageID)
	if err != nil {
		return fmt.Errorf("delete message %q: %w", messageID, err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("read rows affected for delete %q: %w", messageID, err)
	}
	if rowsAffected == 0 {
		return &NotFoundError{Key: "ID", Value: messageID}
	}

	return nil
}

type messageScanner interface {
	Scan(dest ...any) error
}

func scanMessage(scanner messageScanner) (*Message, error) {
	var (
		message      Message
		isPalindrome int
	)
	if err := scanner.Scan(
		&message.Seq,
		&message.MessageID,
		&message.Content,
		&isPalindrome,
		&message.CreatedAt,
	); err != nil {
		return nil, err
	}
	message.IsPalindrome = isPalindrome != 0
	return &message, nil
}
