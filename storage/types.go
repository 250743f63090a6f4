package storage

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"msgsync/models"
)

// ErrNotFound indicates a requested row does not exist.
var ErrNotFound = errors.New("storage: record not found")

// NotFoundError names the key that was looked up. It matches ErrNotFound with errors.Is.
type NotFoundError struct {
	Key   string
	Value string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("could not find with %v: %v", e.Key, e.Value)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// Message is the SQLite representation of a stored message.
type Message struct {
	Seq          int64
	MessageID    string
	Content      string
	IsPalindrome bool
	CreatedAt    string
}

// Model converts the row into its wire representation.
func (m Message) Model() models.Message {
	return models.Message{
		ID:           models.StringID(m.MessageID),
		Text:         m.Content,
		IsPalindrome: m.IsPalindrome,
		CreatedAt:    m.CreatedAt,
	}
}

var nonWordChars = regexp.MustCompile(`\W+`)

// IsPalindrome reports whether text reads the same in both directions once
// punctuation, whitespace and case are ignored.
func IsPalindrome(text string) bool {
	runes := []rune(strings.ToLower(nonWordChars.ReplaceAllString(text, "")))
	for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
		if runes[i] != runes[j] {
			return false
		}
	}
	return true
}
