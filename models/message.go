package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// ID is the opaque message identifier assigned by the remote store.
//
// The store may encode identifiers as JSON numbers or JSON strings. Both
// decode to the same comparable value so callers can use == on IDs.
type ID struct {
	raw     string
	numeric bool
}

// StringID returns an ID that encodes as a JSON string.
func StringID(s string) ID {
	return ID{raw: s}
}

// NumericID returns an ID that encodes as a JSON number.
func NumericID(n int64) ID {
	return ID{raw: strconv.FormatInt(n, 10), numeric: true}
}

// ParseID interprets user-supplied text as an ID, preferring the numeric form.
func ParseID(s string) ID {
	if _, err := strconv.ParseInt(s, 10, 64); err == nil {
		return ID{raw: s, numeric: true}
	}
	return ID{raw: s}
}

// String returns the canonical textual form used in URL paths.
func (id ID) String() string {
	return id.raw
}

// IsZero reports whether the ID is empty.
func (id ID) IsZero() bool {
	return id.raw == ""
}

// Equal compares IDs by their textual form, ignoring the JSON token kind.
func (id ID) Equal(other ID) bool {
	return id.raw == other.raw
}

// MarshalJSON encodes the ID with the token kind it was decoded from.
func (id ID) MarshalJSON() ([]byte, error) {
	if id.numeric {
		return []byte(id.raw), nil
	}
	return json.Marshal(id.raw)
}

// UnmarshalJSON accepts a JSON string or number.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ID{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decode id: %w", err)
		}
		*id = ID{raw: s}
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("decode id: %w", err)
	}
	*id = ID{raw: n.String(), numeric: true}
	return nil
}

// Message is one entry as returned by the remote store.
//
// DetailsVisible is a client-only flag. It is nil when the wire record did
// not carry it and is always set once the record has been normalized.
type Message struct {
	ID             ID     `json:"id"`
	Text           string `json:"message"`
	IsPalindrome   bool   `json:"isPalindrome"`
	CreatedAt      string `json:"createdAt"`
	DetailsVisible *bool  `json:"details,omitempty"`
}

// ShowDetails reports the details flag, treating an absent flag as hidden.
func (m Message) ShowDetails() bool {
	return m.DetailsVisible != nil && *m.DetailsVisible
}

// CreatedTime parses CreatedAt as RFC 3339.
func (m Message) CreatedTime() (time.Time, error) {
	return time.Parse(time.RFC3339, m.CreatedAt)
}

// Clone returns a copy that shares no memory with m.
func (m Message) Clone() Message {
	out := m
	if m.DetailsVisible != nil {
		v := *m.DetailsVisible
		out.DetailsVisible = &v
	}
	return out
}

// Records decodes either a single message object or an array of messages.
type Records []Message

// UnmarshalJSON wraps a scalar object into a one-element slice.
func (r *Records) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		var single Message
		if err := json.Unmarshal(data, &single); err != nil {
			return err
		}
		*r = Records{single}
		return nil
	}

	var many []Message
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	if many == nil {
		many = []Message{}
	}
	*r = many
	return nil
}

// CreateMessageRequest is the POST body for a new message.
type CreateMessageRequest struct {
	Message string `json:"message"`
}

// APIError is the structured failure payload returned by the remote store.
type APIError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// String formats the payload the way it is shown to users.
func (e APIError) String() string {
	return fmt.Sprintf("%s: %s", e.Error, e.Message)
}
