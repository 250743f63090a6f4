package network

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"

	"msgsync/logging"
	"msgsync/models"
)

const (
	// ClientIDHeader carries the local client identifier on every request.
	ClientIDHeader = "X-Client-ID"

	messagesPath = "messages"
)

// Client talks to the remote message store under one API root.
type Client struct {
	baseURL  *url.URL
	http     *http.Client
	log      logrus.FieldLogger
	clientID string
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(log logrus.FieldLogger) ClientOption {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// WithClientID tags every request with the given client identifier.
func WithClientID(id string) ClientOption {
	return func(c *Client) {
		c.clientID = id
	}
}

// NewClient returns a client for the API root at baseURL, e.g. http://host:8080/api.
func NewClient(baseURL string, opts ...ClientOption) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("api base url is required")
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse api base url %q: %w", baseURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("api base url %q must be absolute", baseURL)
	}

	c := &Client{
		baseURL: u,
		http:    http.DefaultClient,
		log:     logging.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// List fetches every message. The store may answer with one object or an array.
func (c *Client) List(ctx context.Context) ([]models.Message, error) {
	const op = "list messages"

	body, _, err := c.do(ctx, op, http.MethodGet, c.baseURL.JoinPath(messagesPath), nil)
	if err != nil {
		return nil, err
	}
	if err := domainError(op, body); err != nil {
		return nil, err
	}

	var records models.Records
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, &TransportError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return records, nil
}

// Get fetches one message by ID.
func (c *Client) Get(ctx context.Context, id models.ID) (models.Message, error) {
	const op = "get message"

	body, _, err := c.do(ctx, op, http.MethodGet, c.baseURL.JoinPath(messagesPath, id.String()), nil)
	if err != nil {
		return models.Message{}, err
	}
	return decodeMessage(op, body)
}

// Create submits text as a new message and returns the stored record.
func (c *Client) Create(ctx context.Context, text string) (models.Message, error) {
	const op = "create message"

	payload, err := json.Marshal(models.CreateMessageRequest{Message: text})
	if err != nil {
		return models.Message{}, &TransportError{Op: op, Err: fmt.Errorf("encode request: %w", err)}
	}

	body, _, err := c.do(ctx, op, http.MethodPost, c.baseURL.JoinPath(messagesPath), payload)
	if err != nil {
		return models.Message{}, err
	}
	return decodeMessage(op, body)
}

// Remove deletes a message. Only 204 No Content counts as success.
func (c *Client) Remove(ctx context.Context, id models.ID) error {
	const op = "delete message"

	body, status, err := c.do(ctx, op, http.MethodDelete, c.baseURL.JoinPath(messagesPath, id.String()), nil)
	if err != nil {
		return err
	}
	if status == http.StatusNoContent {
		return nil
	}

	if err := domainError(op, body); err != nil {
		return err
	}
	return &TransportError{Op: op, Err: fmt.Errorf("unexpected status %d", status)}
}

func (c *Client) do(ctx context.Context, op, method string, target *url.URL, payload []byte) ([]byte, int, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), reader)
	if err != nil {
		return nil, 0, &TransportError{Op: op, Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.clientID != "" {
		req.Header.Set(ClientIDHeader, c.clientID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.WithError(err).WithFields(logrus.Fields{"method": method, "url": target.String()}).Debug("request failed")
		return nil, 0, &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, &TransportError{Op: op, Err: fmt.Errorf("read response: %w", err)}
	}

	c.log.WithFields(logrus.Fields{
		"method": method,
		"url":    target.String(),
		"status": resp.StatusCode,
		"bytes":  len(body),
	}).Debug("request completed")

	return body, resp.StatusCode, nil
}

// domainError reports a DomainError when body is an object whose error field
// is set to anything other than null, false or "". Non-string error values
// are kept as their JSON text. Bodies that are not JSON objects are left for
// the caller to decode.
func domainError(op string, body []byte) error {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return nil
	}
	raw, ok := fields["error"]
	if !ok {
		return nil
	}
	errText, set := jsonText(raw)
	if !set {
		return nil
	}

	message, _ := jsonText(fields["message"])
	return &DomainError{Op: op, Payload: models.APIError{Error: errText, Message: message}}
}

// jsonText renders a raw JSON value as display text. It reports false for
// absent or falsy values (null, false, "").
func jsonText(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	switch string(raw) {
	case "", "null", "false", `""`:
		return "", false
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s, true
		}
	}
	return string(raw), true
}

func decodeMessage(op string, body []byte) (models.Message, error) {
	if err := domainError(op, body); err != nil {
		return models.Message{}, err
	}

	var msg models.Message
	if err := json.Unmarshal(body, &msg); err != nil {
		return models.Message{}, &TransportError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return msg, nil
}
