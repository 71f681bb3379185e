// Package api is the HTTP client for the chat server's request/response
// surface: history, send, mark-read and the directory endpoints. The push
// stream lives in internal/transport; this package is strictly one-shot
// request/response.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/chatline-im/chatline/internal/chat"
)

const (
	// DefaultTimeout bounds a single request; the engine imposes no retries
	// or timeouts of its own.
	DefaultTimeout = 30 * time.Second
)

// ErrNotFound is returned when the server answers 404. For history loads a
// 404 means "no messages yet", which callers must treat as an empty
// conversation rather than a failure.
var ErrNotFound = errors.New("not found")

// StatusError carries a non-404 HTTP failure status.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server returned HTTP %d: %s", e.Status, e.Body)
}

// User is a directory entry for a person.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// Group is a directory entry for a group conversation.
type Group struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// SendReceipt is the server's confirmation of a persisted message. A zero
// CreatedAt means the server omitted the timestamp and the caller falls
// back to its local clock.
type SendReceipt struct {
	ID         int64     `json:"id"`
	SenderName string    `json:"sender_name"`
	CreatedAt  time.Time `json:"created_at"`
}

// Client talks to the chat server over HTTP with a bearer credential.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// NewClient creates a Client for the given server base URL. The token may be
// empty for an anonymous session; the server then rejects whatever it must.
func NewClient(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DirectHistory fetches the full message history with a peer. A server 404
// surfaces as ErrNotFound; the engine maps it to an empty conversation.
func (c *Client) DirectHistory(ctx context.Context, peerID int64) ([]chat.Message, error) {
	return c.history(ctx, fmt.Sprintf("/api/messages/%d", peerID))
}

// GroupHistory fetches the full message history of a group.
func (c *Client) GroupHistory(ctx context.Context, groupID int64) ([]chat.Message, error) {
	return c.history(ctx, fmt.Sprintf("/api/groups/%d/messages", groupID))
}

func (c *Client) history(ctx context.Context, path string) ([]chat.Message, error) {
	data, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var raw []chat.Message
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}

	// Drop records that cannot be routed instead of failing the whole load.
	msgs := raw[:0]
	for _, m := range raw {
		if m.Normalize() == nil {
			msgs = append(msgs, m)
		}
	}
	return msgs, nil
}

// SendDirect persists a direct message and returns the server receipt.
func (c *Client) SendDirect(ctx context.Context, receiverID int64, body string) (SendReceipt, error) {
	return c.send(ctx, "/api/messages", map[string]any{
		"receiverId": receiverID,
		"message":    body,
	})
}

// SendGroup persists a group message and returns the server receipt.
func (c *Client) SendGroup(ctx context.Context, groupID, senderID int64, body string) (SendReceipt, error) {
	return c.send(ctx, fmt.Sprintf("/api/groups/%d/messages", groupID), map[string]any{
		"senderId": senderID,
		"message":  body,
	})
}

func (c *Client) send(ctx context.Context, path string, payload map[string]any) (SendReceipt, error) {
	data, err := c.doRequest(ctx, http.MethodPost, path, payload)
	if err != nil {
		return SendReceipt{}, err
	}

	var receipt SendReceipt
	if err := json.Unmarshal(data, &receipt); err != nil {
		return SendReceipt{}, fmt.Errorf("decode send receipt: %w", err)
	}
	if receipt.ID == 0 {
		return SendReceipt{}, fmt.Errorf("send receipt carries no message id")
	}
	return receipt, nil
}

// MarkRead marks every direct message from the given peer as read. Groups
// have no server-side read state.
func (c *Client) MarkRead(ctx context.Context, peerID int64) error {
	_, err := c.doRequest(ctx, http.MethodPost, "/api/messages/mark-as-read", map[string]any{
		"userId": peerID,
	})
	return err
}

// CurrentUser fetches the viewer's directory entry.
func (c *Client) CurrentUser(ctx context.Context) (User, error) {
	var u User
	err := c.getJSON(ctx, "/api/user", &u)
	return u, err
}

// Users lists all users the viewer can converse with.
func (c *Client) Users(ctx context.Context) ([]User, error) {
	var users []User
	err := c.getJSON(ctx, "/api/users", &users)
	return users, err
}

// Groups lists all groups the viewer belongs to.
func (c *Client) Groups(ctx context.Context) ([]Group, error) {
	var groups []Group
	err := c.getJSON(ctx, "/api/groups", &groups)
	return groups, err
}

// GroupMembers lists the members of a group.
func (c *Client) GroupMembers(ctx context.Context, groupID int64) ([]User, error) {
	var members []User
	err := c.getJSON(ctx, fmt.Sprintf("/api/groups/%d/members", groupID), &members)
	return members, err
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	data, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func (c *Client) doRequest(ctx context.Context, method, path string, body any) ([]byte, error) {
	var bodyReader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, &StatusError{Status: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}
	return data, nil
}
