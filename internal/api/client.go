// Package api implements the HTTP client for the coaching platform's
// conversation service. The backend is an opaque collaborator; this package
// only shapes requests, decodes responses and classifies failures.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/tOgg1/coachdesk/internal/logging"
	"github.com/tOgg1/coachdesk/internal/models"
)

const (
	defaultRequestTimeout = 10 * time.Second
	maxErrorBodySize      = 4 * 1024
)

// Config holds client settings.
type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// Client talks to the conversation service.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	log     zerolog.Logger
}

// ConversationPage is one page of the conversation list.
type ConversationPage struct {
	Conversations []models.Conversation `json:"conversations"`
	HasMore       bool                  `json:"has_more"`
}

// SendRequest carries a message send. IdempotencyKey is generated by the
// caller and echoed back on the canonical message.
type SendRequest struct {
	ConversationID string             `json:"-"`
	Content        string             `json:"content"`
	Attachment     *models.Attachment `json:"attachment,omitempty"`
	IdempotencyKey string             `json:"idempotency_key"`
}

// NotificationFilter narrows GetNotifications.
type NotificationFilter struct {
	UnreadOnly bool
	Limit      int
}

// New creates a Client. The base URL is required.
func New(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("api base url required")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("invalid api base url: %w", err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return &Client{
		baseURL: base,
		token:   strings.TrimSpace(cfg.Token),
		http:    &http.Client{Timeout: timeout},
		log:     logging.Component("api"),
	}, nil
}

// ListConversations fetches one page of the viewer's conversations,
// optionally filtered by a participant-name search term.
func (c *Client) ListConversations(ctx context.Context, limit, offset int, term string) (ConversationPage, error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	query.Set("offset", strconv.Itoa(offset))
	if term = strings.TrimSpace(term); term != "" {
		query.Set("q", term)
	}

	var page ConversationPage
	if err := c.do(ctx, http.MethodGet, "/conversations?"+query.Encode(), nil, &page); err != nil {
		return ConversationPage{}, err
	}
	return page, nil
}

// GetMessages fetches the canonical message list of a conversation, ordered
// by created_at ascending.
func (c *Client) GetMessages(ctx context.Context, conversationID string) ([]models.Message, error) {
	if strings.TrimSpace(conversationID) == "" {
		return nil, Validation("conversation id required")
	}
	var out struct {
		Messages []models.Message `json:"messages"`
	}
	if err := c.do(ctx, http.MethodGet, "/conversations/"+url.PathEscape(conversationID)+"/messages", nil, &out); err != nil {
		return nil, err
	}
	return out.Messages, nil
}

// SendMessage submits a message and returns the canonical record.
func (c *Client) SendMessage(ctx context.Context, req SendRequest) (models.Message, error) {
	if strings.TrimSpace(req.ConversationID) == "" {
		return models.Message{}, Validation("conversation id required")
	}
	if strings.TrimSpace(req.Content) == "" && req.Attachment == nil {
		return models.Message{}, Validation("message is empty")
	}

	var msg models.Message
	path := "/conversations/" + url.PathEscape(req.ConversationID) + "/messages"
	if err := c.do(ctx, http.MethodPost, path, req, &msg); err != nil {
		return models.Message{}, err
	}
	return msg, nil
}

// MarkAsRead marks every message in the conversation read for the viewer.
// Repeat calls are no-ops server-side.
func (c *Client) MarkAsRead(ctx context.Context, conversationID string) error {
	if strings.TrimSpace(conversationID) == "" {
		return Validation("conversation id required")
	}
	return c.do(ctx, http.MethodPost, "/conversations/"+url.PathEscape(conversationID)+"/read", nil, nil)
}

// GetUnreadCount fetches the viewer's aggregate unread total.
func (c *Client) GetUnreadCount(ctx context.Context) (int, error) {
	var out struct {
		Count int `json:"count"`
	}
	if err := c.do(ctx, http.MethodGet, "/messages/unread-count", nil, &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}

// GetConversationUnreadCounts fetches the per-conversation unread map.
func (c *Client) GetConversationUnreadCounts(ctx context.Context) (map[string]int, error) {
	var out struct {
		Counts map[string]int `json:"counts"`
	}
	if err := c.do(ctx, http.MethodGet, "/conversations/unread-counts", nil, &out); err != nil {
		return nil, err
	}
	if out.Counts == nil {
		out.Counts = map[string]int{}
	}
	return out.Counts, nil
}

// GetNotifications fetches the viewer's notification feed, newest first.
func (c *Client) GetNotifications(ctx context.Context, filter NotificationFilter) ([]models.Notification, error) {
	query := url.Values{}
	if filter.UnreadOnly {
		query.Set("unread", "true")
	}
	if filter.Limit > 0 {
		query.Set("limit", strconv.Itoa(filter.Limit))
	}
	path := "/notifications"
	if encoded := query.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var out struct {
		Notifications []models.Notification `json:"notifications"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Notifications, nil
}

// MarkNotificationRead marks a single notification read.
func (c *Client) MarkNotificationRead(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return Validation("notification id required")
	}
	return c.do(ctx, http.MethodPost, "/notifications/"+url.PathEscape(id)+"/read", nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.log.Debug().Err(err).Str("method", method).Str("path", path).Msg("request failed")
		return transport(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.decodeError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &Error{Code: CodeUnavailable, Message: "malformed response", Err: err}
	}
	return nil
}

func (c *Client) decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))

	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	message := ""
	if err := json.Unmarshal(raw, &payload); err == nil {
		message = strings.TrimSpace(payload.Message)
		if message == "" {
			message = strings.TrimSpace(payload.Error)
		}
	}
	if message == "" {
		message = http.StatusText(resp.StatusCode)
	}
	return classifyStatus(resp.StatusCode, message)
}
