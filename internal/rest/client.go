package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Client talks to the SkillSwap chat API over HTTP/JSON with a bearer
// token. All methods are safe for concurrent use.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	logger  *zap.Logger
}

// NewClient creates an API client for the given base URL and JWT.
func NewClient(baseURL, token string, logger *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 15 * time.Second},
		logger:  logger,
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		var envelope struct {
			Error string `json:"error"`
			Msg   string `json:"msg"`
		}
		if json.Unmarshal(data, &envelope) == nil {
			apiErr.Message = envelope.Error
			if apiErr.Message == "" {
				apiErr.Message = envelope.Msg
			}
		}
		c.logger.Warn("api error",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("message", apiErr.Message),
		)
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

// UnreadCount returns the total number of unread chat messages.
func (c *Client) UnreadCount(ctx context.Context) (int, error) {
	var resp struct {
		UnreadCount int `json:"unread_count"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/chat/unread_count", nil, &resp); err != nil {
		return 0, err
	}
	return resp.UnreadCount, nil
}

// Conversations returns the user's conversations, most recent first.
func (c *Client) Conversations(ctx context.Context) ([]Conversation, error) {
	var resp struct {
		Conversations []Conversation `json:"conversations"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/chat/conversations", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Conversations, nil
}

// Conversation returns one conversation with its full message history.
// The server marks the peer's messages as read as a side effect.
func (c *Client) Conversation(ctx context.Context, id int64) (*Conversation, []Message, error) {
	var resp struct {
		Conversation Conversation `json:"conversation"`
		Messages     []Message    `json:"messages"`
	}
	path := fmt.Sprintf("/api/chat/conversation/%d", id)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, nil, err
	}
	return &resp.Conversation, resp.Messages, nil
}

// SendMessage posts a message and returns the stored copy with its
// server-assigned id and timestamp.
func (c *Client) SendMessage(ctx context.Context, conversationID int64, text string) (*Message, error) {
	req := map[string]any{
		"conversation_id": conversationID,
		"message":         text,
	}
	var resp struct {
		Success bool    `json:"success"`
		Message Message `json:"message"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/chat/send_message", req, &resp); err != nil {
		return nil, err
	}
	return &resp.Message, nil
}

// StartConversation creates or reuses the conversation with the given
// user and returns its id. The server keeps one conversation per pair.
func (c *Client) StartConversation(ctx context.Context, userID int64) (int64, error) {
	req := map[string]any{"user_id": userID}
	var resp struct {
		ConversationID int64 `json:"conversation_id"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/chat/start_conversation", req, &resp); err != nil {
		return 0, err
	}
	return resp.ConversationID, nil
}

// Users returns the directory of members available for chat.
func (c *Client) Users(ctx context.Context) ([]User, error) {
	var resp struct {
		Users []User `json:"users"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/chat/users", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Users, nil
}

// AdminMessage delivers a system message into the admin's conversation
// with the given user. Requires an admin token.
func (c *Client) AdminMessage(ctx context.Context, userID int64, text string) error {
	req := map[string]any{
		"user_id": userID,
		"message": text,
	}
	return c.do(ctx, http.MethodPost, "/api/chat/admin_message", req, nil)
}

// Notifications returns the user's notifications, newest first.
func (c *Client) Notifications(ctx context.Context) ([]Notification, error) {
	var resp struct {
		Notifications []Notification `json:"notifications"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/notifications", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Notifications, nil
}

// NotificationUnreadCount returns the number of unread notifications.
func (c *Client) NotificationUnreadCount(ctx context.Context) (int, error) {
	var resp struct {
		UnreadCount int `json:"unread_count"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/notifications/unread_count", nil, &resp); err != nil {
		return 0, err
	}
	return resp.UnreadCount, nil
}

// MarkNotificationRead marks one notification as read.
func (c *Client) MarkNotificationRead(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/api/notifications/mark_read/%d", id), nil, nil)
}

// MarkAllNotificationsRead marks every notification as read.
func (c *Client) MarkAllNotificationsRead(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/notifications/mark_all_read", nil, nil)
}

// DeleteNotification removes one notification.
func (c *Client) DeleteNotification(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/notifications/delete/%d", id), nil, nil)
}

// Announcements returns the latest active announcement (nil if none)
// and up to ten older ones.
func (c *Client) Announcements(ctx context.Context) (*Announcement, []Announcement, error) {
	var resp struct {
		Latest *Announcement  `json:"latest"`
		Older  []Announcement `json:"older"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/announcements", nil, &resp); err != nil {
		return nil, nil, err
	}
	return resp.Latest, resp.Older, nil
}

// Broadcast publishes a site-wide announcement. Requires an admin token.
func (c *Client) Broadcast(ctx context.Context, title, content string) error {
	req := map[string]any{
		"title":   title,
		"content": content,
	}
	return c.do(ctx, http.MethodPost, "/api/admin/send_message", req, nil)
}

// QuickMessage sends a typed notification to the selected recipients.
// Requires an admin token.
func (c *Client) QuickMessage(ctx context.Context, title, content, msgType string, recipients []int64) error {
	req := map[string]any{
		"quick_title":   title,
		"quick_content": content,
		"quick_type":    msgType,
		"recipients":    recipients,
	}
	return c.do(ctx, http.MethodPost, "/api/admin/quick_message", req, nil)
}
