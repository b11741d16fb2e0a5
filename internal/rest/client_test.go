package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
)

func testServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "test-jwt", zap.NewNop())
}

func TestBearerTokenSent(t *testing.T) {
	c := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-jwt" {
			t.Errorf("Authorization = %q", got)
		}
		_, _ = w.Write([]byte(`{"unread_count": 4}`))
	})

	n, err := c.UnreadCount(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if n != 4 {
		t.Errorf("unread = %d, want 4", n)
	}
}

func TestConversationsParsesBothTimestampFormats(t *testing.T) {
	c := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat/conversations" {
			t.Errorf("path = %q", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"conversations": [
			{"id": 1, "other_user_id": 7, "other_user_name": "Ana",
			 "unread_count": 2, "last_message": "hi",
			 "last_message_at": "2026-08-27 10:30:00",
			 "created_at": "2026-08-01T08:00:00"},
			{"id": 2, "other_user_id": 9, "other_user_name": "Bram",
			 "unread_count": 0, "last_message": null,
			 "last_message_at": null, "created_at": "2026-08-02 09:00:00"}
		]}`))
	})

	convs, err := c.Conversations(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(convs) != 2 {
		t.Fatalf("got %d conversations", len(convs))
	}
	want := time.Date(2026, 8, 27, 10, 30, 0, 0, time.UTC)
	if !convs[0].LastMessageAt.Equal(want) {
		t.Errorf("last_message_at = %v, want %v", convs[0].LastMessageAt, want)
	}
	if !convs[1].LastMessageAt.IsZero() {
		t.Errorf("null timestamp should be zero, got %v", convs[1].LastMessageAt)
	}
}

func TestConversationMessagesIntegerBools(t *testing.T) {
	c := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat/conversation/5" {
			t.Errorf("path = %q", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{
			"conversation": {"id": 5, "other_user_id": 7, "other_user_name": "Ana"},
			"messages": [
				{"id": 10, "conversation_id": 5, "sender_id": 7, "sender_name": "Ana",
				 "message": "hello", "message_type": "text", "is_read": 1,
				 "created_at": "2026-08-27 10:00:00"},
				{"id": 11, "conversation_id": 5, "sender_id": 3, "sender_name": "Me",
				 "message": "hey", "message_type": "text", "is_read": 0,
				 "created_at": "2026-08-27 10:01:00"}
			]}`))
	})

	conv, msgs, err := c.Conversation(context.Background(), 5)
	if err != nil {
		t.Fatal(err)
	}
	if conv.OtherUserName != "Ana" {
		t.Errorf("other_user_name = %q", conv.OtherUserName)
	}
	if len(msgs) != 2 {
		t.Fatalf("got %d messages", len(msgs))
	}
	if !bool(msgs[0].IsRead) || bool(msgs[1].IsRead) {
		t.Errorf("is_read decode: got %v, %v", msgs[0].IsRead, msgs[1].IsRead)
	}
}

func TestSendMessage(t *testing.T) {
	c := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/chat/send_message" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatal(err)
		}
		if req["message"] != "see you at 5" {
			t.Errorf("message = %v", req["message"])
		}
		_, _ = w.Write([]byte(`{"success": true, "message":
			{"id": 99, "conversation_id": 5, "sender_id": 3, "sender_name": "Me",
			 "message": "see you at 5", "message_type": "text", "is_read": false,
			 "created_at": "2026-08-27T11:00:00"}}`))
	})

	msg, err := c.SendMessage(context.Background(), 5, "see you at 5")
	if err != nil {
		t.Fatal(err)
	}
	if msg.ID != 99 || msg.Body != "see you at 5" {
		t.Errorf("message = %+v", msg)
	}
}

func TestStartConversation(t *testing.T) {
	c := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"conversation_id": 42, "message": "Conversation started"}`))
	})

	id, err := c.StartConversation(context.Background(), 7)
	if err != nil {
		t.Fatal(err)
	}
	if id != 42 {
		t.Errorf("conversation id = %d, want 42", id)
	}
}

func TestErrorEnvelope(t *testing.T) {
	c := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error": "Admin access required"}`))
	})

	err := c.Broadcast(context.Background(), "t", "c")
	if err == nil {
		t.Fatal("expected error")
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error type %T", err)
	}
	if apiErr.Status != 403 || apiErr.Message != "Admin access required" {
		t.Errorf("apiErr = %+v", apiErr)
	}
}

func TestUnauthorizedHelper(t *testing.T) {
	c := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"msg": "Token has expired"}`))
	})

	_, err := c.UnreadCount(context.Background())
	if !IsUnauthorized(err) {
		t.Errorf("IsUnauthorized = false for %v", err)
	}
}

// Callers wrap client errors with %w; the status helpers have to see
// through the wrapping.
func TestStatusHelpersUnwrap(t *testing.T) {
	c := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error": "Conversation not found"}`))
	})

	_, _, err := c.Conversation(context.Background(), 404)
	wrapped := fmt.Errorf("open conversation: %w", err)
	if !IsNotFound(wrapped) {
		t.Errorf("IsNotFound = false for %v", wrapped)
	}
	if IsUnauthorized(wrapped) {
		t.Errorf("IsUnauthorized = true for %v", wrapped)
	}
}

func TestQuickMessagePayload(t *testing.T) {
	c := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Title      string  `json:"quick_title"`
			Content    string  `json:"quick_content"`
			Type       string  `json:"quick_type"`
			Recipients []int64 `json:"recipients"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatal(err)
		}
		if req.Type != "warning" || len(req.Recipients) != 2 {
			t.Errorf("req = %+v", req)
		}
		_, _ = w.Write([]byte(`{"message": "sent"}`))
	})

	err := c.QuickMessage(context.Background(), "Maintenance", "Down at noon", "warning", []int64{1, 2})
	if err != nil {
		t.Fatal(err)
	}
}

func TestAnnouncements(t *testing.T) {
	c := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"latest": {"id": 3, "title": "Welcome", "content": "hi all",
			           "is_active": 1, "created_at": "2026-08-20 12:00:00"},
			"older": [{"id": 2, "title": "Old", "content": "x",
			           "is_active": 1, "created_at": "2026-08-10 12:00:00"}]}`))
	})

	latest, older, err := c.Announcements(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if latest == nil || latest.Title != "Welcome" {
		t.Errorf("latest = %+v", latest)
	}
	if len(older) != 1 {
		t.Errorf("older = %+v", older)
	}
}
