package chat

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/skillswap/swapchat/internal/bus"
	"github.com/skillswap/swapchat/internal/poll"
	"github.com/skillswap/swapchat/internal/rest"
	"github.com/skillswap/swapchat/internal/store"
)

func testSession(t *testing.T, handler http.Handler) (*Session, *store.DB, *bus.Bus) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	db, err := store.Open(filepath.Join(t.TempDir(), "chat.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if _, err := db.Migrate(); err != nil {
		t.Fatal(err)
	}

	b := bus.New()
	client := rest.NewClient(srv.URL, "jwt", zap.NewNop())
	engine := poll.NewEngine(client, db, b, zap.NewNop(), poll.Intervals{
		Unread:        10 * time.Second,
		Conversations: 5 * time.Second,
		Notifications: 10 * time.Second,
	})
	return NewSession(client, db, b, engine, zap.NewNop()), db, b
}

func TestSendRejectsEmptyBeforeNetwork(t *testing.T) {
	var hits atomic.Int64
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(`{}`))
	})

	s, db, _ := testSession(t, mux)

	for _, text := range []string{"", "   ", "\n\t "} {
		if _, err := s.Send(context.Background(), 1, text); !errors.Is(err, ErrEmptyMessage) {
			t.Errorf("Send(%q) = %v, want ErrEmptyMessage", text, err)
		}
	}
	if hits.Load() != 0 {
		t.Errorf("server hit %d times for empty sends", hits.Load())
	}

	attempts, err := db.ListSendAttempts(0, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(attempts) != 0 {
		t.Errorf("empty sends should not be journaled: %+v", attempts)
	}
}

func TestSendSuccess(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/chat/send_message", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success": true, "message":
			{"id": 50, "conversation_id": 1, "sender_id": 3, "sender_name": "Me",
			 "message": "hello there", "message_type": "text", "is_read": false,
			 "created_at": "2026-08-27 12:00:00"}}`))
	})

	s, db, b := testSession(t, mux)
	ch, unsub := b.Subscribe("send.", 4)
	defer unsub()

	msg, err := s.Send(context.Background(), 1, "  hello there  ")
	if err != nil {
		t.Fatal(err)
	}
	if msg.ID != 50 || msg.Body != "hello there" {
		t.Errorf("msg = %+v", msg)
	}

	evt := <-ch
	if evt.Kind != bus.KindSendOK {
		t.Errorf("event = %q, want %q", evt.Kind, bus.KindSendOK)
	}

	msgs, err := db.ListMessages(1, 0, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 1 || msgs[0].ID != 50 {
		t.Errorf("mirror = %+v", msgs)
	}

	attempts, err := db.ListSendAttempts(1, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(attempts) != 1 || attempts[0].Status != store.SendStatusSent || attempts[0].ServerMsgID != 50 {
		t.Errorf("journal = %+v", attempts)
	}
}

func TestSendFailureJournaledNotRetried(t *testing.T) {
	var hits atomic.Int64
	mux := http.NewServeMux()
	mux.HandleFunc("/api/chat/send_message", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "database is locked"}`))
	})

	s, db, b := testSession(t, mux)
	ch, unsub := b.Subscribe(bus.KindSendFailed, 4)
	defer unsub()

	_, err := s.Send(context.Background(), 1, "doomed")
	if err == nil {
		t.Fatal("expected send error")
	}
	var apiErr *rest.APIError
	if !errors.As(err, &apiErr) || apiErr.Status != 500 {
		t.Errorf("err = %v", err)
	}

	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("no send failed event")
	}

	if hits.Load() != 1 {
		t.Errorf("server hit %d times, want 1 (no auto retry)", hits.Load())
	}

	attempts, jerr := db.ListSendAttempts(1, 10)
	if jerr != nil {
		t.Fatal(jerr)
	}
	if len(attempts) != 1 || attempts[0].Status != store.SendStatusFailed {
		t.Fatalf("journal = %+v", attempts)
	}
	if attempts[0].ErrorMessage == "" {
		t.Error("failed attempt should keep the error message")
	}

	msgs, err2 := db.ListMessages(1, 0, 10)
	if err2 != nil {
		t.Fatal(err2)
	}
	if len(msgs) != 0 {
		t.Errorf("failed send must not appear in the thread: %+v", msgs)
	}
}

func TestSendInFlightGuard(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	var enteredOnce sync.Once
	mux := http.NewServeMux()
	mux.HandleFunc("/api/chat/send_message", func(w http.ResponseWriter, r *http.Request) {
		enteredOnce.Do(func() { close(entered) })
		<-release
		w.Write([]byte(`{"success": true, "message":
			{"id": 51, "conversation_id": 1, "sender_id": 3,
			 "message": "slow", "message_type": "text", "is_read": false,
			 "created_at": "2026-08-27 12:00:00"}}`))
	})

	s, _, _ := testSession(t, mux)

	done := make(chan error, 1)
	go func() {
		_, err := s.Send(context.Background(), 1, "slow")
		done <- err
	}()

	<-entered
	if _, err := s.Send(context.Background(), 1, "second"); !errors.Is(err, ErrSendInFlight) {
		t.Errorf("concurrent send = %v, want ErrSendInFlight", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatal(err)
	}

	// Guard released after completion.
	if _, err := s.Send(context.Background(), 1, "third"); err != nil {
		t.Errorf("send after completion: %v", err)
	}
}

func TestOpenZeroesUnreadAndOrdersHistory(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/chat/conversation/1", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"conversation": {"id": 1, "other_user_id": 7, "other_user_name": "Ana"},
			"messages": [
				{"id": 10, "conversation_id": 1, "sender_id": 7, "sender_name": "Ana",
				 "message": "first", "message_type": "text", "is_read": 0,
				 "created_at": "2026-08-27 10:00:00"},
				{"id": 11, "conversation_id": 1, "sender_id": 3, "sender_name": "Me",
				 "message": "second", "message_type": "text", "is_read": 1,
				 "created_at": "2026-08-27 10:05:00"}
			]}`))
	})

	s, db, b := testSession(t, mux)
	if err := db.UpsertConversation(&store.Conversation{ID: 1, OtherUserID: 7, UnreadCount: 3}); err != nil {
		t.Fatal(err)
	}

	ch, unsub := b.Subscribe(bus.KindConversationOpened, 4)
	defer unsub()

	conv, history, err := s.Open(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if conv.UnreadCount != 0 {
		t.Errorf("unread = %d after open, want 0", conv.UnreadCount)
	}
	if len(history) != 2 || history[0].Body != "first" || history[1].Body != "second" {
		t.Errorf("history order = %+v", history)
	}

	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("no conversation opened event")
	}
}

func TestStartWithReturnsSameConversation(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/chat/start_conversation", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"conversation_id": 42}`))
	})

	s, _, _ := testSession(t, mux)

	first, err := s.StartWith(context.Background(), 7)
	if err != nil {
		t.Fatal(err)
	}
	second, err := s.StartWith(context.Background(), 7)
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Errorf("ids differ: %d vs %d", first, second)
	}
}

func TestQuickMessageValidation(t *testing.T) {
	var hits atomic.Int64
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(`{}`))
	})

	s, _, _ := testSession(t, mux)
	ctx := context.Background()

	if err := s.QuickMessage(ctx, "", "body", "info", []int64{1}); err == nil {
		t.Error("missing title accepted")
	}
	if err := s.QuickMessage(ctx, "title", "body", "urgent", []int64{1}); err == nil {
		t.Error("unknown type accepted")
	}
	if err := s.QuickMessage(ctx, "title", "body", "warning", nil); err == nil {
		t.Error("empty recipients accepted")
	}
	if hits.Load() != 0 {
		t.Errorf("server hit %d times for invalid quick messages", hits.Load())
	}

	if err := s.QuickMessage(ctx, "title", "body", "warning", []int64{1, 2}); err != nil {
		t.Errorf("valid quick message rejected: %v", err)
	}
}

func TestBroadcastValidation(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})

	s, _, _ := testSession(t, mux)
	if err := s.Broadcast(context.Background(), "title", ""); err == nil {
		t.Error("empty content accepted")
	}
	if err := s.Broadcast(context.Background(), "title", "content"); err != nil {
		t.Errorf("valid broadcast rejected: %v", err)
	}
}

func TestAdminDirectMessageRejectsEmpty(t *testing.T) {
	s, _, _ := testSession(t, http.NewServeMux())
	if err := s.AdminDirectMessage(context.Background(), 7, "  "); !errors.Is(err, ErrEmptyMessage) {
		t.Errorf("got %v, want ErrEmptyMessage", err)
	}
}

func TestNotificationOperationsMirrorLocally(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"message": "ok"}`))
	})

	s, db, _ := testSession(t, mux)
	for i := int64(1); i <= 2; i++ {
		if err := db.UpsertNotification(&store.Notification{ID: i, Title: "t", CreatedAt: i}); err != nil {
			t.Fatal(err)
		}
	}

	if err := s.MarkNotificationRead(context.Background(), 1); err != nil {
		t.Fatal(err)
	}
	n, err := db.UnreadNotificationCount()
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("unread = %d, want 1", n)
	}

	if err := s.DeleteNotification(context.Background(), 2); err != nil {
		t.Fatal(err)
	}
	list, err := db.ListNotifications(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Errorf("notifications = %+v", list)
	}
}
