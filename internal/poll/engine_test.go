package poll

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/skillswap/swapchat/internal/bus"
	"github.com/skillswap/swapchat/internal/rest"
	"github.com/skillswap/swapchat/internal/store"
)

func testDB(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "chat.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if _, err := db.Migrate(); err != nil {
		t.Fatal(err)
	}
	return db
}

func testEngine(t *testing.T, handler http.Handler) (*Engine, *store.DB, *bus.Bus) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	db := testDB(t)
	b := bus.New()
	client := rest.NewClient(srv.URL, "jwt", zap.NewNop())
	e := NewEngine(client, db, b, zap.NewNop(), Intervals{
		Unread:        10 * time.Second,
		Conversations: 5 * time.Second,
		Notifications: 10 * time.Second,
	})
	return e, db, b
}

func TestRefreshUnreadEmitsOnChange(t *testing.T) {
	var count atomic.Int64
	count.Store(3)
	mux := http.NewServeMux()
	mux.HandleFunc("/api/chat/unread_count", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"unread_count": %d}`, count.Load())
	})

	e, _, b := testEngine(t, mux)
	ch, unsub := b.Subscribe("chat.unread", 4)
	defer unsub()

	ctx := context.Background()
	if err := e.refreshUnread(ctx); err != nil {
		t.Fatal(err)
	}
	evt := <-ch
	if evt.Payload.(int) != 3 {
		t.Errorf("payload = %v, want 3", evt.Payload)
	}

	// Same value again: no event.
	if err := e.refreshUnread(ctx); err != nil {
		t.Fatal(err)
	}
	select {
	case evt := <-ch:
		t.Errorf("unexpected event for unchanged count: %v", evt)
	case <-time.After(50 * time.Millisecond):
	}

	count.Store(5)
	if err := e.refreshUnread(ctx); err != nil {
		t.Fatal(err)
	}
	evt = <-ch
	if evt.Payload.(int) != 5 {
		t.Errorf("payload = %v, want 5", evt.Payload)
	}
}

func TestRefreshConversationsMirrorsAndPrunes(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/chat/conversations", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"conversations": [
			{"id": 1, "other_user_id": 7, "other_user_name": "Ana", "unread_count": 2,
			 "last_message": "hi", "last_message_at": "2026-08-27 10:00:00",
			 "created_at": "2026-08-01 08:00:00"}
		]}`))
	})

	e, db, _ := testEngine(t, mux)
	// Stale local conversation the server no longer returns.
	if err := db.UpsertConversation(&store.Conversation{ID: 9, OtherUserID: 99}); err != nil {
		t.Fatal(err)
	}

	if err := e.refreshConversations(context.Background()); err != nil {
		t.Fatal(err)
	}

	convs, err := db.ListConversations(10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(convs) != 1 || convs[0].ID != 1 {
		t.Fatalf("convs = %+v", convs)
	}
	if convs[0].UnreadCount != 2 || convs[0].OtherUserName != "Ana" {
		t.Errorf("conv = %+v", convs[0])
	}
}

func TestRefreshActiveIngestsAndMarksRead(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/chat/conversation/1", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"conversation": {"id": 1, "other_user_id": 7, "other_user_name": "Ana"},
			"messages": [
				{"id": 10, "conversation_id": 1, "sender_id": 7, "sender_name": "Ana",
				 "message": "new one", "message_type": "text", "is_read": 0,
				 "created_at": "2026-08-27 10:00:00"}
			]}`))
	})

	e, db, b := testEngine(t, mux)
	if err := db.UpsertConversation(&store.Conversation{ID: 1, OtherUserID: 7, UnreadCount: 1}); err != nil {
		t.Fatal(err)
	}

	ch, unsub := b.Subscribe(bus.KindMessageAppended, 4)
	defer unsub()

	e.SetActiveConversation(1)
	if err := e.refreshActive(context.Background()); err != nil {
		t.Fatal(err)
	}

	select {
	case evt := <-ch:
		if evt.Payload.(int64) != 1 {
			t.Errorf("payload = %v", evt.Payload)
		}
	case <-time.After(time.Second):
		t.Fatal("no message appended event")
	}

	c, err := db.GetConversation(1)
	if err != nil {
		t.Fatal(err)
	}
	if c.UnreadCount != 0 {
		t.Errorf("unread = %d after active refresh, want 0", c.UnreadCount)
	}

	// Second refresh with identical payload: no new event.
	if err := e.refreshActive(context.Background()); err != nil {
		t.Fatal(err)
	}
	select {
	case evt := <-ch:
		t.Errorf("unexpected event: %v", evt)
	case <-time.After(50 * time.Millisecond):
	}
}

// A conversation deleted server-side answers 404; the engine stops
// polling it instead of reporting a cycle failure.
func TestRefreshActiveClearsGoneConversation(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/chat/conversation/9", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error": "Conversation not found"}`))
	})

	e, db, _ := testEngine(t, mux)
	if err := db.UpsertConversation(&store.Conversation{ID: 9, OtherUserID: 7}); err != nil {
		t.Fatal(err)
	}

	e.SetActiveConversation(9)
	if err := e.refreshActive(context.Background()); err != nil {
		t.Fatalf("gone conversation should not fail the cycle: %v", err)
	}

	e.mu.Lock()
	active := e.activeConv
	e.mu.Unlock()
	if active != 0 {
		t.Errorf("active conversation = %d, want cleared", active)
	}
}

func TestRefreshActiveNoopWithoutActiveConversation(t *testing.T) {
	e, _, _ := testEngine(t, http.NewServeMux())
	if err := e.refreshActive(context.Background()); err != nil {
		t.Errorf("refreshActive with no active conversation: %v", err)
	}
}

func TestRefreshUsersAndNotifications(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/chat/users", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"users": [{"id": 7, "name": "Ana", "location": "Porto"}]}`))
	})
	mux.HandleFunc("/api/notifications", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"notifications": [
			{"id": 1, "title": "Welcome", "message": "hi", "type": "info",
			 "is_read": 0, "created_at": "2026-08-27 09:00:00"}]}`))
	})
	mux.HandleFunc("/api/announcements", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"latest": {"id": 2, "title": "Maintenance", "content": "tonight",
			"is_active": 1, "created_at": "2026-08-27 08:00:00"}, "older": []}`))
	})

	e, db, _ := testEngine(t, mux)
	ctx := context.Background()

	if err := e.refreshUsers(ctx); err != nil {
		t.Fatal(err)
	}
	users, err := db.ListUsers("")
	if err != nil {
		t.Fatal(err)
	}
	if len(users) != 1 || users[0].Name != "Ana" {
		t.Errorf("users = %+v", users)
	}

	if err := e.refreshNotifications(ctx); err != nil {
		t.Fatal(err)
	}
	n, err := db.UnreadNotificationCount()
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("unread notifications = %d, want 1", n)
	}
}

func TestServerFailureLeavesMirrorIntact(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/chat/conversations", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "boom"}`))
	})

	e, db, _ := testEngine(t, mux)
	if err := db.UpsertConversation(&store.Conversation{ID: 1, OtherUserID: 7, UnreadCount: 2}); err != nil {
		t.Fatal(err)
	}

	if err := e.refreshConversations(context.Background()); err == nil {
		t.Fatal("expected error from failing server")
	}

	convs, err := db.ListConversations(10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(convs) != 1 || convs[0].UnreadCount != 2 {
		t.Errorf("mirror changed on failed poll: %+v", convs)
	}
}

func TestStartStop(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})

	e, _, _ := testEngine(t, mux)
	e.Start(context.Background())
	e.Stop()
}
