package model

import (
	"path/filepath"
	"testing"

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

func TestLoadMessagesDisplayOrder(t *testing.T) {
	db := testDB(t)
	for i := int64(1); i <= 3; i++ {
		if err := db.UpsertMessage(&store.Message{ID: i, ConversationID: 1, SenderID: 7, Body: "m", CreatedAt: i * 100}); err != nil {
			t.Fatal(err)
		}
	}

	vm := NewViewModel(db)
	if err := vm.LoadMessages(1); err != nil {
		t.Fatal(err)
	}

	msgs := vm.Messages()
	if len(msgs) != 3 || msgs[0].ID != 1 || msgs[2].ID != 3 {
		t.Errorf("display order = %+v", msgs)
	}
	if vm.ActiveConversation() != 1 {
		t.Errorf("active = %d", vm.ActiveConversation())
	}

	select {
	case <-vm.RefreshCh():
	default:
		t.Error("load should signal a refresh")
	}
}

func TestActivePeerFallsBackToStore(t *testing.T) {
	db := testDB(t)
	if err := db.UpsertConversation(&store.Conversation{ID: 5, OtherUserID: 7, OtherUserName: "Ana"}); err != nil {
		t.Fatal(err)
	}

	vm := NewViewModel(db)
	if err := vm.LoadMessages(5); err != nil {
		t.Fatal(err)
	}

	peer := vm.ActivePeer()
	if peer == nil || peer.OtherUserName != "Ana" {
		t.Errorf("peer = %+v", peer)
	}

	vm.ClearMessages()
	if vm.ActivePeer() != nil {
		t.Error("peer should be nil after clear")
	}
}

func TestNotificationSnapshot(t *testing.T) {
	db := testDB(t)
	if err := db.UpsertNotification(&store.Notification{ID: 1, Title: "hi", CreatedAt: 1}); err != nil {
		t.Fatal(err)
	}

	vm := NewViewModel(db)
	if err := vm.LoadNotifications(); err != nil {
		t.Fatal(err)
	}
	if len(vm.Notifications()) != 1 || vm.NotifyUnread() != 1 {
		t.Errorf("snapshot = %+v unread=%d", vm.Notifications(), vm.NotifyUnread())
	}
}
