package model

import (
	"slices"
	"sync"

	"github.com/skillswap/swapchat/internal/rest"
	"github.com/skillswap/swapchat/internal/store"
)

// ViewModel caches snapshots of the local mirror and signals UI
// refreshes. Views read snapshots; the polling engine and chat session
// write to the store, and the app reloads the model on bus events.
type ViewModel struct {
	mu sync.RWMutex

	db *store.DB

	conversations []store.Conversation
	messages      []store.Message
	users         []store.User
	notifications []store.Notification
	announcement  *rest.Announcement
	unread        int
	notifyUnread  int
	activeConv    int64

	refreshCh chan struct{}
}

// NewViewModel creates a view model backed by the local mirror.
func NewViewModel(db *store.DB) *ViewModel {
	return &ViewModel{
		db:        db,
		refreshCh: make(chan struct{}, 1),
	}
}

// RefreshCh returns the channel that signals UI refresh.
func (vm *ViewModel) RefreshCh() <-chan struct{} {
	return vm.refreshCh
}

func (vm *ViewModel) signalRefresh() {
	select {
	case vm.refreshCh <- struct{}{}:
	default:
	}
}

// LoadConversations reloads the conversation list snapshot.
func (vm *ViewModel) LoadConversations() error {
	convs, err := vm.db.ListConversations(100, 0)
	if err != nil {
		return err
	}
	vm.mu.Lock()
	vm.conversations = convs
	vm.mu.Unlock()
	vm.signalRefresh()
	return nil
}

// LoadMessages reloads the active conversation's history, oldest first.
func (vm *ViewModel) LoadMessages(conversationID int64) error {
	msgs, err := vm.db.ListMessages(conversationID, 0, 200)
	if err != nil {
		return err
	}
	slices.Reverse(msgs)
	vm.mu.Lock()
	vm.activeConv = conversationID
	vm.messages = msgs
	vm.mu.Unlock()
	vm.signalRefresh()
	return nil
}

// ClearMessages drops the active conversation snapshot.
func (vm *ViewModel) ClearMessages() {
	vm.mu.Lock()
	vm.activeConv = 0
	vm.messages = nil
	vm.mu.Unlock()
	vm.signalRefresh()
}

// LoadUsers reloads the directory snapshot with an optional name filter.
func (vm *ViewModel) LoadUsers(filter string) error {
	users, err := vm.db.ListUsers(filter)
	if err != nil {
		return err
	}
	vm.mu.Lock()
	vm.users = users
	vm.mu.Unlock()
	vm.signalRefresh()
	return nil
}

// LoadNotifications reloads the notification snapshot and its unread count.
func (vm *ViewModel) LoadNotifications() error {
	notifs, err := vm.db.ListNotifications(100)
	if err != nil {
		return err
	}
	n, err := vm.db.UnreadNotificationCount()
	if err != nil {
		return err
	}
	vm.mu.Lock()
	vm.notifications = notifs
	vm.notifyUnread = n
	vm.mu.Unlock()
	vm.signalRefresh()
	return nil
}

// SetAnnouncement records the latest active announcement, nil if none.
func (vm *ViewModel) SetAnnouncement(a *rest.Announcement) {
	vm.mu.Lock()
	vm.announcement = a
	vm.mu.Unlock()
	vm.signalRefresh()
}

// Announcement returns the latest active announcement, nil if none.
func (vm *ViewModel) Announcement() *rest.Announcement {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.announcement
}

// SetUnread records the server-reported total unread count.
func (vm *ViewModel) SetUnread(n int) {
	vm.mu.Lock()
	vm.unread = n
	vm.mu.Unlock()
	vm.signalRefresh()
}

// Conversations returns the conversation snapshot.
func (vm *ViewModel) Conversations() []store.Conversation {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.conversations
}

// Messages returns the active conversation snapshot.
func (vm *ViewModel) Messages() []store.Message {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.messages
}

// Users returns the directory snapshot.
func (vm *ViewModel) Users() []store.User {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.users
}

// Notifications returns the notification snapshot.
func (vm *ViewModel) Notifications() []store.Notification {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.notifications
}

// Unread returns the server-reported total unread count.
func (vm *ViewModel) Unread() int {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.unread
}

// NotifyUnread returns the unread notification count.
func (vm *ViewModel) NotifyUnread() int {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.notifyUnread
}

// ActiveConversation returns the open conversation id, zero if none.
func (vm *ViewModel) ActiveConversation() int64 {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.activeConv
}

// ActivePeer returns the open conversation's peer, nil when no
// conversation is open or the header is not mirrored yet.
func (vm *ViewModel) ActivePeer() *store.Conversation {
	vm.mu.RLock()
	id := vm.activeConv
	convs := vm.conversations
	vm.mu.RUnlock()
	if id == 0 {
		return nil
	}
	for i := range convs {
		if convs[i].ID == id {
			c := convs[i]
			return &c
		}
	}
	c, err := vm.db.GetConversation(id)
	if err != nil {
		return nil
	}
	return c
}
