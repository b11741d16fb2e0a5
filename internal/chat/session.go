// Package chat implements the client-side chat session: opening
// conversations, sending messages, starting conversations from the
// directory, and the notification and admin operations.
package chat

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/skillswap/swapchat/internal/bus"
	"github.com/skillswap/swapchat/internal/poll"
	"github.com/skillswap/swapchat/internal/rest"
	"github.com/skillswap/swapchat/internal/store"
)

var (
	// ErrEmptyMessage is returned before any network call when a
	// message is empty or whitespace only.
	ErrEmptyMessage = errors.New("message is empty")
	// ErrSendInFlight is returned when a send for the same
	// conversation has not completed yet.
	ErrSendInFlight = errors.New("previous send still in flight")
	// ErrStartInFlight is returned when a conversation start for the
	// same user has not completed yet.
	ErrStartInFlight = errors.New("conversation start still in flight")
	// ErrQuickInFlight is returned when a quick message submission has
	// not completed yet.
	ErrQuickInFlight = errors.New("quick message still in flight")
)

// QuickMessageTypes are the notification severities the server accepts.
var QuickMessageTypes = []string{"info", "success", "warning", "error"}

// Session coordinates chat operations against the server and the local
// mirror. One Session exists per running client.
type Session struct {
	client *rest.Client
	db     *store.DB
	bus    *bus.Bus
	engine *poll.Engine
	logger *zap.Logger

	mu        sync.Mutex
	sending   map[int64]bool
	starting  map[int64]bool
	quickBusy bool
}

// NewSession creates the chat session.
func NewSession(client *rest.Client, db *store.DB, b *bus.Bus, engine *poll.Engine, logger *zap.Logger) *Session {
	return &Session{
		client:   client,
		db:       db,
		bus:      b,
		engine:   engine,
		logger:   logger,
		sending:  make(map[int64]bool),
		starting: make(map[int64]bool),
	}
}

// Open fetches a conversation with its history, mirrors it locally and
// makes it the actively polled conversation. The server marks the
// peer's messages read on this fetch; the local unread counter is
// zeroed to match. Returned messages are in display order, oldest
// first.
func (s *Session) Open(ctx context.Context, conversationID int64) (*store.Conversation, []store.Message, error) {
	conv, msgs, err := s.client.Conversation(ctx, conversationID)
	if err != nil {
		return nil, nil, fmt.Errorf("open conversation %d: %w", conversationID, err)
	}
	if err := poll.IngestConversation(s.db, conv, msgs); err != nil {
		return nil, nil, err
	}
	if err := s.db.MarkConversationRead(conversationID); err != nil {
		return nil, nil, err
	}

	s.engine.SetActiveConversation(conversationID)
	// Opening changed the unread totals server-side.
	s.engine.Kick(poll.TaskUnread)
	s.engine.Kick(poll.TaskConversations)
	s.bus.Emit(bus.KindConversationOpened, conversationID)

	local, err := s.db.GetConversation(conversationID)
	if err != nil {
		return nil, nil, err
	}
	history, err := s.db.ListMessages(conversationID, 0, 200)
	if err != nil {
		return nil, nil, err
	}
	slices.Reverse(history)
	return local, history, nil
}

// CloseConversation clears the actively polled conversation.
func (s *Session) CloseConversation() {
	s.engine.SetActiveConversation(0)
}

// Send delivers one message. Empty and whitespace-only messages are
// rejected before any network traffic, and a second send into the same
// conversation is rejected while the first is in flight. A failed send
// is journaled and surfaced; it is never retried automatically.
func (s *Session) Send(ctx context.Context, conversationID int64, text string) (*store.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}

	s.mu.Lock()
	if s.sending[conversationID] {
		s.mu.Unlock()
		return nil, ErrSendInFlight
	}
	s.sending[conversationID] = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.sending, conversationID)
		s.mu.Unlock()
	}()

	clientID := uuid.NewString()
	if err := s.db.RecordSendAttempt(clientID, conversationID, text); err != nil {
		return nil, err
	}

	msg, err := s.client.SendMessage(ctx, conversationID, text)
	if err != nil {
		if jErr := s.db.MarkSendFailed(clientID, err.Error()); jErr != nil {
			s.logger.Error("journal send failure", zap.Error(jErr))
		}
		s.bus.Emit(bus.KindSendFailed, conversationID)
		return nil, fmt.Errorf("send to conversation %d: %w", conversationID, err)
	}

	stored := &store.Message{
		ID:             msg.ID,
		ConversationID: msg.ConversationID,
		SenderID:       msg.SenderID,
		SenderName:     msg.SenderName,
		Body:           msg.Body,
		MessageType:    msg.MessageType,
		IsRead:         bool(msg.IsRead),
		CreatedAt:      msg.CreatedAt.UnixMilli(),
	}
	if err := s.db.UpsertMessage(stored); err != nil {
		return nil, err
	}
	if err := s.db.MarkSendSent(clientID, msg.ID); err != nil {
		s.logger.Error("journal send success", zap.Error(err))
	}

	s.bus.Emit(bus.KindSendOK, conversationID)
	s.bus.Emit(bus.KindMessageAppended, conversationID)
	s.engine.Kick(poll.TaskConversations)
	s.engine.Kick(poll.TaskUnread)
	return stored, nil
}

// StartWith creates or reuses the conversation with a directory user
// and returns its id. The server keeps one conversation per pair, so
// repeated calls converge on the same id. Concurrent starts for the
// same user are rejected.
func (s *Session) StartWith(ctx context.Context, userID int64) (int64, error) {
	s.mu.Lock()
	if s.starting[userID] {
		s.mu.Unlock()
		return 0, ErrStartInFlight
	}
	s.starting[userID] = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.starting, userID)
		s.mu.Unlock()
	}()

	id, err := s.client.StartConversation(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("start conversation with user %d: %w", userID, err)
	}
	s.engine.Kick(poll.TaskConversations)
	s.engine.Kick(poll.TaskUnread)
	return id, nil
}

// RefreshNotifications requests an immediate notifications poll, used
// when the notifications tab becomes visible.
func (s *Session) RefreshNotifications() {
	s.engine.Kick(poll.TaskNotifications)
}

// MarkNotificationRead marks one notification read on the server and
// mirrors it locally.
func (s *Session) MarkNotificationRead(ctx context.Context, id int64) error {
	if err := s.client.MarkNotificationRead(ctx, id); err != nil {
		return err
	}
	if err := s.db.MarkNotificationRead(id); err != nil {
		return err
	}
	s.bus.Emit(bus.KindNotificationsUpdated, id)
	return nil
}

// MarkAllNotificationsRead marks every notification read.
func (s *Session) MarkAllNotificationsRead(ctx context.Context) error {
	if err := s.client.MarkAllNotificationsRead(ctx); err != nil {
		return err
	}
	if err := s.db.MarkAllNotificationsRead(); err != nil {
		return err
	}
	s.bus.Emit(bus.KindNotificationsUpdated, 0)
	return nil
}

// DeleteNotification removes a notification on the server and locally.
func (s *Session) DeleteNotification(ctx context.Context, id int64) error {
	if err := s.client.DeleteNotification(ctx, id); err != nil {
		return err
	}
	if err := s.db.DeleteNotification(id); err != nil {
		return err
	}
	s.bus.Emit(bus.KindNotificationsUpdated, id)
	return nil
}

// AdminDirectMessage injects a system message into the admin's
// conversation with the given user. Requires an admin token; the
// server enforces it.
func (s *Session) AdminDirectMessage(ctx context.Context, userID int64, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyMessage
	}
	if err := s.client.AdminMessage(ctx, userID, text); err != nil {
		return fmt.Errorf("admin message to user %d: %w", userID, err)
	}
	s.engine.Kick(poll.TaskConversations)
	return nil
}

// Broadcast publishes a site-wide announcement.
func (s *Session) Broadcast(ctx context.Context, title, content string) error {
	if strings.TrimSpace(title) == "" || strings.TrimSpace(content) == "" {
		return errors.New("announcement needs a title and content")
	}
	return s.client.Broadcast(ctx, title, content)
}

// QuickMessage sends a typed notification to one or more recipients.
// Title, content, a known type and at least one recipient are all
// required; validation happens before the network call. A second
// submit is rejected while one is in flight.
func (s *Session) QuickMessage(ctx context.Context, title, content, msgType string, recipients []int64) error {
	if strings.TrimSpace(title) == "" || strings.TrimSpace(content) == "" {
		return errors.New("quick message needs a title and content")
	}
	if !slices.Contains(QuickMessageTypes, msgType) {
		return fmt.Errorf("unknown quick message type %q", msgType)
	}
	if len(recipients) == 0 {
		return errors.New("quick message needs at least one recipient")
	}

	s.mu.Lock()
	if s.quickBusy {
		s.mu.Unlock()
		return ErrQuickInFlight
	}
	s.quickBusy = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.quickBusy = false
		s.mu.Unlock()
	}()

	return s.client.QuickMessage(ctx, title, content, msgType, recipients)
}

// Announcements returns the latest and older active announcements.
func (s *Session) Announcements(ctx context.Context) (*rest.Announcement, []rest.Announcement, error) {
	return s.client.Announcements(ctx)
}

// Search runs a full-text search over the mirrored message history.
func (s *Session) Search(query string, conversationID int64, limit int) ([]store.SearchResult, error) {
	return s.db.SearchMessages(query, conversationID, limit)
}

// SendLog returns journaled send attempts, newest first.
func (s *Session) SendLog(conversationID int64, limit int) ([]store.SendAttempt, error) {
	return s.db.ListSendAttempts(conversationID, limit)
}
