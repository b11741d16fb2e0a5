// Package poll drives periodic refresh of server-side chat state into
// the local mirror. The server has no push channel, so every remote
// change becomes visible only through these loops.
package poll

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/skillswap/swapchat/internal/bus"
	"github.com/skillswap/swapchat/internal/rest"
	"github.com/skillswap/swapchat/internal/store"
)

// Task names, used to kick an immediate refresh out of band.
const (
	TaskUnread        = "unread"
	TaskConversations = "conversations"
	TaskActive        = "active"
	TaskUsers         = "users"
	TaskNotifications = "notifications"
)

// Intervals configures the refresh cadences.
type Intervals struct {
	Unread        time.Duration
	Conversations time.Duration
	Notifications time.Duration
}

// Engine owns the polling loops. Each task runs in its own goroutine
// on its own ticker; results are last-write-wins into the store, and
// failures are logged and swallowed so one bad cycle never kills the
// loop.
type Engine struct {
	client    *rest.Client
	db        *store.DB
	bus       *bus.Bus
	logger    *zap.Logger
	intervals Intervals

	mu         sync.Mutex
	activeConv int64
	lastUnread int

	kicks  map[string]chan struct{}
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewEngine creates a polling engine.
func NewEngine(client *rest.Client, db *store.DB, b *bus.Bus, logger *zap.Logger, intervals Intervals) *Engine {
	kicks := make(map[string]chan struct{})
	for _, task := range []string{TaskUnread, TaskConversations, TaskActive, TaskUsers, TaskNotifications} {
		kicks[task] = make(chan struct{}, 1)
	}
	return &Engine{
		client:     client,
		db:         db,
		bus:        b,
		logger:     logger,
		intervals:  intervals,
		lastUnread: -1,
		kicks:      kicks,
	}
}

// Start launches the polling loops. Each loop fires once immediately.
func (e *Engine) Start(ctx context.Context) {
	ctx, e.cancel = context.WithCancel(ctx)

	e.loop(ctx, TaskUnread, e.intervals.Unread, e.refreshUnread)
	e.loop(ctx, TaskConversations, e.intervals.Conversations, e.refreshConversations)
	e.loop(ctx, TaskActive, e.intervals.Conversations, e.refreshActive)
	e.loop(ctx, TaskNotifications, e.intervals.Notifications, e.refreshNotifications)
	// The directory changes rarely; refresh once at start and on kick.
	e.loop(ctx, TaskUsers, 0, e.refreshUsers)
}

// Stop cancels all loops and waits for them to finish.
func (e *Engine) Stop() {
	if e.cancel != nil {
		e.cancel()
	}
	e.wg.Wait()
}

// Kick requests an immediate out-of-band refresh of one task.
// Coalesces if a kick is already pending.
func (e *Engine) Kick(task string) {
	ch, ok := e.kicks[task]
	if !ok {
		return
	}
	select {
	case ch <- struct{}{}:
	default:
	}
}

// SetActiveConversation points the active-conversation loop at a
// conversation. Zero clears it. The loop refreshes immediately.
func (e *Engine) SetActiveConversation(id int64) {
	e.mu.Lock()
	e.activeConv = id
	e.mu.Unlock()
	if id != 0 {
		e.Kick(TaskActive)
	}
}

func (e *Engine) loop(ctx context.Context, task string, interval time.Duration, fn func(context.Context) error) {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()

		run := func() {
			if err := fn(ctx); err != nil {
				if ctx.Err() != nil {
					return
				}
				e.logger.Warn("poll cycle failed", zap.String("task", task), zap.Error(err))
				e.bus.Emit(bus.KindPollError, task)
			}
		}

		run()

		var tick <-chan time.Time
		if interval > 0 {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			tick = ticker.C
		}
		for {
			select {
			case <-tick:
				run()
			case <-e.kicks[task]:
				run()
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (e *Engine) refreshUnread(ctx context.Context) error {
	n, err := e.client.UnreadCount(ctx)
	if err != nil {
		return err
	}
	e.mu.Lock()
	changed := n != e.lastUnread
	e.lastUnread = n
	e.mu.Unlock()

	if changed {
		e.bus.Emit(bus.KindUnreadChanged, n)
	}
	return nil
}

func (e *Engine) refreshConversations(ctx context.Context) error {
	convs, err := e.client.Conversations(ctx)
	if err != nil {
		return err
	}

	keep := make([]int64, 0, len(convs))
	for i := range convs {
		c := &convs[i]
		keep = append(keep, c.ID)
		if err := e.db.UpsertConversation(&store.Conversation{
			ID:                c.ID,
			OtherUserID:       c.OtherUserID,
			OtherUserName:     c.OtherUserName,
			OtherUserPhoto:    c.OtherUserPhoto,
			OtherUserLocation: c.OtherUserLocation,
			OtherUserBio:      c.OtherUserBio,
			UnreadCount:       c.UnreadCount,
			LastMessage:       c.LastMessage,
			LastMessageAt:     c.LastMessageAt.UnixMilli(),
			CreatedAt:         c.CreatedAt.UnixMilli(),
		}); err != nil {
			return err
		}
	}
	if err := e.db.PruneConversations(keep); err != nil {
		return err
	}

	e.bus.Emit(bus.KindConversationsUpdated, len(convs))
	return nil
}

func (e *Engine) refreshActive(ctx context.Context) error {
	e.mu.Lock()
	id := e.activeConv
	e.mu.Unlock()
	if id == 0 {
		return nil
	}

	before, err := e.db.LatestMessageAt(id)
	if err != nil {
		return err
	}

	conv, msgs, err := e.client.Conversation(ctx, id)
	if err != nil {
		if rest.IsNotFound(err) {
			// The conversation disappeared server-side. Stop polling
			// it; the next list refresh prunes the mirror row.
			e.SetActiveConversation(0)
			e.Kick(TaskConversations)
			return nil
		}
		return err
	}
	if err := IngestConversation(e.db, conv, msgs); err != nil {
		return err
	}
	// The server marked the peer's messages read when we fetched;
	// mirror that locally so the badge math agrees.
	if err := e.db.MarkConversationRead(id); err != nil {
		return err
	}

	after, err := e.db.LatestMessageAt(id)
	if err != nil {
		return err
	}
	if after > before {
		e.bus.Emit(bus.KindMessageAppended, id)
	}
	return nil
}

func (e *Engine) refreshUsers(ctx context.Context) error {
	users, err := e.client.Users(ctx)
	if err != nil {
		return err
	}
	for i := range users {
		u := &users[i]
		if err := e.db.UpsertUser(&store.User{
			ID:       u.ID,
			Name:     u.Name,
			Photo:    u.Photo,
			Location: u.Location,
			Bio:      u.Bio,
		}); err != nil {
			return err
		}
	}
	e.bus.Emit(bus.KindUsersUpdated, len(users))
	return nil
}

func (e *Engine) refreshNotifications(ctx context.Context) error {
	notifs, err := e.client.Notifications(ctx)
	if err != nil {
		return err
	}
	for i := range notifs {
		n := &notifs[i]
		if err := e.db.UpsertNotification(&store.Notification{
			ID:        n.ID,
			Title:     n.Title,
			Body:      n.Body,
			Type:      n.Type,
			IsRead:    bool(n.IsRead),
			CreatedAt: n.CreatedAt.UnixMilli(),
		}); err != nil {
			return err
		}
	}
	e.bus.Emit(bus.KindNotificationsUpdated, len(notifs))

	// Announcements share the notifications surface; the latest active
	// one is pinned above the per-user rows.
	latest, _, err := e.client.Announcements(ctx)
	if err != nil {
		return err
	}
	e.bus.Emit(bus.KindAnnouncementsUpdated, latest)
	return nil
}

// IngestConversation writes one conversation header and its messages
// into the mirror. Shared with the chat session, which ingests the
// same payload when a conversation is opened interactively.
func IngestConversation(db *store.DB, conv *rest.Conversation, msgs []rest.Message) error {
	if conv != nil && conv.ID != 0 {
		existing, err := db.GetConversation(conv.ID)
		if err != nil {
			return err
		}
		c := &store.Conversation{
			ID:                conv.ID,
			OtherUserID:       conv.OtherUserID,
			OtherUserName:     conv.OtherUserName,
			OtherUserPhoto:    conv.OtherUserPhoto,
			OtherUserLocation: conv.OtherUserLocation,
			OtherUserBio:      conv.OtherUserBio,
		}
		// The detail payload omits counters and previews; keep what
		// the list poll already wrote.
		if existing != nil {
			c.UnreadCount = existing.UnreadCount
			c.LastMessage = existing.LastMessage
			c.LastMessageAt = existing.LastMessageAt
			c.CreatedAt = existing.CreatedAt
		}
		if err := db.UpsertConversation(c); err != nil {
			return err
		}
	}
	for i := range msgs {
		m := &msgs[i]
		if err := db.UpsertMessage(&store.Message{
			ID:             m.ID,
			ConversationID: m.ConversationID,
			SenderID:       m.SenderID,
			SenderName:     m.SenderName,
			Body:           m.Body,
			MessageType:    m.MessageType,
			IsRead:         bool(m.IsRead),
			CreatedAt:      m.CreatedAt.UnixMilli(),
		}); err != nil {
			return err
		}
	}
	return nil
}
