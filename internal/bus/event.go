package bus

import "time"

// Event kinds published by the chat client. Subscribers filter by
// namespace prefix, e.g. "chat." receives every chat update.
const (
	KindUnreadChanged        = "chat.unread"
	KindConversationsUpdated = "chat.conversations"
	KindConversationOpened   = "chat.conversation_opened"
	KindMessageAppended      = "chat.message_appended"
	KindUsersUpdated         = "chat.users"
	KindNotificationsUpdated = "notify.updated"
	KindAnnouncementsUpdated = "notify.announcements"
	KindSendFailed           = "send.failed"
	KindSendOK               = "send.ok"
	KindShellStateChanged    = "shell.state_changed"
	KindPollError            = "poll.error"
)

// Event represents a client-side domain event published on the bus.
type Event struct {
	Kind      string
	Timestamp time.Time
	Payload   any
}
