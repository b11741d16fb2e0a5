package store

// Conversation is the local mirror of a server conversation row.
// Timestamps are unix milliseconds.
type Conversation struct {
	ID                int64
	OtherUserID       int64
	OtherUserName     string
	OtherUserPhoto    string
	OtherUserLocation string
	OtherUserBio      string
	UnreadCount       int
	LastMessage       string
	LastMessageAt     int64
	CreatedAt         int64
}

// Message is the local mirror of a chat message.
type Message struct {
	ID             int64
	ConversationID int64
	SenderID       int64
	SenderName     string
	Body           string
	MessageType    string
	IsRead         bool
	CreatedAt      int64
}

// User is a directory entry.
type User struct {
	ID       int64
	Name     string
	Photo    string
	Location string
	Bio      string
}

// Notification mirrors a server notification.
type Notification struct {
	ID        int64
	Title     string
	Body      string
	Type      string
	IsRead    bool
	CreatedAt int64
}

// SendAttempt is one entry of the local send journal. Status is
// sending, sent or failed; failed entries keep the error message so a
// user can see why a send never arrived.
type SendAttempt struct {
	ID             int64
	ClientID       string
	ConversationID int64
	Body           string
	Status         string
	ErrorMessage   string
	ServerMsgID    int64
	CreatedAt      int64
}

// SearchResult holds a message with a search snippet.
type SearchResult struct {
	Message Message
	Snippet string
}
