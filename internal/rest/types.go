package rest

import (
	"fmt"
	"strings"
	"time"
)

// Timestamp wraps time.Time to accept both formats the SkillSwap server
// emits: SQL "2006-01-02 15:04:05" and ISO 8601. Null and empty decode
// to the zero time.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("unparseable timestamp %q", s)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + t.Format("2006-01-02 15:04:05") + `"`), nil
}

// Bool accepts true/false as well as the 0/1 integers SQLite-backed
// endpoints emit for flag columns.
type Bool bool

func (b *Bool) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case "true", "1":
		*b = true
	case "false", "0", "null":
		*b = false
	default:
		return fmt.Errorf("unparseable bool %q", data)
	}
	return nil
}

func (b Bool) MarshalJSON() ([]byte, error) {
	if b {
		return []byte("true"), nil
	}
	return []byte("false"), nil
}

// Conversation is one row of the conversation list. The peer's profile
// fields are denormalized into it by the server.
type Conversation struct {
	ID                int64     `json:"id"`
	OtherUserID       int64     `json:"other_user_id"`
	OtherUserName     string    `json:"other_user_name"`
	OtherUserPhoto    string    `json:"other_user_photo"`
	OtherUserLocation string    `json:"other_user_location"`
	OtherUserBio      string    `json:"other_user_bio"`
	UnreadCount       int       `json:"unread_count"`
	LastMessage       string    `json:"last_message"`
	LastMessageAt     Timestamp `json:"last_message_at"`
	CreatedAt         Timestamp `json:"created_at"`
}

// Message is a single chat message. MessageType is "text" for user
// messages and "system" for admin-injected ones.
type Message struct {
	ID             int64     `json:"id"`
	ConversationID int64     `json:"conversation_id"`
	SenderID       int64     `json:"sender_id"`
	SenderName     string    `json:"sender_name"`
	SenderPhoto    string    `json:"sender_photo"`
	Body           string    `json:"message"`
	MessageType    string    `json:"message_type"`
	IsRead         Bool      `json:"is_read"`
	CreatedAt      Timestamp `json:"created_at"`
}

// User is a directory entry: any public, non-banned member a
// conversation can be started with.
type User struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Photo    string `json:"profile_photo"`
	Location string `json:"location"`
	Bio      string `json:"bio"`
}

// Notification is a per-user notification. Type is one of info,
// success, warning, error.
type Notification struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Title     string    `json:"title"`
	Body      string    `json:"message"`
	Type      string    `json:"type"`
	IsRead    Bool      `json:"is_read"`
	CreatedAt Timestamp `json:"created_at"`
}

// Announcement is a site-wide broadcast message.
type Announcement struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	IsActive  Bool      `json:"is_active"`
	CreatedAt Timestamp `json:"created_at"`
}
