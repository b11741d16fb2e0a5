package store

import (
	"database/sql"
	"time"
)

// UpsertConversation inserts or updates a conversation by its server id.
func (db *DB) UpsertConversation(c *Conversation) error {
	now := time.Now().UnixMilli()
	_, err := db.Exec(`
		INSERT INTO conversations (id, other_user_id, other_user_name, other_user_photo,
			other_user_location, other_user_bio, unread_count, last_message,
			last_message_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			other_user_name = excluded.other_user_name,
			other_user_photo = excluded.other_user_photo,
			other_user_location = excluded.other_user_location,
			other_user_bio = excluded.other_user_bio,
			unread_count = excluded.unread_count,
			last_message = excluded.last_message,
			last_message_at = excluded.last_message_at,
			updated_at = excluded.updated_at`,
		c.ID, c.OtherUserID, c.OtherUserName, c.OtherUserPhoto,
		c.OtherUserLocation, c.OtherUserBio, c.UnreadCount, c.LastMessage,
		c.LastMessageAt, c.CreatedAt, now)
	return err
}

// ListConversations returns conversations sorted by last message timestamp descending.
func (db *DB) ListConversations(limit, offset int) ([]Conversation, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.Query(`
		SELECT id, other_user_id, other_user_name, other_user_photo,
			other_user_location, other_user_bio, unread_count, last_message,
			last_message_at, created_at
		FROM conversations
		ORDER BY last_message_at DESC, id DESC
		LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var convs []Conversation
	for rows.Next() {
		var c Conversation
		if err := rows.Scan(&c.ID, &c.OtherUserID, &c.OtherUserName, &c.OtherUserPhoto,
			&c.OtherUserLocation, &c.OtherUserBio, &c.UnreadCount, &c.LastMessage,
			&c.LastMessageAt, &c.CreatedAt); err != nil {
			return nil, err
		}
		convs = append(convs, c)
	}
	return convs, rows.Err()
}

// GetConversation returns a single conversation by id, nil if absent.
func (db *DB) GetConversation(id int64) (*Conversation, error) {
	var c Conversation
	err := db.QueryRow(`
		SELECT id, other_user_id, other_user_name, other_user_photo,
			other_user_location, other_user_bio, unread_count, last_message,
			last_message_at, created_at
		FROM conversations WHERE id = ?`, id).
		Scan(&c.ID, &c.OtherUserID, &c.OtherUserName, &c.OtherUserPhoto,
			&c.OtherUserLocation, &c.OtherUserBio, &c.UnreadCount, &c.LastMessage,
			&c.LastMessageAt, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// MarkConversationRead zeroes the unread counter and flips the peer's
// messages to read, mirroring what the server does when the
// conversation is fetched.
func (db *DB) MarkConversationRead(id int64) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UnixMilli()
	if _, err := tx.Exec(`
		UPDATE conversations SET unread_count = 0, updated_at = ? WHERE id = ?`,
		now, id); err != nil {
		return err
	}
	if _, err := tx.Exec(`
		UPDATE messages SET is_read = 1
		WHERE conversation_id = ?
		  AND sender_id = (SELECT other_user_id FROM conversations WHERE id = ?)`,
		id, id); err != nil {
		return err
	}
	return tx.Commit()
}

// TotalUnread returns the sum of unread counters across conversations.
func (db *DB) TotalUnread() (int, error) {
	var n int
	err := db.QueryRow(`SELECT COALESCE(SUM(unread_count), 0) FROM conversations`).Scan(&n)
	return n, err
}

// PruneConversations deletes local conversations not in the keep set.
// Used after a full refresh so rows removed server-side do not linger.
func (db *DB) PruneConversations(keep []int64) error {
	if len(keep) == 0 {
		_, err := db.Exec(`DELETE FROM conversations`)
		return err
	}
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`CREATE TEMP TABLE keep_ids (id INTEGER PRIMARY KEY)`); err != nil {
		return err
	}
	for _, id := range keep {
		if _, err := tx.Exec(`INSERT OR IGNORE INTO keep_ids (id) VALUES (?)`, id); err != nil {
			return err
		}
	}
	if _, err := tx.Exec(`DELETE FROM conversations WHERE id NOT IN (SELECT id FROM keep_ids)`); err != nil {
		return err
	}
	if _, err := tx.Exec(`DROP TABLE keep_ids`); err != nil {
		return err
	}
	return tx.Commit()
}
