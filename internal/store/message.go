package store

import "time"

// UpsertMessage inserts or updates a message by its server id.
func (db *DB) UpsertMessage(m *Message) error {
	_, err := db.Exec(`
		INSERT INTO messages (id, conversation_id, sender_id, sender_name, body,
			message_type, is_read, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			sender_name = excluded.sender_name,
			body = excluded.body,
			is_read = excluded.is_read`,
		m.ID, m.ConversationID, m.SenderID, m.SenderName, m.Body,
		m.MessageType, m.IsRead, m.CreatedAt)
	return err
}

// ListMessages returns messages for a conversation using keyset
// pagination by timestamp, newest first. Callers reverse for display.
func (db *DB) ListMessages(conversationID int64, beforeTs int64, limit int) ([]Message, error) {
	if limit <= 0 {
		limit = 100
	}
	if beforeTs <= 0 {
		beforeTs = time.Now().UnixMilli() + 1
	}
	rows, err := db.Query(`
		SELECT id, conversation_id, sender_id, sender_name, body, message_type, is_read, created_at
		FROM messages
		WHERE conversation_id = ? AND created_at < ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, conversationID, beforeTs, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var msgs []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.SenderName,
			&m.Body, &m.MessageType, &m.IsRead, &m.CreatedAt); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// LatestMessageAt returns the newest message timestamp in a
// conversation, 0 if the conversation has no messages locally.
func (db *DB) LatestMessageAt(conversationID int64) (int64, error) {
	var ts int64
	err := db.QueryRow(`
		SELECT COALESCE(MAX(created_at), 0) FROM messages WHERE conversation_id = ?`,
		conversationID).Scan(&ts)
	return ts, err
}
