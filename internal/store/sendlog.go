package store

import "time"

// Send attempt statuses.
const (
	SendStatusSending = "sending"
	SendStatusSent    = "sent"
	SendStatusFailed  = "failed"
)

// RecordSendAttempt journals an outgoing message before the network
// call so a crash mid-send leaves a trace.
func (db *DB) RecordSendAttempt(clientID string, conversationID int64, body string) error {
	now := time.Now().UnixMilli()
	_, err := db.Exec(`
		INSERT INTO sendlog (client_id, conversation_id, body, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		clientID, conversationID, body, SendStatusSending, now, now)
	return err
}

// MarkSendSent records a successful delivery with the server message id.
func (db *DB) MarkSendSent(clientID string, serverMsgID int64) error {
	_, err := db.Exec(`
		UPDATE sendlog SET status = ?, server_msg_id = ?, updated_at = ?
		WHERE client_id = ?`,
		SendStatusSent, serverMsgID, time.Now().UnixMilli(), clientID)
	return err
}

// MarkSendFailed records a failed delivery. The message stays in the
// journal for inspection; there is no automatic retry.
func (db *DB) MarkSendFailed(clientID string, errorMessage string) error {
	_, err := db.Exec(`
		UPDATE sendlog SET status = ?, error_message = ?, updated_at = ?
		WHERE client_id = ?`,
		SendStatusFailed, errorMessage, time.Now().UnixMilli(), clientID)
	return err
}

// ListSendAttempts returns journal entries newest first. A zero
// conversationID lists across all conversations.
func (db *DB) ListSendAttempts(conversationID int64, limit int) ([]SendAttempt, error) {
	if limit <= 0 {
		limit = 50
	}
	q := `
		SELECT id, client_id, conversation_id, body, status, error_message, server_msg_id, created_at
		FROM sendlog`
	var args []any
	if conversationID != 0 {
		q += ` WHERE conversation_id = ?`
		args = append(args, conversationID)
	}
	q += ` ORDER BY created_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []SendAttempt
	for rows.Next() {
		var a SendAttempt
		if err := rows.Scan(&a.ID, &a.ClientID, &a.ConversationID, &a.Body,
			&a.Status, &a.ErrorMessage, &a.ServerMsgID, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
