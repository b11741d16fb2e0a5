package store

// UpsertNotification inserts or updates a notification by server id.
func (db *DB) UpsertNotification(n *Notification) error {
	_, err := db.Exec(`
		INSERT INTO notifications (id, title, body, type, is_read, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			body = excluded.body,
			type = excluded.type,
			is_read = excluded.is_read`,
		n.ID, n.Title, n.Body, n.Type, n.IsRead, n.CreatedAt)
	return err
}

// ListNotifications returns notifications newest first.
func (db *DB) ListNotifications(limit int) ([]Notification, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := db.Query(`
		SELECT id, title, body, type, is_read, created_at
		FROM notifications
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.Title, &n.Body, &n.Type, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// MarkNotificationRead flips one notification to read.
func (db *DB) MarkNotificationRead(id int64) error {
	_, err := db.Exec(`UPDATE notifications SET is_read = 1 WHERE id = ?`, id)
	return err
}

// MarkAllNotificationsRead flips every notification to read.
func (db *DB) MarkAllNotificationsRead() error {
	_, err := db.Exec(`UPDATE notifications SET is_read = 1`)
	return err
}

// DeleteNotification removes one notification.
func (db *DB) DeleteNotification(id int64) error {
	_, err := db.Exec(`DELETE FROM notifications WHERE id = ?`, id)
	return err
}

// UnreadNotificationCount returns the number of unread notifications.
func (db *DB) UnreadNotificationCount() (int, error) {
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM notifications WHERE is_read = 0`).Scan(&n)
	return n, err
}
