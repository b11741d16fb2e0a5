package store

import (
	"database/sql"
	"time"
)

// UpsertUser inserts or updates a directory entry.
func (db *DB) UpsertUser(u *User) error {
	now := time.Now().UnixMilli()
	_, err := db.Exec(`
		INSERT INTO users (id, name, photo, location, bio, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			photo = excluded.photo,
			location = excluded.location,
			bio = excluded.bio,
			updated_at = excluded.updated_at`,
		u.ID, u.Name, u.Photo, u.Location, u.Bio, now)
	return err
}

// ListUsers returns directory entries ordered by name. A non-empty
// filter restricts to names containing it, case-insensitively.
func (db *DB) ListUsers(filter string) ([]User, error) {
	q := `SELECT id, name, photo, location, bio FROM users`
	var args []any
	if filter != "" {
		q += ` WHERE name LIKE ? COLLATE NOCASE`
		args = append(args, "%"+filter+"%")
	}
	q += ` ORDER BY name COLLATE NOCASE ASC`

	rows, err := db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Name, &u.Photo, &u.Location, &u.Bio); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// GetUser returns one directory entry by id, nil if absent.
func (db *DB) GetUser(id int64) (*User, error) {
	var u User
	err := db.QueryRow(`SELECT id, name, photo, location, bio FROM users WHERE id = ?`, id).
		Scan(&u.ID, &u.Name, &u.Photo, &u.Location, &u.Bio)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
