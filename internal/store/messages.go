package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Message is an accepted contact-form submission.
type Message struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Body      string    `json:"body"`
	Delivered bool      `json:"delivered"`
	CreatedAt time.Time `json:"created_at"`
}

// SaveMessage stores a submission and returns its new ID.
func (d *DB) SaveMessage(ctx context.Context, name, email, body string, at time.Time) (string, error) {
	id := uuid.NewString()
	_, err := d.ExecContext(ctx, `
		INSERT INTO messages (id, name, email, body, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		id, name, email, body, at.UTC().Format(timeLayout))
	if err != nil {
		return "", fmt.Errorf("save message: %w", err)
	}
	return id, nil
}

// MarkDelivered records that the message reached the owner's inbox.
func (d *DB) MarkDelivered(ctx context.Context, id string) error {
	res, err := d.ExecContext(ctx, `UPDATE messages SET delivered = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark delivered: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("mark delivered: message %s not found", id)
	}
	return nil
}

// DeleteMessage removes a message, reporting whether it existed.
func (d *DB) DeleteMessage(ctx context.Context, id string) (bool, error) {
	res, err := d.ExecContext(ctx, `DELETE FROM messages WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete message: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// RecentMessages returns the latest submissions, newest first.
func (d *DB) RecentMessages(ctx context.Context, limit int) ([]Message, error) {
	rows, err := d.QueryContext(ctx, `
		SELECT id, name, email, body, delivered, created_at
		FROM messages
		ORDER BY created_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		var m Message
		var ts string
		if err := rows.Scan(&m.ID, &m.Name, &m.Email, &m.Body, &m.Delivered, &ts); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		m.CreatedAt = parseTime(ts)
		out = append(out, m)
	}
	return out, rows.Err()
}
