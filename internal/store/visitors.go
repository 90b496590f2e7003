package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// timeLayout keeps stored timestamps in UTC and lexically sortable.
const timeLayout = "2006-01-02 15:04:05"

// Retention is how long visitor rows are kept.
const Retention = 365 * 24 * time.Hour

// Visitor is one tracked page view.
type Visitor struct {
	ID        int64     `json:"id"`
	HashedIP  string    `json:"hashed_ip"`
	UserAgent string    `json:"user_agent"`
	Path      string    `json:"path"`
	Timestamp time.Time `json:"timestamp"`
}

// Stats summarises site activity for the admin dashboard.
type Stats struct {
	TotalVisitors    int64     `json:"total_visitors"`
	UniqueVisitors   int64     `json:"unique_visitors"`
	VisitorsToday    int64     `json:"visitors_today"`
	VisitorsThisWeek int64     `json:"visitors_this_week"`
	TotalMessages    int64     `json:"total_messages"`
	TopPaths         []PathHit `json:"top_paths"`
	RecentVisitors   []Visitor `json:"recent_visitors"`
	RecentMessages   []Message `json:"recent_messages"`
}

// PathHit counts views of one path.
type PathHit struct {
	Path  string `json:"path"`
	Views int64  `json:"views"`
}

// Hasher turns client IPs into stable, salted digests.
type Hasher struct {
	salt string
}

func NewHasher(salt string) Hasher { return Hasher{salt: salt} }

// Hash returns a truncated salted SHA-256 of ip.
func (h Hasher) Hash(ip string) string {
	sum := sha256.Sum256([]byte(ip + h.salt))
	return hex.EncodeToString(sum[:])[:16]
}

// RecordVisit stores a page view. The caller passes the already hashed IP.
func (d *DB) RecordVisit(ctx context.Context, hashedIP, userAgent, path string, at time.Time) error {
	_, err := d.ExecContext(ctx, `
		INSERT INTO visitors (hashed_ip, user_agent, path, timestamp)
		VALUES (?, ?, ?, ?)`,
		hashedIP, userAgent, path, at.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("record visit: %w", err)
	}
	return nil
}

// Cleanup removes visitor rows older than Retention and reports how many
// were deleted.
func (d *DB) Cleanup(ctx context.Context, now time.Time) (int64, error) {
	cutoff := now.Add(-Retention).UTC().Format(timeLayout)
	res, err := d.ExecContext(ctx, `DELETE FROM visitors WHERE timestamp < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("cleanup visitors: %w", err)
	}
	return res.RowsAffected()
}

// RecentVisitors returns the latest page views, newest first.
func (d *DB) RecentVisitors(ctx context.Context, limit int) ([]Visitor, error) {
	rows, err := d.QueryContext(ctx, `
		SELECT id, hashed_ip, COALESCE(user_agent, ''), COALESCE(path, ''), timestamp
		FROM visitors
		ORDER BY timestamp DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query visitors: %w", err)
	}
	defer rows.Close()

	var out []Visitor
	for rows.Next() {
		var v Visitor
		var ts string
		if err := rows.Scan(&v.ID, &v.HashedIP, &v.UserAgent, &v.Path, &ts); err != nil {
			return nil, fmt.Errorf("scan visitor: %w", err)
		}
		v.Timestamp = parseTime(ts)
		out = append(out, v)
	}
	return out, rows.Err()
}

// Stats gathers dashboard numbers relative to now.
func (d *DB) Stats(ctx context.Context, now time.Time) (*Stats, error) {
	stats := &Stats{}
	now = now.UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).Format(timeLayout)
	week := now.Add(-7 * 24 * time.Hour).Format(timeLayout)

	counts := []struct {
		dst   *int64
		query string
		args  []any
	}{
		{&stats.TotalVisitors, `SELECT COUNT(*) FROM visitors`, nil},
		{&stats.UniqueVisitors, `SELECT COUNT(DISTINCT hashed_ip) FROM visitors`, nil},
		{&stats.VisitorsToday, `SELECT COUNT(*) FROM visitors WHERE timestamp >= ?`, []any{today}},
		{&stats.VisitorsThisWeek, `SELECT COUNT(*) FROM visitors WHERE timestamp >= ?`, []any{week}},
		{&stats.TotalMessages, `SELECT COUNT(*) FROM messages`, nil},
	}
	for _, c := range counts {
		if err := d.QueryRowContext(ctx, c.query, c.args...).Scan(c.dst); err != nil {
			return nil, fmt.Errorf("stats: %w", err)
		}
	}

	rows, err := d.QueryContext(ctx, `
		SELECT COALESCE(path, ''), COUNT(*) AS views
		FROM visitors
		GROUP BY path
		ORDER BY views DESC, path
		LIMIT 10`)
	if err != nil {
		return nil, fmt.Errorf("stats top paths: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var h PathHit
		if err := rows.Scan(&h.Path, &h.Views); err != nil {
			return nil, fmt.Errorf("scan path: %w", err)
		}
		stats.TopPaths = append(stats.TopPaths, h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if stats.RecentVisitors, err = d.RecentVisitors(ctx, 50); err != nil {
		return nil, err
	}
	if stats.RecentMessages, err = d.RecentMessages(ctx, 20); err != nil {
		return nil, err
	}
	return stats, nil
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
