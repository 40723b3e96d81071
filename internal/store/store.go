// Package store persists local client state in SQLite: feeds pinned on this
// machine, composer drafts and a log of posts sent from skycli.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/studiowebux/skycli/internal/migrations"
	"github.com/studiowebux/skycli/internal/types"
)

// SentPost is one post created from this client
type SentPost struct {
	URI       string
	CID       string
	Text      string
	ReplyTo   string
	CreatedAt time.Time
}

type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at dbPath and applies migrations
func Open(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := migrations.Run(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// PinFeed appends a feed to the pinned list. Pinning an already pinned feed updates its details.
func (s *Store) PinFeed(ctx context.Context, feed types.FeedDescriptor) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO pinned_feeds (feed_id, kind, uri, display_name, creator, description, position, pinned_at)
		VALUES (?, ?, ?, ?, ?, ?, (SELECT COALESCE(MAX(position), 0) + 1 FROM pinned_feeds), CURRENT_TIMESTAMP)
		ON CONFLICT(feed_id) DO UPDATE SET
			display_name = excluded.display_name,
			creator = excluded.creator,
			description = excluded.description
	`,
		string(feed.ID()),
		string(feed.Kind),
		feed.URI,
		feed.Title(),
		feed.Creator,
		feed.Description,
	)
	if err != nil {
		return fmt.Errorf("failed to pin feed: %w", err)
	}
	return nil
}

// UnpinFeed removes a feed from the pinned list; unknown feeds are ignored
func (s *Store) UnpinFeed(ctx context.Context, id types.FeedID) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM pinned_feeds WHERE feed_id = ?", string(id)); err != nil {
		return fmt.Errorf("failed to unpin feed: %w", err)
	}
	return nil
}

// PinnedFeeds returns pinned feeds in the order they were pinned
func (s *Store) PinnedFeeds(ctx context.Context) ([]types.FeedDescriptor, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT kind, COALESCE(uri, ''), display_name, COALESCE(creator, ''), COALESCE(description, '')
		FROM pinned_feeds
		ORDER BY position ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query pinned feeds: %w", err)
	}
	defer rows.Close()

	var feeds []types.FeedDescriptor
	for rows.Next() {
		var kind string
		var f types.FeedDescriptor
		if err := rows.Scan(&kind, &f.URI, &f.DisplayName, &f.Creator, &f.Description); err != nil {
			return nil, fmt.Errorf("failed to scan pinned feed: %w", err)
		}
		f.Kind = types.FeedKind(kind)
		f.Pinned = true
		feeds = append(feeds, f)
	}
	return feeds, rows.Err()
}

// IsPinned reports whether a feed is pinned
func (s *Store) IsPinned(ctx context.Context, id types.FeedID) (bool, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM pinned_feeds WHERE feed_id = ?", string(id)).Scan(&n); err != nil {
		return false, fmt.Errorf("failed to query pinned feed: %w", err)
	}
	return n > 0, nil
}

// SaveDraft stores composer content under key, replacing any previous draft
func (s *Store) SaveDraft(ctx context.Context, key string, d types.Draft) error {
	facets, err := json.Marshal(d.Facets)
	if err != nil {
		return fmt.Errorf("failed to marshal facets: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO drafts (draft_key, text, facets, reply_to, root, quote, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(draft_key) DO UPDATE SET
			text = excluded.text,
			facets = excluded.facets,
			reply_to = excluded.reply_to,
			root = excluded.root,
			quote = excluded.quote,
			updated_at = excluded.updated_at
	`,
		key,
		d.Text,
		string(facets),
		refString(d.ReplyTo),
		refString(d.Root),
		refString(d.Quote),
	)
	if err != nil {
		return fmt.Errorf("failed to save draft: %w", err)
	}
	return nil
}

// LoadDraft returns the draft stored under key
func (s *Store) LoadDraft(ctx context.Context, key string) (types.Draft, bool, error) {
	var d types.Draft
	var facets, replyTo, root, quote sql.NullString

	err := s.db.QueryRowContext(ctx, `
		SELECT text, facets, reply_to, root, quote FROM drafts WHERE draft_key = ?
	`, key).Scan(&d.Text, &facets, &replyTo, &root, &quote)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Draft{}, false, nil
	}
	if err != nil {
		return types.Draft{}, false, fmt.Errorf("failed to load draft: %w", err)
	}

	if facets.Valid && facets.String != "" && facets.String != "null" {
		if err := json.Unmarshal([]byte(facets.String), &d.Facets); err != nil {
			return types.Draft{}, false, fmt.Errorf("failed to parse draft facets: %w", err)
		}
	}
	if d.ReplyTo, err = parseRef(replyTo); err != nil {
		return types.Draft{}, false, err
	}
	if d.Root, err = parseRef(root); err != nil {
		return types.Draft{}, false, err
	}
	if d.Quote, err = parseRef(quote); err != nil {
		return types.Draft{}, false, err
	}
	return d, true, nil
}

// DeleteDraft removes the draft stored under key
func (s *Store) DeleteDraft(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM drafts WHERE draft_key = ?", key); err != nil {
		return fmt.Errorf("failed to delete draft: %w", err)
	}
	return nil
}

// RecordSent logs a post created from this client
func (s *Store) RecordSent(ctx context.Context, p SentPost) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sent_posts (uri, cid, text, reply_to, created_at) VALUES (?, ?, ?, ?, ?)
	`, p.URI, p.CID, p.Text, p.ReplyTo, p.CreatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to record sent post: %w", err)
	}
	return nil
}

// SentPosts returns the most recent sent posts, newest first
func (s *Store) SentPosts(ctx context.Context, limit int) ([]SentPost, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT uri, cid, text, COALESCE(reply_to, ''), created_at
		FROM sent_posts
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query sent posts: %w", err)
	}
	defer rows.Close()

	var posts []SentPost
	for rows.Next() {
		var p SentPost
		var createdAt int64
		if err := rows.Scan(&p.URI, &p.CID, &p.Text, &p.ReplyTo, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan sent post: %w", err)
		}
		p.CreatedAt = time.Unix(0, createdAt)
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

func refString(r *types.PostRef) any {
	if r == nil || r.IsZero() {
		return nil
	}
	data, _ := json.Marshal(r)
	return string(data)
}

func parseRef(s sql.NullString) (*types.PostRef, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	var r types.PostRef
	if err := json.Unmarshal([]byte(s.String), &r); err != nil {
		return nil, fmt.Errorf("failed to parse post reference: %w", err)
	}
	return &r, nil
}
