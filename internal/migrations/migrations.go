package migrations

import (
	"database/sql"
	"fmt"
)

// Migration represents a single database migration
type Migration struct {
	Version int
	Name    string
	Up      string
	Down    string
}

// AllMigrations contains all database migrations in order
var AllMigrations = []Migration{
	{
		Version: 1,
		Name:    "Add ordering indices",
		Up: `
			CREATE INDEX IF NOT EXISTS idx_pinned_feeds_position ON pinned_feeds(position);
			CREATE INDEX IF NOT EXISTS idx_drafts_updated_at ON drafts(updated_at DESC);
		`,
		Down: `
			DROP INDEX IF EXISTS idx_pinned_feeds_position;
			DROP INDEX IF EXISTS idx_drafts_updated_at;
		`,
	},
	{
		Version: 2,
		Name:    "Add sent posts lookup by reply parent",
		Up: `
			CREATE INDEX IF NOT EXISTS idx_sent_posts_reply_to ON sent_posts(reply_to);
		`,
		Down: `
			DROP INDEX IF EXISTS idx_sent_posts_reply_to;
		`,
	},
	{
		Version: 3,
		Name:    "Drop empty drafts",
		Up: `
			DELETE FROM drafts WHERE TRIM(text) = '';
		`,
		Down: `
			-- Cannot restore deleted data
		`,
	},
}

// InitSchema creates all tables required across all modules
// This must be called before running migrations to ensure all tables exist
func InitSchema(db *sql.DB) error {
	schema := `
	-- Feeds pinned locally, shown on the pinned screen
	CREATE TABLE IF NOT EXISTS pinned_feeds (
		feed_id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		uri TEXT,
		display_name TEXT NOT NULL,
		creator TEXT,
		description TEXT,
		position INTEGER NOT NULL,
		pinned_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	-- Unsent composer content, keyed by what the post replies to or quotes
	CREATE TABLE IF NOT EXISTS drafts (
		draft_key TEXT PRIMARY KEY,
		text TEXT NOT NULL,
		facets TEXT,
		reply_to TEXT,
		root TEXT,
		quote TEXT,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	-- Posts created from this client
	CREATE TABLE IF NOT EXISTS sent_posts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		uri TEXT NOT NULL,
		cid TEXT NOT NULL,
		text TEXT NOT NULL,
		reply_to TEXT,
		created_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_sent_posts_created_at ON sent_posts(created_at DESC);
	`

	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	return nil
}

// Run executes all pending migrations on the database
func Run(db *sql.DB) error {
	// Initialize schema first to ensure all tables exist
	if err := InitSchema(db); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	// Create migrations tracking table if it doesn't exist
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	currentVersion, err := GetCurrentVersion(db)
	if err != nil {
		return fmt.Errorf("failed to get current migration version: %w", err)
	}

	// Apply pending migrations, each in its own transaction
	for _, migration := range AllMigrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin migration %d: %w", migration.Version, err)
		}

		if _, err := tx.Exec(migration.Up); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to apply migration %d (%s): %w", migration.Version, migration.Name, err)
		}

		if _, err := tx.Exec(
			"INSERT INTO schema_migrations (version, name) VALUES (?, ?)",
			migration.Version,
			migration.Name,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}
	}

	return nil
}

// GetCurrentVersion returns the current database schema version
func GetCurrentVersion(db *sql.DB) (int, error) {
	var version int
	err := db.QueryRow(`
		SELECT COALESCE(MAX(version), 0)
		FROM schema_migrations
	`).Scan(&version)
	if err != nil && err != sql.ErrNoRows {
		return 0, err
	}
	return version, nil
}

// Latest returns the version of the newest migration
func Latest() int {
	if len(AllMigrations) == 0 {
		return 0
	}
	return AllMigrations[len(AllMigrations)-1].Version
}
