package store

import (
	"context"
	"database/sql"
	"fmt"
)

const latestVersion = 1

// migrator applies versioned schema migrations, recording the current
// version in schema_migrations.
type migrator struct{}

func (m migrator) ensureTable(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (version INTEGER NOT NULL);`)
	if err != nil {
		return err
	}
	var cnt int
	_ = db.QueryRowContext(ctx, `SELECT COUNT(1) FROM schema_migrations`).Scan(&cnt)
	if cnt == 0 {
		_, err = db.ExecContext(ctx, `INSERT INTO schema_migrations(version) VALUES(0)`)
	}
	return err
}

func (m migrator) version(ctx context.Context, db *sql.DB) (int, error) {
	if err := m.ensureTable(ctx, db); err != nil {
		return 0, err
	}
	var v int
	if err := db.QueryRowContext(ctx, `SELECT version FROM schema_migrations`).Scan(&v); err != nil {
		return 0, err
	}
	return v, nil
}

func (m migrator) upToLatest(ctx context.Context, db *sql.DB) error {
	cur, err := m.version(ctx, db)
	if err != nil {
		return err
	}
	for v := cur + 1; v <= latestVersion; v++ {
		if err := m.up(ctx, db, v); err != nil {
			return fmt.Errorf("migrate up to v%d: %w", v, err)
		}
		if _, err := db.ExecContext(ctx, `UPDATE schema_migrations SET version=?`, v); err != nil {
			return err
		}
	}
	return nil
}

func (m migrator) up(ctx context.Context, db *sql.DB, v int) error {
	var stmts []string
	switch v {
	case 1:
		stmts = []string{
			`CREATE TABLE IF NOT EXISTS sessions (
				id TEXT PRIMARY KEY,
				created_at TEXT NOT NULL
			);`,
			`CREATE TABLE IF NOT EXISTS chat_messages (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				session_id TEXT NOT NULL,
				role TEXT NOT NULL,
				content TEXT NOT NULL,
				created_at TEXT NOT NULL
			);`,
			`CREATE INDEX IF NOT EXISTS idx_chat_messages_session ON chat_messages(session_id);`,
			`CREATE TABLE IF NOT EXISTS quiz_scores (
				session_id TEXT NOT NULL,
				category TEXT NOT NULL,
				score INTEGER NOT NULL,
				total INTEGER NOT NULL,
				percentage REAL NOT NULL,
				date TEXT NOT NULL,
				PRIMARY KEY (session_id, category)
			);`,
		}
	default:
		return fmt.Errorf("unknown migration version %d", v)
	}
	for _, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return err
		}
	}
	return nil
}
