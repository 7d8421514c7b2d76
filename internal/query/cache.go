package query

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/cleohq/cleo/internal/types"
)

// Cache is an optional, reconstructible SQLite index accelerating list/find
// /statistics over large stores. Rebuild repopulates it wholesale from the
// canonical JSON store and stamps the store's `_meta.generation`, which
// Generation reports back; nothing in this module opens, rebuilds or
// invalidates it, and List, Find and the statistics read the JSON store
// directly. It is never an authority, only an acceleration layer (§4.13).
type Cache struct {
	db *sql.DB
}

// OpenCache opens (creating if absent) the cache database at path, typically
// <store>/.cache/index.db.
func OpenCache(ctx context.Context, path string) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open query cache: %w", err)
	}
	c := &Cache{db: db}
	if err := c.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

func (c *Cache) migrate(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS cache_meta (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS tasks (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	status TEXT NOT NULL,
	priority TEXT NOT NULL,
	phase TEXT,
	parent_id TEXT,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);
CREATE INDEX IF NOT EXISTS idx_tasks_parent ON tasks(parent_id);
`
	_, err := c.db.ExecContext(ctx, schema)
	return err
}

// Generation reads the generation this cache was last built from, or -1 if
// the cache has never been built.
func (c *Cache) Generation(ctx context.Context) (int64, error) {
	var v string
	err := c.db.QueryRowContext(ctx, `SELECT value FROM cache_meta WHERE key = 'generation'`).Scan(&v)
	if err == sql.ErrNoRows {
		return -1, nil
	}
	if err != nil {
		return -1, err
	}
	var gen int64
	if _, err := fmt.Sscanf(v, "%d", &gen); err != nil {
		return -1, err
	}
	return gen, nil
}

// Rebuild truncates and repopulates the index from tasks, stamping
// generation. Callers invoke this only after detecting a generation drift;
// the JSON store remains authoritative throughout.
func (c *Cache) Rebuild(ctx context.Context, tasks []*types.Task, generation int64) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM tasks`); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO tasks (id, title, status, priority, phase, parent_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, t := range tasks {
		if _, err := stmt.ExecContext(ctx, t.ID, t.Title, string(t.Status), string(t.Priority), t.Phase, t.ParentID,
			t.CreatedAt.UTC().Format("2006-01-02T15:04:05.999999999Z07:00"),
			t.UpdatedAt.UTC().Format("2006-01-02T15:04:05.999999999Z07:00")); err != nil {
			return err
		}
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO cache_meta (key, value) VALUES ('generation', ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, fmt.Sprintf("%d", generation)); err != nil {
		return err
	}
	return tx.Commit()
}

// CountByStatus runs an indexed per-status aggregate directly in SQLite
// over the tasks written by the last Rebuild.
func (c *Cache) CountByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM tasks GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		out[status] = n
	}
	return out, rows.Err()
}

// Close releases the underlying database handle.
func (c *Cache) Close() error {
	return c.db.Close()
}
