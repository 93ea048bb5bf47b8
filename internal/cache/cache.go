// Package cache provides a TTL key/value store for provider enumeration
// results (lists, spaces, folders, workspaces, labels), so the
// configuration sub-searches do not hit the API on every keystroke.
package cache

import (
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Cache entry ages. Labels change rarely; the hierarchy caches use the
// provider-friendly 5 minute window.
const (
	DefaultMaxAge = 300 * time.Second
	LabelsMaxAge  = 600 * time.Second
)

// Well-known cache keys. Parent-scoped caches append the parent id,
// e.g. "lists_folder_457" or "spaces_2181159".
const (
	KeyLabels     = "availableLabels"
	KeyWorkspaces = "workspaces"

	PrefixSpaces      = "spaces_"
	PrefixFolders     = "folders_"
	PrefixListsSpace  = "lists_space_"
	PrefixListsFolder = "lists_folder_"
)

// DefaultPath returns the cache database location under the user cache
// dir, creating the directory if needed.
func DefaultPath() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	dir = filepath.Join(dir, "clickat")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return filepath.Join(dir, "cache.db"), nil
}

// Cache is a SQLite-backed TTL store.
type Cache struct {
	db  *sql.DB
	now func() time.Time
}

// New opens (or creates) the cache database at path.
func New(path string) (*Cache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	c := &Cache{db: db, now: time.Now}
	if err := c.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return c, nil
}

// initSchema creates the cache table if it doesn't exist.
func (c *Cache) initSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS cache_entries (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			created_at INTEGER NOT NULL
		);
	`
	_, err := c.db.Exec(schema)
	return err
}

// Close closes the underlying database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Get loads the entry for key into dest if it exists and is younger than
// maxAge. Returns false on miss or expiry; an expired entry is removed.
func (c *Cache) Get(key string, maxAge time.Duration, dest interface{}) (bool, error) {
	var value string
	var createdAt int64

	row := c.db.QueryRow(`SELECT value, created_at FROM cache_entries WHERE key = ?`, key)
	if err := row.Scan(&value, &createdAt); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, err
	}

	if c.now().Unix()-createdAt > int64(maxAge.Seconds()) {
		_, _ = c.db.Exec(`DELETE FROM cache_entries WHERE key = ?`, key)
		return false, nil
	}

	if err := json.Unmarshal([]byte(value), dest); err != nil {
		return false, err
	}
	return true, nil
}

// Put stores value under key, replacing any previous entry.
func (c *Cache) Put(key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	_, err = c.db.Exec(
		`INSERT INTO cache_entries (key, value, created_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, created_at = excluded.created_at`,
		key, string(data), c.now().Unix())
	return err
}

// Clear removes the named entries. Unknown keys are ignored.
func (c *Cache) Clear(keys ...string) error {
	for _, key := range keys {
		if _, err := c.db.Exec(`DELETE FROM cache_entries WHERE key = ?`, key); err != nil {
			return err
		}
	}
	return nil
}

// ClearEnumerations removes every enumeration cache (labels, workspaces,
// spaces, folders, lists) and nothing else. Persisted settings live in a
// different store and are untouched.
func (c *Cache) ClearEnumerations() error {
	if err := c.Clear(KeyLabels, KeyWorkspaces); err != nil {
		return err
	}
	for _, prefix := range []string{PrefixSpaces, PrefixFolders, PrefixListsSpace, PrefixListsFolder} {
		if _, err := c.db.Exec(`DELETE FROM cache_entries WHERE key LIKE ? || '%'`, prefix); err != nil {
			return err
		}
	}
	return nil
}
