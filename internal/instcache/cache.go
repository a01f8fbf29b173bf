package instcache

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/VonTum/sus-compiler/internal/instantiate"
)

// Cache is the on-disk spill layer: one SQLite table keyed by
// (module_id, template_args_json), holding the same
// concrete_blob an in-memory Module.Instantiations.ByKey entry would hold.
// It is never consulted ahead of the in-memory cache, only behind it on a
// cold start.
type Cache struct {
	db *sql.DB
}

const schema = `CREATE TABLE IF NOT EXISTS instantiations (
	module_id INTEGER NOT NULL,
	template_args_json TEXT NOT NULL,
	concrete_blob BLOB NOT NULL,
	created_at INTEGER NOT NULL,
	PRIMARY KEY (module_id, template_args_json)
)`

// Open opens (creating if necessary) the SQLite database at path and
// ensures its schema exists.
func Open(path string) (*Cache, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("instcache: open %q: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("instcache: schema: %w", err)
	}
	return &Cache{db: db}, nil
}

// Close releases the underlying database handle.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Put spills inst into the table keyed by (moduleID, templateArgsKey),
// overwriting any prior row for the same key. templateArgsKey is the same
// string instantiate.TemplateArgsKey produces, so the two caches never
// disagree on identity.
func (c *Cache) Put(moduleID int, templateArgsKey string, inst *instantiate.Instantiation) error {
	data, err := Encode(inst)
	if err != nil {
		return err
	}
	_, err = c.db.Exec(
		`INSERT INTO instantiations (module_id, template_args_json, concrete_blob, created_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(module_id, template_args_json) DO UPDATE SET
		   concrete_blob = excluded.concrete_blob,
		   created_at = excluded.created_at`,
		moduleID, templateArgsKey, data, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("instcache: put: %w", err)
	}
	return nil
}

// Get returns the cached Instantiation for (moduleID, templateArgsKey), if
// any. A miss is not an error: ok is false and the caller falls through to
// GetOrInstantiate's normal executor path.
func (c *Cache) Get(moduleID int, templateArgsKey string) (inst *instantiate.Instantiation, ok bool, err error) {
	row := c.db.QueryRow(
		`SELECT concrete_blob FROM instantiations WHERE module_id = ? AND template_args_json = ?`,
		moduleID, templateArgsKey,
	)
	var data []byte
	if err := row.Scan(&data); err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("instcache: get: %w", err)
	}
	inst, err = Decode(data)
	if err != nil {
		return nil, false, err
	}
	return inst, true, nil
}

// InvalidateModule drops every cached row for moduleID. A module edit
// invalidates its whole instantiation set the same way the in-memory
// cache does — an edited module is treated as removed then re-added — so
// this is the one write path callers need on top of Put.
func (c *Cache) InvalidateModule(moduleID int) error {
	if _, err := c.db.Exec(`DELETE FROM instantiations WHERE module_id = ?`, moduleID); err != nil {
		return fmt.Errorf("instcache: invalidate: %w", err)
	}
	return nil
}
