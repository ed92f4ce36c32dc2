package store

import (
	"database/sql"
	"errors"
	"fmt"
)

// ConfigRepo stores small ancillary key-value state that doesn't belong in
// the YAML settings file. The config hash used to decide whether a job's
// output is stale is kept on the jobs table, not here.
type ConfigRepo struct {
	db *sql.DB
}

func (c *ConfigRepo) Get(key string) (string, bool, error) {
	var value string
	err := c.db.QueryRow(`SELECT value FROM config_entries WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return value, true, nil
}

func (c *ConfigRepo) Set(key, value string) error {
	_, err := c.db.Exec(`INSERT INTO config_entries (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("setting config entry: %w", err)
	}
	return nil
}
