package store

import (
	"crypto/md5"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
)

// ProviderCacheRepo caches raw search results per (provider, query) for
// provider_cache_ttl_minutes, sparing repeat searches for the same item
// across pipeline attempts (spec §4.2).
type ProviderCacheRepo struct {
	db *sql.DB
}

// QueryHash derives the cache key by hashing the input string, which callers
// build from the query's stable fields (e.g. "series|season|episode|lang").
func QueryHash(input string) string {
	sum := md5.Sum([]byte(input))
	return hex.EncodeToString(sum[:])
}

func (c *ProviderCacheRepo) Get(providerName, queryHash string) (resultsJSON string, ok bool, err error) {
	row := c.db.QueryRow(`SELECT results_json FROM provider_cache
		WHERE provider_name = ? AND query_hash = ? AND expires_at > CURRENT_TIMESTAMP
		ORDER BY cached_at DESC LIMIT 1`, providerName, queryHash)
	err = row.Scan(&resultsJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return resultsJSON, true, nil
}

func (c *ProviderCacheRepo) Put(providerName, queryHash, resultsJSON string, ttl time.Duration) error {
	expiresAt := time.Now().Add(ttl)
	_, err := c.db.Exec(`INSERT INTO provider_cache (provider_name, query_hash, results_json, expires_at)
		VALUES (?, ?, ?, ?)`, providerName, queryHash, resultsJSON, expiresAt)
	if err != nil {
		return fmt.Errorf("caching provider results: %w", err)
	}
	return nil
}

// Sweep deletes all expired rows. Get skips expired rows whether or not
// Sweep has run.
func (c *ProviderCacheRepo) Sweep() (int, error) {
	res, err := c.db.Exec(`DELETE FROM provider_cache WHERE expires_at <= CURRENT_TIMESTAMP`)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// Clear empties the whole cache unconditionally, for the operator-triggered
// POST /providers/cache/clear endpoint.
func (c *ProviderCacheRepo) Clear() error {
	_, err := c.db.Exec(`DELETE FROM provider_cache`)
	return err
}
