// Package store is the single-writer, transactionally-safe persistence
// layer (spec §4.1). Grounded on lsilvatti-bakasub's internal/core/db/cache.go
// (modernc.org/sqlite, WAL mode, a package-level singleton) generalized from
// a single translation-cache table into one repository per entity of
// spec §3 (Store).
package store

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

// Store bundles one repository per entity over a shared *sql.DB. All
// repositories share its single open connection, so writes are serialized;
// operations that span more than one statement run in a transaction.
type Store struct {
	db *sql.DB

	Wanted       *WantedRepo
	Jobs         *JobRepo
	ProviderStats *ProviderStatsRepo
	BackendStats *BackendStatsRepo
	ProviderCache *ProviderCacheRepo
	TranslationMemory *TranslationMemoryRepo
	Glossary     *GlossaryRepo
	Profiles     *LanguageProfileRepo
	History      *HistoryRepo
	Trash        *TrashRepo
	ConfigKV     *ConfigRepo
}

// Open opens (creating if absent) the SQLite database at path, enables WAL
// mode for concurrent readers, and runs the schema migration.
func Open(path string, logger zerolog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite: single writer; repos serialize internally.

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating schema: %w", err)
	}

	s := &Store{db: db}
	s.Wanted = &WantedRepo{db: db, log: logger.With().Str("repo", "wanted").Logger()}
	s.Jobs = &JobRepo{db: db, log: logger.With().Str("repo", "jobs").Logger()}
	s.ProviderStats = &ProviderStatsRepo{db: db, log: logger.With().Str("repo", "provider_stats").Logger()}
	s.BackendStats = &BackendStatsRepo{db: db, log: logger.With().Str("repo", "backend_stats").Logger()}
	s.ProviderCache = &ProviderCacheRepo{db: db}
	s.TranslationMemory = &TranslationMemoryRepo{db: db}
	s.Glossary = &GlossaryRepo{db: db}
	s.Profiles = &LanguageProfileRepo{db: db}
	s.History = &HistoryRepo{db: db}
	s.Trash = &TrashRepo{db: db}
	s.ConfigKV = &ConfigRepo{db: db}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the underlying handle for components (e.g. a durable
// JobQueue) that need to share the same SQLite file without duplicating
// connection setup.
func (s *Store) DB() *sql.DB {
	return s.db
}

const schema = `
CREATE TABLE IF NOT EXISTS wanted_items (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	file_path TEXT NOT NULL,
	target_language TEXT NOT NULL,
	subtitle_type TEXT NOT NULL DEFAULT 'full',
	item_type TEXT NOT NULL,
	title TEXT,
	season_episode_label TEXT,
	series_id TEXT,
	movie_id TEXT,
	existing_sub TEXT NOT NULL DEFAULT 'none',
	upgrade_candidate INTEGER NOT NULL DEFAULT 0,
	current_score INTEGER NOT NULL DEFAULT 0,
	status TEXT NOT NULL DEFAULT 'wanted',
	search_count INTEGER NOT NULL DEFAULT 0,
	last_search_at DATETIME,
	retry_after DATETIME,
	error TEXT,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE(file_path, target_language, subtitle_type)
);
CREATE INDEX IF NOT EXISTS idx_wanted_status ON wanted_items(status);
CREATE INDEX IF NOT EXISTS idx_wanted_series ON wanted_items(series_id);

CREATE TABLE IF NOT EXISTS jobs (
	id TEXT PRIMARY KEY,
	file_path TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'queued',
	stats TEXT,
	output_path TEXT,
	error TEXT,
	config_hash TEXT,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	completed_at DATETIME
);
CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status);

CREATE TABLE IF NOT EXISTS provider_stats (
	provider_name TEXT PRIMARY KEY,
	total_searches INTEGER NOT NULL DEFAULT 0,
	successful_downloads INTEGER NOT NULL DEFAULT 0,
	failed_downloads INTEGER NOT NULL DEFAULT 0,
	avg_score REAL NOT NULL DEFAULT 0,
	avg_response_time_ms REAL NOT NULL DEFAULT 0,
	last_response_time_ms INTEGER NOT NULL DEFAULT 0,
	consecutive_failures INTEGER NOT NULL DEFAULT 0,
	last_success_at DATETIME,
	last_failure_at DATETIME,
	auto_disabled INTEGER NOT NULL DEFAULT 0,
	disabled_until DATETIME
);

CREATE TABLE IF NOT EXISTS backend_stats (
	backend_name TEXT PRIMARY KEY,
	total_searches INTEGER NOT NULL DEFAULT 0,
	successful_downloads INTEGER NOT NULL DEFAULT 0,
	failed_downloads INTEGER NOT NULL DEFAULT 0,
	avg_score REAL NOT NULL DEFAULT 0,
	avg_response_time_ms REAL NOT NULL DEFAULT 0,
	last_response_time_ms INTEGER NOT NULL DEFAULT 0,
	consecutive_failures INTEGER NOT NULL DEFAULT 0,
	last_success_at DATETIME,
	last_failure_at DATETIME,
	auto_disabled INTEGER NOT NULL DEFAULT 0,
	disabled_until DATETIME,
	total_characters INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS provider_cache (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	provider_name TEXT NOT NULL,
	query_hash TEXT NOT NULL,
	results_json TEXT NOT NULL,
	cached_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	expires_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_provider_cache_lookup ON provider_cache(provider_name, query_hash, expires_at);

CREATE TABLE IF NOT EXISTS translation_memory (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	source_lang TEXT NOT NULL,
	target_lang TEXT NOT NULL,
	text_hash TEXT NOT NULL,
	source_text_normalized TEXT NOT NULL,
	translated_text TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE(source_lang, target_lang, text_hash)
);
CREATE INDEX IF NOT EXISTS idx_tm_lookup ON translation_memory(source_lang, target_lang, text_hash);

CREATE TABLE IF NOT EXISTS glossary_entries (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	series_id TEXT,
	source_term TEXT NOT NULL,
	target_term TEXT NOT NULL,
	notes TEXT,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_glossary_series ON glossary_entries(series_id);

CREATE TABLE IF NOT EXISTS language_profiles (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE,
	source_lang TEXT NOT NULL,
	target_langs TEXT NOT NULL,
	fallback_chain TEXT NOT NULL,
	forced_preference TEXT NOT NULL DEFAULT 'disabled'
);

CREATE TABLE IF NOT EXISTS profile_assignments (
	entity_id TEXT PRIMARY KEY,
	profile_id INTEGER NOT NULL REFERENCES language_profiles(id)
);

CREATE TABLE IF NOT EXISTS subtitle_downloads (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	provider_name TEXT NOT NULL,
	subtitle_id TEXT NOT NULL,
	language TEXT NOT NULL,
	format TEXT NOT NULL,
	file_path TEXT NOT NULL,
	score INTEGER NOT NULL,
	downloaded_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS upgrade_history (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	file_path TEXT NOT NULL,
	old_format TEXT NOT NULL,
	old_score INTEGER NOT NULL,
	new_format TEXT NOT NULL,
	new_score INTEGER NOT NULL,
	reason TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS trash_batches (
	batch_id TEXT PRIMARY KEY,
	manifest_json TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS config_entries (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

func migrate(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
