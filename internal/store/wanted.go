package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

type WantedStatus string

const (
	WantedStatusWanted    WantedStatus = "wanted"
	WantedStatusSearching WantedStatus = "searching"
	WantedStatusFound     WantedStatus = "found"
	WantedStatusFailed    WantedStatus = "failed"
	WantedStatusIgnored   WantedStatus = "ignored"
)

type SubtitleType string

const (
	SubtitleTypeFull   SubtitleType = "full"
	SubtitleTypeForced SubtitleType = "forced"
)

type ExistingSub string

const (
	ExistingSubNone         ExistingSub = "none"
	ExistingSubSRT          ExistingSub = "srt"
	ExistingSubASS          ExistingSub = "ass"
	ExistingSubEmbeddedSRT  ExistingSub = "embedded_srt"
	ExistingSubEmbeddedASS  ExistingSub = "embedded_ass"
)

// WantedItem is the plain value record for a (file, language, type) demand
// row. Read operations return copies, never live handles (spec §4.1).
type WantedItem struct {
	ID               int64
	FilePath         string
	TargetLanguage   string
	SubtitleType     SubtitleType
	ItemType         string // episode | movie
	Title            string
	SeasonEpisodeLabel string
	SeriesID         string
	MovieID          string
	ExistingSub      ExistingSub
	UpgradeCandidate bool
	CurrentScore     int
	Status           WantedStatus
	SearchCount      int
	LastSearchAt     *time.Time
	RetryAfter       *time.Time
	Error            string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// UpsertWantedInput is the set of descriptive fields an upsert may change.
type UpsertWantedInput struct {
	FilePath         string
	TargetLanguage   string
	SubtitleType     SubtitleType
	ItemType         string
	Title            string
	SeasonEpisodeLabel string
	SeriesID         string
	MovieID          string
	ExistingSub      ExistingSub
	UpgradeCandidate bool
	CurrentScore     int
}

type WantedRepo struct {
	db  *sql.DB
	log zerolog.Logger
}

// Upsert matches on (file_path, target_language, subtitle_type). If the
// matching row is `ignored`, its status is preserved and only descriptive
// fields update; otherwise the row is revived to `wanted` (spec §4.1).
func (r *WantedRepo) Upsert(in UpsertWantedInput) (int64, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer tx.Rollback()

	var id int64
	var status WantedStatus
	err = tx.QueryRow(`SELECT id, status FROM wanted_items WHERE file_path = ? AND target_language = ? AND subtitle_type = ?`,
		in.FilePath, in.TargetLanguage, in.SubtitleType).Scan(&id, &status)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		res, err := tx.Exec(`INSERT INTO wanted_items
			(file_path, target_language, subtitle_type, item_type, title, season_episode_label,
			 series_id, movie_id, existing_sub, upgrade_candidate, current_score, status)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 'wanted')`,
			in.FilePath, in.TargetLanguage, in.SubtitleType, in.ItemType, in.Title, in.SeasonEpisodeLabel,
			in.SeriesID, in.MovieID, in.ExistingSub, boolToInt(in.UpgradeCandidate), in.CurrentScore)
		if err != nil {
			return 0, fmt.Errorf("inserting wanted item: %w", err)
		}
		id, _ = res.LastInsertId()
	case err != nil:
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	default:
		newStatus := WantedStatusWanted
		if status == WantedStatusIgnored {
			newStatus = WantedStatusIgnored
		}
		_, err = tx.Exec(`UPDATE wanted_items SET
			item_type = ?, title = ?, season_episode_label = ?, series_id = ?, movie_id = ?,
			existing_sub = ?, upgrade_candidate = ?, current_score = ?, status = ?, updated_at = CURRENT_TIMESTAMP
			WHERE id = ?`,
			in.ItemType, in.Title, in.SeasonEpisodeLabel, in.SeriesID, in.MovieID,
			in.ExistingSub, boolToInt(in.UpgradeCandidate), in.CurrentScore, newStatus, id)
		if err != nil {
			return 0, fmt.Errorf("updating wanted item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return id, nil
}

func (r *WantedRepo) Get(id int64) (WantedItem, error) {
	row := r.db.QueryRow(wantedSelectCols+` FROM wanted_items WHERE id = ?`, id)
	return scanWantedItem(row)
}

// MarkSearching increments search_count, updates last_search_at, and sets
// status to searching. Used at the top of every pipeline attempt (spec §4.7).
func (r *WantedRepo) MarkSearching(id int64) error {
	_, err := r.db.Exec(`UPDATE wanted_items SET status = 'searching', search_count = search_count + 1,
		last_search_at = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, id)
	return err
}

func (r *WantedRepo) MarkFound(id int64) error {
	_, err := r.db.Exec(`UPDATE wanted_items SET status = 'found', error = NULL, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, id)
	return err
}

func (r *WantedRepo) MarkFailed(id int64, reason string) error {
	_, err := r.db.Exec(`UPDATE wanted_items SET status = 'failed', error = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, reason, id)
	return err
}

// MarkRetry sets status back to wanted with the given retry_after (adaptive
// backoff, spec §4.7).
func (r *WantedRepo) MarkRetry(id int64, reason string, retryAfter time.Time) error {
	_, err := r.db.Exec(`UPDATE wanted_items SET status = 'wanted', error = ?, retry_after = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		reason, retryAfter, id)
	return err
}

func (r *WantedRepo) Delete(id int64) error {
	_, err := r.db.Exec(`DELETE FROM wanted_items WHERE id = ?`, id)
	return err
}

func (r *WantedRepo) SetIgnored(id int64, ignored bool) error {
	status := WantedStatusWanted
	if ignored {
		status = WantedStatusIgnored
	}
	_, err := r.db.Exec(`UPDATE wanted_items SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, status, id)
	return err
}

// ListFilter supports the pagination/filter query shapes named in spec §6.
type ListFilter struct {
	ItemType     string
	Status       WantedStatus
	SeriesID     string
	SubtitleType SubtitleType
	Limit        int
	Offset       int
}

func (r *WantedRepo) List(f ListFilter) ([]WantedItem, error) {
	q := wantedSelectCols + ` FROM wanted_items WHERE 1=1`
	var args []interface{}
	if f.ItemType != "" {
		q += ` AND item_type = ?`
		args = append(args, f.ItemType)
	}
	if f.Status != "" {
		q += ` AND status = ?`
		args = append(args, f.Status)
	}
	if f.SeriesID != "" {
		q += ` AND series_id = ?`
		args = append(args, f.SeriesID)
	}
	if f.SubtitleType != "" {
		q += ` AND subtitle_type = ?`
		args = append(args, f.SubtitleType)
	}
	q += ` ORDER BY id`
	if f.Limit > 0 {
		q += ` LIMIT ? OFFSET ?`
		args = append(args, f.Limit, f.Offset)
	}

	rows, err := r.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer rows.Close()

	var out []WantedItem
	for rows.Next() {
		item, err := scanWantedItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

// ListSearchable selects items eligible for the search loop (spec §4.8):
// status=wanted, search_count < maxAttempts, and (last_search_at older than
// minAge OR retry_after in the past).
func (r *WantedRepo) ListSearchable(maxAttempts int, minAge time.Duration, limit int) ([]WantedItem, error) {
	cutoff := time.Now().Add(-minAge)
	now := time.Now()
	rows, err := r.db.Query(wantedSelectCols+` FROM wanted_items
		WHERE status = 'wanted' AND search_count < ?
		AND (last_search_at IS NULL OR last_search_at < ? OR (retry_after IS NOT NULL AND retry_after < ?))
		ORDER BY id LIMIT ?`, maxAttempts, cutoff, now, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer rows.Close()

	var out []WantedItem
	for rows.Next() {
		item, err := scanWantedItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

// PurgeVanished removes rows whose predicate (checked by the caller, e.g.
// Scanner, against the filesystem/library) reports the row should be
// removed — video gone, target ASS present, or owning library entry gone.
func (r *WantedRepo) PurgeVanished(shouldRemove func(WantedItem) bool) (int, error) {
	rows, err := r.db.Query(wantedSelectCols + ` FROM wanted_items`)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	var toDelete []int64
	for rows.Next() {
		item, err := scanWantedItem(rows)
		if err != nil {
			rows.Close()
			return 0, err
		}
		if shouldRemove(item) {
			toDelete = append(toDelete, item.ID)
		}
	}
	rows.Close()

	for _, id := range toDelete {
		if _, err := r.db.Exec(`DELETE FROM wanted_items WHERE id = ?`, id); err != nil {
			return 0, err
		}
	}
	return len(toDelete), nil
}

// Summary reports counts per status, used by GET /wanted/summary.
func (r *WantedRepo) Summary() (map[WantedStatus]int, error) {
	rows, err := r.db.Query(`SELECT status, COUNT(*) FROM wanted_items GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer rows.Close()
	out := map[WantedStatus]int{}
	for rows.Next() {
		var s WantedStatus
		var n int
		if err := rows.Scan(&s, &n); err != nil {
			return nil, err
		}
		out[s] = n
	}
	return out, rows.Err()
}

const wantedSelectCols = `SELECT id, file_path, target_language, subtitle_type, item_type, title,
	season_episode_label, series_id, movie_id, existing_sub, upgrade_candidate, current_score,
	status, search_count, last_search_at, retry_after, error, created_at, updated_at`

type scannable interface {
	Scan(dest ...interface{}) error
}

func scanWantedItem(row scannable) (WantedItem, error) {
	var item WantedItem
	var upgradeInt int
	var seriesID, movieID, errText sql.NullString
	var lastSearch, retryAfter sql.NullTime
	err := row.Scan(&item.ID, &item.FilePath, &item.TargetLanguage, &item.SubtitleType, &item.ItemType,
		&item.Title, &item.SeasonEpisodeLabel, &seriesID, &movieID, &item.ExistingSub, &upgradeInt,
		&item.CurrentScore, &item.Status, &item.SearchCount, &lastSearch, &retryAfter, &errText,
		&item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return WantedItem{}, fmt.Errorf("%w: wanted item", ErrNotFound)
		}
		return WantedItem{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	item.UpgradeCandidate = upgradeInt != 0
	item.SeriesID = seriesID.String
	item.MovieID = movieID.String
	item.Error = errText.String
	if lastSearch.Valid {
		item.LastSearchAt = &lastSearch.Time
	}
	if retryAfter.Valid {
		item.RetryAfter = &retryAfter.Time
	}
	return item, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
