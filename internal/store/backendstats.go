package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// BackendStats is the same health-record shape as ProviderStats but scoped
// to translation backends, plus a running character-volume counter used
// for cost/quota display (spec §4.5).
type BackendStats struct {
	BackendName         string
	TotalSearches       int
	SuccessfulDownloads int
	FailedDownloads     int
	AvgScore            float64
	AvgResponseTimeMs   float64
	LastResponseTimeMs  int64
	ConsecutiveFailures int
	LastSuccessAt       *time.Time
	LastFailureAt       *time.Time
	AutoDisabled        bool
	DisabledUntil       *time.Time
	TotalCharacters     int64
}

type BackendStatsRepo struct {
	db  *sql.DB
	log zerolog.Logger
}

func (r *BackendStatsRepo) Get(name string) (BackendStats, error) {
	row := r.db.QueryRow(backendStatsCols+` FROM backend_stats WHERE backend_name = ?`, name)
	s, err := scanBackendStats(row)
	if errors.Is(err, ErrNotFound) {
		return BackendStats{BackendName: name}, nil
	}
	return s, err
}

func (r *BackendStatsRepo) RecordTranslation(name string, responseTimeMs int64, characters int64) error {
	return r.upsertTx(name, func(tx *sql.Tx, s BackendStats) error {
		n := s.TotalSearches + 1
		newAvg := (s.AvgResponseTimeMs*float64(s.TotalSearches) + float64(responseTimeMs)) / float64(n)
		_, err := tx.Exec(`UPDATE backend_stats SET total_searches = ?, avg_response_time_ms = ?,
			last_response_time_ms = ?, total_characters = total_characters + ? WHERE backend_name = ?`,
			n, newAvg, responseTimeMs, characters, name)
		return err
	})
}

func (r *BackendStatsRepo) RecordSuccess(name string, qualityScore int) error {
	return r.upsertTx(name, func(tx *sql.Tx, s BackendStats) error {
		n := s.SuccessfulDownloads + 1
		newAvg := (s.AvgScore*float64(s.SuccessfulDownloads) + float64(qualityScore)) / float64(n)
		_, err := tx.Exec(`UPDATE backend_stats SET successful_downloads = ?, avg_score = ?,
			consecutive_failures = 0, last_success_at = CURRENT_TIMESTAMP,
			auto_disabled = 0, disabled_until = NULL WHERE backend_name = ?`, n, newAvg, name)
		return err
	})
}

func (r *BackendStatsRepo) RecordFailure(name string, threshold int, cooldown time.Duration) error {
	return r.upsertTx(name, func(tx *sql.Tx, s BackendStats) error {
		consecutive := s.ConsecutiveFailures + 1
		autoDisabled := s.AutoDisabled
		disabledUntil := s.DisabledUntil
		if consecutive >= threshold {
			t := time.Now().Add(cooldown)
			disabledUntil = &t
			autoDisabled = true
		}
		_, err := tx.Exec(`UPDATE backend_stats SET failed_downloads = failed_downloads + 1,
			consecutive_failures = ?, last_failure_at = CURRENT_TIMESTAMP, auto_disabled = ?,
			disabled_until = ? WHERE backend_name = ?`,
			consecutive, boolToInt(autoDisabled), disabledUntil, name)
		return err
	})
}

func (r *BackendStatsRepo) IsAvailable(name string) (bool, error) {
	s, err := r.Get(name)
	if err != nil {
		return false, err
	}
	if !s.AutoDisabled {
		return true, nil
	}
	if s.DisabledUntil != nil && time.Now().After(*s.DisabledUntil) {
		return true, nil
	}
	return false, nil
}

func (r *BackendStatsRepo) All() ([]BackendStats, error) {
	rows, err := r.db.Query(backendStatsCols + ` FROM backend_stats ORDER BY backend_name`)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer rows.Close()
	var out []BackendStats
	for rows.Next() {
		s, err := scanBackendStats(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *BackendStatsRepo) upsertTx(name string, mutate func(tx *sql.Tx, s BackendStats) error) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer tx.Rollback()

	row := tx.QueryRow(backendStatsCols+` FROM backend_stats WHERE backend_name = ?`, name)
	s, err := scanBackendStats(row)
	if errors.Is(err, ErrNotFound) {
		if _, err := tx.Exec(`INSERT INTO backend_stats (backend_name) VALUES (?)`, name); err != nil {
			return fmt.Errorf("inserting backend stats: %w", err)
		}
		s = BackendStats{BackendName: name}
	} else if err != nil {
		return err
	}

	if err := mutate(tx, s); err != nil {
		return fmt.Errorf("updating backend stats: %w", err)
	}
	return tx.Commit()
}

const backendStatsCols = `SELECT backend_name, total_searches, successful_downloads, failed_downloads,
	avg_score, avg_response_time_ms, last_response_time_ms, consecutive_failures,
	last_success_at, last_failure_at, auto_disabled, disabled_until, total_characters`

func scanBackendStats(row scannable) (BackendStats, error) {
	var s BackendStats
	var autoDisabled int
	var lastSuccess, lastFailure, disabledUntil sql.NullTime
	err := row.Scan(&s.BackendName, &s.TotalSearches, &s.SuccessfulDownloads, &s.FailedDownloads,
		&s.AvgScore, &s.AvgResponseTimeMs, &s.LastResponseTimeMs, &s.ConsecutiveFailures,
		&lastSuccess, &lastFailure, &autoDisabled, &disabledUntil, &s.TotalCharacters)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return BackendStats{}, fmt.Errorf("%w: backend stats", ErrNotFound)
		}
		return BackendStats{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	s.AutoDisabled = autoDisabled != 0
	if lastSuccess.Valid {
		s.LastSuccessAt = &lastSuccess.Time
	}
	if lastFailure.Valid {
		s.LastFailureAt = &lastFailure.Time
	}
	if disabledUntil.Valid {
		s.DisabledUntil = &disabledUntil.Time
	}
	return s, nil
}
