package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// ProviderStats is the running health record a ProviderRegistry reads
// before admitting a provider into a search fan-out (spec §4.2, §4.10).
type ProviderStats struct {
	ProviderName        string
	TotalSearches        int
	SuccessfulDownloads   int
	FailedDownloads       int
	AvgScore             float64
	AvgResponseTimeMs    float64
	LastResponseTimeMs   int64
	ConsecutiveFailures  int
	LastSuccessAt        *time.Time
	LastFailureAt        *time.Time
	AutoDisabled         bool
	DisabledUntil        *time.Time
}

type ProviderStatsRepo struct {
	db  *sql.DB
	log zerolog.Logger
}

func (r *ProviderStatsRepo) Get(name string) (ProviderStats, error) {
	row := r.db.QueryRow(providerStatsCols+` FROM provider_stats WHERE provider_name = ?`, name)
	s, err := scanProviderStats(row)
	if errors.Is(err, ErrNotFound) {
		return ProviderStats{ProviderName: name}, nil
	}
	return s, err
}

// RecordSearch records a search attempt's response time and updates the
// running average (new_avg = (old_avg*n_prev + new) / n_new, spec §4.2).
func (r *ProviderStatsRepo) RecordSearch(name string, responseTimeMs int64) error {
	return r.upsertTx(name, func(tx *sql.Tx, s ProviderStats) error {
		n := s.TotalSearches + 1
		newAvg := (s.AvgResponseTimeMs*float64(s.TotalSearches) + float64(responseTimeMs)) / float64(n)
		_, err := tx.Exec(`UPDATE provider_stats SET total_searches = ?, avg_response_time_ms = ?,
			last_response_time_ms = ? WHERE provider_name = ?`, n, newAvg, responseTimeMs, name)
		return err
	})
}

// RecordSuccess records a successful download with its score, resets the
// consecutive-failure counter, and clears any auto-disable.
func (r *ProviderStatsRepo) RecordSuccess(name string, score int) error {
	return r.upsertTx(name, func(tx *sql.Tx, s ProviderStats) error {
		n := s.SuccessfulDownloads + 1
		newAvg := (s.AvgScore*float64(s.SuccessfulDownloads) + float64(score)) / float64(n)
		_, err := tx.Exec(`UPDATE provider_stats SET successful_downloads = ?, avg_score = ?,
			consecutive_failures = 0, last_success_at = CURRENT_TIMESTAMP,
			auto_disabled = 0, disabled_until = NULL WHERE provider_name = ?`, n, newAvg, name)
		return err
	})
}

// RecordFailure increments the failure counters and, once consecutive
// failures reach threshold, auto-disables the provider until cooldown
// expires (spec §4.10 circuit behavior).
func (r *ProviderStatsRepo) RecordFailure(name string, threshold int, cooldown time.Duration) error {
	return r.upsertTx(name, func(tx *sql.Tx, s ProviderStats) error {
		consecutive := s.ConsecutiveFailures + 1
		autoDisabled := s.AutoDisabled
		var disabledUntil *time.Time
		if consecutive >= threshold {
			t := time.Now().Add(cooldown)
			disabledUntil = &t
			autoDisabled = true
		} else {
			disabledUntil = s.DisabledUntil
		}
		_, err := tx.Exec(`UPDATE provider_stats SET failed_downloads = failed_downloads + 1,
			consecutive_failures = ?, last_failure_at = CURRENT_TIMESTAMP, auto_disabled = ?,
			disabled_until = ? WHERE provider_name = ?`,
			consecutive, boolToInt(autoDisabled), disabledUntil, name)
		return err
	})
}

// IsAvailable reports whether the provider is currently admissible: not
// auto_disabled, or its cooldown has already elapsed. An elapsed cooldown
// clears the persisted auto_disabled flag so it doesn't have to be
// re-derived from disabled_until on every subsequent read.
func (r *ProviderStatsRepo) IsAvailable(name string) (bool, error) {
	s, err := r.Get(name)
	if err != nil {
		return false, err
	}
	if !s.AutoDisabled {
		return true, nil
	}
	if s.DisabledUntil != nil && time.Now().After(*s.DisabledUntil) {
		if err := r.clearAutoDisable(name); err != nil {
			return false, err
		}
		return true, nil
	}
	return false, nil
}

func (r *ProviderStatsRepo) clearAutoDisable(name string) error {
	_, err := r.db.Exec(`UPDATE provider_stats SET auto_disabled = 0, disabled_until = NULL WHERE provider_name = ?`, name)
	if err != nil {
		return fmt.Errorf("clearing auto-disable: %w", err)
	}
	return nil
}

func (r *ProviderStatsRepo) All() ([]ProviderStats, error) {
	rows, err := r.db.Query(providerStatsCols + ` FROM provider_stats ORDER BY provider_name`)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer rows.Close()
	var out []ProviderStats
	for rows.Next() {
		s, err := scanProviderStats(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *ProviderStatsRepo) upsertTx(name string, mutate func(tx *sql.Tx, s ProviderStats) error) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer tx.Rollback()

	row := tx.QueryRow(providerStatsCols+` FROM provider_stats WHERE provider_name = ?`, name)
	s, err := scanProviderStats(row)
	if errors.Is(err, ErrNotFound) {
		if _, err := tx.Exec(`INSERT INTO provider_stats (provider_name) VALUES (?)`, name); err != nil {
			return fmt.Errorf("inserting provider stats: %w", err)
		}
		s = ProviderStats{ProviderName: name}
	} else if err != nil {
		return err
	}

	if err := mutate(tx, s); err != nil {
		return fmt.Errorf("updating provider stats: %w", err)
	}
	return tx.Commit()
}

const providerStatsCols = `SELECT provider_name, total_searches, successful_downloads, failed_downloads,
	avg_score, avg_response_time_ms, last_response_time_ms, consecutive_failures,
	last_success_at, last_failure_at, auto_disabled, disabled_until`

func scanProviderStats(row scannable) (ProviderStats, error) {
	var s ProviderStats
	var autoDisabled int
	var lastSuccess, lastFailure, disabledUntil sql.NullTime
	err := row.Scan(&s.ProviderName, &s.TotalSearches, &s.SuccessfulDownloads, &s.FailedDownloads,
		&s.AvgScore, &s.AvgResponseTimeMs, &s.LastResponseTimeMs, &s.ConsecutiveFailures,
		&lastSuccess, &lastFailure, &autoDisabled, &disabledUntil)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ProviderStats{}, fmt.Errorf("%w: provider stats", ErrNotFound)
		}
		return ProviderStats{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
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
