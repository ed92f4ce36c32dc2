package store

import (
	"database/sql"
	"fmt"
	"time"
)

// SubtitleDownload is an append-only record of every subtitle a
// ProviderManager has written to disk (spec §4.3).
type SubtitleDownload struct {
	ID           int64
	ProviderName string
	SubtitleID   string
	Language     string
	Format       string
	FilePath     string
	Score        int
	DownloadedAt time.Time
}

// UpgradeRecord logs an SRT-to-ASS (or any format/score) upgrade decision
// (spec §4.4 should_upgrade, §4.7 WantedPipeline step 5).
type UpgradeRecord struct {
	ID        int64
	FilePath  string
	OldFormat string
	OldScore  int
	NewFormat string
	NewScore  int
	Reason    string
	CreatedAt time.Time
}

type HistoryRepo struct {
	db *sql.DB
}

func (h *HistoryRepo) RecordDownload(d SubtitleDownload) error {
	_, err := h.db.Exec(`INSERT INTO subtitle_downloads (provider_name, subtitle_id, language, format, file_path, score)
		VALUES (?, ?, ?, ?, ?, ?)`, d.ProviderName, d.SubtitleID, d.Language, d.Format, d.FilePath, d.Score)
	if err != nil {
		return fmt.Errorf("recording subtitle download: %w", err)
	}
	return nil
}

func (h *HistoryRepo) RecordUpgrade(u UpgradeRecord) error {
	_, err := h.db.Exec(`INSERT INTO upgrade_history (file_path, old_format, old_score, new_format, new_score, reason)
		VALUES (?, ?, ?, ?, ?, ?)`, u.FilePath, u.OldFormat, u.OldScore, u.NewFormat, u.NewScore, u.Reason)
	if err != nil {
		return fmt.Errorf("recording upgrade: %w", err)
	}
	return nil
}

func (h *HistoryRepo) RecentDownloads(limit int) ([]SubtitleDownload, error) {
	rows, err := h.db.Query(`SELECT id, provider_name, subtitle_id, language, format, file_path, score, downloaded_at
		FROM subtitle_downloads ORDER BY downloaded_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer rows.Close()
	var out []SubtitleDownload
	for rows.Next() {
		var d SubtitleDownload
		if err := rows.Scan(&d.ID, &d.ProviderName, &d.SubtitleID, &d.Language, &d.Format, &d.FilePath, &d.Score, &d.DownloadedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (h *HistoryRepo) RecentUpgrades(limit int) ([]UpgradeRecord, error) {
	rows, err := h.db.Query(`SELECT id, file_path, old_format, old_score, new_format, new_score, reason, created_at
		FROM upgrade_history ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer rows.Close()
	var out []UpgradeRecord
	for rows.Next() {
		var u UpgradeRecord
		if err := rows.Scan(&u.ID, &u.FilePath, &u.OldFormat, &u.OldScore, &u.NewFormat, &u.NewScore, &u.Reason, &u.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}
