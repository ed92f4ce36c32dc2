package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// TrashManifest records the set of files moved aside by a soft-delete
// batch (spec §4.6 cleanup), keyed by a caller-generated batch id so the
// operator can restore or permanently purge the whole batch at once.
type TrashManifest struct {
	BatchID      string
	ManifestJSON string
	CreatedAt    time.Time
}

type TrashRepo struct {
	db *sql.DB
}

func (t *TrashRepo) Create(batchID, manifestJSON string) error {
	_, err := t.db.Exec(`INSERT INTO trash_batches (batch_id, manifest_json) VALUES (?, ?)`, batchID, manifestJSON)
	if err != nil {
		return fmt.Errorf("recording trash batch: %w", err)
	}
	return nil
}

func (t *TrashRepo) Get(batchID string) (TrashManifest, error) {
	var m TrashManifest
	err := t.db.QueryRow(`SELECT batch_id, manifest_json, created_at FROM trash_batches WHERE batch_id = ?`, batchID).
		Scan(&m.BatchID, &m.ManifestJSON, &m.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return TrashManifest{}, fmt.Errorf("%w: trash batch", ErrNotFound)
	}
	if err != nil {
		return TrashManifest{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return m, nil
}

func (t *TrashRepo) Delete(batchID string) error {
	_, err := t.db.Exec(`DELETE FROM trash_batches WHERE batch_id = ?`, batchID)
	return err
}

// OlderThan returns batch ids past the retention window, for the
// scheduled purge that permanently removes the underlying trashed files.
func (t *TrashRepo) OlderThan(age time.Duration) ([]string, error) {
	cutoff := time.Now().Add(-age)
	rows, err := t.db.Query(`SELECT batch_id FROM trash_batches WHERE created_at < ?`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
