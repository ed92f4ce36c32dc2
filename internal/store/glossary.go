package store

import (
	"database/sql"
	"fmt"
	"strings"
)

// GlossaryEntry pins a source term to a fixed translation, optionally
// scoped to one series (spec §4.6 "glossary overrides").
type GlossaryEntry struct {
	ID         int64
	SeriesID   string // empty means global
	SourceTerm string
	TargetTerm string
	Notes      string
	UpdatedAt  string
}

type GlossaryRepo struct {
	db *sql.DB
}

// maxEntriesPerSeries caps how many entries are injected into a single
// translation prompt; older entries are dropped in favor of more recent ones.
const maxEntriesPerSeries = 30

func (g *GlossaryRepo) Upsert(seriesID, sourceTerm, targetTerm, notes string) (int64, error) {
	folded := strings.ToLower(strings.TrimSpace(sourceTerm))
	var id int64
	var seriesArg interface{} = seriesID
	if seriesID == "" {
		seriesArg = nil
	}
	err := g.db.QueryRow(`SELECT id FROM glossary_entries WHERE
		(series_id = ? OR (series_id IS NULL AND ? IS NULL)) AND lower(source_term) = ?`,
		seriesArg, seriesArg, folded).Scan(&id)
	if err == sql.ErrNoRows {
		res, err := g.db.Exec(`INSERT INTO glossary_entries (series_id, source_term, target_term, notes)
			VALUES (?, ?, ?, ?)`, seriesArg, sourceTerm, targetTerm, notes)
		if err != nil {
			return 0, fmt.Errorf("inserting glossary entry: %w", err)
		}
		return res.LastInsertId()
	}
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	_, err = g.db.Exec(`UPDATE glossary_entries SET target_term = ?, notes = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		targetTerm, notes, id)
	return id, err
}

func (g *GlossaryRepo) Delete(id int64) error {
	_, err := g.db.Exec(`DELETE FROM glossary_entries WHERE id = ?`, id)
	return err
}

// ForSeries returns the global glossary plus any series-specific entries,
// most recently updated first, capped at maxEntriesPerSeries.
func (g *GlossaryRepo) ForSeries(seriesID string) ([]GlossaryEntry, error) {
	rows, err := g.db.Query(`SELECT id, COALESCE(series_id, ''), source_term, target_term, COALESCE(notes, ''), updated_at
		FROM glossary_entries WHERE series_id = ? OR series_id IS NULL
		ORDER BY updated_at DESC LIMIT ?`, seriesID, maxEntriesPerSeries)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer rows.Close()
	var out []GlossaryEntry
	for rows.Next() {
		var e GlossaryEntry
		if err := rows.Scan(&e.ID, &e.SeriesID, &e.SourceTerm, &e.TargetTerm, &e.Notes, &e.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
