package store

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"
)

// TranslationMemoryRepo is a persistent line-level translation cache,
// grounded on lsilvatti-bakasub's internal/core/db/cache.go CacheEntry
// table: exact lookup by normalized-text hash, plus a bounded fuzzy scan
// using Levenshtein similarity for near-duplicate source lines.
type TranslationMemoryRepo struct {
	db *sql.DB
}

// TextHash hashes already-normalized text for the unique index, per
// spec §4.5: SHA-256 hex digest.
func TextHash(normalized string) string {
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

// normalize collapses whitespace, case-folds, and trims — spec §4.5's
// translation-memory normalization rule.
func normalize(text string) string {
	folded := strings.ToLower(strings.TrimSpace(text))
	return strings.Join(strings.Fields(folded), " ")
}

func (m *TranslationMemoryRepo) GetExact(sourceLang, targetLang, text string) (translated string, ok bool, err error) {
	normalized := normalize(text)
	hash := TextHash(normalized)
	row := m.db.QueryRow(`SELECT translated_text FROM translation_memory
		WHERE source_lang = ? AND target_lang = ? AND text_hash = ?`, sourceLang, targetLang, hash)
	err = row.Scan(&translated)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return translated, true, nil
}

// FuzzyMatch scans memory entries of roughly the same length (±20%) for the
// given language pair and returns the closest match by normalized
// Levenshtein similarity, if it clears minSimilarity (0..1).
func (m *TranslationMemoryRepo) FuzzyMatch(sourceLang, targetLang, text string, minSimilarity float64) (translated string, similarity float64, ok bool, err error) {
	normalized := normalize(text)
	lo := int(float64(len(normalized)) * 0.8)
	hi := int(float64(len(normalized))*1.2) + 1

	rows, err := m.db.Query(`SELECT source_text_normalized, translated_text FROM translation_memory
		WHERE source_lang = ? AND target_lang = ? AND length(source_text_normalized) BETWEEN ? AND ?`,
		sourceLang, targetLang, lo, hi)
	if err != nil {
		return "", 0, false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer rows.Close()

	bestSim := 0.0
	var bestTranslation string
	for rows.Next() {
		var candidate, candidateTranslation string
		if err := rows.Scan(&candidate, &candidateTranslation); err != nil {
			return "", 0, false, err
		}
		dist := levenshtein.ComputeDistance(normalized, candidate)
		maxLen := len(normalized)
		if len(candidate) > maxLen {
			maxLen = len(candidate)
		}
		if maxLen == 0 {
			continue
		}
		sim := 1.0 - float64(dist)/float64(maxLen)
		if sim > bestSim {
			bestSim = sim
			bestTranslation = candidateTranslation
		}
	}
	if err := rows.Err(); err != nil {
		return "", 0, false, err
	}
	if bestSim >= minSimilarity {
		return bestTranslation, bestSim, true, nil
	}
	return "", bestSim, false, nil
}

func (m *TranslationMemoryRepo) Save(sourceLang, targetLang, text, translated string) error {
	normalized := normalize(text)
	hash := TextHash(normalized)
	_, err := m.db.Exec(`INSERT INTO translation_memory (source_lang, target_lang, text_hash, source_text_normalized, translated_text)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(source_lang, target_lang, text_hash) DO UPDATE SET translated_text = excluded.translated_text`,
		sourceLang, targetLang, hash, normalized, translated)
	if err != nil {
		return fmt.Errorf("saving translation memory entry: %w", err)
	}
	return nil
}
