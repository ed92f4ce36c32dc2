package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// LanguageProfile names a reusable source/target/fallback configuration
// assignable to series or movies (spec §4.6 "language profiles").
type LanguageProfile struct {
	ID                int64
	Name              string
	SourceLang        string
	TargetLangs       []string
	FallbackChain     []string
	ForcedPreference  string // disabled | required | preferred
}

type LanguageProfileRepo struct {
	db *sql.DB
}

func (p *LanguageProfileRepo) Create(profile LanguageProfile) (int64, error) {
	targets, err := json.Marshal(profile.TargetLangs)
	if err != nil {
		return 0, err
	}
	chain, err := json.Marshal(profile.FallbackChain)
	if err != nil {
		return 0, err
	}
	res, err := p.db.Exec(`INSERT INTO language_profiles (name, source_lang, target_langs, fallback_chain, forced_preference)
		VALUES (?, ?, ?, ?, ?)`, profile.Name, profile.SourceLang, string(targets), string(chain), profile.ForcedPreference)
	if err != nil {
		return 0, fmt.Errorf("creating language profile: %w", err)
	}
	return res.LastInsertId()
}

func (p *LanguageProfileRepo) Get(id int64) (LanguageProfile, error) {
	row := p.db.QueryRow(`SELECT id, name, source_lang, target_langs, fallback_chain, forced_preference
		FROM language_profiles WHERE id = ?`, id)
	return scanProfile(row)
}

func (p *LanguageProfileRepo) All() ([]LanguageProfile, error) {
	rows, err := p.db.Query(`SELECT id, name, source_lang, target_langs, fallback_chain, forced_preference FROM language_profiles ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer rows.Close()
	var out []LanguageProfile
	for rows.Next() {
		pr, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, pr)
	}
	return out, rows.Err()
}

func (p *LanguageProfileRepo) Delete(id int64) error {
	_, err := p.db.Exec(`DELETE FROM language_profiles WHERE id = ?`, id)
	return err
}

// AssignEntity maps a series/movie id to a profile, overwriting any prior
// assignment.
func (p *LanguageProfileRepo) AssignEntity(entityID string, profileID int64) error {
	_, err := p.db.Exec(`INSERT INTO profile_assignments (entity_id, profile_id) VALUES (?, ?)
		ON CONFLICT(entity_id) DO UPDATE SET profile_id = excluded.profile_id`, entityID, profileID)
	return err
}

// ProfileForEntity resolves the profile assigned to an entity, if any.
func (p *LanguageProfileRepo) ProfileForEntity(entityID string) (LanguageProfile, bool, error) {
	var profileID int64
	err := p.db.QueryRow(`SELECT profile_id FROM profile_assignments WHERE entity_id = ?`, entityID).Scan(&profileID)
	if errors.Is(err, sql.ErrNoRows) {
		return LanguageProfile{}, false, nil
	}
	if err != nil {
		return LanguageProfile{}, false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	profile, err := p.Get(profileID)
	if err != nil {
		return LanguageProfile{}, false, err
	}
	return profile, true, nil
}

func scanProfile(row scannable) (LanguageProfile, error) {
	var pr LanguageProfile
	var targets, chain string
	err := row.Scan(&pr.ID, &pr.Name, &pr.SourceLang, &targets, &chain, &pr.ForcedPreference)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return LanguageProfile{}, fmt.Errorf("%w: language profile", ErrNotFound)
		}
		return LanguageProfile{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := json.Unmarshal([]byte(targets), &pr.TargetLangs); err != nil {
		return LanguageProfile{}, fmt.Errorf("decoding target_langs: %w", err)
	}
	if err := json.Unmarshal([]byte(chain), &pr.FallbackChain); err != nil {
		return LanguageProfile{}, fmt.Errorf("decoding fallback_chain: %w", err)
	}
	return pr, nil
}
