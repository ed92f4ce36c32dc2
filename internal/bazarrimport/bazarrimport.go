// Package bazarrimport translates a Bazarr config export (YAML or INI) into
// sublarr's own Settings shape. Grounded on original_source/backend/bazarr_migrator.py's
// parse_bazarr_config/_normalize_config: detect format from content rather than trust a
// file extension the HTTP client may not send, pull provider credentials out of whichever
// section Bazarr used for them across its format history, and surface anything we can't
// place as a warning instead of failing the whole import.
package bazarrimport

import (
	"fmt"
	"io"
	"strconv"

	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"

	"github.com/sublarr/sublarr/internal/apperrors"
	"github.com/sublarr/sublarr/internal/config"
)

// Report lists what the import found but could not fold into Settings, plus
// anything that looked malformed, so the caller can show the operator what
// still needs manual attention.
type Report struct {
	Warnings   []string          `json:"warnings"`
	SonarrURL  string            `json:"sonarr_url,omitempty"`
	RadarrURL  string            `json:"radarr_url,omitempty"`
	Unmapped   map[string]string `json:"unmapped,omitempty"`
	ProvidersImported []string   `json:"providers_imported"`
}

// bazarrProviderKey maps each Bazarr provider section name that sublarr
// recognizes to its provider registry name; every entry maps a name to
// itself.
var bazarrProviderKey = map[string]string{
	"opensubtitles":     "opensubtitles",
	"opensubtitlescom":  "opensubtitlescom",
	"subscene":          "subscene",
	"addic7ed":          "addic7ed",
	"podnapisi":         "podnapisi",
}

// Import parses a Bazarr config export and merges anything it recognizes
// into the current settings, returning the merged Settings plus a Report
// of what it could and couldn't place. It never returns a partially-merged
// Settings on error: a parse failure leaves the caller's config untouched.
func Import(r io.Reader) (config.Settings, Report, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return config.Settings{}, Report{}, apperrors.Wrap(apperrors.ErrValidation, "reading import body: %v", err)
	}

	data, warnings, err := parse(raw)
	if err != nil {
		return config.Settings{}, Report{}, err
	}

	settings, err := config.Load()
	if err != nil {
		return config.Settings{}, Report{}, err
	}
	if settings.Providers == nil {
		settings.Providers = map[string]config.ProviderSettings{}
	}

	report := Report{Warnings: warnings, Unmapped: map[string]string{}}
	applyGeneral(data, &settings, &report)
	applyProviders(data, &settings, &report)

	return settings, report, nil
}

// parse tries YAML first (Bazarr's config.yaml since v1) and falls back to
// INI (the legacy config.ini format), mirroring _parse_yaml/_parse_ini's
// try-then-fall-back dance rather than trusting a filename extension the
// HTTP client has no reason to send.
func parse(raw []byte) (map[string]interface{}, []string, error) {
	var yamlData map[string]interface{}
	if err := yaml.Unmarshal(raw, &yamlData); err == nil && len(yamlData) > 0 {
		return yamlData, nil, nil
	}

	file, err := ini.Load(raw)
	if err != nil {
		return nil, nil, apperrors.Wrap(apperrors.ErrValidation, "not a recognizable Bazarr config (tried YAML and INI): %v", err)
	}

	data := make(map[string]interface{}, len(file.Sections()))
	var warnings []string
	for _, section := range file.Sections() {
		if section.Name() == ini.DefaultSection && len(section.Keys()) == 0 {
			continue
		}
		kv := make(map[string]interface{}, len(section.Keys()))
		for _, key := range section.Keys() {
			kv[key.Name()] = key.Value()
		}
		data[section.Name()] = kv
	}
	if len(data) == 0 {
		warnings = append(warnings, "config file parsed but contained no sections")
	}
	return data, warnings, nil
}

func section(data map[string]interface{}, names ...string) map[string]interface{} {
	for _, name := range names {
		if v, ok := data[name]; ok {
			if m, ok := v.(map[string]interface{}); ok {
				return m
			}
		}
	}
	return nil
}

func stringField(m map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			switch t := v.(type) {
			case string:
				return t
			case fmt.Stringer:
				return t.String()
			default:
				return fmt.Sprintf("%v", t)
			}
		}
	}
	return ""
}

func intField(m map[string]interface{}, def int, keys ...string) int {
	s := stringField(m, keys...)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

// applyGeneral pulls the handful of top-level knobs that map directly onto
// Settings fields, plus the Sonarr/Radarr connection block into
// settings.Integrations; the Report still echoes the resolved URLs so the
// caller can show the operator what was picked up.
func applyGeneral(data map[string]interface{}, settings *config.Settings, report *Report) {
	if sonarr := section(data, "sonarr", "Sonarr"); sonarr != nil {
		ip := stringField(sonarr, "ip", "base_url", "host")
		port := stringField(sonarr, "port")
		if ip != "" {
			url := ip
			if port != "" {
				url = fmt.Sprintf("%s:%s", ip, port)
			}
			settings.Integrations.Sonarr.BaseURL = url
			report.SonarrURL = url
		}
		if key := stringField(sonarr, "apikey", "api_key"); key != "" {
			settings.Integrations.Sonarr.APIKey = key
		}
		if settings.Integrations.Sonarr.BaseURL != "" && settings.Integrations.Sonarr.APIKey != "" {
			settings.Integrations.Sonarr.Enabled = true
		}
	}
	if radarr := section(data, "radarr", "Radarr"); radarr != nil {
		ip := stringField(radarr, "ip", "base_url", "host")
		port := stringField(radarr, "port")
		if ip != "" {
			url := ip
			if port != "" {
				url = fmt.Sprintf("%s:%s", ip, port)
			}
			settings.Integrations.Radarr.BaseURL = url
			report.RadarrURL = url
		}
		if key := stringField(radarr, "apikey", "api_key"); key != "" {
			settings.Integrations.Radarr.APIKey = key
		}
		if settings.Integrations.Radarr.BaseURL != "" && settings.Integrations.Radarr.APIKey != "" {
			settings.Integrations.Radarr.Enabled = true
		}
	}

	if general := section(data, "general", "General"); general != nil {
		if days := intField(general, -1, "days_to_upgrade_subs"); days >= 0 {
			settings.Upgrade.WindowDays = days
		}
		if secs := intField(general, -1, "wanted_search_frequency", "search_frequency"); secs >= 0 {
			settings.SearchIntervalSeconds = secs * 3600
		}
	} else {
		report.Warnings = append(report.Warnings, "no [general] section found; scan/search/upgrade intervals left unchanged")
	}
}

// applyProviders walks every Bazarr provider section we recognize and
// folds its credentials into settings.Providers, keyed by sublarr's own
// provider name. Anything we don't recognize is left for the operator
// rather than guessed at.
func applyProviders(data map[string]interface{}, settings *config.Settings, report *Report) {
	for bazarrName, sublarrName := range bazarrProviderKey {
		sec := section(data, bazarrName, "general", "General")
		if sec == nil {
			continue
		}
		user := stringField(sec, bazarrName+"_username", "username")
		pass := stringField(sec, bazarrName+"_password", "password")
		key := stringField(sec, bazarrName+"_token", bazarrName+"_apikey", "api_key")
		if user == "" && pass == "" && key == "" {
			continue
		}
		existing := settings.Providers[sublarrName]
		existing.Enabled = true
		if user != "" {
			existing.Username = user
		}
		if pass != "" {
			existing.Password = pass
		}
		if key != "" {
			existing.APIKey = key
		}
		settings.Providers[sublarrName] = existing
		report.ProvidersImported = append(report.ProvidersImported, sublarrName)
	}

	if len(report.ProvidersImported) == 0 {
		report.Warnings = append(report.Warnings, "no recognizable provider credentials found in the uploaded config")
	}
}
