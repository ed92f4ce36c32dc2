// Package config holds sublarr's persisted settings: provider and
// translation-backend credentials, scorer weight overrides, scan/search
// intervals, and the environment-variable startup paths from spec §6.
// Layered the same way the teacher's internal/config/settings.go does it:
// viper + YAML under $XDG_CONFIG_HOME, typed Settings via mapstructure.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"
)

// ProviderSettings overrides a provider's rate limit, timeout, and retry
// budget. Zero values mean "use the provider's compiled-in default".
type ProviderSettings struct {
	Enabled      bool   `mapstructure:"enabled"`
	APIKey       string `mapstructure:"api_key"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	MaxRequests  int    `mapstructure:"max_requests"`
	WindowSec    int    `mapstructure:"window_seconds"`
	TimeoutSec   int    `mapstructure:"timeout_seconds"`
	MaxRetries   int    `mapstructure:"max_retries"`
	Priority     int    `mapstructure:"priority"`
}

// BackendSettings configures one translation backend, keyed
// backend.<name>.<key> per spec §4.5.
type BackendSettings struct {
	Enabled  bool   `mapstructure:"enabled"`
	APIKey   string `mapstructure:"api_key"`
	BaseURL  string `mapstructure:"base_url"`
	Model    string `mapstructure:"model"`
	Prompt   string `mapstructure:"prompt_template"`
}

// ScorerWeights are the tunable point values behind the Scorer (spec §4.4,
// §9 Open Question #1). Defaults live in internal/scorer/weights.go;
// non-zero overrides here win.
type ScorerWeights struct {
	ExactID           int `mapstructure:"exact_id"`
	SeriesTitle       int `mapstructure:"series_title"`
	Season            int `mapstructure:"season"`
	Episode           int `mapstructure:"episode"`
	Year              int `mapstructure:"year"`
	Resolution        int `mapstructure:"resolution"`
	ReleaseGroup      int `mapstructure:"release_group"`
	HearingImpairedPenalty int `mapstructure:"hearing_impaired_penalty"`
	ForcedPenalty     int `mapstructure:"forced_penalty"`
	ForcedBonus       int `mapstructure:"forced_bonus"`
	MaxMTPenalty      int `mapstructure:"max_machine_translated_penalty"`
	MaxUploaderBonus  int `mapstructure:"max_uploader_trust_bonus"`
}

// UpgradeSettings parameterize should_upgrade (spec §4.4).
type UpgradeSettings struct {
	PreferASS     bool `mapstructure:"prefer_ass"`
	MinScoreDelta int  `mapstructure:"min_score_delta"`
	WindowDays    int  `mapstructure:"window_days"`
}

// BackoffSettings parameterize the WantedPipeline adaptive backoff (spec §4.7).
type BackoffSettings struct {
	BaseHours float64 `mapstructure:"base_hours"`
	CapHours  float64 `mapstructure:"cap_hours"`
}

// AutoDisableSettings parameterize provider/backend circuit auto-disable.
type AutoDisableSettings struct {
	FailureThreshold int `mapstructure:"failure_threshold"`
	CooldownSeconds  int `mapstructure:"cooldown_seconds"`
}

// LibraryManagerSettings configures one Sonarr/Radarr connection (spec §4.10
// Integrations). Enabled=false means sublarr runs in standalone/watched-
// folder mode against that manager.
type LibraryManagerSettings struct {
	Enabled bool   `mapstructure:"enabled"`
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
}

// MediaServerSettings configures a Plex or Kodi refresh target.
type MediaServerSettings struct {
	Enabled   bool   `mapstructure:"enabled"`
	BaseURL   string `mapstructure:"base_url"`
	Token     string `mapstructure:"token"`    // Plex X-Plex-Token
	SectionID string `mapstructure:"section_id"` // Plex library section
}

// IntegrationSettings bundles every external-system connection sublarr can
// be configured against, per spec §4.10/§6.
type IntegrationSettings struct {
	Sonarr LibraryManagerSettings `mapstructure:"sonarr"`
	Radarr LibraryManagerSettings `mapstructure:"radarr"`
	Plex   MediaServerSettings    `mapstructure:"plex"`
	Kodi   MediaServerSettings    `mapstructure:"kodi"`
}

type Settings struct {
	Providers    map[string]ProviderSettings `mapstructure:"providers"`
	Backends     map[string]BackendSettings  `mapstructure:"backends"`
	ScorerWeights ScorerWeights              `mapstructure:"scorer_weights"`
	Upgrade      UpgradeSettings             `mapstructure:"upgrade"`
	Backoff      BackoffSettings             `mapstructure:"backoff"`
	AutoDisable  AutoDisableSettings         `mapstructure:"auto_disable"`
	Integrations IntegrationSettings         `mapstructure:"integrations"`

	AutoPrioritizeProviders bool `mapstructure:"auto_prioritize_providers"`
	EarlyExit               bool `mapstructure:"early_exit"`
	SkipSRTOnNoASS          bool `mapstructure:"skip_srt_on_no_ass"`
	ProviderCacheTTLMinutes int  `mapstructure:"provider_cache_ttl_minutes"`
	MaxSearchAttempts       int  `mapstructure:"max_search_attempts"`
	WhisperEnabled          bool   `mapstructure:"whisper_enabled"`
	WhisperAPIURL           string `mapstructure:"whisper_api_url"`
	WhisperModel            string `mapstructure:"whisper_model"`
	HIRemovalEnabled        bool   `mapstructure:"hi_removal_enabled"`

	ScanIntervalSeconds   int `mapstructure:"scan_interval_seconds"`
	SearchIntervalSeconds int `mapstructure:"search_interval_seconds"`
	MaxItemsPerRun        int `mapstructure:"max_items_per_run"`
	TrashRetentionDays    int `mapstructure:"trash_retention_days"`

	WebhookDelaySeconds int `mapstructure:"webhook_delay_seconds"`

	FallbackChain []string `mapstructure:"fallback_chain"`
}

var (
	mu       sync.RWMutex
	onChange []func(Settings)
)

func configDir() (string, error) {
	if d := os.Getenv("SUBLARR_CONFIG_DIR"); d != "" {
		return d, nil
	}
	dir := filepath.Join(xdg.ConfigHome, "sublarr")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}

func configPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// InitConfig loads (or creates with defaults) the YAML config file. Mirrors
// internal/config/settings.go's InitConfig: defaults registered first, then
// ReadInConfig, falling back to SafeWriteConfig when no file exists yet.
func InitConfig(customPath string) error {
	if customPath != "" {
		viper.SetConfigFile(customPath)
	} else {
		path, err := configPath()
		if err != nil {
			return err
		}
		viper.SetConfigFile(path)
		viper.SetConfigType("yaml")
	}

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			if err := viper.SafeWriteConfig(); err != nil {
				return fmt.Errorf("writing default config: %w", err)
			}
		} else {
			return fmt.Errorf("reading config: %w", err)
		}
	}
	return nil
}

func setDefaults() {
	viper.SetDefault("auto_prioritize_providers", true)
	viper.SetDefault("early_exit", true)
	viper.SetDefault("skip_srt_on_no_ass", true)
	viper.SetDefault("provider_cache_ttl_minutes", 60)
	viper.SetDefault("max_search_attempts", 10)
	viper.SetDefault("whisper_enabled", false)
	viper.SetDefault("whisper_api_url", "http://localhost:9000")
	viper.SetDefault("whisper_model", "base")
	viper.SetDefault("hi_removal_enabled", true)

	viper.SetDefault("scan_interval_seconds", 3600)
	viper.SetDefault("search_interval_seconds", 900)
	viper.SetDefault("max_items_per_run", 50)
	viper.SetDefault("trash_retention_days", 30)
	viper.SetDefault("webhook_delay_seconds", 5)

	viper.SetDefault("upgrade.prefer_ass", true)
	viper.SetDefault("upgrade.min_score_delta", 40)
	viper.SetDefault("upgrade.window_days", 7)

	viper.SetDefault("backoff.base_hours", 1.0)
	viper.SetDefault("backoff.cap_hours", 168.0)

	viper.SetDefault("auto_disable.failure_threshold", 5)
	viper.SetDefault("auto_disable.cooldown_seconds", 1800)

	viper.SetDefault("fallback_chain", []string{"local_llm", "deepl"})

	viper.SetDefault("integrations.sonarr.enabled", false)
	viper.SetDefault("integrations.radarr.enabled", false)
	viper.SetDefault("integrations.plex.enabled", false)
	viper.SetDefault("integrations.kodi.enabled", false)
}

// Load reads the current settings out of viper into a typed Settings.
func Load() (Settings, error) {
	mu.RLock()
	defer mu.RUnlock()
	var s Settings
	if err := viper.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("unmarshalling settings: %w", err)
	}
	return s, nil
}

// Save persists settings and notifies every OnChange subscriber so
// dependent singletons (ProviderManager, TranslationManager, Scanner) can
// invalidate themselves, per spec §5 "reloads invalidate the dependent
// singletons".
func Save(s Settings) error {
	mu.Lock()
	viper.Set("providers", s.Providers)
	viper.Set("backends", s.Backends)
	viper.Set("scorer_weights", s.ScorerWeights)
	viper.Set("upgrade", s.Upgrade)
	viper.Set("backoff", s.Backoff)
	viper.Set("auto_disable", s.AutoDisable)
	viper.Set("integrations", s.Integrations)
	viper.Set("auto_prioritize_providers", s.AutoPrioritizeProviders)
	viper.Set("early_exit", s.EarlyExit)
	viper.Set("skip_srt_on_no_ass", s.SkipSRTOnNoASS)
	viper.Set("provider_cache_ttl_minutes", s.ProviderCacheTTLMinutes)
	viper.Set("max_search_attempts", s.MaxSearchAttempts)
	viper.Set("whisper_enabled", s.WhisperEnabled)
	viper.Set("whisper_api_url", s.WhisperAPIURL)
	viper.Set("whisper_model", s.WhisperModel)
	viper.Set("hi_removal_enabled", s.HIRemovalEnabled)
	viper.Set("scan_interval_seconds", s.ScanIntervalSeconds)
	viper.Set("search_interval_seconds", s.SearchIntervalSeconds)
	viper.Set("max_items_per_run", s.MaxItemsPerRun)
	viper.Set("trash_retention_days", s.TrashRetentionDays)
	viper.Set("webhook_delay_seconds", s.WebhookDelaySeconds)
	viper.Set("fallback_chain", s.FallbackChain)
	mu.Unlock()

	if err := viper.WriteConfig(); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	notify(s)
	return nil
}

// OnChange registers a callback invoked after every successful Save, used
// by main to wire invalidation of the provider/translation/scanner
// singletons.
func OnChange(fn func(Settings)) {
	mu.Lock()
	defer mu.Unlock()
	onChange = append(onChange, fn)
}

func notify(s Settings) {
	mu.RLock()
	fns := append([]func(Settings){}, onChange...)
	mu.RUnlock()
	for _, fn := range fns {
		fn(s)
	}
}

// EnvPaths are the startup-only settings that live in the environment, not
// the config table (spec §6 "Environment").
type EnvPaths struct {
	MediaRoot string
	ConfigDir string
	DBPath    string
	ListenPort string
}

// LoadEnvPaths reads the four startup environment variables. MediaRoot must
// be writable; callers validate that separately.
func LoadEnvPaths() (EnvPaths, error) {
	media := os.Getenv("SUBLARR_MEDIA_ROOT")
	if media == "" {
		return EnvPaths{}, fmt.Errorf("SUBLARR_MEDIA_ROOT is required")
	}
	dir, err := configDir()
	if err != nil {
		return EnvPaths{}, err
	}
	dbPath := os.Getenv("SUBLARR_DB_PATH")
	if dbPath == "" {
		dbPath = filepath.Join(dir, "sublarr.db")
	}
	port := os.Getenv("SUBLARR_LISTEN_PORT")
	if port == "" {
		port = "6767"
	}
	return EnvPaths{MediaRoot: media, ConfigDir: dir, DBPath: dbPath, ListenPort: port}, nil
}
