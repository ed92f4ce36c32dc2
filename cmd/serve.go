package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mitchellh/hashstructure/v2"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/sublarr/sublarr/internal/api"
	"github.com/sublarr/sublarr/internal/applog"
	"github.com/sublarr/sublarr/internal/circuitbreaker"
	"github.com/sublarr/sublarr/internal/config"
	"github.com/sublarr/sublarr/internal/ffprobe"
	"github.com/sublarr/sublarr/internal/integrations"
	"github.com/sublarr/sublarr/internal/jobqueue"
	"github.com/sublarr/sublarr/internal/notify"
	"github.com/sublarr/sublarr/internal/providermanager"
	"github.com/sublarr/sublarr/internal/providerregistry"
	"github.com/sublarr/sublarr/internal/providers"
	"github.com/sublarr/sublarr/internal/scanner"
	"github.com/sublarr/sublarr/internal/scorer"
	"github.com/sublarr/sublarr/internal/store"
	"github.com/sublarr/sublarr/internal/translationmanager"
	"github.com/sublarr/sublarr/internal/translationmanager/backends"
	"github.com/sublarr/sublarr/internal/translator"
	"github.com/sublarr/sublarr/internal/wantedpipeline"
	"github.com/sublarr/sublarr/internal/whisper"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the subtitle acquisition server",
	Run:   RunWithExit(runServe),
}

// app bundles every long-lived singleton so config-change invalidation and
// graceful shutdown both have one place to reach them, mirroring the
// teacher's pkg/llms.Client registered-singleton-plus-invalidate shape
// generalized across this whole process rather than one package.
type app struct {
	store       *store.Store
	registry    *providerregistry.Registry
	breakers    *circuitbreaker.Registry
	managers    []integrations.LibraryManager
	rescan      *integrations.RescanNotifier
	jobs        jobqueue.Queue
	log         zerolog.Logger

	providerMgr *providermanager.Manager
	translation *translationmanager.Manager
	translate   *translator.Translator
	pipeline    *wantedpipeline.Pipeline
	scan        *scanner.Scanner
	searchLoop  *scanner.SearchLoop
	webhook     *scanner.WebhookPipeline
}

func runServe(ctx context.Context, cmd *cobra.Command, args []string) error {
	log := applog.Init()
	envPaths, err := config.LoadEnvPaths()
	if err != nil {
		return fmt.Errorf("loading environment: %w", err)
	}

	st, err := store.Open(envPaths.DBPath, log)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}

	a := &app{store: st, log: log}
	if err := a.rebuild(envPaths.MediaRoot); err != nil {
		return fmt.Errorf("wiring dependencies: %w", err)
	}

	config.OnChange(func(config.Settings) {
		if err := a.rebuild(envPaths.MediaRoot); err != nil {
			a.log.Error().Err(err).Msg("rebuilding dependencies after config change failed")
		}
	})

	broadcaster := api.NewBroadcaster(log)
	srv := api.NewServer(serverConfig(envPaths.ListenPort), api.Dependencies{
		Store:       a.store,
		Registry:    a.registry,
		Providers:   a.providerMgr,
		Translate:   a.translate,
		Jobs:        a.jobs,
		Scanner:     a.scan,
		SearchLoop:  a.searchLoop,
		Webhook:     a.webhook,
		Integration: a.rescan,
		Managers:    a.managers,
		MediaRoot:   envPaths.MediaRoot,
		Broadcaster: broadcaster,
		Health:      a.healthReport,
		ConfigHash:  a.configHash,
		Log:         log,
	})

	if err := srv.Start(); err != nil {
		return err
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	a.jobs.Stop()
	return srv.Shutdown(shutdownCtx)
}

func serverConfig(listenPort string) api.Config {
	cfg := api.DefaultConfig()
	var port int
	if _, err := fmt.Sscanf(listenPort, "%d", &port); err == nil && port > 0 {
		cfg.Port = port
	}
	return cfg
}

// rebuild reconstructs every config-dependent singleton from the current
// Settings, implementing spec §5's "reloads invalidate the dependent
// singletons" via full reconstruction rather than partial mutation — the
// simplest invalidation strategy that cannot leave two singletons holding
// inconsistent halves of a config change.
func (a *app) rebuild(mediaRoot string) error {
	settings, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading settings: %w", err)
	}

	a.breakers = circuitbreaker.NewRegistry(circuitbreaker.DefaultConfig()).WithNotifier(notify.NewLogNotifier(a.log))
	a.registry = providerregistry.New(a.store.ProviderStats, a.breakers, a.log)
	registerProviders(a.registry, settings, a.log)

	weights := mergeWeights(settings.ScorerWeights)
	cacheTTL := time.Duration(settings.ProviderCacheTTLMinutes) * time.Minute
	a.providerMgr = providermanager.New(a.registry, a.store, weights, cacheTTL, settings.EarlyExit, a.log)

	memory := translationmanager.NewMemory(a.store.TranslationMemory)
	a.translation = translationmanager.New(a.breakers, a.store.BackendStats, memory, a.log)
	registerBackends(a.translation, settings, a.log)

	a.jobs = jobqueue.NewDurableQueue(a.store.Jobs, 4, a.log)

	var whisperClient translator.WhisperSubmitter
	if settings.WhisperEnabled {
		whisperClient = whisper.New(settings.WhisperAPIURL, settings.WhisperModel, a.jobs, a.configHash, a.log)
	}

	prober := ffprobe.New()
	a.translate = translator.New(prober, prober, a.providerMgr, a.translation, whisperClient, a.store.History, a.log)

	a.managers = buildManagers(settings, a.log)
	mediaServers := buildMediaServers(settings, a.log)
	a.rescan = integrations.NewRescanNotifier(a.managers, mediaServers, a.log)

	a.pipeline = wantedpipeline.New(a.store, a.providerMgr, a.translate, a.rescan, wantedPipelineConfig(settings), a.log)

	var sources []scanner.LibrarySource
	for _, m := range a.managers {
		sources = append(sources, scanner.NewIntegrationSource(m))
	}
	a.scan = scanner.New(a.store, sources, prober, scannerConfig(settings), a.log)
	a.searchLoop = scanner.NewSearchLoop(a.store, a.pipeline, scannerConfig(settings), a.log)
	a.webhook = scanner.NewWebhookPipeline(a.scan, a.searchLoop, a.rescan.RefreshAll, webhookConfig(settings), a.log)

	return nil
}

func (a *app) configHash() string {
	settings, err := config.Load()
	if err != nil {
		return ""
	}
	hash, err := hashstructure.Hash(settings, hashstructure.FormatV2, nil)
	if err != nil {
		a.log.Warn().Err(err).Msg("hashing settings for job dedup")
		return ""
	}
	return fmt.Sprintf("%x", hash)
}

func (a *app) healthReport(ctx context.Context) api.HealthReport {
	report := api.HealthReport{Healthy: true, Integrations: map[string]bool{}}
	for _, m := range a.managers {
		ok, _ := m.HealthCheck(ctx)
		report.Integrations[m.Name()] = ok
		if !ok {
			report.Healthy = false
		}
	}
	return report
}

func registerProviders(registry *providerregistry.Registry, settings config.Settings, log zerolog.Logger) {
	factories := map[string]func(cfg config.ProviderSettings) providerregistry.SubtitleProvider{
		"opensubtitles": func(cfg config.ProviderSettings) providerregistry.SubtitleProvider {
			return providers.NewOpenSubtitles(cfg.APIKey, log)
		},
		"subdl": func(cfg config.ProviderSettings) providerregistry.SubtitleProvider {
			return providers.NewSubDL(cfg.APIKey, log)
		},
		"jimaku": func(cfg config.ProviderSettings) providerregistry.SubtitleProvider {
			return providers.NewJimaku(cfg.APIKey, log)
		},
		"animetosho": func(cfg config.ProviderSettings) providerregistry.SubtitleProvider {
			return providers.NewAnimeTosho(log)
		},
	}

	registry.Register(providers.NewEmbedded(), providerregistry.Limits{MaxRequests: 1 << 30, Window: time.Second, Timeout: time.Minute})

	for name, factory := range factories {
		cfg, configured := settings.Providers[name]
		if !configured || !cfg.Enabled {
			continue
		}
		registry.Register(factory(cfg), limitsFor(name, cfg))
	}
}

func limitsFor(name string, cfg config.ProviderSettings) providerregistry.Limits {
	limits, ok := providers.DefaultLimits()[name]
	if !ok {
		limits = providerregistry.Limits{
			MaxRequests: 5,
			Window:      time.Second,
			Timeout:     30 * time.Second,
			MaxRetries:  2,
		}
	}
	if cfg.MaxRequests > 0 {
		limits.MaxRequests = cfg.MaxRequests
	}
	if cfg.WindowSec > 0 {
		limits.Window = time.Duration(cfg.WindowSec) * time.Second
	}
	if cfg.TimeoutSec > 0 {
		limits.Timeout = time.Duration(cfg.TimeoutSec) * time.Second
	}
	if cfg.MaxRetries > 0 {
		limits.MaxRetries = cfg.MaxRetries
	}
	return limits
}

// registerBackends instantiates the concrete backend for every enabled
// entry in settings.Backends. Names matching a known backend package get
// their dedicated client; anything else is assumed to be an OpenAI-
// compatible endpoint (LM Studio, Ollama's OpenAI shim, vLLM, etc.), the
// same fallback original_source/backend/translators treats unrecognized
// backend names as.
func registerBackends(manager *translationmanager.Manager, settings config.Settings, log zerolog.Logger) {
	for name, cfg := range settings.Backends {
		if !cfg.Enabled {
			continue
		}
		backend, err := buildBackend(name, cfg)
		if err != nil {
			log.Warn().Str("backend", name).Err(err).Msg("skipping translation backend")
			continue
		}
		manager.Register(backend)
	}
}

func buildBackend(name string, cfg config.BackendSettings) (translationmanager.Backend, error) {
	switch name {
	case "deepl":
		return backends.NewDeepL(cfg.APIKey, strings.Contains(cfg.BaseURL, "free")), nil
	case "google":
		return backends.NewGoogle(context.Background(), cfg.APIKey, cfg.Model)
	case "googletranslate":
		return backends.NewGoogleTranslate(cfg.APIKey), nil
	case "libretranslate":
		return backends.NewLibreTranslate(cfg.BaseURL, cfg.APIKey), nil
	case "local_llm":
		return backends.NewLocalLLM(cfg.BaseURL, cfg.Model, cfg.Prompt), nil
	default:
		return backends.NewOpenAICompatible(name, name, cfg.APIKey, cfg.BaseURL, cfg.Model, cfg.Prompt), nil
	}
}

func buildManagers(settings config.Settings, log zerolog.Logger) []integrations.LibraryManager {
	var managers []integrations.LibraryManager
	if s := settings.Integrations.Sonarr; s.Enabled && s.BaseURL != "" {
		managers = append(managers, integrations.NewSonarrClient(s.BaseURL, s.APIKey, log))
	}
	if r := settings.Integrations.Radarr; r.Enabled && r.BaseURL != "" {
		managers = append(managers, integrations.NewRadarrClient(r.BaseURL, r.APIKey, log))
	}
	return managers
}

func buildMediaServers(settings config.Settings, log zerolog.Logger) []integrations.MediaServerNotifier {
	var out []integrations.MediaServerNotifier
	if p := settings.Integrations.Plex; p.Enabled && p.BaseURL != "" {
		out = append(out, integrations.NewPlexNotifier(p.BaseURL, p.Token, p.SectionID, log))
	}
	if k := settings.Integrations.Kodi; k.Enabled && k.BaseURL != "" {
		out = append(out, integrations.NewKodiNotifier(k.BaseURL, log))
	}
	return out
}

func mergeWeights(overrides config.ScorerWeights) scorer.Weights {
	w := scorer.DefaultWeights()
	if overrides.ExactID != 0 {
		w.ExactID = overrides.ExactID
	}
	if overrides.SeriesTitle != 0 {
		w.SeriesTitle = overrides.SeriesTitle
	}
	if overrides.Season != 0 {
		w.Season = overrides.Season
	}
	if overrides.Episode != 0 {
		w.Episode = overrides.Episode
	}
	if overrides.Year != 0 {
		w.Year = overrides.Year
	}
	if overrides.Resolution != 0 {
		w.Resolution = overrides.Resolution
	}
	if overrides.ReleaseGroup != 0 {
		w.ReleaseGroup = overrides.ReleaseGroup
	}
	if overrides.HearingImpairedPenalty != 0 {
		w.HearingImpairedPenalty = overrides.HearingImpairedPenalty
	}
	if overrides.ForcedPenalty != 0 {
		w.ForcedPenalty = overrides.ForcedPenalty
	}
	if overrides.ForcedBonus != 0 {
		w.ForcedBonus = overrides.ForcedBonus
	}
	if overrides.MaxMTPenalty != 0 {
		w.MaxMachineTranslatedPenalty = overrides.MaxMTPenalty
	}
	if overrides.MaxUploaderBonus != 0 {
		w.MaxUploaderTrustBonus = overrides.MaxUploaderBonus
	}
	return w
}

func scannerConfig(settings config.Settings) scanner.Config {
	cfg := scanner.DefaultConfig()
	if settings.ScanIntervalSeconds > 0 {
		cfg.ScanInterval = time.Duration(settings.ScanIntervalSeconds) * time.Second
	}
	if settings.SearchIntervalSeconds > 0 {
		cfg.SearchInterval = time.Duration(settings.SearchIntervalSeconds) * time.Second
	}
	if settings.MaxSearchAttempts > 0 {
		cfg.MaxSearchAttempts = settings.MaxSearchAttempts
	}
	if settings.MaxItemsPerRun > 0 {
		cfg.MaxItemsPerRun = settings.MaxItemsPerRun
	}
	return cfg
}

func webhookConfig(settings config.Settings) scanner.WebhookConfig {
	return scanner.WebhookConfig{
		Delay:         time.Duration(settings.WebhookDelaySeconds) * time.Second,
		ScanEnabled:   true,
		WantedEnabled: true,
		NotifyEnabled: true,
	}
}

func wantedPipelineConfig(settings config.Settings) wantedpipeline.Config {
	cfg := wantedpipeline.DefaultConfig()
	if settings.MaxSearchAttempts > 0 {
		cfg.MaxSearchAttempts = settings.MaxSearchAttempts
	}
	if settings.Backoff.BaseHours > 0 {
		cfg.BaseBackoffHours = settings.Backoff.BaseHours
	}
	if settings.Backoff.CapHours > 0 {
		cfg.CapBackoffHours = settings.Backoff.CapHours
	}
	cfg.SkipSRTOnNoASS = settings.SkipSRTOnNoASS
	return cfg
}
