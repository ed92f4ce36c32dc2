package api

import "github.com/go-chi/chi/v5"

// mountRoutes wires every endpoint spec §6 names under the /api/v1 prefix.
// One route per component operation, grouped by category the way the
// teacher's Registry mounts one sub-router per Service.
func mountRoutes(r chi.Router, deps Dependencies) {
	h := newHandlers(deps)

	r.Get("/health", h.health)
	r.Get("/ws", deps.Broadcaster.ServeHTTP)

	r.Route("/api/v1", func(r chi.Router) {
		// Translation
		r.Post("/translate", h.translateAsync)
		r.Post("/translate/sync", h.translateSync)
		r.Get("/status/{jobID}", h.jobStatus)
		r.Get("/jobs", h.listJobs)
		r.Post("/jobs/{jobID}/retry", h.retryJob)
		r.Post("/batch", h.batchTranslate)
		r.Get("/batch/status", h.batchStatus)
		r.Post("/retranslate/{jobID}", h.retranslate)
		r.Post("/retranslate/batch", h.retranslateBatch)
		r.Get("/retranslate/status", h.retranslateStatus)

		// Wanted
		r.Get("/wanted", h.listWanted)
		r.Get("/wanted/summary", h.wantedSummary)
		r.Get("/wanted/{id}", h.getWanted)
		r.Delete("/wanted/{id}", h.deleteWanted)
		r.Post("/wanted/refresh", h.refreshWanted)
		r.Post("/wanted/{id}/search", h.searchWantedOne)
		r.Post("/wanted/{id}/process", h.processWantedOne)
		r.Post("/wanted/batch-search", h.batchSearchWanted)
		r.Post("/wanted/search-all", h.searchAllWanted)

		// Providers
		r.Get("/providers", h.listProviders)
		r.Post("/providers/test/{name}", h.testProvider)
		r.Post("/providers/search", h.searchProviders)
		r.Get("/providers/stats", h.providerStats)
		r.Get("/providers/health", h.providerHealth)
		r.Post("/providers/{name}/enable", h.enableProvider)
		r.Post("/providers/cache/clear", h.clearProviderCache)

		// Library
		r.Get("/library", h.listLibrary)
		r.Get("/library/episodes/{id}/subtitles", h.episodeSubtitles)
		r.Get("/library/series/{id}/subtitles", h.seriesSubtitles)
		r.Delete("/library/subtitles", h.deleteSubtitle)
		r.Post("/library/series/{id}/subtitles/batch-delete", h.batchDeleteSeriesSubtitles)
		r.Get("/library/trash", h.listTrash)
		r.Post("/library/trash/{batchID}/restore", h.restoreTrash)
		r.Delete("/library/trash/{batchID}", h.purgeTrash)
		r.Get("/library/history/downloads", h.historyDownloads)
		r.Get("/library/history/upgrades", h.historyUpgrades)

		// Language profiles
		r.Get("/profiles", h.listProfiles)
		r.Post("/profiles", h.createProfile)
		r.Delete("/profiles/{id}", h.deleteProfile)
		r.Post("/profiles/{id}/assign", h.assignProfile)

		// Configuration
		r.Get("/config", h.getConfig)
		r.Put("/config", h.putConfig)

		// API key / import-export management
		r.Get("/apikeys", h.listAPIKeys)
		r.Put("/apikeys", h.updateAPIKeys)
		r.Post("/apikeys/test/{name}", h.testAPIKey)
		r.Get("/config/export", h.exportConfig)
		r.Post("/config/import", h.importConfig)
		r.Post("/config/import/bazarr", h.importBazarr)

		// Webhooks
		r.Post("/webhook/sonarr", h.webhookSonarr)
		r.Post("/webhook/radarr", h.webhookRadarr)

		// Tools
		r.Post("/tools/remove-hi", h.toolRemoveHI)
		r.Post("/tools/adjust-timing", h.toolAdjustTiming)
		r.Post("/tools/common-fixes", h.toolCommonFixes)
		r.Get("/tools/preview", h.toolPreview)

		// Standalone mode
		r.Get("/standalone/folders", h.listWatchedFolders)
		r.Post("/standalone/folders", h.addWatchedFolder)
		r.Delete("/standalone/folders/{name}", h.removeWatchedFolder)
		r.Post("/standalone/scan", h.triggerScan)

		// Integrations
		r.Get("/integrations/mapping-report", h.mappingReport)
		r.Get("/integrations/compatibility", h.compatibilityCheck)
		r.Get("/integrations/health", h.extendedHealth)
		r.Get("/integrations/export", h.exportLibrary)
	})
}
