package scanner

import (
	"fmt"

	"github.com/sublarr/sublarr/internal/integrations"
	"github.com/sublarr/sublarr/internal/providerregistry"
)

// classify derives the WantedItem fields that depend on whether an item is
// an episode or a movie: item_type, a human season/episode label, and which
// of series_id/movie_id carries the owning entity.
func classify(item integrations.LibraryItem) (itemType, seasonEpisode, seriesID, movieID string) {
	if item.Season > 0 || item.Episode > 0 {
		return "episode", fmt.Sprintf("S%02dE%02d", item.Season, item.Episode), item.EntityID, ""
	}
	return "movie", "", "", item.EntityID
}

func buildQuery(item integrations.LibraryItem, targetLanguage string) providerregistry.VideoQuery {
	itemType, _, _, _ := classify(item)
	return providerregistry.VideoQuery{
		ItemType:       itemType,
		Title:          item.Title,
		Year:           item.Year,
		Season:         item.Season,
		Episode:        item.Episode,
		IMDBId:         item.IMDBId,
		TMDBId:         item.TMDBId,
		TargetLanguage: targetLanguage,
	}
}

// candidateFromFile builds a synthetic Candidate for scoring an existing
// on-disk subtitle: the video's own filename stands in for a provider
// release string, since that's the only release-like signal available once
// a file is already on disk rather than being offered by a provider.
func candidateFromFile(item integrations.LibraryItem) providerregistry.Candidate {
	return providerregistry.Candidate{
		ReleaseName: item.FilePath,
	}
}
