package scorer

import (
	"strings"
	"time"

	"github.com/sublarr/sublarr/internal/providerregistry"
)

// Score computes a deterministic match score for a candidate against the
// originating query, per spec §4.4 invariants #1-#7. providerModifier is
// the per-provider additive bias from Store, clamped to [-50, 50] and
// applied last.
func Score(w Weights, candidate providerregistry.Candidate, query providerregistry.VideoQuery, providerModifier int) int {
	score := 0

	if hasExactID(query) && candidateMatchesExactID(candidate, query) {
		score += w.ExactID
	} else if titleMatches(candidate, query) {
		score += w.SeriesTitle
		if query.Season > 0 && releaseHasSeason(candidate.ReleaseName, query.Season) {
			score += w.Season
		}
		if query.Episode > 0 && releaseHasEpisode(candidate.ReleaseName, query.Episode) {
			score += w.Episode
		}
	}

	if query.Year > 0 && releaseHasYear(candidate.ReleaseName, query.Year) {
		score += w.Year
	}
	if query.Resolution != "" && releaseHasResolution(candidate.ReleaseName, query.Resolution) {
		score += w.Resolution
	}
	if query.ReleaseGroup != "" && releaseHasGroup(candidate.ReleaseName, query.ReleaseGroup) {
		score += w.ReleaseGroup
	}

	// Invariant #3: HI is a penalty unless explicitly requested.
	if candidate.HearingImpaired && !query.HearingImpaired {
		score += w.HearingImpairedPenalty
	}

	// Invariant #4: forced is a penalty for full-subtitle queries, a bonus
	// when the query itself wants forced-only.
	if query.ForcedOnly {
		if candidate.ForcedOnly {
			score += w.ForcedBonus
		}
	} else if candidate.ForcedOnly {
		score += w.ForcedPenalty
	}

	// Invariant #5: MT penalty scaled by (1 - confidence). Candidate carries
	// no confidence value directly (spec leaves it to provider metadata);
	// a flagged MT candidate is treated as 0 confidence, i.e. full penalty.
	if candidate.MachineTranslated {
		score += w.MaxMachineTranslatedPenalty
	}

	// Invariant #6: uploader-trust bonus, additive and bounded.
	if candidate.UploaderTrusted {
		score += w.MaxUploaderTrustBonus
	}

	// Invariant #7: provider modifier applied last, clamped to [-50, 50].
	if providerModifier > 50 {
		providerModifier = 50
	} else if providerModifier < -50 {
		providerModifier = -50
	}
	score += providerModifier

	return score
}

func hasExactID(q providerregistry.VideoQuery) bool {
	return q.IMDBId != "" || q.TMDBId != ""
}

func candidateMatchesExactID(c providerregistry.Candidate, q providerregistry.VideoQuery) bool {
	// Providers that match on id embed it in ReleaseName/SubtitleID; exact
	// comparison happens at the provider layer before candidates surface
	// here, so presence of the query's id in the candidate's identity is
	// the signal available at this layer.
	return q.IMDBId != "" && containsFold(c.ReleaseName, q.IMDBId) ||
		q.TMDBId != "" && containsFold(c.ReleaseName, q.TMDBId)
}

// titleMatches treats dots and underscores as spaces on both sides, so
// "Show Name" matches a release named "Show.Name.S01E02".
func titleMatches(c providerregistry.Candidate, q providerregistry.VideoQuery) bool {
	sep := strings.NewReplacer(".", " ", "_", " ")
	return q.Title != "" && containsFold(sep.Replace(c.ReleaseName), sep.Replace(q.Title))
}

// ShouldUpgrade implements spec §4.4's should_upgrade: true iff (a) prefer_ass
// and old is non-ASS and new is ASS, or (b) the score delta clears
// min_delta. False if the existing file is older than window_days and
// neither condition applies with margin.
func ShouldUpgrade(oldFormat string, oldScore int, newFormat string, newScore int,
	preferASS bool, minScoreDelta int, windowDays int, existingFileAge time.Duration) (bool, string) {

	if preferASS && oldFormat != "ass" && newFormat == "ass" {
		return true, "preferred format upgrade to ass"
	}
	if newScore-oldScore >= minScoreDelta {
		return true, "score delta meets upgrade threshold"
	}
	if existingFileAge > time.Duration(windowDays)*24*time.Hour {
		return false, "existing file exceeds upgrade window with no qualifying improvement"
	}
	return false, "no qualifying improvement"
}
