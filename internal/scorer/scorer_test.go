package scorer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sublarr/sublarr/internal/providerregistry"
)

func TestSeriesSeasonEpisodeReachesPerfectThreshold(t *testing.T) {
	w := DefaultWeights()
	query := providerregistry.VideoQuery{Title: "Show Name", Season: 1, Episode: 2}
	candidate := providerregistry.Candidate{ReleaseName: "Show.Name.S01E02.WEB.fr"}

	score := Score(w, candidate, query, 0)
	require.GreaterOrEqual(t, score, PerfectThreshold)
}

func TestExactIDOutscoresTitleMatch(t *testing.T) {
	w := DefaultWeights()
	idQuery := providerregistry.VideoQuery{IMDBId: "tt1234567"}
	idCandidate := providerregistry.Candidate{ReleaseName: "release-tt1234567"}
	idScore := Score(w, idCandidate, idQuery, 0)

	titleQuery := providerregistry.VideoQuery{Title: "Show Name"}
	titleCandidate := providerregistry.Candidate{ReleaseName: "Show.Name.WEB"}
	titleScore := Score(w, titleCandidate, titleQuery, 0)

	require.Greater(t, idScore, titleScore)
}

func TestYearOutscoresResolution(t *testing.T) {
	w := DefaultWeights()
	yearQuery := providerregistry.VideoQuery{Year: 2020}
	yearScore := Score(w, providerregistry.Candidate{ReleaseName: "Movie.2020"}, yearQuery, 0)

	resQuery := providerregistry.VideoQuery{Resolution: "1080p"}
	resScore := Score(w, providerregistry.Candidate{ReleaseName: "Movie.1080p"}, resQuery, 0)

	require.Greater(t, yearScore, resScore)
}

func TestHearingImpairedPenalizedUnlessRequested(t *testing.T) {
	w := DefaultWeights()
	candidate := providerregistry.Candidate{HearingImpaired: true}

	penalized := Score(w, candidate, providerregistry.VideoQuery{}, 0)
	notPenalized := Score(w, candidate, providerregistry.VideoQuery{HearingImpaired: true}, 0)

	require.Less(t, penalized, notPenalized)
}

func TestForcedPenaltyAndBonus(t *testing.T) {
	w := DefaultWeights()
	forcedCandidate := providerregistry.Candidate{ForcedOnly: true}

	fullQueryScore := Score(w, forcedCandidate, providerregistry.VideoQuery{ForcedOnly: false}, 0)
	forcedQueryScore := Score(w, forcedCandidate, providerregistry.VideoQuery{ForcedOnly: true}, 0)

	require.Less(t, fullQueryScore, 0)
	require.Greater(t, forcedQueryScore, 0)
}

func TestMachineTranslatedPenalty(t *testing.T) {
	w := DefaultWeights()
	mt := providerregistry.Candidate{MachineTranslated: true}
	plain := providerregistry.Candidate{}

	require.Less(t, Score(w, mt, providerregistry.VideoQuery{}, 0), Score(w, plain, providerregistry.VideoQuery{}, 0))
}

func TestProviderModifierClamped(t *testing.T) {
	w := DefaultWeights()
	base := Score(w, providerregistry.Candidate{}, providerregistry.VideoQuery{}, 0)
	high := Score(w, providerregistry.Candidate{}, providerregistry.VideoQuery{}, 9000)
	low := Score(w, providerregistry.Candidate{}, providerregistry.VideoQuery{}, -9000)

	require.Equal(t, base+50, high)
	require.Equal(t, base-50, low)
}

func TestShouldUpgradePrefersASSRegardlessOfDelta(t *testing.T) {
	ok, _ := ShouldUpgrade("srt", 900, "ass", 905, true, 40, 7, time.Hour)
	require.True(t, ok)
}

func TestShouldUpgradeRejectsSmallDeltaPastWindow(t *testing.T) {
	ok, reason := ShouldUpgrade("ass", 900, "ass", 910, true, 40, 7, 10*24*time.Hour)
	require.False(t, ok)
	require.Contains(t, reason, "window")
}

func TestShouldUpgradeAcceptsLargeDelta(t *testing.T) {
	ok, _ := ShouldUpgrade("ass", 800, "ass", 900, true, 40, 7, time.Hour)
	require.True(t, ok)
}
