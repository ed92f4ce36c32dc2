package wantedpipeline

import (
	"regexp"
	"strconv"
)

var seasonEpisodeRe = regexp.MustCompile(`(?i)S(\d{1,3})E(\d{1,4})`)

// parseSeasonEpisode pulls season/episode numbers out of a "S01E02"-style
// label. Returns zeros (movies, or an unparseable label) when there's
// nothing to extract.
func parseSeasonEpisode(label string) (season, episode int) {
	m := seasonEpisodeRe.FindStringSubmatch(label)
	if m == nil {
		return 0, 0
	}
	season, _ = strconv.Atoi(m[1])
	episode, _ = strconv.Atoi(m[2])
	return season, episode
}
