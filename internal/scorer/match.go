package scorer

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

func containsFold(haystack, needle string) bool {
	return needle != "" && strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

var seasonEpisodeRe = regexp.MustCompile(`(?i)s(\d{1,2})e(\d{1,3})`)

func releaseHasSeason(release string, season int) bool {
	m := seasonEpisodeRe.FindStringSubmatch(release)
	if m == nil {
		return false
	}
	n, err := strconv.Atoi(m[1])
	return err == nil && n == season
}

func releaseHasEpisode(release string, episode int) bool {
	m := seasonEpisodeRe.FindStringSubmatch(release)
	if m == nil {
		return false
	}
	n, err := strconv.Atoi(m[2])
	return err == nil && n == episode
}

func releaseHasYear(release string, year int) bool {
	return strings.Contains(release, fmt.Sprintf("%d", year))
}

func releaseHasResolution(release, resolution string) bool {
	return containsFold(release, resolution)
}

func releaseHasGroup(release, group string) bool {
	return containsFold(release, group)
}
