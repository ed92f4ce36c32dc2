package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sublarr/sublarr/internal/store"
)

// siblingSubtitlePath mirrors internal/translator's "{base}.{lang}.{ext}" /
// "{base}.{lang}.forced.{ext}" naming convention (Plex/Jellyfin/Emby/Kodi),
// duplicated here rather than exported from internal/translator since the
// scan loop only needs to check existence, never to read or write through
// the translator's own path helpers.
func siblingSubtitlePath(videoPath, lang, ext string, forced bool) string {
	base := strings.TrimSuffix(videoPath, filepath.Ext(videoPath))
	if forced {
		return fmt.Sprintf("%s.%s.forced.%s", base, lang, ext)
	}
	return fmt.Sprintf("%s.%s.%s", base, lang, ext)
}

// existingSubtitle reports what (if anything) already sits next to videoPath
// for lang, preferring ASS over SRT, and the resolved path when found.
func existingSubtitle(videoPath, lang string, forced bool) (store.ExistingSub, string) {
	assPath := siblingSubtitlePath(videoPath, lang, "ass", forced)
	if _, err := os.Stat(assPath); err == nil {
		return store.ExistingSubASS, assPath
	}
	srtPath := siblingSubtitlePath(videoPath, lang, "srt", forced)
	if _, err := os.Stat(srtPath); err == nil {
		return store.ExistingSubSRT, srtPath
	}
	return store.ExistingSubNone, ""
}
