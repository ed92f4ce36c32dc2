package translator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sublarr/sublarr/pkg/subsutil"
)

// outputPath returns "{base}.{lang}.{ext}", or "{base}.{lang}.forced.{ext}"
// for forced subtitles — the Plex/Jellyfin/Emby/Kodi naming convention.
func outputPath(videoPath, targetLanguage, ext string, forced bool) string {
	base := strings.TrimSuffix(videoPath, filepath.Ext(videoPath))
	if forced {
		return fmt.Sprintf("%s.%s.forced.%s", base, targetLanguage, ext)
	}
	return fmt.Sprintf("%s.%s.%s", base, targetLanguage, ext)
}

// existingTargetFormat reports "ass", "srt", or "" for whichever target
// subtitle already sits next to videoPath (external file) or is embedded in
// the container, checking ASS before SRT since ASS is always preferred.
func existingTargetFormat(ctx context.Context, videoPath, targetLanguage string, forced bool, prober Prober) string {
	assPath := outputPath(videoPath, targetLanguage, "ass", forced)
	if _, err := os.Stat(assPath); err == nil {
		return "ass"
	}

	srtPath := outputPath(videoPath, targetLanguage, "srt", forced)
	hasSRT := false
	if _, err := os.Stat(srtPath); err == nil {
		hasSRT = true
	}

	if !forced && prober != nil {
		streams, err := prober.Streams(ctx, videoPath)
		if err == nil {
			for _, s := range streams {
				if !strings.EqualFold(s.Language, targetLanguage) {
					continue
				}
				if s.Format == "ass" {
					return "ass"
				}
				if s.Format == "srt" {
					hasSRT = true
				}
			}
		}
	}

	if hasSRT {
		return "srt"
	}
	return ""
}

// findExternalSourceSub looks for a source-language subtitle file sitting
// next to the video (e.g. Movie.ja.ass, Movie.jpn.srt).
func findExternalSourceSub(videoPath string, sourceLanguageTags []string) (path string, format string) {
	base := strings.TrimSuffix(videoPath, filepath.Ext(videoPath))
	for _, ext := range []string{"ass", "srt"} {
		for _, tag := range sourceLanguageTags {
			candidate := fmt.Sprintf("%s.%s.%s", base, tag, ext)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, ext
			}
		}
	}
	return "", ""
}

func readFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// selectSourceStream finds the best embedded source-language stream,
// preferring ASS, via pkg/subsutil.SelectBestStream.
func selectSourceStream(ctx context.Context, videoPath, formatFilter string, sourceTags, targetTags map[string]bool, prober Prober) (subsutil.StreamInfo, bool) {
	if prober == nil {
		return subsutil.StreamInfo{}, false
	}
	streams, err := prober.Streams(ctx, videoPath)
	if err != nil {
		return subsutil.StreamInfo{}, false
	}
	return subsutil.SelectBestStream(streams, formatFilter, sourceTags, targetTags)
}
