package subsutil

import "strings"

// StreamInfo describes one subtitle stream as reported by a media-probe
// engine (ffprobe or mediainfo) — engine-agnostic so SelectBestStream works
// from either.
type StreamInfo struct {
	SubIndex    int
	StreamIndex int
	Format      string // "ass" or "srt"
	Language    string
	Title       string
}

// SelectBestStream picks the source-language subtitle stream to extract and
// translate, preferring ASS over SRT. Priority order mirrors the waterfall
// the original implementation used:
//  1. ASS stream titled "Full" (not Signs/Songs)
//  2. Source-language ASS, non-signs
//  3. Any source-language ASS
//  4. Non-signs ASS without a target-language tag
//  5. Source-language SRT
//  6. Any SRT without a target-language tag
//  7. Target-language SRT as a last resort (e.g. a dubbed-language SRT in an MP4)
//  8. Any ASS stream at all
func SelectBestStream(streams []StreamInfo, formatFilter string, sourceTags, targetTags map[string]bool) (StreamInfo, bool) {
	var ass, srt []StreamInfo
	for _, s := range streams {
		switch s.Format {
		case "ass":
			if formatFilter != "srt" {
				ass = append(ass, s)
			}
		case "srt":
			if formatFilter != "ass" {
				srt = append(srt, s)
			}
		}
	}

	if len(ass) > 0 {
		for _, s := range ass {
			title := strings.ToLower(s.Title)
			if strings.Contains(title, "full") && !strings.Contains(title, "sign") && !strings.Contains(title, "song") {
				return s, true
			}
		}

		var src []StreamInfo
		for _, s := range ass {
			if sourceTags[strings.ToLower(s.Language)] {
				src = append(src, s)
			}
		}
		for _, s := range src {
			title := strings.ToLower(s.Title)
			if !strings.Contains(title, "sign") && !strings.Contains(title, "song") {
				return s, true
			}
		}
		if len(src) > 0 {
			return src[0], true
		}

		for _, s := range ass {
			title := strings.ToLower(s.Title)
			if !targetTags[strings.ToLower(s.Language)] && !strings.Contains(title, "sign") && !strings.Contains(title, "song") {
				return s, true
			}
		}
	}

	if len(srt) > 0 {
		for _, s := range srt {
			if sourceTags[strings.ToLower(s.Language)] {
				return s, true
			}
		}
		for _, s := range srt {
			if !targetTags[strings.ToLower(s.Language)] {
				return s, true
			}
		}
		for _, s := range srt {
			if targetTags[strings.ToLower(s.Language)] {
				return s, true
			}
		}
	}

	if len(ass) > 0 {
		return ass[0], true
	}

	return StreamInfo{}, false
}
