package subsutil

import "regexp"

var srtMarkupRe = regexp.MustCompile(`</?[a-zA-Z][^>]*>`)

// StripMarkup removes SRT/WebVTT-style HTML tags (<i>, <b>, <font ...>, ...)
// so a translation backend only ever sees plain dialogue text. SRT has no
// override-tag restoration problem the way ASS does — these tags only ever
// wrap a whole line, so they're discarded rather than round-tripped.
func StripMarkup(text string) string {
	return srtMarkupRe.ReplaceAllString(text, "")
}
