// Package subsutil holds subtitle-format-level helpers shared by the
// translator: ASS style classification, override-tag extraction/restoration,
// and best-stream selection. Grounded on the teacher's pkg/subs.Subtitles
// wrapper around github.com/asticode/go-astisub, generalized from the
// teacher's dialogue-merge use case to the tag-preserving translation one.
package subsutil

import (
	"regexp"
	"strings"

	astisub "github.com/asticode/go-astisub"
)

var (
	signsPattern  = regexp.MustCompile(`(?i)sign|^op$|^ed$|song|karaoke|title|note|insert|logo|screen|board|card|letter`)
	dialogPattern = regexp.MustCompile(`(?i)default|main|dialogue|italic|flashback|narrat|top|alt|internal|thought`)
	overrideTagRe = regexp.MustCompile(`\{[^}]*\}`)
	posMoveRe     = regexp.MustCompile(`\\(?:pos|move|org)\s*\(`)
)

// ClassifyStyles splits an ASS file's styles into dialog (translate) and
// signs/songs (keep as-is), matching explicit name patterns first and
// falling back to a >80% \pos/\move/\org heuristic over each style's lines.
func ClassifyStyles(subs *astisub.Subtitles) (dialog map[string]bool, signs map[string]bool) {
	dialog = make(map[string]bool)
	signs = make(map[string]bool)

	styleLines := make(map[string][]string)
	for _, item := range subs.Items {
		if item.Comment {
			continue
		}
		name := styleName(item)
		for _, line := range item.Lines {
			styleLines[name] = append(styleLines[name], line.String())
		}
		if _, ok := styleLines[name]; !ok {
			styleLines[name] = nil
		}
	}

	for name, lines := range styleLines {
		switch {
		case signsPattern.MatchString(name):
			signs[name] = true
		case dialogPattern.MatchString(name):
			dialog[name] = true
		default:
			if len(lines) > 0 {
				var posCount int
				for _, l := range lines {
					if posMoveRe.MatchString(l) {
						posCount++
					}
				}
				if float64(posCount)/float64(len(lines)) > 0.8 {
					signs[name] = true
					continue
				}
			}
			dialog[name] = true
		}
	}

	return dialog, signs
}

func styleName(item *astisub.Item) string {
	if item.Style != nil {
		return item.Style.ID
	}
	return ""
}

// TagInfo is one override tag found by ExtractTags, positioned against the
// clean (tag-stripped) text it was removed from.
type TagInfo struct {
	Pos int
	Tag string
}

// ExtractTags strips {...} ASS override tags out of text, returning the
// clean text plus enough information to restore them proportionally after
// translation changes the text's length.
func ExtractTags(text string) (clean string, tags []TagInfo, originalCleanLen int) {
	if !overrideTagRe.MatchString(text) {
		return text, nil, len(text)
	}

	parts := overrideTagRe.Split(text, -1)
	found := overrideTagRe.FindAllString(text, -1)

	var sb strings.Builder
	pos := 0
	for i, part := range parts {
		if i > 0 && i-1 < len(found) {
			tags = append(tags, TagInfo{Pos: pos, Tag: found[i-1]})
		}
		sb.WriteString(part)
		pos += len(part)
	}

	clean = sb.String()
	return clean, tags, len(clean)
}

// RestoreTags reinserts override tags into translated text using
// proportional positioning: a tag originally at position 0 stays at the
// front; every other tag's insertion point scales by the length ratio
// between the original clean text and the translation, then snaps to the
// first word boundary (space, backslash or end of text) found scanning from
// 3 characters before to 3 after, so tags don't land mid-word.
func RestoreTags(translated string, tags []TagInfo, originalCleanLen int) string {
	if len(tags) == 0 {
		return translated
	}

	sorted := make([]TagInfo, len(tags))
	copy(sorted, tags)
	sortTagsByPos(sorted)

	transLen := len(translated)
	origLen := originalCleanLen
	if origLen == 0 {
		origLen = transLen
	}

	var sb strings.Builder
	textPos := 0

	for _, t := range sorted {
		var insertPos int
		switch {
		case t.Pos == 0:
			insertPos = 0
		case origLen > 0:
			ratio := float64(t.Pos) / float64(origLen)
			insertPos = int(ratio * float64(transLen))
			insertPos = snapToWordBoundary(translated, insertPos)
		default:
			insertPos = min(t.Pos, transLen)
		}

		if insertPos < textPos {
			insertPos = textPos
		}
		if insertPos > transLen {
			insertPos = transLen
		}

		if insertPos > textPos {
			sb.WriteString(translated[textPos:insertPos])
			textPos = insertPos
		}
		sb.WriteString(t.Tag)
	}

	if textPos < transLen {
		sb.WriteString(translated[textPos:])
	}

	return sb.String()
}

func snapToWordBoundary(text string, insertPos int) int {
	best := insertPos
	textLen := len(text)
	for offset := -3; offset <= 3; offset++ {
		check := insertPos + offset
		if check < 0 || check > textLen {
			continue
		}
		if check == textLen || text[check] == ' ' || text[check] == '\\' {
			best = check
			break
		}
	}
	return best
}

func sortTagsByPos(tags []TagInfo) {
	for i := 1; i < len(tags); i++ {
		for j := i; j > 0 && tags[j].Pos < tags[j-1].Pos; j-- {
			tags[j], tags[j-1] = tags[j-1], tags[j]
		}
	}
}

var lineBreakRe = regexp.MustCompile(`\\n`)
var multiSpaceRe = regexp.MustCompile(`  +`)

// FixLineBreaks normalizes line breaks a translation backend may have
// mangled: the model sometimes turns \N into \n or a literal newline.
func FixLineBreaks(text string) string {
	text = strings.ReplaceAll(text, "\n", `\N`)
	text = lineBreakRe.ReplaceAllString(text, `\N`)
	text = multiSpaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
