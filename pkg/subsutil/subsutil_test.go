package subsutil

import (
	"testing"

	astisub "github.com/asticode/go-astisub"
	"github.com/stretchr/testify/require"
)

func itemWithStyle(styleID, text string) *astisub.Item {
	return &astisub.Item{
		Style: &astisub.Style{ID: styleID},
		Lines: []astisub.Line{{Items: []astisub.LineItem{{Text: text}}}},
	}
}

func TestClassifyStylesUsesExplicitNamePatterns(t *testing.T) {
	subs := &astisub.Subtitles{Items: []*astisub.Item{
		itemWithStyle("Signs", "a sign"),
		itemWithStyle("Default", "dialogue line"),
	}}
	dialog, signs := ClassifyStyles(subs)
	require.True(t, signs["Signs"])
	require.True(t, dialog["Default"])
}

func TestClassifyStylesFallsBackToPositionHeuristic(t *testing.T) {
	subs := &astisub.Subtitles{Items: []*astisub.Item{
		itemWithStyle("Overlay", `{\pos(100,200)}one`),
		itemWithStyle("Overlay", `{\pos(100,200)}two`),
		itemWithStyle("Overlay", `{\pos(100,200)}three`),
		itemWithStyle("Overlay", `{\pos(100,200)}four`),
		itemWithStyle("Overlay", `{\pos(100,200)}five`),
		itemWithStyle("Overlay", `six`),
		itemWithStyle("Narration", "plain line one"),
		itemWithStyle("Narration", "plain line two"),
	}}
	dialog, signs := ClassifyStyles(subs)
	require.True(t, signs["Overlay"], "above 80%% pos-tagged lines should classify as signs")
	require.True(t, dialog["Narration"])
}

func TestExtractAndRestoreTagsRoundTrips(t *testing.T) {
	clean, tags, origLen := ExtractTags(`{\i1}Hello world{\i0}`)
	require.Equal(t, "Hello world", clean)
	require.Len(t, tags, 2)
	require.Equal(t, 11, origLen)

	restored := RestoreTags("Bonjour le monde", tags, origLen)
	require.Contains(t, restored, `{\i1}`)
	require.Contains(t, restored, `{\i0}`)
	require.True(t, len(restored) > len("Bonjour le monde"))
}

func TestExtractTagsNoOpWhenNoTags(t *testing.T) {
	clean, tags, origLen := ExtractTags("plain text")
	require.Equal(t, "plain text", clean)
	require.Nil(t, tags)
	require.Equal(t, len("plain text"), origLen)
}

func TestRestoreTagsPrefixStaysAtFront(t *testing.T) {
	_, tags, origLen := ExtractTags(`{\pos(0,0)}Hello`)
	restored := RestoreTags("Bonjour", tags, origLen)
	require.True(t, len(restored) >= len(`{\pos(0,0)}`))
	require.Equal(t, `{\pos(0,0)}Bonjour`, restored)
}

func TestFixLineBreaksConvertsNewlinesAndCollapsesSpaces(t *testing.T) {
	out := FixLineBreaks("line one\nline  two")
	require.Equal(t, `line one\Nline two`, out)
}

func TestStripMarkupRemovesHTMLTags(t *testing.T) {
	require.Equal(t, "Hello world", StripMarkup("<i>Hello</i> <b>world</b>"))
}

func TestSelectBestStreamPrefersFullASSOverSigns(t *testing.T) {
	streams := []StreamInfo{
		{SubIndex: 0, Format: "ass", Language: "ja", Title: "Signs"},
		{SubIndex: 1, Format: "ass", Language: "ja", Title: "Full Subtitles"},
	}
	selected, ok := SelectBestStream(streams, "", map[string]bool{"ja": true}, map[string]bool{"en": true})
	require.True(t, ok)
	require.Equal(t, 1, selected.SubIndex)
}

func TestSelectBestStreamFallsBackToSourceSRT(t *testing.T) {
	streams := []StreamInfo{
		{SubIndex: 0, Format: "srt", Language: "ja", Title: ""},
	}
	selected, ok := SelectBestStream(streams, "", map[string]bool{"ja": true}, map[string]bool{"en": true})
	require.True(t, ok)
	require.Equal(t, "srt", selected.Format)
}

func TestSelectBestStreamReturnsFalseWhenNoneFound(t *testing.T) {
	_, ok := SelectBestStream(nil, "", nil, nil)
	require.False(t, ok)
}
