package translator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	astisub "github.com/asticode/go-astisub"

	"github.com/sublarr/sublarr/internal/translationmanager"
	"github.com/sublarr/sublarr/pkg/subsutil"
)

// translateASS reads an ASS file's bytes, translates every dialog-style
// line through the backend chain while preserving signs/songs styles and
// override tags untouched, and writes the result to outputPath.
func (t *Translator) translateASS(ctx context.Context, content []byte, sourceLang, targetLang string, chain []string, glossary []translationmanager.GlossaryEntry, outputPath string) ([]string, error) {
	tmp, err := os.CreateTemp("", "sublarr-src-*.ass")
	if err != nil {
		return nil, fmt.Errorf("temp source file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp source: %w", err)
	}
	tmp.Close()

	subs, err := astisub.OpenFile(tmp.Name())
	if err != nil {
		return nil, fmt.Errorf("parse ass: %w", err)
	}

	dialogStyles, _ := subsutil.ClassifyStyles(subs)

	var sourceLines []string
	var cleanLines []string
	var tagSets [][]subsutil.TagInfo
	var origLens []int
	var targetItems []*astisub.Item

	for _, item := range subs.Items {
		if item.Comment {
			continue
		}
		name := ""
		if item.Style != nil {
			name = item.Style.ID
		}
		if !dialogStyles[name] {
			continue
		}
		for li := range item.Lines {
			text := item.Lines[li].String()
			clean, tags, origLen := subsutil.ExtractTags(text)
			sourceLines = append(sourceLines, text)
			cleanLines = append(cleanLines, clean)
			tagSets = append(tagSets, tags)
			origLens = append(origLens, origLen)
			targetItems = append(targetItems, item)
			_ = li
		}
	}

	if len(cleanLines) == 0 {
		return nil, fmt.Errorf("no dialog lines found to translate")
	}

	result := t.translation.TranslateBatchCached(ctx, chain, cleanLines, sourceLang, targetLang, glossary)
	if !result.Success {
		return nil, fmt.Errorf("translation failed: %s", result.Error)
	}

	warnings := CheckQuality(cleanLines, result.Lines)
	ok, errs := ValidateOutput(cleanLines, result.Lines)
	for attempt := 1; !ok && attempt <= 2; attempt++ {
		t.log.Warn().Strs("errors", errs).Int("attempt", attempt).Msg("ass translation output failed validation, retrying")
		retryResult := t.translation.TranslateBatchCached(ctx, chain, cleanLines, sourceLang, targetLang, glossary)
		if !retryResult.Success {
			continue
		}
		result = retryResult
		warnings = CheckQuality(cleanLines, result.Lines)
		ok, errs = ValidateOutput(cleanLines, result.Lines)
	}
	if !ok {
		t.log.Warn().Strs("errors", errs).Msg("ass translation output still invalid after retries, accepting with warnings")
		warnings = append(warnings, fmt.Sprintf("output validation failed after retries: %v", errs))
	}

	lineIdx := 0
	for _, item := range subs.Items {
		if item.Comment {
			continue
		}
		name := ""
		if item.Style != nil {
			name = item.Style.ID
		}
		if !dialogStyles[name] {
			continue
		}
		for li := range item.Lines {
			translated := subsutil.FixLineBreaks(result.Lines[lineIdx])
			restored := subsutil.RestoreTags(translated, tagSets[lineIdx], origLens[lineIdx])
			item.Lines[li].Items = []astisub.LineItem{{Text: restored}}
			lineIdx++
		}
	}

	if subs.Metadata == nil {
		subs.Metadata = &astisub.Metadata{}
	}
	subs.Metadata.Title = fmt.Sprintf("[%s] %s", targetLang, subs.Metadata.Title)

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return warnings, fmt.Errorf("create output dir: %w", err)
	}
	if err := subs.Write(outputPath); err != nil {
		return warnings, fmt.Errorf("write ass output: %w", err)
	}

	return warnings, nil
}
