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

// translateSRT reads an SRT file's bytes, strips markup, translates every
// line, and writes the result to outputPath. SRT has no style system and no
// override tags to preserve, so this is considerably simpler than the ASS
// path.
func (t *Translator) translateSRT(ctx context.Context, content []byte, sourceLang, targetLang string, chain []string, glossary []translationmanager.GlossaryEntry, outputPath string) ([]string, error) {
	tmp, err := os.CreateTemp("", "sublarr-src-*.srt")
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
		return nil, fmt.Errorf("parse srt: %w", err)
	}

	var sourceLines []string
	for _, item := range subs.Items {
		for range item.Lines {
			sourceLines = append(sourceLines, "")
		}
	}
	idx := 0
	for _, item := range subs.Items {
		for li := range item.Lines {
			sourceLines[idx] = subsutil.StripMarkup(item.Lines[li].String())
			idx++
		}
	}

	if len(sourceLines) == 0 {
		return nil, fmt.Errorf("no lines found to translate")
	}

	result := t.translation.TranslateBatchCached(ctx, chain, sourceLines, sourceLang, targetLang, glossary)
	if !result.Success {
		return nil, fmt.Errorf("translation failed: %s", result.Error)
	}

	warnings := CheckQuality(sourceLines, result.Lines)
	ok, errs := ValidateOutput(sourceLines, result.Lines)
	for attempt := 1; !ok && attempt <= 2; attempt++ {
		t.log.Warn().Strs("errors", errs).Int("attempt", attempt).Msg("srt translation output failed validation, retrying")
		retryResult := t.translation.TranslateBatchCached(ctx, chain, sourceLines, sourceLang, targetLang, glossary)
		if !retryResult.Success {
			continue
		}
		result = retryResult
		warnings = CheckQuality(sourceLines, result.Lines)
		ok, errs = ValidateOutput(sourceLines, result.Lines)
	}
	if !ok {
		t.log.Warn().Strs("errors", errs).Msg("srt translation output still invalid after retries, accepting with warnings")
		warnings = append(warnings, fmt.Sprintf("output validation failed after retries: %v", errs))
	}

	idx = 0
	for _, item := range subs.Items {
		for li := range item.Lines {
			item.Lines[li].Items = []astisub.LineItem{{Text: result.Lines[idx]}}
			idx++
		}
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return warnings, fmt.Errorf("create output dir: %w", err)
	}
	if err := subs.Write(outputPath); err != nil {
		return warnings, fmt.Errorf("write srt output: %w", err)
	}

	return warnings, nil
}
