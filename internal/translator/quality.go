package translator

import (
	"fmt"
	"strings"
)

// englishMarkerWords are common English function words that indicate a
// subtitle line was left untranslated rather than actually rendered in the
// target language.
var englishMarkerWords = map[string]bool{
	"the": true, "and": true, "that": true, "have": true, "for": true,
	"not": true, "with": true, "you": true, "this": true, "but": true,
	"from": true, "they": true, "will": true, "what": true, "about": true,
}

// CheckQuality returns advisory warnings about a translation without
// failing it outright — untranslated lines, suspicious length ratios, and
// a high residual-English ratio are all surfaced but never block output.
func CheckQuality(original, translated []string) []string {
	var warnings []string

	identical := 0
	n := minLen(len(original), len(translated))
	for i := 0; i < n; i++ {
		if strings.TrimSpace(original[i]) == strings.TrimSpace(translated[i]) {
			identical++
		}
	}
	if float64(identical) > float64(len(original))*0.5 {
		warnings = append(warnings, fmt.Sprintf("%d/%d lines identical to original (possibly untranslated)", identical, len(original)))
	}

	for i := 0; i < n; i++ {
		orig, trans := original[i], translated[i]
		if len(orig) > 5 && len(trans) > 0 {
			ratio := float64(len(trans)) / float64(len(orig))
			if ratio > 3.0 || ratio < 0.2 {
				warnings = append(warnings, fmt.Sprintf("line %d: suspicious length ratio %.1fx", i, ratio))
				break
			}
		}
	}

	if len(translated) > 0 {
		sampleEnd := minLen(len(translated), 20)
		sample := strings.Fields(strings.ToLower(strings.Join(translated[:sampleEnd], " ")))
		if len(sample) > 10 {
			var engCount int
			for _, w := range sample {
				if englishMarkerWords[w] {
					engCount++
				}
			}
			if float64(engCount)/float64(len(sample)) > 0.3 {
				warnings = append(warnings, fmt.Sprintf("high English word ratio in translation (%d/%d)", engCount, len(sample)))
			}
		}
	}

	return warnings
}

// ValidateOutput rejects a translation outright when it's structurally
// broken: wrong line count, wildly inflated total length, or too many
// lines translated to nothing.
func ValidateOutput(original, translated []string) (bool, []string) {
	var errs []string

	if len(translated) != len(original) {
		errs = append(errs, fmt.Sprintf("line count mismatch: %d vs %d", len(original), len(translated)))
		return false, errs
	}

	var totalOrig, totalTrans int
	for _, t := range original {
		totalOrig += len(t)
	}
	for _, t := range translated {
		totalTrans += len(t)
	}
	if totalOrig > 0 && float64(totalTrans) > float64(totalOrig)*1.5 {
		errs = append(errs, fmt.Sprintf("output too long: %.1fx", float64(totalTrans)/float64(totalOrig)))
	}

	var empty int
	for _, t := range translated {
		if strings.TrimSpace(t) == "" {
			empty++
		}
	}
	if float64(empty) > float64(len(translated))*0.3 {
		errs = append(errs, fmt.Sprintf("too many empty lines: %d/%d", empty, len(translated)))
	}

	return len(errs) == 0, errs
}

func minLen(a, b int) int {
	if a < b {
		return a
	}
	return b
}
