// Package tools implements the one-off subtitle file edits that don't belong
// in the acquisition pipeline: stripping hearing-impaired markers, shifting
// timing, a handful of raw-text cleanups, and a quick preview. Every mutating
// operation writes a ".bak<ext>" sibling before touching the original file,
// grounded on original_source/backend/routes/tools.py's _create_backup.
package tools

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	astisub "github.com/asticode/go-astisub"

	"github.com/sublarr/sublarr/internal/apperrors"
	"github.com/sublarr/sublarr/pkg/subsutil"
)

var subtitleExts = map[string]bool{".srt": true, ".ass": true, ".ssa": true}

// ValidateExt rejects anything that isn't a subtitle file these tools know
// how to parse.
func ValidateExt(path string) error {
	ext := strings.ToLower(filepath.Ext(path))
	if !subtitleExts[ext] {
		return apperrors.Wrap(apperrors.ErrValidation, "only .srt, .ass, and .ssa files are supported")
	}
	return nil
}

// Backup copies path to a sibling "<name>.bak<ext>" file. Called by every
// mutating operation below before it writes anything back.
func Backup(path string) (string, error) {
	ext := filepath.Ext(path)
	bakPath := strings.TrimSuffix(path, ext) + ".bak" + ext

	src, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", apperrors.ErrFileNotFound, err)
	}
	defer src.Close()

	dst, err := os.Create(bakPath)
	if err != nil {
		return "", fmt.Errorf("creating backup: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("writing backup: %w", err)
	}
	return bakPath, nil
}

// RemoveHIResult reports how many cues survived HI-marker stripping. Cues
// here means parsed subtitle entries, not raw text lines -- astisub gives
// us the structured form, so counting at that level is the honest unit.
type RemoveHIResult struct {
	CuesBefore int
	CuesAfter  int
	Removed    int
}

// RemoveHI strips bracketed sound/music cues and speaker labels from every
// line of every cue, dropping any cue left empty afterward.
func RemoveHI(path string) (RemoveHIResult, error) {
	subs, err := astisub.OpenFile(path)
	if err != nil {
		return RemoveHIResult{}, fmt.Errorf("parsing subtitle: %w", err)
	}
	before := len(subs.Items)

	kept := subs.Items[:0]
	for _, item := range subs.Items {
		var newLines []astisub.Line
		for _, line := range item.Lines {
			cleaned, ok := subsutil.RemoveHIMarkers(line.String())
			if !ok {
				continue
			}
			newLines = append(newLines, astisub.Line{Items: []astisub.LineItem{{Text: cleaned}}})
		}
		if len(newLines) == 0 {
			continue
		}
		item.Lines = newLines
		kept = append(kept, item)
	}
	subs.Items = kept

	if _, err := Backup(path); err != nil {
		return RemoveHIResult{}, err
	}
	if err := subs.Write(path); err != nil {
		return RemoveHIResult{}, fmt.Errorf("writing cleaned subtitle: %w", err)
	}

	return RemoveHIResult{CuesBefore: before, CuesAfter: len(kept), Removed: before - len(kept)}, nil
}

// AdjustTiming shifts every cue's start/end by offsetMs milliseconds,
// clamping to zero rather than going negative.
func AdjustTiming(path string, offsetMs int) (int, error) {
	subs, err := astisub.OpenFile(path)
	if err != nil {
		return 0, fmt.Errorf("parsing subtitle: %w", err)
	}
	offset := time.Duration(offsetMs) * time.Millisecond

	for _, item := range subs.Items {
		item.StartAt = clampNonNegative(item.StartAt + offset)
		item.EndAt = clampNonNegative(item.EndAt + offset)
	}

	if _, err := Backup(path); err != nil {
		return 0, err
	}
	if err := subs.Write(path); err != nil {
		return 0, fmt.Errorf("writing shifted subtitle: %w", err)
	}
	return len(subs.Items), nil
}

func clampNonNegative(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	return d
}

// CommonFixesResult reports which fixes ran and the line-count delta,
// mirroring the raw-text processing tools.py's common_fixes does.
type CommonFixesResult struct {
	Applied     []string
	LinesBefore int
	LinesAfter  int
}

var validFixes = map[string]bool{"encoding": true, "whitespace": true, "linebreaks": true, "empty_lines": true}

// CommonFixes applies one or more raw-text cleanups directly to the file's
// bytes rather than through astisub's structured parser: these are line
// and encoding hygiene fixes, not cue edits, so they operate the way the
// original tool did.
func CommonFixes(path string, fixes []string) (CommonFixesResult, error) {
	for _, f := range fixes {
		if !validFixes[f] {
			return CommonFixesResult{}, apperrors.Wrap(apperrors.ErrValidation, "unknown fix %q", f)
		}
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return CommonFixesResult{}, fmt.Errorf("%w: %v", apperrors.ErrFileNotFound, err)
	}
	content := string(raw)
	linesBefore := len(strings.Split(content, "\n"))

	want := make(map[string]bool, len(fixes))
	for _, f := range fixes {
		want[f] = true
	}
	var applied []string

	if want["linebreaks"] {
		content = strings.ReplaceAll(content, "\r\n", "\n")
		content = strings.ReplaceAll(content, "\r", "\n")
		applied = append(applied, "linebreaks")
	}

	if want["whitespace"] {
		lines := strings.Split(content, "\n")
		for i, l := range lines {
			lines[i] = strings.TrimRight(l, " \t")
		}
		content = strings.Join(lines, "\n")
		applied = append(applied, "whitespace")
	}

	if want["empty_lines"] {
		lines := strings.Split(content, "\n")
		out := make([]string, 0, len(lines))
		prevEmpty := false
		for _, l := range lines {
			empty := strings.TrimSpace(l) == ""
			if empty && prevEmpty {
				continue
			}
			out = append(out, l)
			prevEmpty = empty
		}
		content = strings.Join(out, "\n")
		applied = append(applied, "empty_lines")
	}

	if want["encoding"] {
		// No charset-sniffing library is wired into this project's stack;
		// replacing invalid UTF-8 sequences is the honest stdlib-only
		// equivalent of the original's "detect, then replace errors" pass.
		content = strings.ToValidUTF8(content, "�")
		applied = append(applied, "encoding")
	}

	linesAfter := len(strings.Split(content, "\n"))

	if _, err := Backup(path); err != nil {
		return CommonFixesResult{}, err
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return CommonFixesResult{}, fmt.Errorf("writing fixed subtitle: %w", err)
	}

	return CommonFixesResult{Applied: applied, LinesBefore: linesBefore, LinesAfter: linesAfter}, nil
}

// PreviewResult is the first slice of a subtitle file's raw lines, for a
// quick look without downloading the whole thing.
type PreviewResult struct {
	Format     string
	Lines      []string
	TotalLines int
}

const previewLimit = 100

// Preview returns the first previewLimit lines of a subtitle file along
// with its total line count.
func Preview(path string) (PreviewResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return PreviewResult{}, fmt.Errorf("%w: %v", apperrors.ErrFileNotFound, err)
	}
	defer f.Close()

	format := "srt"
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".ass" || ext == ".ssa" {
		format = "ass"
	}

	var lines []string
	total := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if total < previewLimit {
			lines = append(lines, scanner.Text())
		}
		total++
	}
	if err := scanner.Err(); err != nil {
		return PreviewResult{}, fmt.Errorf("reading subtitle: %w", err)
	}

	return PreviewResult{Format: format, Lines: lines, TotalLines: total}, nil
}
