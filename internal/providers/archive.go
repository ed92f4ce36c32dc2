package providers

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/mholt/archiver/v3"
)

var subtitleExtensions = map[string]bool{
	".ass": true, ".ssa": true, ".srt": true, ".vtt": true, ".sub": true,
}

// ExtractSubtitle unarchives a zip/rar blob (as returned by animetosho and
// subdl) and returns the bytes of the first subtitle file found, preferring
// .ass over .srt over any other recognized extension — "the caller's hint
// may be wrong" (spec §4.3), so the true format comes from the extracted
// filename, not the provider's declared Format.
func ExtractSubtitle(archiveBytes []byte, archiveExt string) (data []byte, format string, err error) {
	tempDir, err := os.MkdirTemp("", "sublarr-extract-*")
	if err != nil {
		return nil, "", fmt.Errorf("creating extraction tempdir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	archivePath := filepath.Join(tempDir, "archive"+archiveExt)
	if err := os.WriteFile(archivePath, archiveBytes, 0600); err != nil {
		return nil, "", fmt.Errorf("writing archive to tempfile: %w", err)
	}

	destDir := filepath.Join(tempDir, "out")
	if err := os.MkdirAll(destDir, 0700); err != nil {
		return nil, "", fmt.Errorf("creating extraction output dir: %w", err)
	}
	if err := archiver.Unarchive(archivePath, destDir); err != nil {
		return nil, "", fmt.Errorf("unarchiving: %w", err)
	}

	var candidates []string
	err = filepath.Walk(destDir, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if info.IsDir() {
			return nil
		}
		if subtitleExtensions[filepath.Ext(path)] {
			candidates = append(candidates, path)
		}
		return nil
	})
	if err != nil {
		return nil, "", fmt.Errorf("walking extracted archive: %w", err)
	}
	if len(candidates) == 0 {
		return nil, "", fmt.Errorf("no subtitle file found in archive")
	}

	sort.Slice(candidates, func(i, j int) bool {
		return extPriority(candidates[i]) < extPriority(candidates[j])
	})

	chosen := candidates[0]
	data, err = os.ReadFile(chosen)
	if err != nil {
		return nil, "", fmt.Errorf("reading extracted subtitle: %w", err)
	}
	ext := filepath.Ext(chosen)
	format = ext[1:]
	if format == "ssa" {
		format = "ass"
	}
	return data, format, nil
}

func extPriority(path string) int {
	switch filepath.Ext(path) {
	case ".ass", ".ssa":
		return 0
	case ".srt":
		return 1
	default:
		return 2
	}
}
