package translator

import (
	"fmt"
	"path/filepath"

	"github.com/sublarr/sublarr/internal/pkg/fsutil"
)

// MinFreeMB is the minimum free space required at an output path's
// directory before a translation is allowed to write there.
const MinFreeMB = 100

// checkDiskSpace rejects translation before any expensive backend call if
// the output directory doesn't have enough room to write the result.
func checkDiskSpace(outputPath string) error {
	dir := filepath.Dir(outputPath)
	available, err := fsutil.GetAvailableDiskSpace(dir)
	if err != nil {
		return fmt.Errorf("disk space check for %s: %w", dir, err)
	}

	freeMB := float64(available) / (1024 * 1024)
	if freeMB < MinFreeMB {
		return fmt.Errorf("insufficient disk space: %.0fMB free at %s, need at least %dMB", freeMB, dir, MinFreeMB)
	}
	return nil
}
