package fsutil

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/shirou/gopsutil/v3/disk"
)

const GB = 1024 * 1024 * 1024

// GetAvailableDiskSpace returns available disk space in bytes for the given path.
// Works cross-platform (Linux, macOS, Windows) via gopsutil.
func GetAvailableDiskSpace(path string) (uint64, error) {
	usage, err := disk.Usage(path)
	if err != nil {
		return 0, fmt.Errorf("failed to get disk space for %s: %w", path, err)
	}
	return usage.Free, nil
}

// SameFilesystem checks if two paths are on the same filesystem.
// Uses gopsutil Partitions() for cross-platform support (Linux, macOS, Windows).
func SameFilesystem(path1, path2 string) (bool, error) {
	partitions, err := disk.Partitions(false)
	if err != nil {
		return false, fmt.Errorf("failed to get partitions: %w", err)
	}

	mount1 := findMountpoint(path1, partitions)
	mount2 := findMountpoint(path2, partitions)

	return mount1 == mount2 && mount1 != "", nil
}

// findMountpoint finds the mountpoint that contains the given path.
// Returns the longest matching mountpoint (most specific).
func findMountpoint(path string, partitions []disk.PartitionStat) string {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return ""
	}

	var bestMatch string
	for _, p := range partitions {
		if strings.HasPrefix(absPath, p.Mountpoint) && len(p.Mountpoint) > len(bestMatch) {
			bestMatch = p.Mountpoint
		}
	}
	return bestMatch
}
