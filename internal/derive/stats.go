package derive

import (
	"io/fs"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// Stats describes current derivative cache usage.
type Stats struct {
	Entries      int     `json:"entries"`
	TotalBytes   int64   `json:"total_bytes"`
	FreeBytes    uint64  `json:"free_bytes"`
	TotalFSBytes uint64  `json:"total_fs_bytes"`
	FreeRatio    float64 `json:"free_ratio"`
}

// statfsFunc allows tests to stub filesystem stats.
type statfsFunc func(path string) (total uint64, free uint64, err error)

func realStatfs(path string) (uint64, uint64, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return 0, 0, err
	}
	blockSize := uint64(stat.Bsize)
	return stat.Blocks * blockSize, stat.Bavail * blockSize, nil
}

// CollectStats walks the derived root and reports entry count, total size,
// and free space on the underlying volume.
func CollectStats(root string) (Stats, error) {
	return collectStats(root, realStatfs)
}

func collectStats(root string, statfs statfsFunc) (Stats, error) {
	var stats Stats
	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return nil
			}
			return err
		}
		if entry.IsDir() {
			return nil
		}
		info, err := entry.Info()
		if err != nil {
			return err
		}
		stats.Entries++
		stats.TotalBytes += info.Size()
		return nil
	})
	if err != nil {
		return stats, err
	}

	if total, free, err := statfs(filepath.Dir(root)); err == nil && total > 0 {
		stats.TotalFSBytes = total
		stats.FreeBytes = free
		stats.FreeRatio = float64(free) / float64(total)
	}
	return stats, nil
}
