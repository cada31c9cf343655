package prune

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"kiln/internal/config"
	"kiln/internal/derive"
	"kiln/internal/logging"
	"kiln/internal/snapshot"
)

// Result reports what a prune pass removed.
type Result struct {
	Removed  []string // output paths relative to the derived root
	Warnings []string
}

// Pruner removes derivatives whose source asset has left the input tree.
// It runs after generation so a renamed asset gets its new derivative before
// the stale one disappears.
type Pruner struct {
	cfg    *config.Config
	logger *slog.Logger
}

func New(cfg *config.Config, logger *slog.Logger) *Pruner {
	return &Pruner{cfg: cfg, logger: logging.NewComponentLogger(logger, "pruner")}
}

// Run deletes every derivative whose source path is absent from the current
// snapshot and drops its index record. Deletion failures are warnings; the
// record is kept so a later pass can retry.
func (p *Pruner) Run(snap *snapshot.Snapshot, index *derive.Index) Result {
	var result Result
	derivedRoot := p.cfg.DerivedDir()

	for _, source := range index.Sources() {
		if _, ok := snap.Lookup(source); ok {
			continue
		}
		for _, record := range index.BySource(source) {
			outputAbs := filepath.Join(derivedRoot, filepath.FromSlash(record.OutputPath))
			if err := os.Remove(outputAbs); err != nil && !os.IsNotExist(err) {
				result.Warnings = append(result.Warnings, fmt.Sprintf("prune %s: %v", record.OutputPath, err))
				continue
			}
			index.Remove(record.Key)
			result.Removed = append(result.Removed, record.OutputPath)
			p.logger.Info("pruned stale derivative",
				logging.String(logging.FieldAsset, source),
				logging.String(logging.FieldProfile, record.Key.Profile),
			)
		}
	}
	sort.Strings(result.Removed)

	p.sweepEmptyDirs(derivedRoot, &result)
	return result
}

// sweepEmptyDirs removes directories under the derived root left empty by
// pruning, deepest first. The root itself is kept.
func (p *Pruner) sweepEmptyDirs(root string, result *Result) {
	var dirs []string
	err := filepath.WalkDir(root, func(path string, entry os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if entry.IsDir() && path != root {
			dirs = append(dirs, path)
		}
		return nil
	})
	if err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("prune sweep: %v", err))
		return
	}

	sort.Slice(dirs, func(a, b int) bool { return len(dirs[a]) > len(dirs[b]) })
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil || len(entries) > 0 {
			continue
		}
		if err := os.Remove(dir); err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("prune sweep %s: %v", dir, err))
		}
	}
}
