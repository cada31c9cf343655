package change

import (
	"fmt"
	"sort"

	"kiln/internal/snapshot"
)

// BuildMode classifies a pass before any generation work starts.
type BuildMode string

const (
	// ModeFirst means no usable previous snapshot exists; everything rebuilds.
	ModeFirst BuildMode = "first"
	// ModeNoop means nothing changed; the orchestrator short-circuits.
	ModeNoop BuildMode = "noop"
	// ModeIncremental means only the changed subset rebuilds.
	ModeIncremental BuildMode = "incremental"
)

// ChangeSet partitions the union of two snapshots' paths into four disjoint
// sets. Every path appears in exactly one.
type ChangeSet struct {
	Added     []string
	Modified  []string
	Removed   []string
	Unchanged []string
}

// Empty reports whether no path was added, modified, or removed.
func (c *ChangeSet) Empty() bool {
	return len(c.Added) == 0 && len(c.Modified) == 0 && len(c.Removed) == 0
}

// Summary renders the set sizes for logs and reports.
func (c *ChangeSet) Summary() string {
	return fmt.Sprintf("%d added, %d modified, %d removed, %d unchanged",
		len(c.Added), len(c.Modified), len(c.Removed), len(c.Unchanged))
}

// Diff compares the previous snapshot against the current one.
//
// The comparison is two-tier: when size and mtime both match, the file is
// unchanged without touching its bytes. When sizes match but mtimes differ
// the metadata is inconclusive (editors rewrite files in place, filesystems
// truncate timestamps), so the strong hash decides. A size change is always a
// modification. Records judged unchanged inherit the previous hash so later
// consumers never rehash them.
func Diff(previous, current *snapshot.Snapshot) (*ChangeSet, error) {
	cs := &ChangeSet{}

	for _, path := range current.Paths() {
		record, _ := current.Lookup(path)
		prev, ok := previous.Lookup(path)
		if !ok {
			cs.Added = append(cs.Added, path)
			continue
		}
		modified, err := recordModified(prev, record)
		if err != nil {
			return nil, fmt.Errorf("change detect %s: %w", path, err)
		}
		if modified {
			cs.Modified = append(cs.Modified, path)
		} else {
			if record.Hash == "" {
				record.Hash = prev.Hash
			}
			cs.Unchanged = append(cs.Unchanged, path)
		}
	}

	for _, path := range previous.Paths() {
		if _, ok := current.Lookup(path); !ok {
			cs.Removed = append(cs.Removed, path)
		}
	}
	sort.Strings(cs.Removed)

	return cs, nil
}

func recordModified(prev, cur *snapshot.InputRecord) (bool, error) {
	if prev.Size != cur.Size {
		return true, nil
	}
	if prev.ModTime.Equal(cur.ModTime) {
		return false, nil
	}
	// Same size, different mtime: metadata is inconclusive, fall back to the
	// content hash. Without a previous hash there is nothing to prove the
	// content survived, so treat it as modified.
	if prev.Hash == "" {
		return true, nil
	}
	sum, err := cur.EnsureHash()
	if err != nil {
		return false, err
	}
	return sum != prev.Hash, nil
}

// Mode derives the ternary build mode for a pass. Force always yields a first
// build; a noop requires a previous snapshot and an empty change set.
func Mode(hasPrevious bool, cs *ChangeSet, force bool) BuildMode {
	switch {
	case force, !hasPrevious:
		return ModeFirst
	case cs != nil && cs.Empty():
		return ModeNoop
	default:
		return ModeIncremental
	}
}
