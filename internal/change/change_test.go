package change

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"kiln/internal/config"
	"kiln/internal/snapshot"
	"kiln/internal/testsupport"
)

func scanTree(t *testing.T, cfg *config.Config) *snapshot.Snapshot {
	t.Helper()
	snap, err := snapshot.NewScanner(cfg).Scan()
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	return snap
}

func TestDiffPartitionsAreDisjoint(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.ContentDir, "keep.md"), "keep")
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.ContentDir, "grow.md"), "v1")
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.ContentDir, "drop.md"), "drop")
	previous := scanTree(t, cfg)

	if err := os.Remove(filepath.Join(cfg.Paths.ContentDir, "drop.md")); err != nil {
		t.Fatalf("remove: %v", err)
	}
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.ContentDir, "grow.md"), "longer content")
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.ContentDir, "new.md"), "new")
	current := scanTree(t, cfg)

	cs, err := Diff(previous, current)
	if err != nil {
		t.Fatalf("diff: %v", err)
	}

	if len(cs.Added) != 1 || cs.Added[0] != "content/new.md" {
		t.Fatalf("added = %v", cs.Added)
	}
	if len(cs.Modified) != 1 || cs.Modified[0] != "content/grow.md" {
		t.Fatalf("modified = %v", cs.Modified)
	}
	if len(cs.Removed) != 1 || cs.Removed[0] != "content/drop.md" {
		t.Fatalf("removed = %v", cs.Removed)
	}
	if len(cs.Unchanged) != 1 || cs.Unchanged[0] != "content/keep.md" {
		t.Fatalf("unchanged = %v", cs.Unchanged)
	}

	seen := map[string]int{}
	for _, group := range [][]string{cs.Added, cs.Modified, cs.Removed, cs.Unchanged} {
		for _, path := range group {
			seen[path]++
		}
	}
	for path, count := range seen {
		if count != 1 {
			t.Fatalf("path %s appears in %d sets", path, count)
		}
	}
}

func TestDiffHashFallbackOnTouchedFile(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	path := filepath.Join(cfg.Paths.ContentDir, "doc.md")
	testsupport.WriteFile(t, path, "stable content")
	previous := scanTree(t, cfg)
	record, _ := previous.Lookup("content/doc.md")
	if _, err := record.EnsureHash(); err != nil {
		t.Fatalf("hash: %v", err)
	}

	// Same bytes, new mtime: must resolve to unchanged via the hash tier.
	future := time.Now().Add(2 * time.Hour)
	if err := os.Chtimes(path, future, future); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
	current := scanTree(t, cfg)
	cs, err := Diff(previous, current)
	if err != nil {
		t.Fatalf("diff: %v", err)
	}
	if len(cs.Unchanged) != 1 || !cs.Empty() {
		t.Fatalf("touched-only file misclassified: %s", cs.Summary())
	}

	// Same size, different bytes, new mtime: hash must flag it modified.
	testsupport.WriteFile(t, path, "stable CONTENT")
	later := future.Add(time.Hour)
	if err := os.Chtimes(path, later, later); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
	current = scanTree(t, cfg)
	cs, err = Diff(previous, current)
	if err != nil {
		t.Fatalf("diff: %v", err)
	}
	if len(cs.Modified) != 1 {
		t.Fatalf("same-size rewrite not detected: %s", cs.Summary())
	}
}

func TestDiffCarriesHashForward(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.ContentDir, "doc.md"), "content")
	previous := scanTree(t, cfg)
	record, _ := previous.Lookup("content/doc.md")
	sum, err := record.EnsureHash()
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	current := scanTree(t, cfg)
	if _, err := Diff(previous, current); err != nil {
		t.Fatalf("diff: %v", err)
	}
	carried, _ := current.Lookup("content/doc.md")
	if carried.Hash != sum {
		t.Fatalf("hash not carried forward: %q vs %q", carried.Hash, sum)
	}
}

func TestMode(t *testing.T) {
	empty := &ChangeSet{}
	dirty := &ChangeSet{Added: []string{"content/a.md"}}

	if got := Mode(false, empty, false); got != ModeFirst {
		t.Fatalf("no previous snapshot: %s", got)
	}
	if got := Mode(true, empty, false); got != ModeNoop {
		t.Fatalf("clean tree: %s", got)
	}
	if got := Mode(true, dirty, false); got != ModeIncremental {
		t.Fatalf("dirty tree: %s", got)
	}
	if got := Mode(true, empty, true); got != ModeFirst {
		t.Fatalf("force must override noop: %s", got)
	}
}
