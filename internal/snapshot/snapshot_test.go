package snapshot

import (
	"path/filepath"
	"testing"

	"kiln/internal/testsupport"
)

func TestScanClassifiesKinds(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.ContentDir, "posts", "hello.md"), "---\ntitle: Hi\n---\nbody")
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.GalleryDir, "trip", "a.jpg"), "jpegbytes")
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.GalleryDir, "trip", "a.json"), "{}")
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.GalleryDir, "trip", "collection.json"), "{}")
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.AudioDir, "song.mp3"), "mp3bytes")
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.AudioDir, "song.json"), "{}")
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.ContentDir, "docs", "slides.pdf"), "%PDF")
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.TemplateDir, "base.html"), "<html>")
	// Hidden files and unknown extensions are ignored.
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.ContentDir, ".DS_Store"), "junk")
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.ContentDir, "notes.txt"), "junk")

	snap, err := NewScanner(cfg).Scan()
	if err != nil {
		t.Fatalf("scan: %v", err)
	}

	want := map[string]Kind{
		"content/posts/hello.md":       KindDocument,
		"gallery/trip/a.jpg":           KindGalleryImage,
		"gallery/trip/a.json":          KindGallerySidecar,
		"gallery/trip/collection.json": KindGallerySidecar,
		"audio/song.mp3":               KindAudioTrack,
		"audio/song.json":              KindAudioSidecar,
		"content/docs/slides.pdf":      KindStaticAsset,
		"templates/base.html":          KindTemplate,
	}
	if snap.Len() != len(want) {
		t.Fatalf("tracked %d inputs, want %d: %v", snap.Len(), len(want), snap.Paths())
	}
	for path, kind := range want {
		record, ok := snap.Lookup(path)
		if !ok {
			t.Fatalf("missing record for %s", path)
		}
		if record.Kind != kind {
			t.Fatalf("%s classified as %s, want %s", path, record.Kind, kind)
		}
		if record.AbsPath() == "" {
			t.Fatalf("%s missing absolute path", path)
		}
	}
}

func TestScanMissingRootsYieldEmptySnapshot(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	snap, err := NewScanner(cfg).Scan()
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if !snap.Empty() {
		t.Fatalf("expected empty snapshot, got %v", snap.Paths())
	}
}

func TestEnsureHashIsLazy(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.ContentDir, "doc.md"), "content")

	snap, err := NewScanner(cfg).Scan()
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	record, _ := snap.Lookup("content/doc.md")
	if record.Hash != "" {
		t.Fatal("hash computed eagerly without hash_always")
	}
	sum, err := record.EnsureHash()
	if err != nil {
		t.Fatalf("ensure hash: %v", err)
	}
	if sum == "" || record.Hash != sum {
		t.Fatalf("hash not cached: %q vs %q", sum, record.Hash)
	}
}

func TestScanHashesEagerlyWhenConfigured(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithHashAlways())
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.ContentDir, "doc.md"), "content")

	snap, err := NewScanner(cfg).Scan()
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	record, _ := snap.Lookup("content/doc.md")
	if record.Hash == "" {
		t.Fatal("hash_always did not populate hashes during scan")
	}
}

func TestStoreRoundTrip(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.ContentDir, "doc.md"), "content")

	snap, err := NewScanner(cfg).Scan()
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	store := NewStore(cfg.SnapshotPath())
	if err := store.Save(snap); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, ok := store.Load()
	if !ok {
		t.Fatal("expected snapshot to load")
	}
	record, ok := loaded.Lookup("content/doc.md")
	if !ok {
		t.Fatal("missing record after reload")
	}
	original, _ := snap.Lookup("content/doc.md")
	if record.Size != original.Size || !record.ModTime.Equal(original.ModTime) {
		t.Fatalf("record drifted through store: %+v vs %+v", record, original)
	}
}

func TestStoreLoadFailsSoft(t *testing.T) {
	base := t.TempDir()
	path := filepath.Join(base, "build-state.json")

	// Missing file.
	if _, ok := NewStore(path).Load(); ok {
		t.Fatal("expected miss for absent store")
	}

	// Corrupt payload.
	testsupport.WriteFile(t, path, "{not json")
	if _, ok := NewStore(path).Load(); ok {
		t.Fatal("expected miss for corrupt store")
	}

	// Version mismatch.
	testsupport.WriteFile(t, path, `{"version": 99, "records": []}`)
	if _, ok := NewStore(path).Load(); ok {
		t.Fatal("expected miss for version mismatch")
	}
}
