package content

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"kiln/internal/config"
	"kiln/internal/services"
	"kiln/internal/snapshot"
	"kiln/internal/testsupport"
)

func scan(t *testing.T, cfg *config.Config) *snapshot.Snapshot {
	t.Helper()
	snap, err := snapshot.NewScanner(cfg).Scan()
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	return snap
}

func TestParseDocument(t *testing.T) {
	raw := strings.Join([]string{
		"---",
		"title: Harbour Lights",
		"date: 2024-03-01",
		"tags: [night, harbour]",
		"hero: media/harbour.jpg",
		"---",
		"Body text.",
	}, "\n")
	doc, err := ParseDocument("content/posts/harbour-lights.md", []byte(raw))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if doc.Meta.Title != "Harbour Lights" {
		t.Fatalf("title = %q", doc.Meta.Title)
	}
	if doc.Meta.Slug != "harbour-lights" {
		t.Fatalf("slug = %q", doc.Meta.Slug)
	}
	if !doc.Published() {
		t.Fatal("status should default to published")
	}
	if doc.PublishedAt.IsZero() {
		t.Fatal("date not parsed")
	}
	refs := doc.MediaRefs()
	if len(refs) != 1 || refs[0] != "media/harbour.jpg" {
		t.Fatalf("refs = %v", refs)
	}
	if !strings.Contains(doc.Body, "Body text.") {
		t.Fatalf("body = %q", doc.Body)
	}
}

func TestParseDocumentStripsByteOrderMark(t *testing.T) {
	raw := "\uFEFF---\ntitle: Marked\n---\nbody"
	doc, err := ParseDocument("content/posts/marked.md", []byte(raw))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if doc.Meta.Title != "Marked" {
		t.Fatalf("title = %q, front matter not detected past the BOM", doc.Meta.Title)
	}
}

func TestParseDocumentDefaults(t *testing.T) {
	doc, err := ParseDocument("content/posts/first-post.md", []byte("plain body, no front matter"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if doc.Meta.Title != "First Post" {
		t.Fatalf("default title = %q", doc.Meta.Title)
	}
	if doc.Meta.Slug != "first-post" {
		t.Fatalf("default slug = %q", doc.Meta.Slug)
	}
}

func TestParseDocumentBadFrontMatterIsFatal(t *testing.T) {
	_, err := ParseDocument("content/bad.md", []byte("---\ntitle: [unclosed\n---\nbody"))
	if err == nil {
		t.Fatal("expected decode error")
	}
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation marker, got %v", err)
	}
	if _, err := ParseDocument("content/bad.md", []byte("---\ntitle: x\nno terminator")); err == nil {
		t.Fatal("expected unterminated front matter error")
	}
}

func TestIngestDiscoversCollectionsAndTracks(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.ContentDir, "posts", "a.md"), "---\ntitle: A\n---\nbody")
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.GalleryDir, "trip", "a.jpg"), "img")
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.GalleryDir, "trip", "a.json"), "{}")
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.GalleryDir, "trip", "b.png"), "img")
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.AudioDir, "song.mp3"), "audio")

	set, err := Ingest(cfg, scan(t, cfg))
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if len(set.Documents) != 1 {
		t.Fatalf("documents = %d", len(set.Documents))
	}
	if len(set.Collections) != 1 {
		t.Fatalf("collections = %d", len(set.Collections))
	}
	coll := set.Collections[0]
	if coll.ID != "trip" || len(coll.Images) != 2 {
		t.Fatalf("collection = %+v", coll)
	}
	if !coll.Images[0].SidecarExisted {
		t.Fatalf("a.jpg sidecar should exist")
	}
	if coll.Images[1].SidecarExisted {
		t.Fatalf("b.png sidecar should be missing")
	}
	if len(set.Tracks) != 1 || set.Tracks[0].SidecarExisted {
		t.Fatalf("tracks = %+v", set.Tracks)
	}
}

func TestIngestWarnsOnDanglingReferences(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	doc := strings.Join([]string{
		"---",
		"title: A",
		"hero: media/missing.jpg",
		"assets:",
		"  - ../../etc/passwd",
		"---",
		"body",
	}, "\n")
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.ContentDir, "a.md"), doc)

	set, err := Ingest(cfg, scan(t, cfg))
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if len(set.Warnings) != 2 {
		t.Fatalf("warnings = %v", set.Warnings)
	}
	var missing, escape bool
	for _, warning := range set.Warnings {
		if strings.Contains(warning, "not found") {
			missing = true
		}
		if strings.Contains(warning, "escapes the content root") {
			escape = true
		}
	}
	if !missing || !escape {
		t.Fatalf("warnings = %v", set.Warnings)
	}
}

func TestIngestWarnsOnUnreferencedContentMedia(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	doc := strings.Join([]string{
		"---",
		"title: A",
		"hero: media/hero.jpg",
		"---",
		"body",
	}, "\n")
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.ContentDir, "a.md"), doc)
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.ContentDir, "media", "hero.jpg"), "img")
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.ContentDir, "media", "stray.jpg"), "img")
	// Gallery assets need no document reference.
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.GalleryDir, "trip", "a.jpg"), "img")

	set, err := Ingest(cfg, scan(t, cfg))
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if len(set.Warnings) != 1 {
		t.Fatalf("warnings = %v", set.Warnings)
	}
	if !strings.Contains(set.Warnings[0], "stray.jpg") || !strings.Contains(set.Warnings[0], "not referenced") {
		t.Fatalf("warning = %q", set.Warnings[0])
	}
}
