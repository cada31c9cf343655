package manifest

import (
	"bufio"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"kiln/internal/config"
	"kiln/internal/content"
	"kiln/internal/derive"
	"kiln/internal/sidecar"
	"kiln/internal/testsupport"
)

func doc(slug, title string, published time.Time) *content.Document {
	return &content.Document{
		Path: "content/posts/" + slug + ".md",
		Meta: content.DocMeta{
			Slug:   slug,
			Title:  title,
			Status: content.StatusPublished,
		},
		Body:        "Some body text for " + title + ".",
		PublishedAt: published,
	}
}

func TestBuildPagesOrdersNewestFirst(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	docs := []*content.Document{
		doc("older", "Older Post", now.AddDate(0, -2, 0)),
		doc("newest", "Newest Post", now),
		doc("middle", "Middle Post", now.AddDate(0, -1, 0)),
	}

	pages := BuildPages(docs, "posts", 10, now)
	if len(pages) != 1 {
		t.Fatalf("pages = %d", len(pages))
	}
	page := pages[0]
	if page.ID != "posts-001" || page.TotalPages != 1 || page.TotalItems != 3 {
		t.Fatalf("page header = %+v", page)
	}
	var slugs []string
	for _, item := range page.Items {
		slugs = append(slugs, item.Slug)
	}
	want := "newest,middle,older"
	if got := strings.Join(slugs, ","); got != want {
		t.Fatalf("order = %s, want %s", got, want)
	}
}

func TestBuildPagesChunksByPageSize(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	var docs []*content.Document
	for i := 0; i < 5; i++ {
		docs = append(docs, doc(
			string(rune('a'+i)),
			"Post "+string(rune('A'+i)),
			now.AddDate(0, 0, -i),
		))
	}

	pages := BuildPages(docs, "posts", 2, now)
	if len(pages) != 3 {
		t.Fatalf("pages = %d", len(pages))
	}
	if pages[2].ID != "posts-003" {
		t.Fatalf("last page id = %s", pages[2].ID)
	}
	if pages[0].TotalPages != 3 || pages[0].TotalItems != 5 {
		t.Fatalf("page header = %+v", pages[0])
	}
	if len(pages[2].Items) != 1 {
		t.Fatalf("last page items = %d", len(pages[2].Items))
	}
}

func TestBuildPagesEmptyInputYieldsOnePage(t *testing.T) {
	now := time.Now().UTC()
	pages := BuildPages(nil, "posts", 50, now)
	if len(pages) != 1 {
		t.Fatalf("pages = %d", len(pages))
	}
	if pages[0].ID != "posts-001" || pages[0].TotalItems != 0 || len(pages[0].Items) != 0 {
		t.Fatalf("empty page = %+v", pages[0])
	}
}

func TestItemWordCountAndExcerpt(t *testing.T) {
	d := doc("hello", "Hello", time.Now().UTC())
	d.Body = "# Heading\n\nSome [linked](https://example.com) prose with `code` and ![image](pic.jpg) markers."
	item := toItem(d)
	if item.WordCount != 8 {
		t.Fatalf("word count = %d", item.WordCount)
	}
	if item.ReadingTime != 1 {
		t.Fatalf("reading time = %d", item.ReadingTime)
	}
	if strings.Contains(item.Excerpt, "](") || strings.Contains(item.Excerpt, "`") {
		t.Fatalf("excerpt not plain: %q", item.Excerpt)
	}
}

func writeSidecar(t *testing.T, path string, v any) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func galleryFixture(t *testing.T, cfg *config.Config) *content.Set {
	t.Helper()
	dir := filepath.Join(cfg.Paths.GalleryDir, "trip")
	imgSidecar := filepath.Join(dir, "a.json")
	writeSidecar(t, filepath.Join(dir, "collection.json"), sidecar.CollectionMeta{ID: "trip", Title: "Trip"})
	writeSidecar(t, imgSidecar, sidecar.ImageMeta{ID: "a", CollectionID: "trip", Title: "A", Alt: "A"})

	trackSidecar := filepath.Join(cfg.Paths.AudioDir, "song.json")
	writeSidecar(t, trackSidecar, sidecar.TrackMeta{ID: "song", Title: "Song", Artist: "Artist"})

	return &content.Set{
		Collections: []*content.Collection{{
			ID:          "trip",
			Dir:         dir,
			SidecarPath: filepath.Join(dir, "collection.json"),
			Images: []*content.Image{{
				Path:        "gallery/trip/a.jpg",
				AbsPath:     filepath.Join(dir, "a.jpg"),
				SidecarPath: imgSidecar,
			}},
		}},
		Tracks: []*content.Track{{
			Path:        "audio/song.mp3",
			AbsPath:     filepath.Join(cfg.Paths.AudioDir, "song.mp3"),
			SidecarPath: trackSidecar,
		}},
	}
}

func TestExportWritesDatasets(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	set := galleryFixture(t, cfg)

	index := derive.NewIndex(cfg.DerivativeIndexPath())
	index.Put(&derive.Record{
		Key:        derive.Key{Source: "gallery/trip/a.jpg", Profile: "thumbnail"},
		OutputPath: "gallery/trip/thumbnail/a.jpg",
		SourceHash: "h1",
	})
	index.Put(&derive.Record{
		Key:        derive.Key{Source: "audio/song.mp3", Profile: "original"},
		OutputPath: "audio/original/song.mp3",
		SourceHash: "h2",
	})

	result := NewWriter(cfg, nil).Export(set, index)
	if len(result.Warnings) != 0 {
		t.Fatalf("warnings = %v", result.Warnings)
	}

	var catalog struct {
		Collections []struct {
			ID      string `json:"id"`
			Images  int    `json:"images"`
			Dataset string `json:"dataset"`
		} `json:"collections"`
	}
	readJSONFile(t, filepath.Join(cfg.DataDir(), "gallery", "collections.json"), &catalog)
	if len(catalog.Collections) != 1 || catalog.Collections[0].Images != 1 || catalog.Collections[0].Dataset != "trip.jsonl" {
		t.Fatalf("catalog = %+v", catalog)
	}

	lines := readLines(t, filepath.Join(cfg.DataDir(), "gallery", "images.jsonl"))
	if len(lines) != 1 {
		t.Fatalf("images.jsonl lines = %d", len(lines))
	}
	if !strings.Contains(lines[0], `"thumbnail":"gallery/trip/thumbnail/a.jpg"`) {
		t.Fatalf("derived variants missing: %s", lines[0])
	}

	tracks := readLines(t, filepath.Join(cfg.Paths.OutputDir, "data", "music", "tracks.jsonl"))
	if len(tracks) != 1 {
		t.Fatalf("tracks.jsonl lines = %d", len(tracks))
	}
	if !strings.Contains(tracks[0], `"audio":"audio/original/song.mp3"`) {
		t.Fatalf("track audio path missing: %s", tracks[0])
	}

	if _, err := os.Stat(filepath.Join(cfg.DataDir(), "manifests", "posts-001.json")); err != nil {
		t.Fatalf("manifest page missing: %v", err)
	}
}

func TestExportRemovesStaleDatasets(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	set := galleryFixture(t, cfg)
	index := derive.NewIndex(cfg.DerivativeIndexPath())

	stale := filepath.Join(cfg.DataDir(), "gallery", "departed.jsonl")
	if err := os.MkdirAll(filepath.Dir(stale), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(stale, []byte("{}\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	result := NewWriter(cfg, nil).Export(set, index)
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Fatal("stale dataset survived export")
	}
	if len(result.Removed) != 1 || result.Removed[0] != "departed.jsonl" {
		t.Fatalf("removed = %v", result.Removed)
	}
}

func TestFailedRewriteKeepsPreviousDataset(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	set := galleryFixture(t, cfg)
	index := derive.NewIndex(cfg.DerivativeIndexPath())

	writer := NewWriter(cfg, nil)
	first := writer.Export(set, index)
	if len(first.Warnings) != 0 {
		t.Fatalf("warnings = %v", first.Warnings)
	}
	tracksPath := filepath.Join(cfg.Paths.OutputDir, "data", "music", "tracks.jsonl")
	before, err := os.ReadFile(tracksPath)
	if err != nil {
		t.Fatalf("read tracks: %v", err)
	}

	writer = NewWriter(cfg, nil)
	underlying := writer.write
	writer.write = func(path string, data []byte, mode os.FileMode) error {
		if filepath.Base(path) == "tracks.jsonl" {
			return errors.New("disk full")
		}
		return underlying(path, data, mode)
	}

	second := writer.Export(set, index)
	after, err := os.ReadFile(tracksPath)
	if err != nil {
		t.Fatalf("tracks.jsonl gone after failed rewrite: %v", err)
	}
	if string(after) != string(before) {
		t.Fatal("failed rewrite clobbered the previous dataset")
	}
	for _, removed := range second.Removed {
		if removed == "tracks.jsonl" {
			t.Fatal("failed dataset treated as stale")
		}
	}
	if len(second.Warnings) != 1 || !strings.Contains(second.Warnings[0], "tracks.jsonl") {
		t.Fatalf("warnings = %v", second.Warnings)
	}
}

func readJSONFile(t *testing.T, path string, v any) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer file.Close()
	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("scan %s: %v", path, err)
	}
	return lines
}
