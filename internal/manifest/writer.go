package manifest

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"kiln/internal/config"
	"kiln/internal/content"
	"kiln/internal/derive"
	"kiln/internal/fileutil"
	"kiln/internal/logging"
)

// Result reports what one export pass wrote.
type Result struct {
	Written  []string
	Removed  []string
	Warnings []string
}

// Writer emits manifest pages and gallery/audio datasets under the output
// data directory. Stale files from earlier passes are removed after export so
// the data tree always mirrors the current content set.
type Writer struct {
	cfg    *config.Config
	logger *slog.Logger
	now    func() time.Time
	write  func(path string, data []byte, mode os.FileMode) error
}

func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	return &Writer{
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "manifest"),
		now:    func() time.Time { return time.Now().UTC() },
		write:  fileutil.WriteFileAtomic,
	}
}

// Export writes every dataset: paginated document manifests, the gallery
// catalog, and the audio catalog. Per-file failures are warnings; the pass
// continues so one bad dataset never blocks the rest.
func (w *Writer) Export(set *content.Set, index *derive.Index) Result {
	var result Result
	now := w.now()

	w.exportManifestPages(set, now, &result)
	w.exportGallery(set, index, now, &result)
	w.exportAudio(set, index, now, &result)

	sort.Strings(result.Written)
	return result
}

func (w *Writer) exportManifestPages(set *content.Set, now time.Time, result *Result) {
	dir := filepath.Join(w.cfg.DataDir(), "manifests")
	pages := BuildPages(set.PublishedDocuments(), "posts", w.cfg.Build.ManifestPageSize, now)

	kept := map[string]struct{}{}
	for _, page := range pages {
		name := page.ID + ".json"
		kept[name] = struct{}{}
		if err := w.writeJSON(filepath.Join(dir, name), page, result); err == nil {
			result.Written = append(result.Written, filepath.Join("manifests", name))
		}
	}
	w.removeStale(dir, kept, result)
}

// galleryImage is one line of the gallery JSONL datasets.
type galleryImage struct {
	ID           string            `json:"id"`
	CollectionID string            `json:"collection_id"`
	Title        string            `json:"title"`
	Alt          string            `json:"alt_text"`
	Caption      string            `json:"caption,omitempty"`
	Tags         []string          `json:"tags,omitempty"`
	Source       string            `json:"source"`
	Derived      map[string]string `json:"derived,omitempty"`
}

type galleryCollection struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Summary string   `json:"summary,omitempty"`
	Tags    []string `json:"tags,omitempty"`
	Images  int      `json:"images"`
	Dataset string   `json:"dataset"`
}

func (w *Writer) exportGallery(set *content.Set, index *derive.Index, now time.Time, result *Result) {
	dir := filepath.Join(w.cfg.Paths.OutputDir, filepath.FromSlash(w.cfg.Gallery.DataSubdir))
	kept := map[string]struct{}{}

	catalog := struct {
		Version     int                 `json:"version"`
		GeneratedAt time.Time           `json:"generated_at"`
		Collections []galleryCollection `json:"collections"`
	}{Version: 1, GeneratedAt: now, Collections: []galleryCollection{}}

	var global []galleryImage
	for _, coll := range set.Collections {
		meta, err := readCollectionMeta(coll)
		if err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("gallery %s: read collection sidecar: %v", coll.ID, err))
		}

		var images []galleryImage
		for _, img := range coll.Images {
			entry, err := w.galleryEntry(coll, img, index)
			if err != nil {
				result.Warnings = append(result.Warnings, fmt.Sprintf("gallery %s: %v", img.Path, err))
				continue
			}
			images = append(images, entry)
		}
		sort.Slice(images, func(a, b int) bool { return images[a].ID < images[b].ID })
		global = append(global, images...)

		dataset := coll.ID + ".jsonl"
		kept[dataset] = struct{}{}
		if err := w.writeJSONL(filepath.Join(dir, dataset), toAnySlice(images), result); err == nil {
			result.Written = append(result.Written, filepath.Join("gallery", dataset))
		}

		catalog.Collections = append(catalog.Collections, galleryCollection{
			ID:      coll.ID,
			Title:   meta.Title,
			Summary: meta.Summary,
			Tags:    meta.Tags,
			Images:  len(images),
			Dataset: dataset,
		})
	}
	sort.Slice(catalog.Collections, func(a, b int) bool { return catalog.Collections[a].ID < catalog.Collections[b].ID })

	kept["images.jsonl"] = struct{}{}
	if err := w.writeJSONL(filepath.Join(dir, "images.jsonl"), toAnySlice(global), result); err == nil {
		result.Written = append(result.Written, "gallery/images.jsonl")
	}
	kept["collections.json"] = struct{}{}
	if err := w.writeJSON(filepath.Join(dir, "collections.json"), catalog, result); err == nil {
		result.Written = append(result.Written, "gallery/collections.json")
	}
	w.removeStale(dir, kept, result)
}

func (w *Writer) galleryEntry(coll *content.Collection, img *content.Image, index *derive.Index) (galleryImage, error) {
	meta, err := readImageMeta(img)
	if err != nil {
		return galleryImage{}, err
	}
	derived := map[string]string{}
	for _, record := range index.BySource(img.Path) {
		derived[record.Key.Profile] = record.OutputPath
	}
	if len(derived) == 0 {
		derived = nil
	}
	return galleryImage{
		ID:           meta.ID,
		CollectionID: coll.ID,
		Title:        meta.Title,
		Alt:          meta.Alt,
		Caption:      meta.Caption,
		Tags:         meta.Tags,
		Source:       img.Path,
		Derived:      derived,
	}, nil
}

// trackRecord is one line of tracks.jsonl, including a lowercase search blob
// so the front-end can filter without re-tokenizing fields.
type trackRecord struct {
	ID     string   `json:"id"`
	Title  string   `json:"title"`
	Artist string   `json:"artist,omitempty"`
	Album  string   `json:"album,omitempty"`
	Tags   []string `json:"tags,omitempty"`
	Source string   `json:"source"`
	Audio  string   `json:"audio,omitempty"`
	Search string   `json:"search"`
}

func (w *Writer) exportAudio(set *content.Set, index *derive.Index, now time.Time, result *Result) {
	dir := filepath.Join(w.cfg.Paths.OutputDir, filepath.FromSlash(w.cfg.Audio.DataSubdir))
	kept := map[string]struct{}{}

	var records []trackRecord
	for _, track := range set.Tracks {
		meta, err := readTrackMeta(track)
		if err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("audio %s: read descriptor: %v", track.Path, err))
			continue
		}
		audio := track.Path
		for _, record := range index.BySource(track.Path) {
			if record.Key.Profile == "original" {
				audio = record.OutputPath
				break
			}
		}
		search := strings.ToLower(strings.Join(append([]string{meta.Title, meta.Artist, meta.Album}, meta.Tags...), " "))
		records = append(records, trackRecord{
			ID:     meta.ID,
			Title:  meta.Title,
			Artist: meta.Artist,
			Album:  meta.Album,
			Tags:   meta.Tags,
			Source: track.Path,
			Audio:  audio,
			Search: strings.TrimSpace(search),
		})
	}
	sort.Slice(records, func(a, b int) bool { return records[a].ID < records[b].ID })

	kept["tracks.jsonl"] = struct{}{}
	if err := w.writeJSONL(filepath.Join(dir, "tracks.jsonl"), toAnySlice(records), result); err == nil {
		result.Written = append(result.Written, "audio/tracks.jsonl")
	}

	summary := struct {
		Version     int       `json:"version"`
		GeneratedAt time.Time `json:"generated_at"`
		Tracks      int       `json:"tracks"`
	}{Version: 1, GeneratedAt: now, Tracks: len(records)}
	kept["tracks.json"] = struct{}{}
	if err := w.writeJSON(filepath.Join(dir, "tracks.json"), summary, result); err == nil {
		result.Written = append(result.Written, "audio/tracks.json")
	}
	w.removeStale(dir, kept, result)
}

func (w *Writer) writeJSON(path string, payload any, result *Result) error {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err == nil {
		err = w.write(path, append(data, '\n'), 0o644)
	}
	if err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("write %s: %v", filepath.Base(path), err))
	}
	return err
}

func (w *Writer) writeJSONL(path string, rows []any, result *Result) error {
	var buf strings.Builder
	for _, row := range rows {
		line, err := json.Marshal(row)
		if err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("write %s: encode row: %v", filepath.Base(path), err))
			return err
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}
	if err := w.write(path, []byte(buf.String()), 0o644); err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("write %s: %v", filepath.Base(path), err))
		return err
	}
	return nil
}

// removeStale deletes files in dir that no dataset claims this pass. A file
// whose rewrite failed stays in kept, so its last good version survives until
// a later pass replaces it.
func (w *Writer) removeStale(dir string, kept map[string]struct{}, result *Result) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if _, ok := kept[entry.Name()]; ok {
			continue
		}
		if err := os.Remove(filepath.Join(dir, entry.Name())); err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("remove stale %s: %v", entry.Name(), err))
			continue
		}
		result.Removed = append(result.Removed, entry.Name())
		w.logger.Info("removed stale dataset", logging.String("file", entry.Name()))
	}
}

func toAnySlice[T any](rows []T) []any {
	out := make([]any, len(rows))
	for i := range rows {
		out[i] = rows[i]
	}
	return out
}
