package content

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"kiln/internal/config"
	"kiln/internal/services"
	"kiln/internal/snapshot"
)

// Ingest builds the content set for a pass from the current snapshot. Only
// structural problems (undecodable front matter, unreadable documents) are
// fatal; unresolvable media references and stray paths become warnings.
func Ingest(cfg *config.Config, snap *snapshot.Snapshot) (*Set, error) {
	set := &Set{}

	for _, record := range snap.ByKind(snapshot.KindDocument) {
		data, err := os.ReadFile(record.AbsPath())
		if err != nil {
			return nil, services.Wrap(services.ErrValidation, "content", "read", record.Path, err)
		}
		doc, err := ParseDocument(record.Path, data)
		if err != nil {
			return nil, err
		}
		set.Documents = append(set.Documents, doc)
	}
	sort.Slice(set.Documents, func(i, j int) bool { return set.Documents[i].Path < set.Documents[j].Path })

	if cfg.Gallery.Enabled {
		set.Collections = collectGallery(cfg, snap)
	}
	if cfg.Audio.Enabled {
		set.Tracks = collectAudio(cfg, snap)
	}

	set.Warnings = append(set.Warnings, auditReferences(cfg, snap, set.Documents)...)
	set.Warnings = append(set.Warnings, auditUnreferenced(snap, set.Documents)...)
	return set, nil
}

func collectGallery(cfg *config.Config, snap *snapshot.Snapshot) []*Collection {
	byID := map[string]*Collection{}

	for _, record := range snap.ByKind(snapshot.KindGalleryImage) {
		if !strings.HasPrefix(record.Path, "gallery/") {
			continue // images referenced from documents live outside collections
		}
		rel := strings.TrimPrefix(record.Path, "gallery/")
		id, _, ok := strings.Cut(rel, "/")
		if !ok {
			continue // top-level files do not form a collection
		}
		coll := byID[id]
		if coll == nil {
			dir := filepath.Join(cfg.Paths.GalleryDir, id)
			coll = &Collection{
				ID:          id,
				Dir:         dir,
				SidecarPath: filepath.Join(dir, cfg.Gallery.CollectionFilename),
			}
			if _, err := os.Stat(coll.SidecarPath); err == nil {
				coll.SidecarExisted = true
			}
			byID[id] = coll
		}

		abs := record.AbsPath()
		sidecar := sidecarPathFor(abs, cfg.Gallery.SidecarExtension)
		image := &Image{
			Path:        record.Path,
			AbsPath:     abs,
			SidecarPath: sidecar,
		}
		if _, err := os.Stat(sidecar); err == nil {
			image.SidecarExisted = true
		}
		coll.Images = append(coll.Images, image)
	}

	collections := make([]*Collection, 0, len(byID))
	for _, coll := range byID {
		sort.Slice(coll.Images, func(i, j int) bool { return coll.Images[i].Path < coll.Images[j].Path })
		collections = append(collections, coll)
	}
	sort.Slice(collections, func(i, j int) bool { return collections[i].ID < collections[j].ID })
	return collections
}

func collectAudio(cfg *config.Config, snap *snapshot.Snapshot) []*Track {
	var tracks []*Track
	for _, record := range snap.ByKind(snapshot.KindAudioTrack) {
		if !strings.HasPrefix(record.Path, "audio/") {
			continue
		}
		abs := record.AbsPath()
		sidecar := sidecarPathFor(abs, ".json")
		track := &Track{
			Path:        record.Path,
			AbsPath:     abs,
			SidecarPath: sidecar,
		}
		if _, err := os.Stat(sidecar); err == nil {
			track.SidecarExisted = true
		}
		tracks = append(tracks, track)
	}
	sort.Slice(tracks, func(i, j int) bool { return tracks[i].Path < tracks[j].Path })
	return tracks
}

func sidecarPathFor(assetAbs, extension string) string {
	ext := filepath.Ext(assetAbs)
	return strings.TrimSuffix(assetAbs, ext) + extension
}

// auditReferences verifies that document media references resolve inside the
// content root. Misses are advisories: the document still builds, the asset
// is simply absent from its variants.
func auditReferences(cfg *config.Config, snap *snapshot.Snapshot, docs []*Document) []string {
	var warnings []string
	for _, doc := range docs {
		for _, ref := range doc.MediaRefs() {
			cleaned := filepath.ToSlash(filepath.Clean(ref))
			if strings.HasPrefix(cleaned, "../") || filepath.IsAbs(ref) {
				warnings = append(warnings, fmt.Sprintf("%s: reference %q escapes the content root", doc.Path, ref))
				continue
			}
			if _, ok := snap.Lookup("content/" + cleaned); ok {
				continue
			}
			if _, ok := snap.Lookup(cleaned); ok {
				continue
			}
			abs := filepath.Join(cfg.Paths.ContentDir, filepath.FromSlash(cleaned))
			if _, err := os.Stat(abs); err != nil {
				warnings = append(warnings, fmt.Sprintf("%s: referenced media %q not found", doc.Path, ref))
			}
		}
	}
	return warnings
}

// auditUnreferenced flags media sitting under the content root that no
// document mentions. Gallery and audio roots are excluded: their assets are
// reachable through collections and track datasets without a document.
func auditUnreferenced(snap *snapshot.Snapshot, docs []*Document) []string {
	referenced := map[string]struct{}{}
	for _, doc := range docs {
		for _, ref := range doc.MediaRefs() {
			cleaned := filepath.ToSlash(filepath.Clean(ref))
			referenced[cleaned] = struct{}{}
			referenced["content/"+cleaned] = struct{}{}
		}
	}

	var warnings []string
	for _, kind := range []snapshot.Kind{snapshot.KindGalleryImage, snapshot.KindAudioTrack, snapshot.KindStaticAsset} {
		for _, record := range snap.ByKind(kind) {
			if !strings.HasPrefix(record.Path, "content/") {
				continue
			}
			if _, ok := referenced[record.Path]; ok {
				continue
			}
			warnings = append(warnings, fmt.Sprintf("%s: not referenced by any document", record.Path))
		}
	}
	return warnings
}

// ResolveRef maps a document media reference to its absolute source path.
func ResolveRef(cfg *config.Config, ref string) string {
	return filepath.Join(cfg.Paths.ContentDir, filepath.FromSlash(filepath.Clean(ref)))
}
