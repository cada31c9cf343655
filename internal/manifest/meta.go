package manifest

import (
	"path"
	"strings"

	"kiln/internal/content"
	"kiln/internal/sidecar"
	"kiln/internal/textutil"
)

func stem(logicalPath string) string {
	base := path.Base(logicalPath)
	return strings.TrimSuffix(base, path.Ext(base))
}

// Sidecars are synthesized before export, so a missing or unreadable file is
// unusual. Exports still proceed with baseline fields derived from the asset
// name so one bad sidecar never drops an item from the catalog.

func readCollectionMeta(coll *content.Collection) (sidecar.CollectionMeta, error) {
	meta, err := sidecar.ReadCollectionMeta(coll.SidecarPath)
	if err != nil {
		return sidecar.CollectionMeta{ID: coll.ID, Title: textutil.TitleFromStem(coll.ID)}, err
	}
	if meta.ID == "" {
		meta.ID = coll.ID
	}
	if meta.Title == "" {
		meta.Title = textutil.TitleFromStem(coll.ID)
	}
	return meta, nil
}

func readImageMeta(img *content.Image) (sidecar.ImageMeta, error) {
	meta, err := sidecar.ReadImageMeta(img.SidecarPath)
	if err != nil {
		return sidecar.ImageMeta{}, err
	}
	if meta.ID == "" {
		meta.ID = stem(img.Filename())
	}
	if meta.Title == "" {
		meta.Title = textutil.TitleFromStem(meta.ID)
	}
	return meta, nil
}

func readTrackMeta(track *content.Track) (sidecar.TrackMeta, error) {
	meta, err := sidecar.ReadTrackMeta(track.SidecarPath)
	if err != nil {
		return sidecar.TrackMeta{}, err
	}
	if meta.ID == "" {
		meta.ID = stem(track.Path)
	}
	if meta.Title == "" {
		meta.Title = textutil.TitleFromStem(meta.ID)
	}
	return meta, nil
}
