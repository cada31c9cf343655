package sidecar

import (
	"encoding/json"
	"os"
	"time"

	"kiln/internal/fileutil"
)

// ImageMeta is the persisted sidecar schema for one gallery image.
type ImageMeta struct {
	ID           string            `json:"id"`
	CollectionID string            `json:"collection_id"`
	Filename     string            `json:"filename"`
	Title        string            `json:"title"`
	Alt          string            `json:"alt_text"`
	Caption      string            `json:"caption,omitempty"`
	Tags         []string          `json:"tags,omitempty"`
	Derived      map[string]string `json:"derived,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
	EnrichedAt   *time.Time        `json:"enriched_at,omitempty"`
}

// CollectionMeta is the persisted sidecar schema for one gallery collection.
type CollectionMeta struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Summary   string    `json:"summary,omitempty"`
	Tags      []string  `json:"tags,omitempty"`
	SortOrder int       `json:"sort_order"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TrackMeta is the persisted descriptor schema for one audio track.
type TrackMeta struct {
	ID        string    `json:"id"`
	Filename  string    `json:"filename"`
	Title     string    `json:"title"`
	Artist    string    `json:"artist,omitempty"`
	Album     string    `json:"album,omitempty"`
	Tags      []string  `json:"tags,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return fileutil.WriteFileAtomic(path, append(data, '\n'), 0o644)
}

// ReadImageMeta loads an image sidecar from disk.
func ReadImageMeta(path string) (ImageMeta, error) {
	var meta ImageMeta
	err := readJSON(path, &meta)
	return meta, err
}

// ReadCollectionMeta loads a collection sidecar from disk.
func ReadCollectionMeta(path string) (CollectionMeta, error) {
	var meta CollectionMeta
	err := readJSON(path, &meta)
	return meta, err
}

// ReadTrackMeta loads a track descriptor from disk.
func ReadTrackMeta(path string) (TrackMeta, error) {
	var meta TrackMeta
	err := readJSON(path, &meta)
	return meta, err
}
