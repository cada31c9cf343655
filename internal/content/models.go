package content

import (
	"path"
	"strings"
	"time"
)

// Status gates whether a document reaches the published manifests.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
)

// DocMeta is the front-matter schema for text documents.
type DocMeta struct {
	Title   string   `yaml:"title"`
	Slug    string   `yaml:"slug"`
	Date    string   `yaml:"date"`
	Status  Status   `yaml:"status"`
	Summary string   `yaml:"summary"`
	Tags    []string `yaml:"tags"`
	Hero    string   `yaml:"hero"`
	Assets  []string `yaml:"assets"`
}

// Document is one parsed text document.
type Document struct {
	Path        string // logical snapshot path, e.g. content/posts/hello.md
	Meta        DocMeta
	Body        string
	PublishedAt time.Time
}

// Published reports whether the document belongs in generated manifests.
func (d *Document) Published() bool {
	return d.Meta.Status == StatusPublished
}

// MediaRefs returns every media path the document references, hero first.
func (d *Document) MediaRefs() []string {
	refs := make([]string, 0, len(d.Meta.Assets)+1)
	if strings.TrimSpace(d.Meta.Hero) != "" {
		refs = append(refs, d.Meta.Hero)
	}
	for _, asset := range d.Meta.Assets {
		if strings.TrimSpace(asset) != "" {
			refs = append(refs, asset)
		}
	}
	return refs
}

// Image is one gallery image plus the location of its sidecar.
type Image struct {
	Path           string // logical snapshot path, e.g. gallery/trip/a.jpg
	AbsPath        string
	SidecarPath    string // absolute path of the sidecar, existing or not
	SidecarExisted bool
}

// Filename returns the image's base name.
func (i *Image) Filename() string {
	return path.Base(i.Path)
}

// Collection is a directory of gallery images with a collection sidecar.
type Collection struct {
	ID             string
	Dir            string // absolute directory
	SidecarPath    string // absolute path of collection.json, existing or not
	SidecarExisted bool
	Images         []*Image
}

// Track is one audio file plus the location of its descriptor sidecar.
type Track struct {
	Path           string // logical snapshot path, e.g. audio/song.mp3
	AbsPath        string
	SidecarPath    string
	SidecarExisted bool
}

// Set is everything one ingestion pass discovered.
type Set struct {
	Documents   []*Document
	Collections []*Collection
	Tracks      []*Track
	Warnings    []string
}

// PublishedDocuments filters the set down to manifest-worthy documents.
func (s *Set) PublishedDocuments() []*Document {
	var out []*Document
	for _, doc := range s.Documents {
		if doc.Published() {
			out = append(out, doc)
		}
	}
	return out
}
