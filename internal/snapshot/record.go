package snapshot

import (
	"sort"
	"time"

	"kiln/internal/fileutil"
)

// Kind classifies a tracked input file. The set is closed; every scanner rule
// maps a file to exactly one kind.
type Kind string

const (
	KindDocument       Kind = "document"
	KindGalleryImage   Kind = "gallery-image"
	KindGallerySidecar Kind = "gallery-sidecar"
	KindAudioTrack     Kind = "audio-track"
	KindAudioSidecar   Kind = "audio-sidecar"
	KindStaticAsset    Kind = "static-asset"
	KindTemplate       Kind = "template"
)

// InputRecord captures the identity of one tracked source file. The content
// hash is computed lazily: size and mtime alone settle most comparisons.
type InputRecord struct {
	Path    string    `json:"path"`
	Kind    Kind      `json:"kind"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
	Hash    string    `json:"hash,omitempty"`

	absPath string
}

// AbsPath returns the filesystem location backing this record. Only records
// produced by the scanner carry one; records loaded from the store do not.
func (r *InputRecord) AbsPath() string {
	return r.absPath
}

// EnsureHash computes and caches the strong content hash when absent.
func (r *InputRecord) EnsureHash() (string, error) {
	if r.Hash != "" {
		return r.Hash, nil
	}
	if r.absPath == "" {
		return "", nil
	}
	sum, err := fileutil.HashFile(r.absPath)
	if err != nil {
		return "", err
	}
	r.Hash = sum
	return sum, nil
}

// Snapshot is an ordered mapping from logical path to InputRecord, captured
// at the start of a pass.
type Snapshot struct {
	TakenAt time.Time               `json:"taken_at"`
	Records map[string]*InputRecord `json:"records"`
}

// New returns an empty snapshot stamped with the current time.
func New() *Snapshot {
	return &Snapshot{TakenAt: time.Now().UTC(), Records: map[string]*InputRecord{}}
}

// Empty reports whether the snapshot tracks no inputs.
func (s *Snapshot) Empty() bool {
	return s == nil || len(s.Records) == 0
}

// Len returns the number of tracked inputs.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Records)
}

// Paths returns every tracked logical path in sorted order.
func (s *Snapshot) Paths() []string {
	if s == nil {
		return nil
	}
	paths := make([]string, 0, len(s.Records))
	for path := range s.Records {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// Lookup returns the record for a logical path.
func (s *Snapshot) Lookup(path string) (*InputRecord, bool) {
	if s == nil {
		return nil, false
	}
	record, ok := s.Records[path]
	return record, ok
}

// Add inserts a record, replacing any record sharing the same logical path.
func (s *Snapshot) Add(record *InputRecord) {
	if record == nil || record.Path == "" {
		return
	}
	s.Records[record.Path] = record
}

// ByKind returns the sorted records of one kind.
func (s *Snapshot) ByKind(kind Kind) []*InputRecord {
	if s == nil {
		return nil
	}
	var records []*InputRecord
	for _, record := range s.Records {
		if record.Kind == kind {
			records = append(records, record)
		}
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Path < records[j].Path })
	return records
}
