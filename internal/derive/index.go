package derive

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"kiln/internal/fileutil"
)

const indexVersion = 1

// Key identifies one derivative: a source asset transformed by a named profile.
type Key struct {
	Source  string `json:"source"`
	Profile string `json:"profile"`
}

func (k Key) String() string {
	return k.Source + "|" + k.Profile
}

// Record describes one generated derivative and the source fingerprint it was
// generated from. A record is valid exactly when that fingerprint matches the
// current source and the output file still exists.
type Record struct {
	Key         Key       `json:"key"`
	OutputPath  string    `json:"output_path"` // relative to the derived root
	SourceHash  string    `json:"source_hash"`
	Width       int       `json:"width,omitempty"`
	Height      int       `json:"height,omitempty"`
	Format      string    `json:"format,omitempty"`
	Quality     int       `json:"quality,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Index maps derivative keys to their records and persists between passes.
type Index struct {
	path    string
	records map[string]*Record
}

// NewIndex creates an empty index that persists at path.
func NewIndex(path string) *Index {
	return &Index{path: path, records: map[string]*Record{}}
}

type indexPayload struct {
	Version int       `json:"version"`
	Records []*Record `json:"records"`
}

// LoadIndex reads the persisted derivative index. Like the snapshot store it
// fails soft: missing, corrupt, or version-mismatched files yield an empty
// index, which simply regenerates everything.
func LoadIndex(path string) *Index {
	idx := NewIndex(path)
	data, err := os.ReadFile(path)
	if err != nil {
		return idx
	}
	var payload indexPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return idx
	}
	if payload.Version != indexVersion {
		return idx
	}
	for _, record := range payload.Records {
		if record != nil {
			idx.records[record.Key.String()] = record
		}
	}
	return idx
}

// Save writes the index atomically.
func (i *Index) Save() error {
	records := make([]*Record, 0, len(i.records))
	for _, record := range i.records {
		records = append(records, record)
	}
	sort.Slice(records, func(a, b int) bool { return records[a].Key.String() < records[b].Key.String() })

	data, err := json.MarshalIndent(indexPayload{Version: indexVersion, Records: records}, "", "  ")
	if err != nil {
		return fmt.Errorf("derivative index: encode: %w", err)
	}
	if err := fileutil.WriteFileAtomic(i.path, data, 0o644); err != nil {
		return fmt.Errorf("derivative index: write: %w", err)
	}
	return nil
}

// Lookup returns the record for a key.
func (i *Index) Lookup(key Key) (*Record, bool) {
	record, ok := i.records[key.String()]
	return record, ok
}

// Put inserts or replaces a record.
func (i *Index) Put(record *Record) {
	if record != nil {
		i.records[record.Key.String()] = record
	}
}

// Remove drops the record for a key.
func (i *Index) Remove(key Key) {
	delete(i.records, key.String())
}

// Len returns the number of records.
func (i *Index) Len() int {
	return len(i.records)
}

// Sources returns the sorted set of source paths with at least one record.
func (i *Index) Sources() []string {
	seen := map[string]struct{}{}
	for _, record := range i.records {
		seen[record.Key.Source] = struct{}{}
	}
	sources := make([]string, 0, len(seen))
	for source := range seen {
		sources = append(sources, source)
	}
	sort.Strings(sources)
	return sources
}

// BySource returns every record generated from the given source path, sorted
// by profile name. Manifest and page writers consume this view.
func (i *Index) BySource(source string) []*Record {
	var records []*Record
	for _, record := range i.records {
		if record.Key.Source == source {
			records = append(records, record)
		}
	}
	sort.Slice(records, func(a, b int) bool { return records[a].Key.Profile < records[b].Key.Profile })
	return records
}
