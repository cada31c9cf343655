package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"kiln/internal/fileutil"
)

// storeVersion is bumped whenever the persisted layout changes. Any other
// version on disk degrades to a first build rather than failing.
const storeVersion = 1

type storePayload struct {
	Version int            `json:"version"`
	TakenAt time.Time      `json:"taken_at"`
	Records []*InputRecord `json:"records"`
}

// Store persists the snapshot of the previous successful pass.
type Store struct {
	path string
}

// NewStore builds a store rooted at path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load reads the persisted snapshot. The second return value reports whether
// a usable snapshot was found: a missing, corrupt, or version-mismatched file
// yields (nil, false) and never an error, so callers fall back to a first
// build.
func (s *Store) Load() (*Snapshot, bool) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, false
	}
	var payload storePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, false
	}
	if payload.Version != storeVersion {
		return nil, false
	}
	snap := &Snapshot{TakenAt: payload.TakenAt, Records: make(map[string]*InputRecord, len(payload.Records))}
	for _, record := range payload.Records {
		if record != nil && record.Path != "" {
			snap.Records[record.Path] = record
		}
	}
	return snap, true
}

// Save writes the snapshot atomically: the payload lands in a temp file that
// is renamed over the store, so a crash mid-save leaves the previous snapshot
// intact.
func (s *Store) Save(snap *Snapshot) error {
	if snap == nil {
		return fmt.Errorf("snapshot store: nil snapshot")
	}
	records := make([]*InputRecord, 0, len(snap.Records))
	for _, record := range snap.Records {
		records = append(records, record)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Path < records[j].Path })

	payload := storePayload{Version: storeVersion, TakenAt: snap.TakenAt, Records: records}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("snapshot store: encode: %w", err)
	}
	if err := fileutil.WriteFileAtomic(s.path, data, 0o644); err != nil {
		return fmt.Errorf("snapshot store: write: %w", err)
	}
	return nil
}
