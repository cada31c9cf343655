package derive

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"kiln/internal/config"
	"kiln/internal/snapshot"
)

// Task is one unit of derivative work: read one source, write one output.
type Task struct {
	Key         Key
	SourceAbs   string
	SourceHash  string
	OutputRel   string // relative to the derived root
	OutputAbs   string
	Profile     config.Profile
	Passthrough bool // copy bytes instead of transforming
}

// Plan holds the decisions for one pass: tasks to run, records to reuse, and
// the sources no longer present whose derivatives must be pruned afterwards.
type Plan struct {
	Tasks    []Task
	Reused   []*Record
	Warnings []string
}

// Planner decides which derivatives must be regenerated this pass.
type Planner struct {
	cfg   *config.Config
	index *Index
}

// NewPlanner builds a planner against the persisted index.
func NewPlanner(cfg *config.Config, index *Index) *Planner {
	return &Planner{cfg: cfg, index: index}
}

// Plan walks every tracked media asset, checks cached records, and emits
// tasks only for stale or missing derivatives. A cached record is reused when
// its source fingerprint matches the asset's current hash and the output file
// still exists on disk; a vanished output is a cache miss, not an error.
func (p *Planner) Plan(snap *snapshot.Snapshot) (*Plan, error) {
	plan := &Plan{}
	seen := map[string]struct{}{}

	for _, record := range snap.ByKind(snapshot.KindGalleryImage) {
		if err := p.planAsset(plan, seen, record, true); err != nil {
			return nil, err
		}
	}
	for _, record := range snap.ByKind(snapshot.KindAudioTrack) {
		if err := p.planAsset(plan, seen, record, false); err != nil {
			return nil, err
		}
	}
	for _, record := range snap.ByKind(snapshot.KindStaticAsset) {
		if err := p.planAsset(plan, seen, record, false); err != nil {
			return nil, err
		}
	}

	sort.Slice(plan.Tasks, func(i, j int) bool { return plan.Tasks[i].Key.String() < plan.Tasks[j].Key.String() })
	return plan, nil
}

func (p *Planner) planAsset(plan *Plan, seen map[string]struct{}, record *snapshot.InputRecord, image bool) error {
	if _, dup := seen[record.Path]; dup {
		return nil
	}
	seen[record.Path] = struct{}{}

	hash, err := record.EnsureHash()
	if err != nil {
		plan.Warnings = append(plan.Warnings, fmt.Sprintf("fingerprint %s: %v", record.Path, err))
		return nil
	}

	if image {
		for _, profile := range p.cfg.Profiles {
			p.planOne(plan, record, hash, profile, false)
		}
		return nil
	}
	// Non-image assets pass through unchanged under the "original" profile.
	p.planOne(plan, record, hash, config.Profile{Name: "original"}, true)
	return nil
}

func (p *Planner) planOne(plan *Plan, record *snapshot.InputRecord, hash string, profile config.Profile, passthrough bool) {
	key := Key{Source: record.Path, Profile: profile.Name}
	outputRel := outputRelPath(record.Path, profile, passthrough)
	outputAbs := filepath.Join(p.cfg.DerivedDir(), filepath.FromSlash(outputRel))

	if cached, ok := p.index.Lookup(key); ok && cached.SourceHash == hash {
		if _, err := os.Stat(filepath.Join(p.cfg.DerivedDir(), filepath.FromSlash(cached.OutputPath))); err == nil {
			plan.Reused = append(plan.Reused, cached)
			return
		}
		// Output deleted out of band: treat as a cache miss and regenerate.
	}

	plan.Tasks = append(plan.Tasks, Task{
		Key:         key,
		SourceAbs:   record.AbsPath(),
		SourceHash:  hash,
		OutputRel:   outputRel,
		OutputAbs:   outputAbs,
		Profile:     profile,
		Passthrough: passthrough,
	})
}

func outputRelPath(logical string, profile config.Profile, passthrough bool) string {
	if passthrough {
		return logical
	}
	dir := path.Dir(logical)
	base := path.Base(logical)
	stem := strings.TrimSuffix(base, path.Ext(base))
	return path.Join(dir, profile.Name, stem+"."+formatExtension(profile.Format))
}

func formatExtension(format string) string {
	switch format {
	case "jpeg":
		return "jpg"
	case "":
		return "bin"
	default:
		return format
	}
}
