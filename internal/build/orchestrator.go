package build

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"kiln/internal/change"
	"kiln/internal/config"
	"kiln/internal/content"
	"kiln/internal/derive"
	"kiln/internal/logging"
	"kiln/internal/manifest"
	"kiln/internal/prune"
	"kiln/internal/services"
	"kiln/internal/sidecar"
	"kiln/internal/snapshot"
)

// Options control one pass.
type Options struct {
	// Force ignores all cached state and treats the run as a first build.
	Force bool
	// RefreshSidecars regenerates sidecars even when present.
	RefreshSidecars bool
	// DryRun stops after planning and reports what would happen. No writes.
	DryRun bool
}

// Orchestrator drives the pipeline state machine:
//
//	Idle → Snapshotting → (noop: Idle) → Planning → Generating → Pruning →
//	Reporting → Committing → Idle
//
// Any fatal error moves the machine to Aborted, skipping Committing, so the
// previously committed snapshot and index stay authoritative. Recoverable
// per-item failures become report warnings and never unwind the pass.
type Orchestrator struct {
	cfg        *config.Config
	logger     *slog.Logger
	capability sidecar.Capability
	now        func() time.Time
}

// New constructs an orchestrator. capability may be nil, in which case
// sidecar synthesis degrades to baseline metadata.
func New(cfg *config.Config, logger *slog.Logger, capability sidecar.Capability) *Orchestrator {
	return &Orchestrator{
		cfg:        cfg,
		logger:     logging.NewComponentLogger(logger, "build"),
		capability: capability,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Run executes one full pass and always returns a report, even on abort.
// The returned error is non-nil only for fatal conditions.
func (o *Orchestrator) Run(ctx context.Context, opts Options) (*Report, error) {
	report := &Report{
		BuildID:   uuid.NewString(),
		Phase:     PhaseIdle,
		StartedAt: o.now(),
	}
	logger := o.logger.With(logging.String(logging.FieldBuildID, report.BuildID))

	if err := os.MkdirAll(o.cfg.Paths.CacheDir, 0o755); err != nil {
		return o.abort(report, services.Wrap(services.ErrConfiguration, "build", "run", "create cache directory", err))
	}

	lock := flock.New(o.cfg.LockPath())
	locked, err := lock.TryLock()
	if err != nil {
		return o.abort(report, services.Wrap(services.ErrUnavailable, "build", "run", "acquire build lock", err))
	}
	if !locked {
		return o.abort(report, services.Wrap(services.ErrUnavailable, "build", "run", "another build holds the lock", nil))
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Warn("release build lock", logging.Error(err))
		}
	}()

	o.transition(logger, report, PhaseSnapshotting)
	store := snapshot.NewStore(o.cfg.SnapshotPath())
	previous, hasPrevious := store.Load()
	if opts.Force {
		// A forced run discards history: everything regenerates.
		previous, hasPrevious = nil, false
	}

	current, err := snapshot.NewScanner(o.cfg).Scan()
	if err != nil {
		return o.abort(report, services.Wrap(services.ErrValidation, "build", "snapshot", "scan input tree", err))
	}
	report.InputsTracked = current.Len()

	cs, err := change.Diff(previous, current)
	if err != nil {
		return o.abort(report, services.Wrap(services.ErrValidation, "build", "snapshot", "diff against previous pass", err))
	}
	report.Added = len(cs.Added)
	report.Modified = len(cs.Modified)
	report.Removed = len(cs.Removed)
	report.Unchanged = len(cs.Unchanged)
	report.Mode = change.Mode(hasPrevious, cs, opts.Force)

	logger.Info("change detection complete",
		logging.String("mode", string(report.Mode)),
		logging.String("changes", cs.Summary()),
	)

	if report.Mode == change.ModeNoop {
		// Nothing changed since the committed snapshot: zero writes. The
		// committed index still tells us how many derivatives stand.
		report.DerivativesReused = derive.LoadIndex(o.cfg.DerivativeIndexPath()).Len()
		return o.finish(logger, report, PhaseIdle), nil
	}

	set, err := content.Ingest(o.cfg, current)
	if err != nil {
		return o.abort(report, err)
	}
	report.Documents = len(set.Documents)
	report.warn(set.Warnings...)

	o.transition(logger, report, PhasePlanning)
	var index *derive.Index
	if opts.Force {
		index = derive.NewIndex(o.cfg.DerivativeIndexPath())
	} else {
		index = derive.LoadIndex(o.cfg.DerivativeIndexPath())
	}
	planner := derive.NewPlanner(o.cfg, index)
	plan, err := planner.Plan(current)
	if err != nil {
		return o.abort(report, services.Wrap(services.ErrValidation, "build", "plan", "plan derivatives", err))
	}
	report.DerivativesReused = len(plan.Reused)
	report.warn(plan.Warnings...)

	if opts.DryRun {
		report.DerivativesGenerated = len(plan.Tasks)
		logger.Info("dry run complete",
			logging.Int("would_generate", len(plan.Tasks)),
			logging.Int("reused", len(plan.Reused)),
		)
		return o.finish(logger, report, PhaseIdle), nil
	}

	outcome := sidecar.NewGate(o.cfg, o.capability, logger).Process(ctx, set, opts.RefreshSidecars)
	report.SidecarsCreated = outcome.Created
	report.SidecarsEnriched = outcome.Enriched
	report.SidecarsKept = outcome.Kept
	report.warn(outcome.Warnings...)

	o.transition(logger, report, PhaseGenerating)
	results := derive.NewExecutor(o.cfg, logger).Run(ctx, plan.Tasks)
	for _, result := range results {
		if result.Err != nil {
			report.DerivativesFailed++
			report.warn(result.Err.Error())
			continue
		}
		index.Put(result.Record)
		report.DerivativesGenerated++
	}
	if err := ctx.Err(); err != nil {
		return o.abort(report, services.Wrap(services.ErrTimeout, "build", "generate", "generation interrupted", err))
	}

	o.transition(logger, report, PhasePruning)
	pruned := prune.New(o.cfg, logger).Run(current, index)
	report.DerivativesPruned = len(pruned.Removed)
	report.warn(pruned.Warnings...)

	o.transition(logger, report, PhaseReporting)
	exported := manifest.NewWriter(o.cfg, logger).Export(set, index)
	report.DatasetsWritten = len(exported.Written)
	report.warn(exported.Warnings...)

	o.transition(logger, report, PhaseCommitting)
	if err := o.commit(store, index, current); err != nil {
		return o.abort(report, err)
	}

	return o.finish(logger, report, PhaseIdle), nil
}

// commit persists the snapshot and derivative index. The input tree is
// rescanned first so sidecars synthesized during this pass count as committed
// state rather than showing up as additions next pass; fingerprints already
// computed are carried over where size and mtime still match.
func (o *Orchestrator) commit(store *snapshot.Store, index *derive.Index, scanned *snapshot.Snapshot) error {
	final, err := snapshot.NewScanner(o.cfg).Scan()
	if err != nil {
		return services.Wrap(services.ErrValidation, "build", "commit", "rescan input tree", err)
	}
	for _, path := range final.Paths() {
		record, _ := final.Lookup(path)
		if prev, ok := scanned.Lookup(path); ok && prev.Hash != "" &&
			prev.Size == record.Size && prev.ModTime.Equal(record.ModTime) {
			record.Hash = prev.Hash
		}
	}
	if err := store.Save(final); err != nil {
		return services.Wrap(services.ErrUnavailable, "build", "commit", "persist snapshot", err)
	}
	if err := index.Save(); err != nil {
		return services.Wrap(services.ErrUnavailable, "build", "commit", "persist derivative index", err)
	}
	return nil
}

func (o *Orchestrator) transition(logger *slog.Logger, report *Report, phase Phase) {
	report.Phase = phase
	logger.Debug("phase transition", logging.String(logging.FieldPhase, string(phase)))
}

func (o *Orchestrator) finish(logger *slog.Logger, report *Report, phase Phase) *Report {
	report.Phase = phase
	report.FinishedAt = o.now()
	logger.Info("pass complete",
		logging.String("mode", string(report.Mode)),
		logging.Int("generated", report.DerivativesGenerated),
		logging.Int("reused", report.DerivativesReused),
		logging.Int("pruned", report.DerivativesPruned),
		logging.Int("warnings", len(report.Warnings)),
		logging.Duration("elapsed", report.FinishedAt.Sub(report.StartedAt)),
	)
	return report
}

func (o *Orchestrator) abort(report *Report, err error) (*Report, error) {
	report.Phase = PhaseAborted
	report.FinishedAt = o.now()
	report.Error = err.Error()
	o.logger.Error("pass aborted",
		logging.String(logging.FieldBuildID, report.BuildID),
		logging.Error(err),
	)
	return report, fmt.Errorf("build %s: %w", report.BuildID, err)
}
