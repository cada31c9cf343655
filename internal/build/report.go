package build

import (
	"time"

	"kiln/internal/change"
)

// Phase names one stage of the pipeline state machine.
type Phase string

const (
	PhaseIdle         Phase = "idle"
	PhaseSnapshotting Phase = "snapshotting"
	PhasePlanning     Phase = "planning"
	PhaseGenerating   Phase = "generating"
	PhasePruning      Phase = "pruning"
	PhaseReporting    Phase = "reporting"
	PhaseCommitting   Phase = "committing"
	PhaseAborted      Phase = "aborted"
)

// Report is the machine-readable summary of one pass. It is the single
// source of truth for what happened: every recoverable failure lands in
// Warnings and every advisory lands there too, tagged by origin.
type Report struct {
	BuildID    string           `json:"build_id"`
	Mode       change.BuildMode `json:"mode"`
	Phase      Phase            `json:"phase"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`

	InputsTracked int `json:"inputs_tracked"`
	Added         int `json:"added"`
	Modified      int `json:"modified"`
	Removed       int `json:"removed"`
	Unchanged     int `json:"unchanged"`

	Documents            int `json:"documents"`
	DerivativesGenerated int `json:"derivatives_generated"`
	DerivativesReused    int `json:"derivatives_reused"`
	DerivativesFailed    int `json:"derivatives_failed"`
	DerivativesPruned    int `json:"derivatives_pruned"`
	SidecarsCreated      int `json:"sidecars_created"`
	SidecarsEnriched     int `json:"sidecars_enriched"`
	SidecarsKept         int `json:"sidecars_kept"`
	DatasetsWritten      int `json:"datasets_written"`

	Warnings []string `json:"warnings,omitempty"`
	Error    string   `json:"error,omitempty"`
}

// Succeeded reports whether the pass committed (or legitimately short-circuited).
func (r *Report) Succeeded() bool {
	return r.Phase != PhaseAborted
}

func (r *Report) warn(messages ...string) {
	r.Warnings = append(r.Warnings, messages...)
}
