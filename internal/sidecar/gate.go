package sidecar

import (
	"context"
)

// Action is the gate's decision for one asset's sidecar.
type Action string

const (
	// ActionKeep leaves a present sidecar untouched. Present sidecars may
	// carry hand-authored edits, so this is the default whenever a file
	// exists and no refresh was requested.
	ActionKeep Action = "keep"
	// ActionSynthesizeBaseline writes title/timestamp placeholders only.
	ActionSynthesizeBaseline Action = "synthesize_baseline"
	// ActionSynthesizeEnriched invokes the enrichment capability and persists
	// the result alongside the baseline fields.
	ActionSynthesizeEnriched Action = "synthesize_enriched"
	// ActionForceRefresh regenerates even when a sidecar is present. Only an
	// explicit operator override produces it.
	ActionForceRefresh Action = "force_refresh"
)

// Annotation is the result of one enrichment call.
type Annotation struct {
	Caption string
	Tags    []string
}

// Capability produces captions and tags for an image. Implementations may be
// network-backed; Available lets the gate degrade gracefully when the
// capability is not configured or not reachable.
type Capability interface {
	Available() bool
	Annotate(ctx context.Context, imagePath string) (Annotation, error)
}

// Resolve decides what to do with one asset's sidecar. Without force, a
// present sidecar always resolves to keep; this invariant protects
// hand-authored edits from automated enrichment.
func Resolve(present, force bool, capability Capability) Action {
	if force {
		return ActionForceRefresh
	}
	if present {
		return ActionKeep
	}
	if capability != nil && capability.Available() {
		return ActionSynthesizeEnriched
	}
	return ActionSynthesizeBaseline
}
