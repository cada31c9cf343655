// Package sidecar enforces the frozen-unless-missing policy for gallery and
// audio metadata files. A sidecar that exists on disk is never overwritten by
// automatic synthesis; only assets lacking one get a baseline sidecar, with
// optional enrichment when a caption/tag capability is available. An explicit
// force refresh is the single override.
package sidecar
