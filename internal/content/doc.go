// Package content ingests the source tree into a closed set of typed items:
// Markdown documents with YAML front matter, gallery collections with image
// sidecars, and audio tracks with descriptors. Structural decode failures are
// fatal; dangling media references degrade to warnings.
package content
