// Package derive plans and executes media derivative generation. Each
// (source asset, profile) pair maps to one cached record; a record is valid
// only while its stored source fingerprint matches the asset's current
// content hash and the output file exists. Stale or missing derivatives are
// regenerated across a bounded worker pool; a single asset's failure is
// reported as a warning and never aborts the pass.
//
// Image work is resize-bounded re-encoding with an optional tiled text
// watermark and optional metadata embedding into JPEG COM or PNG tEXt
// containers. Non-image assets pass through byte-for-byte under the
// "original" profile.
package derive
