// Package change diffs two input snapshots into disjoint added, modified,
// removed, and unchanged sets and derives the ternary build mode (first,
// noop, incremental) the orchestrator dispatches on. Comparison is cheap
// metadata first with a strong-hash fallback only when size and mtime
// disagree about whether content moved.
package change
