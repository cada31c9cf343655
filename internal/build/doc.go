// Package build orchestrates one incremental pass over the content tree.
//
// A pass walks a fixed state machine: snapshot the inputs, diff against the
// last committed snapshot, short-circuit when nothing changed, otherwise plan
// and generate derivatives across a worker pool, prune outputs whose sources
// left the tree, export datasets, and finally commit the new snapshot and
// derivative index. The commit happens last and only on success: a fatal
// error anywhere leaves the previously committed state authoritative, so the
// next pass simply redoes the interrupted work.
//
// A file lock under the cache directory keeps concurrent invocations against
// the same content root from interleaving.
package build
