// Package snapshot captures the identity of every tracked source file and
// persists it between builds. A snapshot records path, size, mtime, and a
// lazily computed SHA-256 content hash per input; the store writes snapshots
// atomically and degrades to an empty (first-build) state when the persisted
// file is missing, corrupt, or from another format version.
package snapshot
