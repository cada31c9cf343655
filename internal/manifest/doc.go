// Package manifest emits the JSON datasets the front-end renders from:
// paginated document manifests (posts-001.json, posts-002.json, ...), the
// gallery catalog (collections.json plus per-collection and global JSONL
// datasets), and the audio catalog (tracks.jsonl plus a summary). Exports
// are stable: items are deterministically ordered and page 001 always
// exists even with no published content. Files left over from earlier
// passes are removed so the data tree never serves stale entries.
package manifest
