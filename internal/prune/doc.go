// Package prune removes derivatives whose source asset has left the input
// tree. Pruning runs after generation, so a renamed asset already has its
// derivative under the new name before the stale one under the old name is
// deleted. Directories emptied by pruning are swept afterwards.
package prune
