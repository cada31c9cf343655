// Package services defines the shared error taxonomy for pipeline components
// and external capabilities. Sentinel markers tag failures at their origin so
// the orchestrator can decide between aborting a pass and recording a warning
// without inspecting error strings.
package services
