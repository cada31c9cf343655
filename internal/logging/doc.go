// Package logging builds the slog loggers used across the pipeline and
// standardizes structured attribute keys so build passes can be correlated in
// console or JSON output. Component loggers derive from one root logger so a
// single configuration controls level, format, and destinations.
package logging
