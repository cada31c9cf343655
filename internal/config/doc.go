// Package config loads, normalizes, and validates kiln configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// KILN_ENRICH_API_KEY. The Config type centralizes every knob the CLI and
// build pipeline need, so content roots, derivative profiles, and cache
// locations are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical profile names, and clear validation errors.
package config
