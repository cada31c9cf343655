package testsupport

import (
	"path/filepath"
	"testing"

	"kiln/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config rooted in a unique temp directory per test,
// with the standard content layout underneath it.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.ContentDir = filepath.Join(base, "content")
	cfg.Paths.GalleryDir = filepath.Join(base, "content", "gallery")
	cfg.Paths.AudioDir = filepath.Join(base, "content", "music")
	cfg.Paths.TemplateDir = filepath.Join(base, "templates")
	cfg.Paths.OutputDir = filepath.Join(base, "public")
	cfg.Paths.CacheDir = filepath.Join(base, "cache")

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithWorkers overrides the generation worker count.
func WithWorkers(workers int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Build.Workers = workers
	}
}

// WithProfiles replaces the derivative profile list.
func WithProfiles(profiles ...config.Profile) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Profiles = profiles
	}
}

// WithHashAlways makes the scanner hash every input eagerly.
func WithHashAlways() ConfigOption {
	return func(cfg *config.Config) {
		cfg.Build.HashAlways = true
	}
}
