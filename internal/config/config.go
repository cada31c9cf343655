package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains the directory layout of a content repository.
type Paths struct {
	ContentDir  string `toml:"content_dir"`
	GalleryDir  string `toml:"gallery_dir"`
	AudioDir    string `toml:"audio_dir"`
	TemplateDir string `toml:"template_dir"`
	OutputDir   string `toml:"output_dir"`
	CacheDir    string `toml:"cache_dir"`
	LogDir      string `toml:"log_dir"`
}

// Profile describes one named derivative transformation.
type Profile struct {
	Name    string `toml:"name"`
	Width   int    `toml:"width"`
	Height  int    `toml:"height"`
	Format  string `toml:"format"`
	Quality int    `toml:"quality"`
}

// Watermark contains configuration for the optional text overlay.
type Watermark struct {
	Enabled      bool    `toml:"enabled"`
	Text         string  `toml:"text"`
	Opacity      int     `toml:"opacity"`
	Color        string  `toml:"color"`
	Angle        float64 `toml:"angle"`
	SpacingRatio float64 `toml:"spacing_ratio"`
	MinSize      int     `toml:"min_size"`
}

// EmbedMetadata contains the copyright fields embedded into derivative files.
type EmbedMetadata struct {
	Enabled   bool   `toml:"enabled"`
	Artist    string `toml:"artist"`
	Copyright string `toml:"copyright"`
	License   string `toml:"license"`
	URL       string `toml:"url"`
}

// Gallery contains configuration for gallery collections and sidecars.
type Gallery struct {
	Enabled            bool   `toml:"enabled"`
	CollectionFilename string `toml:"collection_filename"`
	SidecarExtension   string `toml:"sidecar_extension"`
	DataSubdir         string `toml:"data_subdir"`
}

// Audio contains configuration for the audio catalog.
type Audio struct {
	Enabled    bool   `toml:"enabled"`
	DataSubdir string `toml:"data_subdir"`
}

// Enrichment contains connection settings for the caption/tag capability.
type Enrichment struct {
	Enabled        bool   `toml:"enabled"`
	BaseURL        string `toml:"base_url"`
	APIKey         string `toml:"api_key"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Build contains pipeline tuning knobs.
type Build struct {
	Workers          int  `toml:"workers"`
	ManifestPageSize int  `toml:"manifest_page_size"`
	HashAlways       bool `toml:"hash_always"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config centralizes every knob the CLI and pipeline need.
type Config struct {
	Paths      Paths         `toml:"paths"`
	Profiles   []Profile     `toml:"profiles"`
	Watermark  Watermark     `toml:"watermark"`
	Embed      EmbedMetadata `toml:"embed_metadata"`
	Gallery    Gallery       `toml:"gallery"`
	Audio      Audio         `toml:"audio"`
	Enrichment Enrichment    `toml:"enrichment"`
	Build      Build         `toml:"build"`
	Logging    Logging       `toml:"logging"`
}

// DefaultConfigPath returns the canonical config location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/kiln/config.toml")
}

// Load locates, parses, normalizes, and validates a configuration file. The
// returned config has all path fields expanded. A missing file yields the
// repository defaults.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err = os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	fallback, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	if _, err := os.Stat(fallback); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fallback, false, nil
		}
		return "", false, fmt.Errorf("stat config: %w", err)
	}
	return fallback, true, nil
}

// ProfileByName returns the named derivative profile when configured.
func (c *Config) ProfileByName(name string) (Profile, bool) {
	for _, profile := range c.Profiles {
		if strings.EqualFold(profile.Name, name) {
			return profile, true
		}
	}
	return Profile{}, false
}

// SnapshotPath is the location of the persisted fingerprint store.
func (c *Config) SnapshotPath() string {
	return filepath.Join(c.Paths.CacheDir, "build-state.json")
}

// DerivativeIndexPath is the location of the persisted derivative index.
func (c *Config) DerivativeIndexPath() string {
	return filepath.Join(c.Paths.CacheDir, "derivatives.json")
}

// LockPath is the location of the advisory build lock.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.CacheDir, "build.lock")
}

// DerivedDir is the root the derivative generator writes into.
func (c *Config) DerivedDir() string {
	return filepath.Join(c.Paths.OutputDir, "media", "derived")
}

// DataDir returns the root for exported JSON datasets and manifest pages.
func (c *Config) DataDir() string {
	return filepath.Join(c.Paths.OutputDir, "data")
}

// EnsureDirectories creates the directories the pipeline writes into. Content
// roots are the operator's to manage and are left alone.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.CacheDir, c.Paths.OutputDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	expanded, err := expandPath(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(expanded); err == nil {
		return fmt.Errorf("config file already exists at %s", expanded)
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("ensure config directory: %w", err)
	}
	return os.WriteFile(expanded, []byte(sampleConfig), 0o644)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}
