package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeProfiles()
	c.normalizeGallery()
	c.normalizeAudio()
	c.normalizeEnrichment()
	c.normalizeBuild()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.ContentDir, err = expandPath(c.Paths.ContentDir); err != nil {
		return fmt.Errorf("paths.content_dir: %w", err)
	}
	if c.Paths.GalleryDir, err = expandPath(c.Paths.GalleryDir); err != nil {
		return fmt.Errorf("paths.gallery_dir: %w", err)
	}
	if c.Paths.AudioDir, err = expandPath(c.Paths.AudioDir); err != nil {
		return fmt.Errorf("paths.audio_dir: %w", err)
	}
	if c.Paths.TemplateDir, err = expandPath(c.Paths.TemplateDir); err != nil {
		return fmt.Errorf("paths.template_dir: %w", err)
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.CacheDir) == "" {
		c.Paths.CacheDir = defaultCacheDir
	}
	if c.Paths.CacheDir, err = expandPath(c.Paths.CacheDir); err != nil {
		return fmt.Errorf("paths.cache_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) != "" {
		if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
			return fmt.Errorf("paths.log_dir: %w", err)
		}
	}
	return nil
}

func (c *Config) normalizeProfiles() {
	for i := range c.Profiles {
		c.Profiles[i].Name = strings.ToLower(strings.TrimSpace(c.Profiles[i].Name))
		c.Profiles[i].Format = strings.ToLower(strings.TrimSpace(c.Profiles[i].Format))
		if c.Profiles[i].Format == "jpg" {
			c.Profiles[i].Format = "jpeg"
		}
		if c.Profiles[i].Quality <= 0 {
			c.Profiles[i].Quality = 85
		}
	}
}

func (c *Config) normalizeGallery() {
	if strings.TrimSpace(c.Gallery.CollectionFilename) == "" {
		c.Gallery.CollectionFilename = defaultCollectionFilename
	}
	ext := strings.TrimSpace(c.Gallery.SidecarExtension)
	if ext == "" {
		ext = defaultSidecarExtension
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	c.Gallery.SidecarExtension = ext
	if strings.TrimSpace(c.Gallery.DataSubdir) == "" {
		c.Gallery.DataSubdir = defaultGalleryDataSubdir
	}
}

func (c *Config) normalizeAudio() {
	if strings.TrimSpace(c.Audio.DataSubdir) == "" {
		c.Audio.DataSubdir = defaultAudioDataSubdir
	}
}

func (c *Config) normalizeEnrichment() {
	if c.Enrichment.APIKey == "" {
		if value, ok := os.LookupEnv("KILN_ENRICH_API_KEY"); ok {
			c.Enrichment.APIKey = strings.TrimSpace(value)
		}
	}
	c.Enrichment.BaseURL = strings.TrimSpace(c.Enrichment.BaseURL)
	c.Enrichment.Model = strings.TrimSpace(c.Enrichment.Model)
	if c.Enrichment.TimeoutSeconds <= 0 {
		c.Enrichment.TimeoutSeconds = defaultEnrichTimeout
	}
}

func (c *Config) normalizeBuild() {
	if c.Build.Workers <= 0 {
		c.Build.Workers = defaultWorkers
	}
	if c.Build.ManifestPageSize <= 0 {
		c.Build.ManifestPageSize = defaultManifestPageSize
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
