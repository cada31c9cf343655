package config

import (
	"errors"
	"fmt"
	"strings"
)

var supportedFormats = map[string]struct{}{
	"jpeg": {},
	"png":  {},
	"gif":  {},
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateProfiles(); err != nil {
		return err
	}
	if err := c.validateWatermark(); err != nil {
		return err
	}
	if err := c.validateEnrichment(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.ContentDir == "" {
		return errors.New("paths.content_dir must be set")
	}
	if c.Paths.OutputDir == "" {
		return errors.New("paths.output_dir must be set")
	}
	if c.Paths.OutputDir == c.Paths.ContentDir {
		return errors.New("paths.output_dir must differ from paths.content_dir")
	}
	return nil
}

func (c *Config) validateProfiles() error {
	if len(c.Profiles) == 0 {
		return errors.New("profiles: at least one derivative profile is required")
	}
	seen := map[string]struct{}{}
	for _, profile := range c.Profiles {
		if profile.Name == "" {
			return errors.New("profiles: name must be set")
		}
		if _, dup := seen[profile.Name]; dup {
			return fmt.Errorf("profiles: duplicate name %q", profile.Name)
		}
		seen[profile.Name] = struct{}{}
		if profile.Width <= 0 && profile.Height <= 0 {
			return fmt.Errorf("profiles.%s: width or height must be positive", profile.Name)
		}
		if _, ok := supportedFormats[profile.Format]; !ok {
			return fmt.Errorf("profiles.%s: unsupported format %q", profile.Name, profile.Format)
		}
		if profile.Quality < 1 || profile.Quality > 100 {
			return fmt.Errorf("profiles.%s: quality must be between 1 and 100", profile.Name)
		}
	}
	return nil
}

func (c *Config) validateWatermark() error {
	if !c.Watermark.Enabled {
		return nil
	}
	if strings.TrimSpace(c.Watermark.Text) == "" {
		return errors.New("watermark.text must be set when watermarking is enabled")
	}
	if c.Watermark.Opacity < 1 || c.Watermark.Opacity > 255 {
		return errors.New("watermark.opacity must be between 1 and 255")
	}
	if c.Watermark.SpacingRatio < 0 {
		return errors.New("watermark.spacing_ratio must not be negative")
	}
	return nil
}

func (c *Config) validateEnrichment() error {
	if !c.Enrichment.Enabled {
		return nil
	}
	if c.Enrichment.BaseURL == "" {
		return errors.New("enrichment.base_url must be set when enrichment is enabled")
	}
	if c.Enrichment.Model == "" {
		return errors.New("enrichment.model must be set when enrichment is enabled")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	return nil
}
