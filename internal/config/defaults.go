package config

const (
	defaultContentDir         = "content"
	defaultGalleryDir         = "content/gallery"
	defaultAudioDir           = "content/music"
	defaultTemplateDir        = "templates"
	defaultOutputDir          = "public"
	defaultCacheDir           = "~/.cache/kiln"
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultWorkers            = 4
	defaultManifestPageSize   = 200
	defaultCollectionFilename = "collection.json"
	defaultSidecarExtension   = ".json"
	defaultGalleryDataSubdir  = "data/gallery"
	defaultAudioDataSubdir    = "data/music"
	defaultEnrichTimeout      = 60
	defaultWatermarkOpacity   = 64
	defaultWatermarkColor     = "#ffffff"
	defaultWatermarkAngle     = 30.0
	defaultWatermarkSpacing   = 2.0
	defaultWatermarkMinSize   = 400
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			ContentDir:  defaultContentDir,
			GalleryDir:  defaultGalleryDir,
			AudioDir:    defaultAudioDir,
			TemplateDir: defaultTemplateDir,
			OutputDir:   defaultOutputDir,
			CacheDir:    defaultCacheDir,
		},
		Profiles: []Profile{
			{Name: "thumbnail", Width: 320, Height: 320, Format: "jpeg", Quality: 80},
			{Name: "web", Width: 1600, Height: 1600, Format: "jpeg", Quality: 88},
		},
		Watermark: Watermark{
			Opacity:      defaultWatermarkOpacity,
			Color:        defaultWatermarkColor,
			Angle:        defaultWatermarkAngle,
			SpacingRatio: defaultWatermarkSpacing,
			MinSize:      defaultWatermarkMinSize,
		},
		Gallery: Gallery{
			Enabled:            true,
			CollectionFilename: defaultCollectionFilename,
			SidecarExtension:   defaultSidecarExtension,
			DataSubdir:         defaultGalleryDataSubdir,
		},
		Audio: Audio{
			Enabled:    true,
			DataSubdir: defaultAudioDataSubdir,
		},
		Enrichment: Enrichment{
			TimeoutSeconds: defaultEnrichTimeout,
		},
		Build: Build{
			Workers:          defaultWorkers,
			ManifestPageSize: defaultManifestPageSize,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
