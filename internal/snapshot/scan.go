package snapshot

import (
	"io/fs"
	"path/filepath"
	"strings"

	"kiln/internal/config"
)

var imageExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".webp": {},
	".gif":  {},
	".tiff": {},
	".bmp":  {},
}

var audioExtensions = map[string]struct{}{
	".mp3":  {},
	".wav":  {},
	".aac":  {},
	".flac": {},
	".ogg":  {},
	".m4a":  {},
}

// Extensions copied verbatim into the derived tree: no resize or re-encode
// applies, but they still participate in fingerprinting and pruning.
var staticExtensions = map[string]struct{}{
	".svg":  {},
	".mp4":  {},
	".webm": {},
	".mov":  {},
	".pdf":  {},
}

// Scanner walks the configured content roots and produces the current
// snapshot. Roots nested inside the content directory (gallery, audio) are
// claimed by their own walk and skipped by the content walk so every file is
// tracked exactly once.
type Scanner struct {
	cfg *config.Config
}

// NewScanner builds a scanner over the configured roots.
func NewScanner(cfg *config.Config) *Scanner {
	return &Scanner{cfg: cfg}
}

// Scan captures a snapshot of every tracked input. Unreadable directories are
// skipped; an entirely missing root contributes no records.
func (s *Scanner) Scan() (*Snapshot, error) {
	snap := New()

	exclude := []string{s.cfg.Paths.GalleryDir, s.cfg.Paths.AudioDir}
	if err := s.walk(snap, s.cfg.Paths.ContentDir, "content", exclude, s.classifyContent); err != nil {
		return nil, err
	}
	if s.cfg.Gallery.Enabled {
		if err := s.walk(snap, s.cfg.Paths.GalleryDir, "gallery", nil, s.classifyGallery); err != nil {
			return nil, err
		}
	}
	if s.cfg.Audio.Enabled {
		if err := s.walk(snap, s.cfg.Paths.AudioDir, "audio", nil, s.classifyAudio); err != nil {
			return nil, err
		}
	}
	if err := s.walk(snap, s.cfg.Paths.TemplateDir, "templates", nil, func(string) (Kind, bool) {
		return KindTemplate, true
	}); err != nil {
		return nil, err
	}

	return snap, nil
}

type classifyFunc func(relPath string) (Kind, bool)

func (s *Scanner) walk(snap *Snapshot, root, prefix string, exclude []string, classify classifyFunc) error {
	if root == "" {
		return nil
	}
	return filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return nil // missing root is not an error
			}
			return err
		}
		if entry.IsDir() {
			for _, skip := range exclude {
				if skip != "" && path == skip {
					return fs.SkipDir
				}
			}
			if strings.HasPrefix(entry.Name(), ".") && path != root {
				return fs.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(entry.Name(), ".") {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		kind, ok := classify(rel)
		if !ok {
			return nil
		}
		info, err := entry.Info()
		if err != nil {
			return err
		}
		record := &InputRecord{
			Path:    prefix + "/" + rel,
			Kind:    kind,
			Size:    info.Size(),
			ModTime: info.ModTime().UTC(),
			absPath: path,
		}
		if s.cfg.Build.HashAlways {
			if _, err := record.EnsureHash(); err != nil {
				return err
			}
		}
		snap.Add(record)
		return nil
	})
}

func (s *Scanner) classifyContent(rel string) (Kind, bool) {
	ext := strings.ToLower(filepath.Ext(rel))
	switch {
	case ext == ".md" || ext == ".markdown":
		return KindDocument, true
	case isImageExt(ext):
		return KindGalleryImage, true
	case isAudioExt(ext):
		return KindAudioTrack, true
	case isStaticExt(ext):
		return KindStaticAsset, true
	default:
		return "", false
	}
}

func (s *Scanner) classifyGallery(rel string) (Kind, bool) {
	base := filepath.Base(rel)
	ext := strings.ToLower(filepath.Ext(rel))
	switch {
	case base == s.cfg.Gallery.CollectionFilename:
		return KindGallerySidecar, true
	case ext == strings.ToLower(s.cfg.Gallery.SidecarExtension):
		return KindGallerySidecar, true
	case isImageExt(ext):
		return KindGalleryImage, true
	default:
		return "", false
	}
}

func (s *Scanner) classifyAudio(rel string) (Kind, bool) {
	ext := strings.ToLower(filepath.Ext(rel))
	switch {
	case isAudioExt(ext):
		return KindAudioTrack, true
	case ext == ".json" || ext == ".yml" || ext == ".yaml":
		return KindAudioSidecar, true
	default:
		return "", false
	}
}

func isImageExt(ext string) bool {
	_, ok := imageExtensions[ext]
	return ok
}

func isAudioExt(ext string) bool {
	_, ok := audioExtensions[ext]
	return ok
}

func isStaticExt(ext string) bool {
	_, ok := staticExtensions[ext]
	return ok
}

// IsImagePath reports whether the file extension marks a supported image.
func IsImagePath(path string) bool {
	return isImageExt(strings.ToLower(filepath.Ext(path)))
}

// IsAudioPath reports whether the file extension marks a supported audio file.
func IsAudioPath(path string) bool {
	return isAudioExt(strings.ToLower(filepath.Ext(path)))
}
