package sidecar

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"kiln/internal/config"
	"kiln/internal/content"
	"kiln/internal/logging"
	"kiln/internal/textutil"
)

// Outcome accumulates what one gate pass did.
type Outcome struct {
	Created  int
	Enriched int
	Kept     int
	Warnings []string
}

// Gate applies the frozen-unless-missing policy across a content set.
type Gate struct {
	cfg        *config.Config
	capability Capability
	logger     *slog.Logger
	now        func() time.Time
}

// NewGate builds a gate. The capability may be nil when enrichment is not
// configured.
func NewGate(cfg *config.Config, capability Capability, logger *slog.Logger) *Gate {
	return &Gate{
		cfg:        cfg,
		capability: capability,
		logger:     logging.NewComponentLogger(logger, "sidecar"),
		now:        time.Now,
	}
}

// Process walks every collection, image, and track and synthesizes the
// sidecars the gate allows. With force, present sidecars are regenerated;
// otherwise they are never touched. Enrichment failures and timeouts degrade
// to baseline synthesis with a warning.
func (g *Gate) Process(ctx context.Context, set *content.Set, force bool) Outcome {
	outcome := Outcome{}
	now := g.now().UTC()

	for _, coll := range set.Collections {
		g.processCollection(&outcome, coll, force, now)
		for _, img := range coll.Images {
			g.processImage(ctx, &outcome, coll, img, force, now)
		}
	}
	for _, track := range set.Tracks {
		g.processTrack(&outcome, track, force, now)
	}
	return outcome
}

func (g *Gate) processCollection(outcome *Outcome, coll *content.Collection, force bool, now time.Time) {
	switch Resolve(coll.SidecarExisted, force, nil) {
	case ActionKeep:
		outcome.Kept++
		return
	case ActionForceRefresh, ActionSynthesizeBaseline, ActionSynthesizeEnriched:
	}

	meta := CollectionMeta{
		ID:        coll.ID,
		Title:     textutil.TitleFromStem(coll.ID),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if coll.SidecarExisted {
		// Force refresh keeps the original creation time when readable.
		if previous, err := ReadCollectionMeta(coll.SidecarPath); err == nil && !previous.CreatedAt.IsZero() {
			meta.CreatedAt = previous.CreatedAt
		}
	}
	if err := writeJSON(coll.SidecarPath, meta); err != nil {
		outcome.Warnings = append(outcome.Warnings, fmt.Sprintf("collection %s: write sidecar: %v", coll.ID, err))
		return
	}
	outcome.Created++
}

func (g *Gate) processImage(ctx context.Context, outcome *Outcome, coll *content.Collection, img *content.Image, force bool, now time.Time) {
	action := Resolve(img.SidecarExisted, force, g.capability)
	if action == ActionKeep {
		outcome.Kept++
		return
	}

	stem := strings.TrimSuffix(img.Filename(), filepath.Ext(img.Filename()))
	title := textutil.TitleFromStem(stem)
	meta := ImageMeta{
		ID:           stem,
		CollectionID: coll.ID,
		Filename:     img.Filename(),
		Title:        title,
		Alt:          title,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	enrich := action == ActionSynthesizeEnriched ||
		(action == ActionForceRefresh && g.capability != nil && g.capability.Available())
	if enrich {
		annotation, err := g.annotate(ctx, img.AbsPath)
		if err != nil {
			outcome.Warnings = append(outcome.Warnings, fmt.Sprintf("enrich %s: %v", img.Path, err))
			g.logger.Warn("enrichment degraded to baseline",
				logging.String(logging.FieldAsset, img.Path),
				logging.Error(err),
			)
		} else {
			meta.Caption = annotation.Caption
			meta.Tags = textutil.NormalizeTags(annotation.Tags)
			if meta.Caption != "" {
				meta.Alt = meta.Caption
			}
			enrichedAt := now
			meta.EnrichedAt = &enrichedAt
			outcome.Enriched++
		}
	}

	if err := writeJSON(img.SidecarPath, meta); err != nil {
		outcome.Warnings = append(outcome.Warnings, fmt.Sprintf("image %s: write sidecar: %v", img.Path, err))
		return
	}
	outcome.Created++
}

func (g *Gate) processTrack(outcome *Outcome, track *content.Track, force bool, now time.Time) {
	if Resolve(track.SidecarExisted, force, nil) == ActionKeep {
		outcome.Kept++
		return
	}
	base := filepath.Base(track.AbsPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	meta := TrackMeta{
		ID:        stem,
		Filename:  base,
		Title:     textutil.TitleFromStem(stem),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := writeJSON(track.SidecarPath, meta); err != nil {
		outcome.Warnings = append(outcome.Warnings, fmt.Sprintf("track %s: write sidecar: %v", track.Path, err))
		return
	}
	outcome.Created++
}

func (g *Gate) annotate(ctx context.Context, imagePath string) (Annotation, error) {
	timeout := time.Duration(g.cfg.Enrichment.TimeoutSeconds) * time.Second
	annotateCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return g.capability.Annotate(annotateCtx, imagePath)
}
