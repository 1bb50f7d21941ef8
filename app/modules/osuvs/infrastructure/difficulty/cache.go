package difficulty

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	osuvsdomain "github.com/5joshi/OsuBelgiumBot/app/modules/osuvs/domain"
)

// ArtifactSource resolves a map id to a local .osu file.
type ArtifactSource interface {
	GetOrFetch(ctx context.Context, mapID osuvsdomain.MapID) (string, error)
}

// AttributeCache memoises attributes per mods for the map currently tracked.
// Asking for a different map drops every entry of the previous one.
type AttributeCache struct {
	source ArtifactSource
	logger *slog.Logger

	mu      sync.Mutex
	mapID   osuvsdomain.MapID
	beatmap *Beatmap
	entries map[osuvsdomain.Mods]Attributes
}

// NewAttributeCache creates an empty cache backed by source.
func NewAttributeCache(source ArtifactSource, logger *slog.Logger) *AttributeCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &AttributeCache{
		source:  source,
		logger:  logger,
		entries: make(map[osuvsdomain.Mods]Attributes),
	}
}

// Attributes returns the attributes of mapID played with mods.
func (c *AttributeCache) Attributes(ctx context.Context, mapID osuvsdomain.MapID, mods osuvsdomain.Mods) (Attributes, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.beatmap == nil || c.mapID != mapID {
		if err := c.load(ctx, mapID); err != nil {
			return Attributes{}, err
		}
	}
	if attrs, ok := c.entries[mods]; ok {
		return attrs, nil
	}

	attrs := Compute(mapID, c.beatmap, mods)
	c.entries[mods] = attrs
	c.logger.DebugContext(ctx, "Computed difficulty attributes",
		slog.Uint64("map_id", uint64(mapID)),
		slog.String("mods", mods.String()),
		slog.Float64("stars", attrs.Stars),
		slog.Float64("max_pp", attrs.MaxPP),
	)
	return attrs, nil
}

// Performance scores sub on mapID using the memoised attributes for its mods.
func (c *AttributeCache) Performance(ctx context.Context, mapID osuvsdomain.MapID, sub osuvsdomain.Submission) (float64, error) {
	attrs, err := c.Attributes(ctx, mapID, sub.Mods)
	if err != nil {
		return 0, err
	}
	return Performance(attrs, sub), nil
}

func (c *AttributeCache) load(ctx context.Context, mapID osuvsdomain.MapID) error {
	c.entries = make(map[osuvsdomain.Mods]Attributes)
	c.beatmap = nil

	path, err := c.source.GetOrFetch(ctx, mapID)
	if err != nil {
		return fmt.Errorf("failed to get artifact for map %d: %w", mapID, err)
	}
	bm, err := ParseFile(path)
	if err != nil {
		return fmt.Errorf("failed to parse artifact for map %d: %w", mapID, err)
	}
	c.mapID = mapID
	c.beatmap = bm
	return nil
}
