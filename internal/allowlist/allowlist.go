// Package allowlist builds the expected-species list of a monitoring site:
// every species the active region pack lists at the site's grid cell with a
// tier at or above the strictness threshold.
package allowlist

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/birdstation/ebird-engine/internal/conf"
	"github.com/birdstation/ebird-engine/internal/hexgrid"
	"github.com/birdstation/ebird-engine/internal/regionpack"
)

// Allow-lists change only when a pack is replaced, so a long TTL is safe.
const (
	cacheTTL             = 24 * time.Hour
	cacheCleanupInterval = time.Hour
)

// Builder computes and caches per-cell species allow-lists. Safe for
// concurrent use.
type Builder struct {
	store    *regionpack.Store
	settings *conf.Settings
	cache    *cache.Cache
}

// New creates a Builder with an empty cache.
func New(store *regionpack.Store, settings *conf.Settings) *Builder {
	return &Builder{
		store:    store,
		settings: settings,
		cache:    cache.New(cacheTTL, cacheCleanupInterval),
	}
}

// AllowedSpecies returns the scientific names of all species present at the
// cell whose tier meets the strictness threshold, sorted and deduplicated.
// Results are cached for 24 hours keyed by (pack, cell, strictness).
func (b *Builder) AllowedSpecies(ctx context.Context, cell hexgrid.Cell, strictness regionpack.Tier) ([]string, error) {
	cfg := &b.settings.EBirdFilter
	key := cacheKey(cfg.RegionPack, cell, strictness)

	if cached, found := b.cache.Get(key); found {
		if names, ok := cached.([]string); ok {
			return names, nil
		}
	}

	pack, err := b.store.Attach(ctx, cfg.RegionPack, cfg.Resolution)
	if err != nil {
		return nil, err
	}
	defer pack.Detach()

	names, err := pack.TiersForCell(ctx, cell, strictness.RequiredTier())
	if err != nil {
		return nil, err
	}

	names = dedupeSorted(names)
	b.cache.Set(key, names, cache.DefaultExpiration)
	return names, nil
}

// AllowedSpeciesAt resolves the site coordinates to a grid cell at the
// configured resolution and returns its allow-list.
func (b *Builder) AllowedSpeciesAt(ctx context.Context, lat, lon float64, strictness regionpack.Tier) ([]string, error) {
	cell, err := hexgrid.CellFor(lat, lon, b.settings.EBirdFilter.Resolution)
	if err != nil {
		return nil, err
	}
	return b.AllowedSpecies(ctx, cell, strictness)
}

// Flush drops every cached allow-list. Call after switching region packs.
func (b *Builder) Flush() {
	b.cache.Flush()
}

func cacheKey(packName string, cell hexgrid.Cell, strictness regionpack.Tier) string {
	return fmt.Sprintf("%s|%s|%s", packName, cell, strictness)
}

func dedupeSorted(names []string) []string {
	sort.Slice(names, func(i, j int) bool {
		return strings.ToLower(names[i]) < strings.ToLower(names[j])
	})
	out := names[:0]
	var prev string
	for i, n := range names {
		if i > 0 && strings.EqualFold(n, prev) {
			continue
		}
		out = append(out, n)
		prev = n
	}
	return out
}
