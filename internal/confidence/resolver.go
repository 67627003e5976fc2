// Package confidence implements the regional confidence resolver: the
// neighbor-ring search over an attached region pack and the multi-factor
// boost computation applied to its closest match.
package confidence

import (
	"context"
	"io"
	"log"
	"log/slog"
	"math"
	"path/filepath"
	"time"

	"github.com/birdstation/ebird-engine/internal/conf"
	"github.com/birdstation/ebird-engine/internal/hexgrid"
	"github.com/birdstation/ebird-engine/internal/logging"
	"github.com/birdstation/ebird-engine/internal/observability/metrics"
	"github.com/birdstation/ebird-engine/internal/regionpack"
)

var (
	logger          *slog.Logger
	serviceLevelVar = new(slog.LevelVar)
	closeLogger     func() error
)

func init() {
	var err error
	logFilePath := filepath.Join("logs", "confidence.log")
	serviceLevelVar.Set(slog.LevelInfo)

	logger, closeLogger, err = logging.NewFileLogger(logFilePath, "confidence", serviceLevelVar)
	if err != nil {
		log.Printf("Failed to initialize confidence file logger at %s: %v. Service logging disabled.", logFilePath, err)
		fbHandler := slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: serviceLevelVar})
		logger = slog.New(fbHandler).With("service", "confidence")
		closeLogger = func() error { return nil }
	}
}

// Boost bounds. The final boost is always clamped into this range no matter
// how extreme the multiplier inputs are.
const (
	MinBoost = 1.0
	MaxBoost = 2.0
)

// Saturation points of the quality score normalization. Sample sizes at or
// beyond these contribute their full weight.
const (
	obsSaturation = 1000
	chkSaturation = 500
)

// Result is the outcome of one confidence resolution. It is ephemeral:
// created per call and persisted only by copying its fields onto an
// accepted detection record.
type Result struct {
	ConfidenceBoost float64
	ConfidenceTier  regionpack.Tier
	MatchedCell     hexgrid.Cell
	RingDistance    int
	RegionPack      string
}

// Resolver performs regional confidence lookups. It is stateless and safe
// for concurrent use: every Resolve call attaches its own pack handle.
type Resolver struct {
	store    *regionpack.Store
	settings *conf.Settings
	metrics  *metrics.ResolverMetrics
}

// New creates a Resolver. The metrics collector may be nil.
func New(store *regionpack.Store, settings *conf.Settings, m *metrics.ResolverMetrics) *Resolver {
	return &Resolver{store: store, settings: settings, metrics: m}
}

// Resolve maps a species and location (and optionally a calendar month) to
// a confidence query result. A nil result with a nil error means the
// species was not found anywhere within the search radius; that is not an
// error but a signal of "no regional data", handled by policy upstream.
//
// For fixed inputs and an unchanged pack the result is fully deterministic.
func (r *Resolver) Resolve(ctx context.Context, scientificName string, lat, lon float64, month *time.Month) (*Result, error) {
	start := time.Now()
	result, err := r.resolve(ctx, scientificName, lat, lon, month)
	elapsed := time.Since(start).Seconds()

	switch {
	case err != nil:
		r.metrics.RecordResolve("error", elapsed)
	case result == nil:
		r.metrics.RecordResolve("miss", elapsed)
	default:
		r.metrics.RecordResolve("hit", elapsed)
		r.metrics.RecordRingDistance(result.RingDistance)
	}
	return result, err
}

func (r *Resolver) resolve(ctx context.Context, scientificName string, lat, lon float64, month *time.Month) (*Result, error) {
	cfg := &r.settings.EBirdFilter

	baseCell, err := hexgrid.CellFor(lat, lon, cfg.Resolution)
	if err != nil {
		return nil, err
	}

	searchSet := []hexgrid.RingCell{{Cell: baseCell, Distance: 0}}
	if cfg.NeighborSearch.Enabled && cfg.NeighborSearch.MaxRings > 0 {
		searchSet, err = hexgrid.Disk(baseCell, cfg.NeighborSearch.MaxRings)
		if err != nil {
			return nil, err
		}
	}

	pack, err := r.store.Attach(ctx, cfg.RegionPack, cfg.Resolution)
	if err != nil {
		return nil, err
	}
	defer pack.Detach()

	cells := make([]hexgrid.Cell, 0, len(searchSet))
	for _, rc := range searchSet {
		cells = append(cells, rc.Cell)
	}

	matches, err := pack.BatchLookup(ctx, scientificName, cells)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		if cfg.Debug {
			logger.Debug("species not found within search radius",
				"scientific_name", scientificName,
				"base_cell", baseCell.String(),
				"cells_searched", len(cells))
		}
		return nil, nil
	}

	matched, distance := closestMatch(searchSet, matches)
	record := matches[matched]

	boost := r.composeBoost(&record, distance, month)

	result := &Result{
		ConfidenceBoost: boost,
		ConfidenceTier:  record.Tier,
		MatchedCell:     matched,
		RingDistance:    distance,
		RegionPack:      cfg.RegionPack,
	}

	if cfg.Debug {
		logger.Debug("confidence resolved",
			"scientific_name", scientificName,
			"tier", result.ConfidenceTier.String(),
			"boost", result.ConfidenceBoost,
			"matched_cell", matched.String(),
			"ring_distance", distance)
	}

	return result, nil
}

// closestMatch selects the matched cell with the minimum ring distance.
// Ties are broken by the lowest numeric cell id so that repeated calls
// against the same pack always pick the same cell.
func closestMatch(searchSet []hexgrid.RingCell, matches map[hexgrid.Cell]regionpack.LookupResult) (hexgrid.Cell, int) {
	bestDistance := math.MaxInt
	var bestCell hexgrid.Cell
	for _, rc := range searchSet {
		if _, ok := matches[rc.Cell]; !ok {
			continue
		}
		if rc.Distance < bestDistance || (rc.Distance == bestDistance && rc.Cell < bestCell) {
			bestDistance = rc.Distance
			bestCell = rc.Cell
		}
	}
	return bestCell, bestDistance
}

// composeBoost blends the matched record's base boost with the distance
// decay, data quality and seasonal multipliers, clamped to [MinBoost, MaxBoost].
func (r *Resolver) composeBoost(record *regionpack.LookupResult, ringDistance int, month *time.Month) float64 {
	cfg := &r.settings.EBirdFilter

	ringMultiplier := math.Max(0, 1.0-float64(ringDistance)*cfg.NeighborSearch.DecayPerRing)

	score := qualityScore(record.TotalObservations, record.TotalChecklists)
	qualityMultiplier := cfg.Quality.Base + cfg.Quality.Range*score

	temporalMultiplier := 1.0
	if month != nil && cfg.Seasonal.Enabled {
		freq := record.MonthlyFrequency[int(*month)-1]
		switch {
		case freq == 0:
			temporalMultiplier = cfg.Seasonal.AbsencePenalty
		case freq > cfg.Seasonal.PeakThreshold:
			temporalMultiplier = cfg.Seasonal.PeakBoost
		default:
			temporalMultiplier = cfg.Seasonal.OffSeasonPenalty
		}
	}

	boost := record.Boost * ringMultiplier * qualityMultiplier * temporalMultiplier
	return math.Min(MaxBoost, math.Max(MinBoost, boost))
}

// qualityScore normalizes the sample size of a record into [0,1]. Both
// inputs saturate logarithmically: the difference between 10 and 100
// observations matters far more than between 1000 and 2000. The function
// is monotone increasing in both arguments and bounded.
func qualityScore(totalObservations, totalChecklists int) float64 {
	if totalObservations < 0 {
		totalObservations = 0
	}
	if totalChecklists < 0 {
		totalChecklists = 0
	}

	obs := math.Log1p(float64(totalObservations)) / math.Log1p(obsSaturation)
	chk := math.Log1p(float64(totalChecklists)) / math.Log1p(chkSaturation)

	score := 0.6*math.Min(obs, 1.0) + 0.4*math.Min(chk, 1.0)
	return math.Min(score, 1.0)
}
