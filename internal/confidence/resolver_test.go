package confidence

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/birdstation/ebird-engine/internal/conf"
	"github.com/birdstation/ebird-engine/internal/hexgrid"
	"github.com/birdstation/ebird-engine/internal/regionpack"
	"github.com/birdstation/ebird-engine/internal/regionpack/packtest"
)

const (
	testResolution = 5
	testPackName   = "na-test-2025.08"

	// Helsinki-ish station coordinates used throughout.
	testLat = 60.1699
	testLon = 24.9384
)

func testSettings(t *testing.T) *conf.Settings {
	t.Helper()
	s := &conf.Settings{}
	s.EBirdFilter = conf.EBirdFilterSettings{
		Enabled:        true,
		Resolution:     testResolution,
		Mode:           "warn",
		Strictness:     "vagrant",
		RegionPack:     testPackName,
		UnknownSpecies: "allow",
		NeighborSearch: conf.NeighborSearchSettings{
			Enabled:      true,
			MaxRings:     2,
			DecayPerRing: 0.15,
		},
		Quality: conf.QualitySettings{Base: 0.7, Range: 0.3},
		Seasonal: conf.SeasonalSettings{
			Enabled:          true,
			PeakThreshold:    0.1,
			PeakBoost:        1.1,
			AbsencePenalty:   0.7,
			OffSeasonPenalty: 1.0,
		},
	}
	return s
}

// neighborCells computes the base cell for the test coordinates and the
// cells of its first two rings, so fixtures can be placed at known ring
// distances without hardcoding H3 indexes.
func neighborCells(t *testing.T) (base hexgrid.Cell, ring1, ring2 []hexgrid.Cell) {
	t.Helper()
	var err error
	base, err = hexgrid.CellFor(testLat, testLon, testResolution)
	require.NoError(t, err)

	disk, err := hexgrid.Disk(base, 2)
	require.NoError(t, err)
	for _, rc := range disk {
		switch rc.Distance {
		case 1:
			ring1 = append(ring1, rc.Cell)
		case 2:
			ring2 = append(ring2, rc.Cell)
		}
	}
	require.Len(t, ring1, 6)
	require.Len(t, ring2, 12)
	return base, ring1, ring2
}

func newTestResolver(t *testing.T, settings *conf.Settings, records []packtest.Record) *Resolver {
	t.Helper()
	dir := t.TempDir()
	packtest.BuildPack(t, dir, testPackName, testResolution, records)
	store := regionpack.NewStore(regionpack.DirResolver{Dir: dir})
	return New(store, settings, nil)
}

// saturated sample sizes push the quality score to 1.0 so the quality
// multiplier becomes exactly base+range.
const (
	saturatedObs = 100000
	saturatedChk = 100000
)

func TestResolveExactCellHit(t *testing.T) {
	t.Parallel()

	base, _, _ := neighborCells(t)
	settings := testSettings(t)

	r := newTestResolver(t, settings, []packtest.Record{{
		SpeciesID:         "cangoo",
		ScientificName:    "Branta canadensis",
		Cell:              base,
		Tier:              "common",
		Boost:             1.2,
		TotalObservations: saturatedObs,
		TotalChecklists:   saturatedChk,
	}})

	result, err := r.Resolve(context.Background(), "Branta canadensis", testLat, testLon, nil)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, regionpack.TierCommon, result.ConfidenceTier)
	assert.Equal(t, base, result.MatchedCell)
	assert.Equal(t, 0, result.RingDistance)
	assert.Equal(t, testPackName, result.RegionPack)
	// ring 0, quality saturated, no month: boost passes through unchanged
	assert.InDelta(t, 1.2, result.ConfidenceBoost, 1e-9)
}

func TestResolveNeighborRingDecay(t *testing.T) {
	t.Parallel()

	_, ring1, _ := neighborCells(t)
	settings := testSettings(t)

	// Scenario: species present only one ring out, at full quality.
	r := newTestResolver(t, settings, []packtest.Record{{
		SpeciesID:         "pibgre",
		ScientificName:    "Podilymbus podiceps",
		Cell:              ring1[3],
		Tier:              "rare",
		Boost:             1.5,
		TotalObservations: saturatedObs,
		TotalChecklists:   saturatedChk,
	}})

	result, err := r.Resolve(context.Background(), "Podilymbus podiceps", testLat, testLon, nil)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, regionpack.TierRare, result.ConfidenceTier)
	assert.Equal(t, 1, result.RingDistance)
	assert.Equal(t, ring1[3], result.MatchedCell)
	// 1.5 * (1 - 1*0.15) = 1.275
	assert.InDelta(t, 1.275, result.ConfidenceBoost, 1e-9)
}

func TestResolveScenarioModestSampleSize(t *testing.T) {
	t.Parallel()

	_, ring1, _ := neighborCells(t)
	settings := testSettings(t)

	// Rare species one ring away with a modest sample: 1000 observations
	// across 21 checklists. The quality multiplier lands near 0.94.
	r := newTestResolver(t, settings, []packtest.Record{{
		SpeciesID:         "pibgre",
		ScientificName:    "Podilymbus podiceps",
		Cell:              ring1[0],
		Tier:              "rare",
		Boost:             1.5,
		TotalObservations: 1000,
		TotalChecklists:   21,
	}})

	result, err := r.Resolve(context.Background(), "Podilymbus podiceps", testLat, testLon, nil)
	require.NoError(t, err)
	require.NotNil(t, result)

	// 1.5 * 0.85 * ~0.94
	assert.InDelta(t, 1.1985, result.ConfidenceBoost, 0.002)
}

func TestResolveClosestRingWins(t *testing.T) {
	t.Parallel()

	base, ring1, ring2 := neighborCells(t)
	settings := testSettings(t)

	// Same species in rings 2, 1 and 0; the exact cell must win.
	r := newTestResolver(t, settings, []packtest.Record{
		{SpeciesID: "amecro", ScientificName: "Corvus brachyrhynchos", Cell: ring2[5], Tier: "common", Boost: 1.1, TotalObservations: saturatedObs, TotalChecklists: saturatedChk},
		{SpeciesID: "amecro", ScientificName: "Corvus brachyrhynchos", Cell: ring1[2], Tier: "uncommon", Boost: 1.3, TotalObservations: saturatedObs, TotalChecklists: saturatedChk},
		{SpeciesID: "amecro", ScientificName: "Corvus brachyrhynchos", Cell: base, Tier: "common", Boost: 1.2, TotalObservations: saturatedObs, TotalChecklists: saturatedChk},
	})

	result, err := r.Resolve(context.Background(), "Corvus brachyrhynchos", testLat, testLon, nil)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, 0, result.RingDistance)
	assert.Equal(t, base, result.MatchedCell)
	assert.Equal(t, regionpack.TierCommon, result.ConfidenceTier)
}

func TestResolveTieBreakLowestCellID(t *testing.T) {
	t.Parallel()

	_, ring1, _ := neighborCells(t)
	settings := testSettings(t)

	lowest := ring1[0]
	for _, c := range ring1[1:] {
		if c < lowest {
			lowest = c
		}
	}

	records := make([]packtest.Record, 0, len(ring1))
	for _, c := range ring1 {
		records = append(records, packtest.Record{
			SpeciesID:         "houspa",
			ScientificName:    "Passer domesticus",
			Cell:              c,
			Tier:              "common",
			Boost:             1.2,
			TotalObservations: saturatedObs,
			TotalChecklists:   saturatedChk,
		})
	}
	r := newTestResolver(t, settings, records)

	result, err := r.Resolve(context.Background(), "Passer domesticus", testLat, testLon, nil)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, 1, result.RingDistance)
	assert.Equal(t, lowest, result.MatchedCell)
}

func TestResolveNoData(t *testing.T) {
	t.Parallel()

	base, _, _ := neighborCells(t)
	settings := testSettings(t)

	r := newTestResolver(t, settings, []packtest.Record{{
		SpeciesID:         "cangoo",
		ScientificName:    "Branta canadensis",
		Cell:              base,
		Tier:              "common",
		Boost:             1.2,
		TotalObservations: saturatedObs,
		TotalChecklists:   saturatedChk,
	}})

	result, err := r.Resolve(context.Background(), "Nonexistus maximus", testLat, testLon, nil)
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestResolveExactCellOnly(t *testing.T) {
	t.Parallel()

	_, ring1, _ := neighborCells(t)
	settings := testSettings(t)
	settings.EBirdFilter.NeighborSearch.MaxRings = 0

	// Species present only in ring 1: invisible with neighbor search off.
	r := newTestResolver(t, settings, []packtest.Record{{
		SpeciesID:         "pibgre",
		ScientificName:    "Podilymbus podiceps",
		Cell:              ring1[0],
		Tier:              "rare",
		Boost:             1.5,
		TotalObservations: saturatedObs,
		TotalChecklists:   saturatedChk,
	}})

	result, err := r.Resolve(context.Background(), "Podilymbus podiceps", testLat, testLon, nil)
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestResolveClamping(t *testing.T) {
	t.Parallel()

	base, _, _ := neighborCells(t)
	settings := testSettings(t)
	settings.EBirdFilter.NeighborSearch.DecayPerRing = 0.9

	r := newTestResolver(t, settings, []packtest.Record{
		{SpeciesID: "high", ScientificName: "Altus altissimus", Cell: base, Tier: "rare", Boost: 5.0, TotalObservations: saturatedObs, TotalChecklists: saturatedChk},
		{SpeciesID: "low", ScientificName: "Humilis humillimus", Cell: base, Tier: "vagrant", Boost: 0.1, TotalObservations: 1, TotalChecklists: 1},
	})

	high, err := r.Resolve(context.Background(), "Altus altissimus", testLat, testLon, nil)
	require.NoError(t, err)
	require.NotNil(t, high)
	assert.InDelta(t, MaxBoost, high.ConfidenceBoost, 1e-9)

	low, err := r.Resolve(context.Background(), "Humilis humillimus", testLat, testLon, nil)
	require.NoError(t, err)
	require.NotNil(t, low)
	assert.InDelta(t, MinBoost, low.ConfidenceBoost, 1e-9)
}

func TestResolveSeasonalMultipliers(t *testing.T) {
	t.Parallel()

	base, _, _ := neighborCells(t)

	var monthly [12]float64
	monthly[int(time.May)-1] = 0.4  // well above the peak threshold
	monthly[int(time.June)-1] = 0.05 // below threshold but present
	// December stays at zero

	buildResolver := func(t *testing.T, settings *conf.Settings) *Resolver {
		return newTestResolver(t, settings, []packtest.Record{{
			SpeciesID:         "barswa",
			ScientificName:    "Hirundo rustica",
			Cell:              base,
			Tier:              "common",
			Boost:             1.4,
			TotalObservations: saturatedObs,
			TotalChecklists:   saturatedChk,
			MonthlyFrequency:  monthly,
		}})
	}

	t.Run("peak month applies boost", func(t *testing.T) {
		t.Parallel()
		settings := testSettings(t)
		r := buildResolver(t, settings)
		m := time.May
		result, err := r.Resolve(context.Background(), "Hirundo rustica", testLat, testLon, &m)
		require.NoError(t, err)
		require.NotNil(t, result)
		assert.InDelta(t, 1.4*1.1, result.ConfidenceBoost, 1e-9)
	})

	t.Run("absent month applies penalty", func(t *testing.T) {
		t.Parallel()
		settings := testSettings(t)
		r := buildResolver(t, settings)
		m := time.December
		result, err := r.Resolve(context.Background(), "Hirundo rustica", testLat, testLon, &m)
		require.NoError(t, err)
		require.NotNil(t, result)
		assert.InDelta(t, 1.4*0.7, result.ConfidenceBoost, 1e-9)
	})

	t.Run("off-season month applies configured penalty", func(t *testing.T) {
		t.Parallel()
		settings := testSettings(t)
		settings.EBirdFilter.Seasonal.OffSeasonPenalty = 0.9
		r := buildResolver(t, settings)
		m := time.June
		result, err := r.Resolve(context.Background(), "Hirundo rustica", testLat, testLon, &m)
		require.NoError(t, err)
		require.NotNil(t, result)
		assert.InDelta(t, 1.4*0.9, result.ConfidenceBoost, 1e-9)
	})

	t.Run("seasonal disabled ignores month", func(t *testing.T) {
		t.Parallel()
		settings := testSettings(t)
		settings.EBirdFilter.Seasonal.Enabled = false
		r := buildResolver(t, settings)
		m := time.December
		result, err := r.Resolve(context.Background(), "Hirundo rustica", testLat, testLon, &m)
		require.NoError(t, err)
		require.NotNil(t, result)
		assert.InDelta(t, 1.4, result.ConfidenceBoost, 1e-9)
	})
}

func TestResolveDeterministic(t *testing.T) {
	t.Parallel()

	base, ring1, _ := neighborCells(t)
	settings := testSettings(t)

	r := newTestResolver(t, settings, []packtest.Record{
		{SpeciesID: "cangoo", ScientificName: "Branta canadensis", Cell: base, Tier: "common", Boost: 1.2, TotalObservations: 500, TotalChecklists: 40},
		{SpeciesID: "cangoo", ScientificName: "Branta canadensis", Cell: ring1[1], Tier: "common", Boost: 1.3, TotalObservations: 800, TotalChecklists: 55},
	})

	m := time.May
	first, err := r.Resolve(context.Background(), "Branta canadensis", testLat, testLon, &m)
	require.NoError(t, err)
	require.NotNil(t, first)

	for range 10 {
		again, err := r.Resolve(context.Background(), "Branta canadensis", testLat, testLon, &m)
		require.NoError(t, err)
		require.NotNil(t, again)
		assert.Equal(t, first, again)
	}
}

func TestResolveMissingPack(t *testing.T) {
	t.Parallel()

	settings := testSettings(t)
	store := regionpack.NewStore(regionpack.DirResolver{Dir: t.TempDir()})
	r := New(store, settings, nil)

	result, err := r.Resolve(context.Background(), "Branta canadensis", testLat, testLon, nil)
	require.Error(t, err)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, regionpack.ErrPackNotFound)
}

func TestQualityScore(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0.0, qualityScore(0, 0))
	assert.InDelta(t, 1.0, qualityScore(saturatedObs, saturatedChk), 1e-9)
	assert.Equal(t, 0.0, qualityScore(-5, -5))

	// monotone in both arguments
	assert.Greater(t, qualityScore(100, 10), qualityScore(10, 10))
	assert.Greater(t, qualityScore(100, 50), qualityScore(100, 10))

	// capped at 1.0 even past saturation
	assert.LessOrEqual(t, qualityScore(1_000_000, 1_000_000), 1.0)
}
