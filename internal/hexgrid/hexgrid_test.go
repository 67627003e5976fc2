package hexgrid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/birdstation/ebird-engine/internal/errors"
)

// Helsinki, roughly. Any mid-latitude point far from the icosahedron
// pentagons works here.
const (
	testLat = 60.1699
	testLon = 24.9384
	testRes = 5
)

func TestCellForDeterminism(t *testing.T) {
	a, err := CellFor(testLat, testLon, testRes)
	require.NoError(t, err)
	b, err := CellFor(testLat, testLon, testRes)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.NotZero(t, a)
}

func TestCellForValidation(t *testing.T) {
	tests := []struct {
		name     string
		lat, lon float64
		res      int
	}{
		{"latitude too high", 90.01, 0, 5},
		{"latitude too low", -91, 0, 5},
		{"longitude too high", 0, 180.5, 5},
		{"longitude too low", 0, -500, 5},
		{"resolution negative", 0, 0, -1},
		{"resolution too fine", 0, 0, 16},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CellFor(tt.lat, tt.lon, tt.res)
			require.Error(t, err)
			assert.True(t, errors.IsCategory(err, errors.CategoryValidation))
		})
	}
}

func TestRingZeroIsSingleton(t *testing.T) {
	origin, err := CellFor(testLat, testLon, testRes)
	require.NoError(t, err)

	ring, err := Ring(origin, 0)
	require.NoError(t, err)
	assert.Equal(t, []Cell{origin}, ring)
}

func TestRingHasSixKCells(t *testing.T) {
	origin, err := CellFor(testLat, testLon, testRes)
	require.NoError(t, err)

	for k := 1; k <= 3; k++ {
		ring, err := Ring(origin, k)
		require.NoError(t, err)
		assert.Len(t, ring, 6*k, "ring %d", k)
	}
}

func TestRingRejectsNegativeDistance(t *testing.T) {
	_, err := Ring(Cell(0x85089969fffffff), -1)
	assert.Error(t, err)
}

func TestDiskCoversAllRings(t *testing.T) {
	origin, err := CellFor(testLat, testLon, testRes)
	require.NoError(t, err)

	const maxK = 2
	disk, err := Disk(origin, maxK)
	require.NoError(t, err)

	// 1 + 6 + 12 cells for maxK=2
	assert.Len(t, disk, 19)

	counts := map[int]int{}
	for _, rc := range disk {
		counts[rc.Distance]++
	}
	assert.Equal(t, 1, counts[0])
	assert.Equal(t, 6, counts[1])
	assert.Equal(t, 12, counts[2])

	assert.Equal(t, RingCell{Cell: origin, Distance: 0}, disk[0])
}

func TestDiskZeroIsExactCellOnly(t *testing.T) {
	origin, err := CellFor(testLat, testLon, testRes)
	require.NoError(t, err)

	disk, err := Disk(origin, 0)
	require.NoError(t, err)
	assert.Equal(t, []RingCell{{Cell: origin, Distance: 0}}, disk)
}

func TestGridDistanceMatchesRingMembership(t *testing.T) {
	origin, err := CellFor(testLat, testLon, testRes)
	require.NoError(t, err)

	ring, err := Ring(origin, 2)
	require.NoError(t, err)

	for _, c := range ring {
		d, err := GridDistance(origin, c)
		require.NoError(t, err)
		assert.Equal(t, 2, d)
	}
}

func TestCellStringRoundTrip(t *testing.T) {
	origin, err := CellFor(testLat, testLon, testRes)
	require.NoError(t, err)

	parsed, err := ParseCell(origin.String())
	require.NoError(t, err)
	assert.Equal(t, origin, parsed)

	_, err = ParseCell("not-a-cell")
	assert.Error(t, err)
}
