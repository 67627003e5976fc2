// Package hexgrid adapts the H3 hexagonal hierarchical grid for the
// regional confidence engine. It is a thin, stateless wrapper: coordinates
// in, cell identifiers and neighbor rings out. All functions are pure and
// deterministic for fixed inputs.
package hexgrid

import (
	"strconv"

	h3 "github.com/uber/h3-go/v4"

	"github.com/birdstation/ebird-engine/internal/errors"
)

// MaxResolution is the finest H3 grid resolution.
const MaxResolution = 15

// Cell is an H3 cell identifier. Stored and compared as its native integer
// form; rendered as a hexadecimal string at serialization boundaries.
type Cell uint64

// String returns the canonical lowercase hexadecimal form of the cell.
func (c Cell) String() string {
	return strconv.FormatUint(uint64(c), 16)
}

// ParseCell converts a hexadecimal cell string back to a Cell.
func ParseCell(s string) (Cell, error) {
	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, errors.Newf("invalid cell identifier %q: %w", s, err).
			Category(errors.CategoryValidation).
			Component("hexgrid").
			Build()
	}
	return Cell(v), nil
}

// RingCell pairs a cell with its grid distance from a search origin.
type RingCell struct {
	Cell     Cell
	Distance int
}

// CellFor converts a latitude/longitude pair to the cell containing it at
// the given resolution. Out-of-range inputs fail with a validation error;
// nothing is clamped or wrapped.
func CellFor(lat, lon float64, resolution int) (Cell, error) {
	if lat < -90 || lat > 90 {
		return 0, errors.Newf("latitude %g out of range [-90,90]", lat).
			Category(errors.CategoryValidation).
			Component("hexgrid").
			Build()
	}
	if lon < -180 || lon > 180 {
		return 0, errors.Newf("longitude %g out of range [-180,180]", lon).
			Category(errors.CategoryValidation).
			Component("hexgrid").
			Build()
	}
	if resolution < 0 || resolution > MaxResolution {
		return 0, errors.Newf("resolution %d out of range [0,%d]", resolution, MaxResolution).
			Category(errors.CategoryValidation).
			Component("hexgrid").
			Build()
	}

	cell, err := h3.LatLngToCell(h3.LatLng{Lat: lat, Lng: lon}, resolution)
	if err != nil {
		return 0, errors.Newf("failed to index coordinates (%g, %g) at resolution %d: %w", lat, lon, resolution, err).
			Category(errors.CategorySpatialIndex).
			Component("hexgrid").
			Build()
	}
	return Cell(cell), nil
}

// Ring returns the cells at exact grid distance k from the origin cell.
// k=0 returns the singleton origin.
func Ring(origin Cell, k int) ([]Cell, error) {
	if k < 0 {
		return nil, errors.Newf("ring distance must be >= 0, got %d", k).
			Category(errors.CategoryValidation).
			Component("hexgrid").
			Build()
	}
	if k == 0 {
		return []Cell{origin}, nil
	}

	rings, err := h3.GridDiskDistances(h3.Cell(origin), k)
	if err != nil {
		return nil, errors.Newf("failed to enumerate ring %d around cell %s: %w", k, origin, err).
			Category(errors.CategorySpatialIndex).
			Component("hexgrid").
			Build()
	}
	out := make([]Cell, 0, len(rings[k]))
	for _, c := range rings[k] {
		out = append(out, Cell(c))
	}
	return out, nil
}

// Disk returns the full search neighborhood of the origin: every cell at
// grid distance 0 through maxK, each annotated with its exact distance.
// The origin itself is always the first entry.
func Disk(origin Cell, maxK int) ([]RingCell, error) {
	if maxK < 0 {
		return nil, errors.Newf("max ring distance must be >= 0, got %d", maxK).
			Category(errors.CategoryValidation).
			Component("hexgrid").
			Build()
	}
	if maxK == 0 {
		return []RingCell{{Cell: origin, Distance: 0}}, nil
	}

	rings, err := h3.GridDiskDistances(h3.Cell(origin), maxK)
	if err != nil {
		return nil, errors.Newf("failed to enumerate disk of radius %d around cell %s: %w", maxK, origin, err).
			Category(errors.CategorySpatialIndex).
			Component("hexgrid").
			Build()
	}

	var out []RingCell
	for distance, cells := range rings {
		for _, c := range cells {
			out = append(out, RingCell{Cell: Cell(c), Distance: distance})
		}
	}
	return out, nil
}

// GridDistance returns the grid distance between two cells. Used as a
// tie-break fallback when ring enumeration does not carry the distance.
func GridDistance(a, b Cell) (int, error) {
	d, err := h3.GridDistance(h3.Cell(a), h3.Cell(b))
	if err != nil {
		return 0, errors.Newf("failed to compute grid distance between %s and %s: %w", a, b, err).
			Category(errors.CategorySpatialIndex).
			Component("hexgrid").
			Build()
	}
	return d, nil
}
