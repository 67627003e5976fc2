package regionpack

import (
	"context"

	"gorm.io/gorm"

	"github.com/birdstation/ebird-engine/internal/errors"
	"github.com/birdstation/ebird-engine/internal/hexgrid"
)

// Pack is an attached, queryable region pack handle. It is safe for
// concurrent reads but scoped to one logical operation; call Detach when
// that operation completes.
type Pack struct {
	db         *gorm.DB
	Name       string
	Resolution int
	detached   bool
}

// LookupResult carries the occurrence statistics of one (cell, species) record.
type LookupResult struct {
	Tier              Tier
	Boost             float64
	YearlyFrequency   float64
	TotalObservations int
	TotalChecklists   int
	MonthlyFrequency  [12]float64
}

// Detach closes the pack handle. It is idempotent and never fails from the
// caller's perspective: a detach failure is not actionable and must not
// block the surrounding request, so it is logged and swallowed.
func (p *Pack) Detach() {
	if p == nil || p.detached {
		return
	}
	p.detached = true

	sqlDB, err := p.db.DB()
	if err != nil {
		logger.Warn("failed to access region pack connection on detach",
			"pack_name", p.Name, "error", err)
		return
	}
	if err := sqlDB.Close(); err != nil {
		logger.Warn("failed to close region pack on detach",
			"pack_name", p.Name, "error", err)
	}
}

// joinSpecies scopes a grid_species query to one scientific name,
// case-insensitively.
func (p *Pack) joinSpecies(ctx context.Context, scientificName string) *gorm.DB {
	return p.db.WithContext(ctx).
		Model(&GridSpecies{}).
		Joins("JOIN species_lookup ON species_lookup.species_id = grid_species.species_id").
		Where("LOWER(species_lookup.scientific_name) = LOWER(?)", scientificName)
}

// TierFor returns the confidence tier of a species at a cell. The second
// return value is false when the pack has no record for the pair; that is
// a lookup miss, not an error.
func (p *Pack) TierFor(ctx context.Context, scientificName string, cell hexgrid.Cell) (Tier, bool, error) {
	var row GridSpecies
	err := p.joinSpecies(ctx, scientificName).
		Where("grid_species.cell_id = ?", int64(cell)).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, false, nil
		}
		return 0, false, p.queryError("tier lookup", scientificName, err)
	}

	tier, err := ParseTier(row.ConfidenceTier)
	if err != nil {
		return 0, false, err
	}
	return tier, true, nil
}

// BoostFor returns the base confidence boost of a species at a cell.
func (p *Pack) BoostFor(ctx context.Context, scientificName string, cell hexgrid.Cell) (float64, bool, error) {
	var row GridSpecies
	err := p.joinSpecies(ctx, scientificName).
		Where("grid_species.cell_id = ?", int64(cell)).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, false, nil
		}
		return 0, false, p.queryError("boost lookup", scientificName, err)
	}
	return row.ConfidenceBoost, true, nil
}

// SpeciesPresent reports whether the pack has any record for the species at
// the cell.
func (p *Pack) SpeciesPresent(ctx context.Context, scientificName string, cell hexgrid.Cell) (bool, error) {
	var count int64
	err := p.joinSpecies(ctx, scientificName).
		Where("grid_species.cell_id = ?", int64(cell)).
		Count(&count).Error
	if err != nil {
		return false, p.queryError("presence lookup", scientificName, err)
	}
	return count > 0, nil
}

// TiersForCell returns the scientific names of all species at the cell whose
// tier is at or above the minimum. This backs the site allow-list.
func (p *Pack) TiersForCell(ctx context.Context, cell hexgrid.Cell, minimum Tier) ([]string, error) {
	var names []string
	err := p.db.WithContext(ctx).
		Model(&GridSpecies{}).
		Joins("JOIN species_lookup ON species_lookup.species_id = grid_species.species_id").
		Where("grid_species.cell_id = ?", int64(cell)).
		Where("grid_species.confidence_tier IN ?", tierNamesAtOrAbove(minimum)).
		Pluck("species_lookup.scientific_name", &names).Error
	if err != nil {
		return nil, errors.Newf("tier scan of cell %s failed: %w", cell, err).
			Category(errors.CategoryRegionPack).
			Context("pack_name", p.Name).
			Context("cell", cell.String()).
			Component("regionpack").
			Build()
	}
	return names, nil
}

// BatchLookup fetches the occurrence records of one species across a set of
// cells in a single query, covering an entire neighbor-ring search without
// one round trip per ring.
func (p *Pack) BatchLookup(ctx context.Context, scientificName string, cells []hexgrid.Cell) (map[hexgrid.Cell]LookupResult, error) {
	if len(cells) == 0 {
		return map[hexgrid.Cell]LookupResult{}, nil
	}

	ids := make([]int64, 0, len(cells))
	for _, c := range cells {
		ids = append(ids, int64(c))
	}

	var rows []GridSpecies
	err := p.joinSpecies(ctx, scientificName).
		Where("grid_species.cell_id IN ?", ids).
		Find(&rows).Error
	if err != nil {
		return nil, p.queryError("batch lookup", scientificName, err)
	}

	results := make(map[hexgrid.Cell]LookupResult, len(rows))
	for i := range rows {
		tier, err := ParseTier(rows[i].ConfidenceTier)
		if err != nil {
			return nil, err
		}
		results[hexgrid.Cell(rows[i].CellID)] = LookupResult{
			Tier:              tier,
			Boost:             rows[i].ConfidenceBoost,
			YearlyFrequency:   rows[i].YearlyFrequency,
			TotalObservations: rows[i].TotalObservations,
			TotalChecklists:   rows[i].TotalChecklists,
			MonthlyFrequency:  rows[i].MonthlyFrequency(),
		}
	}
	return results, nil
}

func (p *Pack) queryError(operation, scientificName string, err error) error {
	return errors.Newf("%s for %q failed: %w", operation, scientificName, err).
		Category(errors.CategoryRegionPack).
		Context("pack_name", p.Name).
		Context("scientific_name", scientificName).
		Component("regionpack").
		Build()
}
