// model.go: GORM models mirroring the region pack file schema. Packs are
// produced by an external build tool and are read-only here; these models
// are never migrated or written by the engine.
package regionpack

// SpeciesLookup maps a stable species identifier to its scientific name.
type SpeciesLookup struct {
	SpeciesID      string `gorm:"column:species_id;primaryKey"`
	ScientificName string `gorm:"column:scientific_name"`
}

// TableName overrides the GORM pluralized default.
func (SpeciesLookup) TableName() string { return "species_lookup" }

// GridSpecies holds the per-cell, per-species occurrence statistics.
// At most one row exists per (cell_id, species_id) pair.
type GridSpecies struct {
	CellID            int64   `gorm:"column:cell_id;primaryKey"`
	SpeciesID         string  `gorm:"column:species_id;primaryKey"`
	ConfidenceTier    string  `gorm:"column:confidence_tier"`
	ConfidenceBoost   float64 `gorm:"column:confidence_boost"`
	YearlyFrequency   float64 `gorm:"column:yearly_frequency"`
	TotalObservations int     `gorm:"column:total_observations"`
	TotalChecklists   int     `gorm:"column:total_checklists"`
	Month01           float64 `gorm:"column:month_01"`
	Month02           float64 `gorm:"column:month_02"`
	Month03           float64 `gorm:"column:month_03"`
	Month04           float64 `gorm:"column:month_04"`
	Month05           float64 `gorm:"column:month_05"`
	Month06           float64 `gorm:"column:month_06"`
	Month07           float64 `gorm:"column:month_07"`
	Month08           float64 `gorm:"column:month_08"`
	Month09           float64 `gorm:"column:month_09"`
	Month10           float64 `gorm:"column:month_10"`
	Month11           float64 `gorm:"column:month_11"`
	Month12           float64 `gorm:"column:month_12"`
}

// TableName overrides the GORM pluralized default.
func (GridSpecies) TableName() string { return "grid_species" }

// MonthlyFrequency returns the twelve monthly frequency values, January first.
func (g *GridSpecies) MonthlyFrequency() [12]float64 {
	return [12]float64{
		g.Month01, g.Month02, g.Month03, g.Month04, g.Month05, g.Month06,
		g.Month07, g.Month08, g.Month09, g.Month10, g.Month11, g.Month12,
	}
}

// PackMeta is the single-row metadata table of a pack file.
type PackMeta struct {
	Name       string `gorm:"column:name;primaryKey"`
	Resolution int    `gorm:"column:resolution"`
	Generated  string `gorm:"column:generated"`
}

// TableName overrides the GORM pluralized default.
func (PackMeta) TableName() string { return "pack_meta" }
