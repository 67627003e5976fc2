// Package packtest builds throwaway region pack files for tests. It writes
// the same SQLite schema the external pack build tool produces.
package packtest

import (
	"path/filepath"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/birdstation/ebird-engine/internal/hexgrid"
	"github.com/birdstation/ebird-engine/internal/regionpack"
)

// Record describes one (cell, species) occurrence entry of a test pack.
type Record struct {
	SpeciesID         string
	ScientificName    string
	Cell              hexgrid.Cell
	Tier              string
	Boost             float64
	YearlyFrequency   float64
	TotalObservations int
	TotalChecklists   int
	MonthlyFrequency  [12]float64
}

// BuildPack writes a pack file named <name>.db into dir and returns its path.
func BuildPack(t *testing.T, dir, name string, resolution int, records []Record) string {
	t.Helper()

	path := filepath.Join(dir, name+".db")
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to create test pack %s: %v", path, err)
	}

	if err := db.AutoMigrate(&regionpack.SpeciesLookup{}, &regionpack.GridSpecies{}, &regionpack.PackMeta{}); err != nil {
		t.Fatalf("failed to migrate test pack schema: %v", err)
	}

	if err := db.Create(&regionpack.PackMeta{Name: name, Resolution: resolution, Generated: "2025-08-01"}).Error; err != nil {
		t.Fatalf("failed to write pack metadata: %v", err)
	}

	seenSpecies := map[string]bool{}
	for i := range records {
		r := &records[i]
		if !seenSpecies[r.SpeciesID] {
			seenSpecies[r.SpeciesID] = true
			entry := regionpack.SpeciesLookup{SpeciesID: r.SpeciesID, ScientificName: r.ScientificName}
			if err := db.Create(&entry).Error; err != nil {
				t.Fatalf("failed to insert species %s: %v", r.SpeciesID, err)
			}
		}

		row := regionpack.GridSpecies{
			CellID:            int64(r.Cell),
			SpeciesID:         r.SpeciesID,
			ConfidenceTier:    r.Tier,
			ConfidenceBoost:   r.Boost,
			YearlyFrequency:   r.YearlyFrequency,
			TotalObservations: r.TotalObservations,
			TotalChecklists:   r.TotalChecklists,
			Month01:           r.MonthlyFrequency[0],
			Month02:           r.MonthlyFrequency[1],
			Month03:           r.MonthlyFrequency[2],
			Month04:           r.MonthlyFrequency[3],
			Month05:           r.MonthlyFrequency[4],
			Month06:           r.MonthlyFrequency[5],
			Month07:           r.MonthlyFrequency[6],
			Month08:           r.MonthlyFrequency[7],
			Month09:           r.MonthlyFrequency[8],
			Month10:           r.MonthlyFrequency[9],
			Month11:           r.MonthlyFrequency[10],
			Month12:           r.MonthlyFrequency[11],
		}
		if err := db.Create(&row).Error; err != nil {
			t.Fatalf("failed to insert grid record for %s at %s: %v", r.SpeciesID, r.Cell, err)
		}
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to access test pack connection: %v", err)
	}
	if err := sqlDB.Close(); err != nil {
		t.Fatalf("failed to close test pack: %v", err)
	}

	return path
}
