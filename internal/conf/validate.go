// validate.go: validation of loaded settings, performed once at load time.
package conf

import (
	"errors"
	"fmt"
)

// ValidateSettings checks a loaded Settings struct for invalid values. The
// engine itself does not re-validate numeric ranges; anything that passes
// here is trusted downstream.
func ValidateSettings(settings *Settings) error {
	var errs []error

	if err := validateOutputSettings(&settings.Output); err != nil {
		errs = append(errs, err)
	}
	if err := validateEBirdFilterSettings(&settings.EBirdFilter); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

func validateOutputSettings(output *OutputSettings) error {
	if output.SQLite.Enabled && output.MySQL.Enabled {
		return errors.New("only one detection store backend may be enabled")
	}
	if !output.SQLite.Enabled && !output.MySQL.Enabled {
		return errors.New("no detection store backend enabled")
	}
	if output.SQLite.Enabled && output.SQLite.Path == "" {
		return errors.New("output.sqlite.path must be set when SQLite is enabled")
	}
	if output.MySQL.Enabled {
		if output.MySQL.Host == "" || output.MySQL.Database == "" {
			return errors.New("output.mysql.host and output.mysql.database must be set when MySQL is enabled")
		}
	}
	return nil
}

func validateEBirdFilterSettings(s *EBirdFilterSettings) error {
	var errs []error

	if s.Resolution < 0 || s.Resolution > 15 {
		errs = append(errs, fmt.Errorf("ebirdfilter.resolution %d out of range [0,15]", s.Resolution))
	}
	if _, err := ParseDetectionMode(s.Mode); err != nil {
		errs = append(errs, err)
	}
	if !validStrictness[s.Strictness] {
		errs = append(errs, fmt.Errorf("invalid strictness %q, must be common, uncommon, rare or vagrant", s.Strictness))
	}
	if _, err := ParseUnknownSpeciesPolicy(s.UnknownSpecies); err != nil {
		errs = append(errs, err)
	}
	if s.Enabled && s.RegionPack == "" {
		errs = append(errs, errors.New("ebirdfilter.regionpack must be set when the filter is enabled"))
	}

	if s.NeighborSearch.MaxRings < 0 {
		errs = append(errs, fmt.Errorf("ebirdfilter.neighborsearch.maxrings must be >= 0, got %d", s.NeighborSearch.MaxRings))
	}
	if s.NeighborSearch.DecayPerRing < 0 {
		errs = append(errs, fmt.Errorf("ebirdfilter.neighborsearch.decayperring must be >= 0, got %g", s.NeighborSearch.DecayPerRing))
	}

	if s.Quality.Base < 0 || s.Quality.Range < 0 {
		errs = append(errs, errors.New("ebirdfilter.quality.base and ebirdfilter.quality.range must be >= 0"))
	}

	if s.Seasonal.PeakThreshold < 0 || s.Seasonal.PeakThreshold > 1 {
		errs = append(errs, fmt.Errorf("ebirdfilter.seasonal.peakthreshold %g out of range [0,1]", s.Seasonal.PeakThreshold))
	}
	if s.Seasonal.PeakBoost < 1.0 {
		errs = append(errs, fmt.Errorf("ebirdfilter.seasonal.peakboost must be >= 1.0, got %g", s.Seasonal.PeakBoost))
	}
	if s.Seasonal.AbsencePenalty <= 0 || s.Seasonal.AbsencePenalty >= 1.0 {
		errs = append(errs, fmt.Errorf("ebirdfilter.seasonal.absencepenalty must be in (0,1), got %g", s.Seasonal.AbsencePenalty))
	}
	if s.Seasonal.OffSeasonPenalty <= 0 || s.Seasonal.OffSeasonPenalty > 1.0 {
		errs = append(errs, fmt.Errorf("ebirdfilter.seasonal.offseasonpenalty must be in (0,1], got %g", s.Seasonal.OffSeasonPenalty))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
