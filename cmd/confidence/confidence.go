// Package confidence implements the one-shot confidence query subcommand.
package confidence

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/birdstation/ebird-engine/internal/conf"
	"github.com/birdstation/ebird-engine/internal/confidence"
	"github.com/birdstation/ebird-engine/internal/regionpack"
)

// Command creates the confidence subcommand.
func Command(settings *conf.Settings) *cobra.Command {
	var (
		species    string
		lat, lon   float64
		monthNum   int
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "confidence",
		Short: "Query the regional confidence of a species at a location",
		RunE: func(cmd *cobra.Command, args []string) error {
			if species == "" {
				return fmt.Errorf("--species is required")
			}

			var month *time.Month
			if monthNum != 0 {
				if monthNum < 1 || monthNum > 12 {
					return fmt.Errorf("invalid month %d, must be 1-12", monthNum)
				}
				m := time.Month(monthNum)
				month = &m
			}

			store := regionpack.NewStore(regionpack.DirResolver{Dir: conf.PackDir(settings)})
			resolver := confidence.New(store, settings, nil)

			result, err := resolver.Resolve(cmd.Context(), species, lat, lon, month)
			if err != nil {
				return err
			}

			if result == nil {
				if jsonOutput {
					return json.NewEncoder(os.Stdout).Encode(map[string]bool{"found": false})
				}
				fmt.Printf("No regional data for %s in pack %s\n", species, settings.EBirdFilter.RegionPack)
				return nil
			}

			if jsonOutput {
				return json.NewEncoder(os.Stdout).Encode(map[string]any{
					"found":            true,
					"confidence_boost": result.ConfidenceBoost,
					"confidence_tier":  result.ConfidenceTier.String(),
					"matched_cell":     result.MatchedCell.String(),
					"ring_distance":    result.RingDistance,
					"region_pack":      result.RegionPack,
				})
			}

			fmt.Printf("Species:       %s\n", species)
			fmt.Printf("Tier:          %s\n", result.ConfidenceTier)
			fmt.Printf("Boost:         %.4f\n", result.ConfidenceBoost)
			fmt.Printf("Matched cell:  %s (ring %d)\n", result.MatchedCell, result.RingDistance)
			fmt.Printf("Region pack:   %s\n", result.RegionPack)
			return nil
		},
	}

	cmd.Flags().StringVar(&species, "species", "", "Scientific name, e.g. 'Branta canadensis'")
	cmd.Flags().Float64Var(&lat, "lat", 0, "Latitude of the site")
	cmd.Flags().Float64Var(&lon, "lon", 0, "Longitude of the site")
	cmd.Flags().IntVar(&monthNum, "month", 0, "Calendar month 1-12 for seasonal adjustment (0 disables)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the result as JSON")

	return cmd
}
