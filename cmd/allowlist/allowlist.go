// Package allowlist implements the site allow-list subcommand.
package allowlist

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/birdstation/ebird-engine/internal/allowlist"
	"github.com/birdstation/ebird-engine/internal/conf"
	"github.com/birdstation/ebird-engine/internal/regionpack"
)

// Command creates the allowlist subcommand.
func Command(settings *conf.Settings) *cobra.Command {
	var (
		lat, lon   float64
		strictness string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "allowlist",
		Short: "List the species expected at a location under a strictness level",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strictness == "" {
				strictness = settings.EBirdFilter.Strictness
			}
			tier, err := regionpack.ParseTier(strictness)
			if err != nil {
				return err
			}

			store := regionpack.NewStore(regionpack.DirResolver{Dir: conf.PackDir(settings)})
			builder := allowlist.New(store, settings)

			species, err := builder.AllowedSpeciesAt(cmd.Context(), lat, lon, tier)
			if err != nil {
				return err
			}

			if jsonOutput {
				return json.NewEncoder(os.Stdout).Encode(map[string]any{
					"strictness": tier.String(),
					"count":      len(species),
					"species":    species,
				})
			}

			fmt.Printf("%d species allowed at (%.4f, %.4f) with %s strictness:\n",
				len(species), lat, lon, tier)
			for _, name := range species {
				fmt.Println("  " + name)
			}
			return nil
		},
	}

	cmd.Flags().Float64Var(&lat, "lat", 0, "Latitude of the site")
	cmd.Flags().Float64Var(&lon, "lon", 0, "Longitude of the site")
	cmd.Flags().StringVar(&strictness, "strictness", "", "Strictness level (defaults to configuration)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the result as JSON")

	return cmd
}
