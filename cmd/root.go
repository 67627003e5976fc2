package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/birdstation/ebird-engine/cmd/allowlist"
	"github.com/birdstation/ebird-engine/cmd/cleanup"
	"github.com/birdstation/ebird-engine/cmd/confidence"
	"github.com/birdstation/ebird-engine/cmd/serve"
	"github.com/birdstation/ebird-engine/internal/conf"
)

// RootCommand creates and returns the root command.
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "ebird-engine",
		Short: "Regional confidence engine for bird detection stations",
		Long: `ebird-engine scores bird detections against regional eBird occurrence
data: how plausible is this species at this location, this time of year?`,
	}

	setupFlags(rootCmd, settings)

	rootCmd.AddCommand(
		confidence.Command(settings),
		allowlist.Command(settings),
		cleanup.Command(settings),
		serve.Command(settings),
	)

	return rootCmd
}

// setupFlags defines flags that are global to the command line interface.
func setupFlags(rootCmd *cobra.Command, settings *conf.Settings) {
	rootCmd.PersistentFlags().BoolVarP(&settings.Debug, "debug", "d", viper.GetBool("debug"), "Enable debug output")
	rootCmd.PersistentFlags().StringVar(&settings.EBirdFilter.RegionPack, "pack", viper.GetString("ebirdfilter.regionpack"), "Region pack name, e.g. na-east-coast-2025.08")
	rootCmd.PersistentFlags().IntVar(&settings.EBirdFilter.Resolution, "resolution", viper.GetInt("ebirdfilter.resolution"), "H3 grid resolution, must match the installed pack")
}
