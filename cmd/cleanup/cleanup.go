// Package cleanup implements the bulk cleanup subcommands: a read-only
// preview and a destructive execute guarded by an explicit confirmation.
package cleanup

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/birdstation/ebird-engine/internal/cleanup"
	"github.com/birdstation/ebird-engine/internal/conf"
	"github.com/birdstation/ebird-engine/internal/datastore"
	"github.com/birdstation/ebird-engine/internal/diskmanager"
	"github.com/birdstation/ebird-engine/internal/regionpack"
)

type options struct {
	strictness  string
	limit       int
	deleteAudio bool
	yes         bool
}

// Command creates the cleanup subcommand with its preview and execute
// children.
func Command(settings *conf.Settings) *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Remove stored detections that violate a strictness threshold",
	}

	previewCmd := &cobra.Command{
		Use:   "preview",
		Short: "Report what execute would remove, without deleting anything",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, settings, opts, false)
		},
	}

	executeCmd := &cobra.Command{
		Use:   "execute",
		Short: "Delete violating detections and optionally their audio clips",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, settings, opts, true)
		},
	}
	executeCmd.Flags().BoolVar(&opts.yes, "yes", false, "Skip the confirmation prompt")

	for _, c := range []*cobra.Command{previewCmd, executeCmd} {
		c.Flags().StringVar(&opts.strictness, "strictness", "", "Strictness level (defaults to configuration)")
		c.Flags().IntVar(&opts.limit, "limit", 0, "Maximum number of detections to evaluate (0 = all)")
		c.Flags().BoolVar(&opts.deleteAudio, "delete-audio", false, "Also delete the audio clips of removed detections")
	}

	cmd.AddCommand(previewCmd, executeCmd)
	return cmd
}

func run(cmd *cobra.Command, settings *conf.Settings, opts *options, destructive bool) error {
	strictness := opts.strictness
	if strictness == "" {
		strictness = settings.EBirdFilter.Strictness
	}
	tier, err := regionpack.ParseTier(strictness)
	if err != nil {
		return err
	}

	db := datastore.New(settings)
	if db == nil {
		return fmt.Errorf("no database output enabled in configuration")
	}
	if err := db.Open(); err != nil {
		return err
	}
	defer db.Close()

	params := cleanup.Params{
		Strictness:  tier,
		RegionPack:  settings.EBirdFilter.RegionPack,
		Resolution:  settings.EBirdFilter.Resolution,
		Limit:       opts.limit,
		DeleteAudio: opts.deleteAudio,
	}

	packs := regionpack.NewStore(regionpack.DirResolver{Dir: conf.PackDir(settings)})
	operator := cleanup.New(packs, db, diskmanager.NewDiskClipStore(settings), nil)

	if destructive && !opts.yes {
		if !confirm(cmd, params) {
			fmt.Println("Aborted.")
			return nil
		}
	}

	var stats cleanup.Stats
	if destructive {
		stats, err = operator.Execute(cmd.Context(), params)
	} else {
		stats, err = operator.Preview(cmd.Context(), params)
	}
	if err != nil {
		return err
	}

	verb := "would be removed"
	if destructive {
		verb = "removed"
	}
	fmt.Printf("Run %s\n", stats.RunID)
	fmt.Printf("  %d detections evaluated\n", stats.Evaluated)
	fmt.Printf("  %d detections %s\n", stats.Removed, verb)
	if opts.deleteAudio && destructive {
		fmt.Printf("  %d audio files deleted\n", stats.AudioFilesDeleted)
	}
	if len(stats.SpeciesAffected) > 0 {
		fmt.Printf("  species affected: %s\n", strings.Join(stats.SpeciesAffected, ", "))
	}
	return nil
}

func confirm(cmd *cobra.Command, params cleanup.Params) bool {
	fmt.Printf("This will permanently delete detections below %s strictness from pack %s", params.Strictness, params.RegionPack)
	if params.DeleteAudio {
		fmt.Print(", including their audio clips")
	}
	fmt.Print(".\nContinue? [y/N] ")

	reader := bufio.NewReader(cmd.InOrStdin())
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
