// Package serve implements the API server subcommand.
package serve

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/birdstation/ebird-engine/internal/allowlist"
	"github.com/birdstation/ebird-engine/internal/api"
	"github.com/birdstation/ebird-engine/internal/cleanup"
	"github.com/birdstation/ebird-engine/internal/conf"
	"github.com/birdstation/ebird-engine/internal/confidence"
	"github.com/birdstation/ebird-engine/internal/datastore"
	"github.com/birdstation/ebird-engine/internal/diskmanager"
	"github.com/birdstation/ebird-engine/internal/observability"
	"github.com/birdstation/ebird-engine/internal/regionpack"
)

// Command creates the serve subcommand.
func Command(settings *conf.Settings) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the engine HTTP API and metrics server",
		RunE: func(cmd *cobra.Command, args []string) error {
			metrics, err := observability.NewMetrics()
			if err != nil {
				return fmt.Errorf("failed to initialize metrics: %w", err)
			}

			db := datastore.New(settings)
			if db == nil {
				return fmt.Errorf("no database output enabled in configuration")
			}
			if err := db.Open(); err != nil {
				return err
			}
			defer db.Close()

			packs := regionpack.NewStore(regionpack.DirResolver{Dir: conf.PackDir(settings)})
			resolver := confidence.New(packs, settings, metrics.Resolver)
			builder := allowlist.New(packs, settings)
			operator := cleanup.New(packs, db, diskmanager.NewDiskClipStore(settings), metrics.Cleanup)

			server := api.New(settings, resolver, builder, operator, api.WithMetrics(metrics))

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return server.Start(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8090", "Listen address for the API server")
	return cmd
}
