package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/Dusk-Labs/dim-sub002/pkg/hub"
	"github.com/Dusk-Labs/dim-sub002/pkg/logger"
	"github.com/Dusk-Labs/dim-sub002/pkg/prober"
	"github.com/Dusk-Labs/dim-sub002/server"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spf13/cobra"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "start the media server",
	Long:  `start the media server`,
	Run: func(cmd *cobra.Command, args []string) {
		log := logger.Get()

		cfg, err := readConfig()
		if err != nil {
			log.Fatal(err)
		}

		if configured, err := logger.New(cfg.Log.Level, cfg.Log.JSON); err != nil {
			log.Warnw("invalid log configuration, keeping defaults", zap.Error(err))
		} else {
			log = configured
		}

		probe, err := prober.Lookup(cfg.Prober.Path)
		if err != nil {
			log.Errorw("could not find the probe binary", "path", cfg.Prober.Path, zap.Error(err))
			os.Exit(1)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		ctx = logger.WithCtx(ctx, log)

		a, err := newApp(ctx, cfg, probe)
		if err != nil {
			log.Fatal("failed to start", zap.Error(err))
		}
		defer a.store.Close()

		srv := server.New(log, a.manager,
			server.WithHub(a.hub, hub.WithAuthWindow(cfg.Server.AuthWindow)),
			server.WithMetadataDir(cfg.Metadata.Dir),
			server.WithDistDir(cfg.Server.DistDir),
		)

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return a.manager.Run(gctx)
		})
		g.Go(func() error {
			return srv.Serve(gctx, cfg.Server.Port)
		})

		if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("server stopped", zap.Error(err))
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
