package cmd

import (
	"context"
	"os"
	"os/signal"
	"strconv"

	"github.com/Dusk-Labs/dim-sub002/pkg/logger"
	"github.com/Dusk-Labs/dim-sub002/pkg/prober"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var scanCmd = &cobra.Command{
	Use:   "scan <library-id>",
	Short: "scan a library once and exit",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		log := logger.Get()

		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			log.Fatal("library id must be a number", zap.String("id", args[0]))
		}

		cfg, err := readConfig()
		if err != nil {
			log.Fatal(err)
		}

		probe, err := prober.Lookup(cfg.Prober.Path)
		if err != nil {
			log.Errorw("could not find the probe binary", "path", cfg.Prober.Path, zap.Error(err))
			os.Exit(1)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		ctx = logger.WithCtx(ctx, log)

		a, err := newApp(ctx, cfg, probe)
		if err != nil {
			log.Fatal("failed to start", zap.Error(err))
		}
		defer a.store.Close()

		// the change reactor and the asset fetcher run for as long as the scan does
		runCtx, cancel := context.WithCancel(ctx)
		done := make(chan error, 1)
		go func() { done <- a.manager.Run(runCtx) }()

		report, err := a.manager.Scan(ctx, id)
		cancel()
		<-done
		if err != nil {
			log.Fatal("scan failed", zap.Error(err))
		}
		log.Infow("scan complete", "library", id, "found", report.Found, "inserted", report.Inserted, "matched", report.Matched, "unmatched", report.Unmatched)
	},
}

func init() {
	rootCmd.AddCommand(scanCmd)
}
