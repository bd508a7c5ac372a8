package cmd

import (
	"context"

	"github.com/Dusk-Labs/dim-sub002/pkg/logger"
	"github.com/Dusk-Labs/dim-sub002/pkg/storage/sqlite"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "apply pending database migrations",
	Run: func(cmd *cobra.Command, args []string) {
		log := logger.Get()

		cfg, err := readConfig()
		if err != nil {
			log.Fatal(err)
		}

		ctx := logger.WithCtx(context.Background(), log)
		store, err := sqlite.New(ctx, cfg.Storage.FilePath)
		if err != nil {
			log.Fatal("failed to migrate", zap.Error(err))
		}
		defer store.Close()

		version, dirty, err := store.MigrationVersion(ctx)
		if err != nil {
			log.Fatal("failed to read migration version", zap.Error(err))
		}
		log.Infow("database is up to date", "path", cfg.Storage.FilePath, "version", version, "dirty", dirty)
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
