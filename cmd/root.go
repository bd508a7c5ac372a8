package cmd

import (
	"os"
	"strings"
	"time"

	"github.com/Dusk-Labs/dim-sub002/pkg/fetcher"
	"github.com/Dusk-Labs/dim-sub002/pkg/hub"
	"github.com/Dusk-Labs/dim-sub002/pkg/provider/tmdb"
	"github.com/Dusk-Labs/dim-sub002/pkg/scanner"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	mhttp "github.com/Dusk-Labs/dim-sub002/pkg/http"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "dim",
	Short: "dim media server",
	Long:  `dim catalogs movie and tv libraries, enriches them with metadata and serves them over http`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config/config.toml", "config file")
}

func initConfig() {
	if _, err := os.Stat(cfgFile); err == nil {
		viper.SetConfigFile(cfgFile)
	}

	viper.SetEnvPrefix("DIM")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", ""))
	viper.AutomaticEnv()

	viper.SetDefault("server.port", 8000)
	viper.SetDefault("server.distDir", "")
	viper.SetDefault("server.authWindow", hub.DefaultAuthWindow)

	viper.SetDefault("storage.filePath", "config/dim.db")
	viper.SetDefault("metadata.dir", "config/metadata")
	viper.SetDefault("metadata.timeout", fetcher.DefaultTimeout)
	viper.SetDefault("metadata.maxRetries", mhttp.DefaultMaxRetries)
	viper.SetDefault("metadata.maxAssetBytes", fetcher.DefaultMaxAssetSize)

	viper.SetDefault("tmdb.scheme", "https")
	viper.SetDefault("tmdb.host", "api.themoviedb.org")
	viper.SetDefault("tmdb.apiKey", "")
	viper.SetDefault("tmdb.backoff", 500*time.Millisecond)
	viper.SetDefault("tmdb.maxRetries", 3)
	viper.SetDefault("tmdb.timeout", 10*time.Second)
	viper.SetDefault("tmdb.ratePerSecond", 40.0)
	viper.SetDefault("tmdb.cacheTTL", tmdb.DefaultCacheTTL)
	viper.SetDefault("tmdb.maxCacheBytes", tmdb.DefaultMaxCacheBytes)

	viper.SetDefault("prober.path", "ffprobe")

	viper.SetDefault("auth.secret", "")
	viper.SetDefault("auth.cookieKey", "")
	viper.SetDefault("auth.tokenTTL", 7*24*time.Hour)

	viper.SetDefault("scanner.debounce", scanner.DefaultDebounce)
	viper.SetDefault("scanner.probeWorkers", scanner.DefaultProbeWorkers)
	viper.SetDefault("scanner.sweepSchedule", scanner.DefaultSweepSchedule)

	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.json", false)
}
