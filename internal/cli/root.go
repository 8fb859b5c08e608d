package cli

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"github.com/vietddude/stylelog"

	"github.com/vietddude/merchantloader/internal/control"
	"github.com/vietddude/merchantloader/internal/core/config"
	"github.com/vietddude/merchantloader/internal/infra/files"
)

var (
	cfgPath string
	isDebug bool
	cfg     *config.AppConfig
)

var rootCmd = &cobra.Command{
	Use:   "merchantloader",
	Short: "Merchant registry loader",
	Long: `merchantloader turns the corporate entity CSV exports into JSON record files
and registers every record on the merchant registry contract, one transaction
at a time.`,
	PersistentPreRun: setup,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "config.yaml", "config file (default is config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&isDebug, "debug", false, "enable debug logging")
}

// setup loads .env, the configuration and the logger before any subcommand runs.
func setup(cmd *cobra.Command, args []string) {
	_ = godotenv.Load()

	var err error
	cfg, err = config.Load(cfgPath)
	if err != nil {
		stylelog.InitDefault()
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	slogLevel := slog.LevelInfo
	switch {
	case isDebug || cfg.Logging.Level == "debug":
		slogLevel = slog.LevelDebug
	case cfg.Logging.Level == "warn":
		slogLevel = slog.LevelWarn
	case cfg.Logging.Level == "error":
		slogLevel = slog.LevelError
	}

	if cfg.Logging.Format == "json" {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slogLevel})))
		return
	}
	stylelog.InitDefault(&tint.Options{
		Level:      slogLevel,
		TimeFormat: time.RFC3339,
	})
}

// openRecords opens the data bucket. The caller closes the returned store.
func openRecords(ctx context.Context) (*files.Store, *control.Records) {
	store, err := files.Open(ctx, cfg.Data.Bucket)
	if err != nil {
		slog.Error("Failed to open data bucket", "bucket", cfg.Data.Bucket, "error", err)
		os.Exit(1)
	}
	return store, control.NewRecords(store, cfg.Data)
}
