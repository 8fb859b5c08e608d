package cli

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/vietddude/merchantloader/internal/control"
	"github.com/vietddude/merchantloader/internal/core/domain"
	"github.com/vietddude/merchantloader/internal/infra/files"
	"github.com/vietddude/merchantloader/internal/report"
)

var (
	uploadInput string
	skipDone    bool
)

var uploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "Register every record on the merchant registry contract",
	Run:   runUpload,
}

func init() {
	uploadCmd.Flags().StringVar(&uploadInput, "input", "", "record file key in the data bucket (default is data.stripped)")
	uploadCmd.Flags().BoolVar(&skipDone, "skip-done", false, "skip records a previous run already registered")
	rootCmd.AddCommand(uploadCmd)
}

func runUpload(cmd *cobra.Command, args []string) {
	if err := cfg.ValidateUpload(); err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, records := openRecords(ctx)
	defer func() {
		_ = store.Close()
	}()

	input, err := records.Load(ctx, uploadInput)
	if err != nil {
		slog.Error("Failed to load records", "error", err)
		os.Exit(1)
	}

	runID := uuid.NewString()
	app, err := control.NewLoader(ctx, cfg, runID)
	if err != nil {
		slog.Error("Failed to initialize Loader", "error", err)
		os.Exit(1)
	}

	exitCode := 0
	if err := app.Start(ctx); err != nil {
		slog.Error("Failed to start Loader", "error", err)
		exitCode = 1
	} else {
		outcomes, err := app.Upload(ctx, input, skipDone)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				slog.Warn("Upload interrupted", "processed", len(outcomes))
			} else {
				slog.Error("Upload failed", "error", err)
			}
			exitCode = 1
		}
		writeReport(store, runID, outcomes)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.Stop(shutdownCtx); err != nil {
		slog.Error("Error during shutdown", "error", err)
		exitCode = 1
	}
	if exitCode != 0 {
		os.Exit(exitCode)
	}
}

// writeReport stores the parquet report next to the record files. It runs
// on a fresh context so an interrupted upload still leaves a report.
func writeReport(store *files.Store, runID string, outcomes []domain.Outcome) {
	if cfg.Report.Path == "" || len(outcomes) == 0 {
		return
	}
	data, err := report.Encode(outcomes)
	if err != nil {
		slog.Error("Failed to encode report", "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	key := report.Key(cfg.Report.Path, runID)
	if err := store.Write(ctx, key, data); err != nil {
		slog.Error("Failed to write report", "key", key, "error", err)
		return
	}
	slog.Info("Report written", "key", key, "rows", len(outcomes))
}
