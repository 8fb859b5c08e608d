package cli

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var combineCmd = &cobra.Command{
	Use:   "combine",
	Short: "Concatenate the JSON shards into one record file",
	Run:   runCombine,
}

var stripCmd = &cobra.Command{
	Use:   "strip",
	Short: "Drop the status field from the combined record file",
	Run:   runStrip,
}

func init() {
	rootCmd.AddCommand(combineCmd)
	rootCmd.AddCommand(stripCmd)
}

func runCombine(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	store, records := openRecords(ctx)
	defer func() {
		_ = store.Close()
	}()

	combined, shards, err := records.Combine(ctx)
	if err != nil {
		slog.Error("Combine failed", "error", err)
		os.Exit(1)
	}

	var used int
	for _, s := range shards {
		if !s.Missing {
			used++
		}
	}
	slog.Info("Combine finished", "shards", used, "records", len(combined), "output", cfg.Data.Combined)
}

func runStrip(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	store, records := openRecords(ctx)
	defer func() {
		_ = store.Close()
	}()

	stripped, err := records.Strip(ctx)
	if err != nil {
		slog.Error("Strip failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Strip finished", "records", len(stripped), "output", cfg.Data.Stripped)
}
