package cli

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Convert each CSV shard into a JSON record file",
	Run:   runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	store, records := openRecords(ctx)
	defer func() {
		_ = store.Close()
	}()

	results, err := records.Extract(ctx)
	if err != nil {
		slog.Error("Extract failed", "error", err)
		os.Exit(1)
	}

	var converted, missing, total int
	for _, r := range results {
		if r.Missing {
			missing++
			continue
		}
		converted++
		total += r.Records
	}
	slog.Info("Extract finished", "shards", converted, "missing", missing, "records", total)
}
