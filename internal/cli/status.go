package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/vietddude/merchantloader/internal/infra/storage/postgres"
)

var (
	statusRun   string
	statusLimit int
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show recorded upload runs, or the outcomes of one run",
	Run:   runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&statusRun, "run", "", "list the outcomes of this run")
	statusCmd.Flags().IntVar(&statusLimit, "limit", 20, "number of runs to show")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) {
	if !cfg.Database.Enabled() {
		slog.Error("Status needs database.url to be configured")
		os.Exit(1)
	}

	ctx := context.Background()
	db, err := postgres.NewDB(ctx, cfg.Database)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() {
		_ = db.Close()
	}()
	repo := postgres.NewOutcomeRepo(db)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	defer func() {
		_ = w.Flush()
	}()

	if statusRun != "" {
		outcomes, err := repo.ListByRun(ctx, statusRun)
		if err != nil {
			slog.Error("Failed to list outcomes", "run_id", statusRun, "error", err)
			os.Exit(1)
		}
		_, _ = fmt.Fprintln(w, "UEN\tSUCCESS\tATTEMPTS\tNONCE\tTX\tERROR")
		for _, o := range outcomes {
			_, _ = fmt.Fprintf(w, "%s\t%t\t%d\t%d\t%s\t%s\n", o.RecordID, o.Success, o.Attempts, o.Nonce, o.TxHash, o.Error)
		}
		return
	}

	runs, err := repo.Runs(ctx, statusLimit)
	if err != nil {
		slog.Error("Failed to query runs", "error", err)
		os.Exit(1)
	}
	_, _ = fmt.Fprintln(w, "RUN\tTOTAL\tSUCCEEDED\tFAILED\tREVERTED\tSTARTED\tFINISHED")
	for _, r := range runs {
		_, _ = fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%s\t%s\n",
			r.RunID, r.Total, r.Succeeded, r.Failed, r.Reverted,
			r.StartedAt.Format(time.RFC3339), r.FinishedAt.Format(time.RFC3339))
	}
}
