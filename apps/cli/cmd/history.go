package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/reqverify/packages/history"
)

var (
	historyPathFlag  string
	historyLimitFlag int
)

var historyCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "Show recorded verification runs",
	Long: `List recent runs recorded with "reqverify run --history", or show the
scenario outcomes of one run.

Examples:
  reqverify history
  reqverify history --limit 5
  reqverify history 3f1c9a52-8d0e-4c57-9a3e-2f8f7f1f0c11`,
	Args: cobra.MaximumNArgs(1),
	RunE: historyCommand,
}

func init() {
	historyCmd.Flags().StringVar(&historyPathFlag, "history", getEnvString("REQVERIFY_HISTORY", history.DefaultPath), "History database (env: REQVERIFY_HISTORY)")
	historyCmd.Flags().IntVarP(&historyLimitFlag, "limit", "l", 20, "Number of runs to list")
}

func historyCommand(cmd *cobra.Command, args []string) error {
	store, err := history.Open(historyPathFlag)
	if err != nil {
		return configError("%w", err)
	}
	defer store.Close()

	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	defer w.Flush()

	if len(args) == 1 {
		records, err := store.Scenarios(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if len(records) == 0 {
			return usageError(fmt.Errorf("no run with id %s", args[0]))
		}
		fmt.Fprintln(w, "SCENARIO\tSTATUS\tDURATION\tFAILED CHECKS\tERROR")
		for _, r := range records {
			status := green("passed")
			switch {
			case r.Skipped:
				status = yellow("skipped")
			case !r.Passed:
				status = red("failed")
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", r.Name, status, r.Duration, r.FailedChecks, r.Error)
		}
		return nil
	}

	runs, err := store.Recent(cmd.Context(), historyLimitFlag)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No runs recorded in %s\n", historyPathFlag)
		return nil
	}

	fmt.Fprintln(w, "RUN\tSTARTED\tBASE URL\tPASSED\tFAILED\tSKIPPED\tDURATION\tP95")
	for _, r := range runs {
		failed := fmt.Sprint(r.Failed)
		if r.Failed > 0 {
			failed = red(failed)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			r.ID, humanize.Time(r.StartedAt), r.BaseURL,
			green(r.Passed), failed, r.Skipped, r.Duration, r.P95)
	}
	return nil
}
