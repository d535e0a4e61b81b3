package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/momentum-app/momentum/internal/daemon"
)

func init() {
	logCmd.Flags().IntVarP(&logLimit, "limit", "n", 20, "Number of entries to show")
	rootCmd.AddCommand(logCmd)
}

var logLimit int

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Show recent XP ledger entries",
	RunE:  runLog,
}

func runLog(cmd *cobra.Command, args []string) error {
	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	state, err := d.Store.Load()
	if err != nil {
		return err
	}
	if state == nil || len(state.XPLog) == 0 {
		fmt.Println("No XP awarded yet.")
		return nil
	}

	entries := state.XPLog
	if len(entries) > logLimit {
		entries = entries[len(entries)-logLimit:]
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "WHEN\tREASON\tKEY\tXP")
	// Newest last, like a log tail
	for _, e := range entries {
		key := "-"
		if e.Day > 0 {
			key = fmt.Sprintf("day %d", e.Day)
		} else if e.WeekIndex > 0 {
			key = fmt.Sprintf("week %d", e.WeekIndex)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t+%d\n", e.CreatedAtISO, e.Reason, key, e.Amount)
	}
	return w.Flush()
}
