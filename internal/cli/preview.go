package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/momentum-app/momentum/internal/daemon"
)

func init() {
	rootCmd.AddCommand(previewCmd)
}

var previewCmd = &cobra.Command{
	Use:   "preview <day>",
	Short: "Show what completing a day would be worth",
	Args:  cobra.ExactArgs(1),
	RunE:  runPreview,
}

func runPreview(cmd *cobra.Command, args []string) error {
	day, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("day must be an integer: %q", args[0])
	}

	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	decision, err := d.Engine.PreviewMakeup(day)
	if err != nil {
		return err
	}

	fmt.Printf("Day %d would be %s: ×%.1f XP", day, decision.Reason, decision.XPMult)
	switch {
	case decision.UsedGrace:
		fmt.Print(", counts for streak (uses grace)")
	case decision.CountsForStreak:
		fmt.Print(", counts for streak")
	default:
		fmt.Print(", does not count for streak")
	}
	fmt.Println()
	return nil
}
