package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/momentum-app/momentum/internal/daemon"
)

func init() {
	rootCmd.AddCommand(completeCmd)
}

var completeCmd = &cobra.Command{
	Use:   "complete <day>",
	Short: "Mark a challenge day completed",
	Long: `Mark a challenge day completed. Late completions are priced by the
makeup policy: one grace per week keeps full credit, after that the XP
multiplier drops and the day no longer counts toward the streak.`,
	Args: cobra.ExactArgs(1),
	RunE: runComplete,
}

func runComplete(cmd *cobra.Command, args []string) error {
	day, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("day must be an integer: %q", args[0])
	}

	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	result, err := d.Engine.CompleteDay(day)
	if err != nil {
		return err
	}
	if !result.OK {
		fmt.Println("No challenge started yet.")
		return nil
	}

	if result.Award.Gained == 0 {
		fmt.Printf("Day %d already completed.\n", day)
		return nil
	}

	fmt.Printf("Day %d completed (%s): +%d XP\n", day, result.Policy.Reason, result.Award.Gained)
	if result.Policy.UsedGrace {
		fmt.Println("Used this week's grace — full credit kept.")
	}
	if !result.Policy.CountsForStreak {
		fmt.Println("Too late to count toward the streak.")
	}
	if result.Award.LevelUp {
		fmt.Printf("Level up! Now level %d.\n", result.Award.NewLevel)
	}
	return nil
}
