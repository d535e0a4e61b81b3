package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/momentum-app/momentum/internal/daemon"
	"github.com/momentum-app/momentum/internal/domain"
)

func init() {
	awardCmd.AddCommand(awardRetroCmd, awardMoodCmd, awardTinyCmd)
	rootCmd.AddCommand(awardCmd)
}

var awardCmd = &cobra.Command{
	Use:   "award",
	Short: "Grant a one-off XP award",
}

var awardRetroCmd = &cobra.Command{
	Use:   "retro <week>",
	Short: "Award the weekly retrospective (once per week)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		week, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("week must be an integer: %q", args[0])
		}
		return runAward(func(d *daemon.Daemon) (domain.AwardResult, error) {
			return d.Engine.AwardForWeeklyRetro(week)
		})
	},
}

var awardMoodCmd = &cobra.Command{
	Use:   "mood <day>",
	Short: "Award the mood check-in (once per day)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		day, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("day must be an integer: %q", args[0])
		}
		return runAward(func(d *daemon.Daemon) (domain.AwardResult, error) {
			return d.Engine.AwardForMoodCheckin(day)
		})
	},
}

var awardTinyCmd = &cobra.Command{
	Use:   "tiny <day>",
	Short: "Award the tiny habit (once per day)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		day, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("day must be an integer: %q", args[0])
		}
		return runAward(func(d *daemon.Daemon) (domain.AwardResult, error) {
			return d.Engine.AwardForTinyHabit(day)
		})
	},
}

func runAward(op func(*daemon.Daemon) (domain.AwardResult, error)) error {
	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	result, err := op(d)
	if err != nil {
		return err
	}

	if result.Gained == 0 {
		fmt.Println("Already awarded — nothing gained.")
		return nil
	}
	fmt.Printf("+%d XP\n", result.Gained)
	if result.LevelUp {
		fmt.Printf("Level up! Now level %d.\n", result.NewLevel)
	}
	return nil
}
