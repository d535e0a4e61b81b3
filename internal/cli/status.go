package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/momentum-app/momentum/internal/app/progress"
	"github.com/momentum-app/momentum/internal/daemon"
	"github.com/momentum-app/momentum/internal/domain"
)

const levelBarWidth = 20

func init() {
	rootCmd.AddCommand(statusCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show challenge progress, streak, and level",
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	state, err := d.Store.Load()
	if err != nil {
		return err
	}
	if state == nil {
		fmt.Println("No challenge started yet.")
		return nil
	}

	completed := 0
	for i := range state.Days {
		if state.Days[i].Completed {
			completed++
		}
	}

	lp := progress.Progress(state.XP)
	graceState := "available"
	if state.GraceUsedThisWeek > 0 &&
		state.GraceWeekIndex == domain.WeekIndex(state.TodayDay) {
		graceState = "used"
	}

	fmt.Printf("Day %d of 30 — %d completed\n", state.TodayDay, completed)
	fmt.Printf("Streak: %d days\n", state.Streak)
	fmt.Printf("Grace this week: %s\n", graceState)
	fmt.Printf("Level %d  %s  %d/%d XP (next at %d)\n",
		lp.Level, levelBar(lp.Pct), lp.InLevel, lp.Needed, lp.NextLevelAt)
	return nil
}

// levelBar renders [████░░░░] for a 0–1 fraction.
func levelBar(pct float64) string {
	filled := int(pct * levelBarWidth)
	if filled > levelBarWidth {
		filled = levelBarWidth
	}
	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", levelBarWidth-filled) + "]"
}
