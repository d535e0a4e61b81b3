package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/momentum-app/momentum/internal/daemon"
)

func init() {
	rootCmd.AddCommand(refreshCmd)
}

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Pull the authoritative remote copy into the local snapshot",
	RunE:  runRefresh,
}

func runRefresh(cmd *cobra.Command, args []string) error {
	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	if d.Syncer == nil {
		return fmt.Errorf("remote sync disabled — set [remote] base_url in config.toml")
	}

	state, err := d.Syncer.Refresh(context.Background())
	if err != nil {
		return err
	}

	fmt.Printf("Refreshed: day %d, streak %d, %d XP (level %d)\n",
		state.TodayDay, state.Streak, state.XP, state.Level)
	return nil
}
