package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Kavirubc/gitscout/internal/store"
)

// The watch commands edit the persisted record directly. A running server
// picks the change up on its next reload.
func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Start or stop polling",
	}

	cmd.AddCommand(newWatchToggleCmd("start", true))
	cmd.AddCommand(newWatchToggleCmd("stop", false))
	return cmd
}

func newWatchToggleCmd(name string, active bool) *cobra.Command {
	return &cobra.Command{
		Use:   name,
		Short: fmt.Sprintf("Set the watch to %s", map[bool]string{true: "active", false: "inactive"}[active]),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			st, err := store.Open(cfg.State)
			if err != nil {
				return fmt.Errorf("failed to open state: %w", err)
			}
			defer st.Close()

			if err := store.SetActive(ctx, st, active); err != nil {
				return err
			}

			fmt.Printf("watch %s\n", map[bool]string{true: "started", false: "stopped"}[active])
			return nil
		},
	}
}
