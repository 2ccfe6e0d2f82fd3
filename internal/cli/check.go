package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newCheckCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run one poll cycle now",
		Long: `Fetch, deduplicate, persist and notify once, then exit.
Suitable for running from cron instead of 'serve'.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.engine.RunCycle(ctx)
			if err != nil {
				return fmt.Errorf("check failed: %w", err)
			}

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}

			if res.Skipped {
				fmt.Printf("Skipped: %s\n", res.Reason)
				return nil
			}
			fmt.Printf("Checked at %s: %d fetched, %d new\n", res.CheckedAt.Format("2006-01-02T15:04:05Z"), res.Fetched, res.New)
			if res.NotifyError != "" {
				fmt.Printf("Warning: %s\n", res.NotifyError)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the cycle summary as JSON")
	return cmd
}
