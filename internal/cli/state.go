package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Kavirubc/gitscout/internal/github"
	"github.com/Kavirubc/gitscout/internal/store"
)

func newStateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Inspect the persisted watch state",
	}

	cmd.AddCommand(newStateShowCmd())
	return cmd
}

func newStateShowCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the filter, dedup statistics and last fetch",
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

			s, err := st.Load(ctx)
			if err != nil {
				return fmt.Errorf("failed to load state: %w", err)
			}

			status := "inactive"
			if s.Active {
				status = "active"
			}
			webhook := "disabled"
			if s.Target.Enabled() {
				webhook = "enabled"
			}

			fmt.Printf("Watch: %s\n", status)
			fmt.Printf("Organizations: %s\n", strings.Join(s.Filter.Organizations, ", "))
			fmt.Printf("Languages: %s\n", strings.Join(s.Filter.Languages, ", "))
			fmt.Printf("Interval: %ds\n", s.Filter.PollInterval)
			fmt.Printf("Query: %s\n", github.BuildQuery(s.Filter))
			fmt.Printf("Webhook: %s\n", webhook)
			fmt.Printf("Known issues: %d\n", len(s.SeenIDs))
			fmt.Printf("Last fetch: %d issues\n\n", len(s.LastFetch))

			for i, it := range s.LastFetch {
				if i >= limit {
					fmt.Printf("... and %d more\n", len(s.LastFetch)-limit)
					break
				}
				fmt.Printf("%d. %s #%d - %s\n", i+1, it.RepoFullName(), it.Number, it.Title)
				fmt.Printf("   %s\n", it.HTMLURL)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "maximum issues to list")
	return cmd
}
