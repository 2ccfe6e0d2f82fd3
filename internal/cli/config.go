package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Kavirubc/gitscout/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management commands",
	}

	cmd.AddCommand(newConfigValidateCmd())
	return cmd
}

func newConfigValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, err := config.LoadOrDefault(cfgFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if path == "" {
				fmt.Println("No config file found, validating defaults")
			} else {
				fmt.Printf("Validating config: %s\n", path)
			}

			errs := config.Validate(cfg)
			if len(errs) > 0 {
				fmt.Println("\nValidation errors:")
				for _, e := range errs {
					fmt.Printf("  - %v\n", e)
				}
				return fmt.Errorf("configuration is invalid")
			}

			tokenSource := "config"
			if cfg.GitHub.Token == "" {
				tokenSource = "GH_TOKEN / gh auth, else unauthenticated"
			}

			fmt.Println("\nConfiguration is valid!")
			fmt.Printf("  - Listen: %s\n", cfg.Server.Listen)
			fmt.Printf("  - State: %s (%s)\n", cfg.State.Path, cfg.State.Backend)
			fmt.Printf("  - GitHub: %s, token from %s\n", cfg.GitHub.Host, tokenSource)
			fmt.Printf("  - Poll floor: %s, backoff: %s\n", cfg.Poller.MinInterval, cfg.Poller.Backoff)

			return nil
		},
	}
}
