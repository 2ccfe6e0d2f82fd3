package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Kavirubc/gitscout/internal/config"
	"github.com/Kavirubc/gitscout/internal/engine"
	"github.com/Kavirubc/gitscout/internal/github"
	"github.com/Kavirubc/gitscout/internal/logging"
	"github.com/Kavirubc/gitscout/internal/notify"
	"github.com/Kavirubc/gitscout/internal/store"
)

var (
	cfgFile  string
	logLevel string
	version  = "dev"
)

var rootCmd = &cobra.Command{
	Use:   "gitscout",
	Short: "Watch GitHub for new good first issues",
	Long: `gitscout polls the GitHub issue search for new 'good first issue' items
matching a filter of organizations and languages, remembers every issue it has
already reported, and posts only the new ones to a Discord webhook.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log.level (debug, info, warn, error)")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newCheckCmd())
	rootCmd.AddCommand(newWatchCmd())
	rootCmd.AddCommand(newStateCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newVersionCmd())
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("gitscout version %s\n", version)
		},
	}
}

// loadConfig reads and validates the configuration, applying flag overrides
func loadConfig() (*config.Config, error) {
	cfg, _, err := config.LoadOrDefault(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}

	if errs := config.Validate(cfg); len(errs) > 0 {
		for _, e := range errs {
			fmt.Printf("config error: %v\n", e)
		}
		return nil, fmt.Errorf("invalid configuration")
	}
	return cfg, nil
}

// app bundles what the commands need
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	store  store.Store
	engine *engine.Engine
}

func (a *app) Close() error {
	err := a.store.Close()
	logging.CloseFile()
	return err
}

// newApp wires config, logging, storage, the GitHub client and the notifier
// into an engine.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logger, err := logging.SetupLogger(cfg.Log.File, cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("setup logger: %w", err)
	}

	st, err := store.Open(cfg.State)
	if err != nil {
		return nil, fmt.Errorf("failed to open state: %w", err)
	}

	gh, err := github.NewClient(github.Options{
		Host:    cfg.GitHub.Host,
		APIURL:  cfg.GitHub.APIURL,
		Token:   cfg.GitHub.Token,
		Timeout: cfg.GitHub.Timeout,
	}, logger.With("component", "github"))
	if err != nil {
		st.Close()
		return nil, err
	}

	notifier := notify.NewDiscord(cfg.Notify.Timeout, logger.With("component", "notify"))

	eng, err := engine.New(ctx, st, gh, notifier, engine.Options{
		MinInterval: cfg.Poller.MinInterval,
		Backoff:     cfg.Poller.Backoff,
	}, logger.With("component", "engine"))
	if err != nil {
		st.Close()
		return nil, err
	}

	return &app{cfg: cfg, logger: logger, store: st, engine: eng}, nil
}
