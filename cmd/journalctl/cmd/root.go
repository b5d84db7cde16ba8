package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"trading-journal-go/internal/client"
	"trading-journal-go/internal/config"
	"trading-journal-go/internal/logger"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "journalctl",
	Short: "Command line client for the trading journal API",
	Long: `journalctl talks to a running journal server.

The server address and token come from configs/config.yml (client section),
the CLIENT_BASE_URL and CLIENT_TOKEN environment variables, or the flags below.

Examples:
  journalctl login -e alice@example.com -p secret123
  journalctl trades list --filter "profit[gt]=0" --limit 20
  journalctl accounts sync <account-id> --wait`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

var (
	configDir string
	baseURL   string
	token     string
	verbose   bool

	api *client.Client
)

// Execute adds all child commands to the root command and sets flags appropriately.
// Ctrl-C cancels the request in flight.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config", "./configs", "directory holding config.yml")
	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "", "API base URL, e.g. http://localhost:5000/api/v1")
	rootCmd.PersistentFlags().StringVar(&token, "token", "", "bearer token")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log every request")
}

func setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(configDir)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if baseURL != "" {
		cfg.Client.BaseURL = baseURL
	}
	if token != "" {
		cfg.Client.Token = token
	}

	level := "warn"
	if verbose {
		level = "debug"
	}
	log, err := logger.NewLogger(level, "console")
	if err != nil {
		return err
	}

	api = client.New(&cfg.Client, log)
	return nil
}
