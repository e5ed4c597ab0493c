// ABOUTME: Root command, global flags, and shared setup for every subcommand
// ABOUTME: Loads .env and configuration and builds the logger and application
package commands

import (
	"context"
	"fmt"

	"github.com/harper/persona-chat/internal/app"
	"github.com/harper/persona-chat/internal/config"
	"github.com/harper/persona-chat/internal/logging"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configPath   string
	verbose      bool
	quiet        bool
	outputFormat string
)

// NewRootCmd creates the root command with every subcommand attached
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "persona",
		Short: "Persona-switching conversational backend",
		Long: `
 ██████╗ ███████╗██████╗ ███████╗ ██████╗ ███╗   ██╗ █████╗
 ██╔══██╗██╔════╝██╔══██╗██╔════╝██╔═══██╗████╗  ██║██╔══██╗
 ██████╔╝█████╗  ██████╔╝███████╗██║   ██║██╔██╗ ██║███████║
 ██╔═══╝ ██╔══╝  ██╔══██╗╚════██║██║   ██║██║╚██╗██║██╔══██║
 ██║     ███████╗██║  ██║███████║╚██████╔╝██║ ╚████║██║  ██║
 ╚═╝     ╚══════╝╚═╝  ╚═╝╚══════╝ ╚═════╝ ╚═╝  ╚═══╝╚═╝  ╚═╝

Chat with a mentor, an investor, a technical advisor, or a business
expert. Say "act like an investor" or "go back to my mentor" and the
conversation moves to that persona's own thread, with its own history.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if verbose && quiet {
				return fmt.Errorf("--verbose and --quiet are mutually exclusive")
			}
			switch outputFormat {
			case "auto", "table", "json":
			default:
				return fmt.Errorf("unknown --format %q (want auto, table, or json)", outputFormat)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML config file")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output (debug logging)")
	cmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Only print results")
	cmd.PersistentFlags().StringVar(&outputFormat, "format", "auto", "Output format: auto, table, or json")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMCPCmd())
	cmd.AddCommand(NewChatCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewPersonasCmd())
	cmd.AddCommand(NewSyncCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}

// loadConfig reads .env, the config file, and the environment
func loadConfig() (*config.Config, error) {
	_ = godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}
	if quiet {
		cfg.Logging.Level = "error"
	}
	return cfg, nil
}

// openApp loads configuration and builds the application
func openApp(ctx context.Context) (*app.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return nil, err
	}

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}
	return a, nil
}

// closeApp releases the application and flushes its logger
func closeApp(a *app.App) {
	if err := a.Close(); err != nil {
		a.Logger.Warn("error during shutdown", zap.Error(err))
	}
	_ = a.Logger.Sync()
}
