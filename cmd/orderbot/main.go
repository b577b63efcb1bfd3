package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"orderbot/internal/app"
	"orderbot/internal/config"
)

var (
	// Global flags
	verbose    bool
	configPath string
	workspace  string
	timeout    time.Duration

	cfg    config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "orderbot",
	Short: "Food-ordering assistant with WhatsApp Web delivery",
	Long: `orderbot takes food orders through a chat assistant, produces the invoice,
and delivers confirmations by e-mail, WhatsApp Web automation or a wa.me link.

Run without arguments to start the ordering chat.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		dir := workspace
		if dir == "" {
			dir = "."
		}
		cfg, _, err = config.LoadWithWorkspace(configPath, dir)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		zc := zap.NewProductionConfig()
		if verbose {
			zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		// stdout carries the MCP protocol in stdio mode.
		if cmd == serveCmd && cfg.Server.LogFile != "" {
			zc.OutputPaths = []string{cfg.Server.LogFile}
			zc.ErrorOutputPaths = []string{cfg.Server.LogFile}
		}
		logger, err = zc.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runChat,
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Take an order interactively",
	Long: `Starts the ordering dialogue. Type "confirmar" to close the order,
"salir" to quit. The bot then asks for the delivery details, shows the
summary and offers the delivery options.`,
	RunE: runChat,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (overrides .orderbot/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", "", "Workspace directory (default: current)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Minute, "Operation timeout")

	rootCmd.AddCommand(chatCmd, sendMessageCmd, sendDocumentCmd, sendImageCmd, invoiceCmd, linkCmd, serveCmd)
}

// newApp builds the application from the loaded config.
func newApp() (*app.App, error) {
	return app.New(cfg, logger)
}

// commandContext bounds a command by --timeout and cancels on SIGINT/SIGTERM.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	if timeout <= 0 {
		return ctx, stop
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	return ctx, func() {
		cancel()
		stop()
	}
}

// commandContextNoTimeout only cancels on signals, for long-running servers.
func commandContextNoTimeout(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
