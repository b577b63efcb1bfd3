package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"orderbot/internal/app"
)

var caption string

var sendMessageCmd = &cobra.Command{
	Use:   "send-message [phone] [message]",
	Short: "Send a WhatsApp message through WhatsApp Web",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			runID, err := a.SendMessageOnce(ctx, args[0], args[1])
			logger.Debug("send-message finished", zap.String("run_id", runID))
			return err
		})
	},
}

var sendDocumentCmd = &cobra.Command{
	Use:   "send-document [phone] [path]",
	Short: "Send a file as a WhatsApp document",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			return startedEngine(ctx, a, func() error {
				return a.Engine.SendDocument(ctx, args[0], args[1], caption)
			})
		})
	},
}

var sendImageCmd = &cobra.Command{
	Use:   "send-image [phone] [path]",
	Short: "Send an image through WhatsApp Web",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			return startedEngine(ctx, a, func() error {
				return a.Engine.SendImage(ctx, args[0], args[1], caption)
			})
		})
	},
}

func init() {
	sendDocumentCmd.Flags().StringVar(&caption, "caption", "", "Optional caption")
	sendImageCmd.Flags().StringVar(&caption, "caption", "", "Optional caption")
}

// withApp runs fn with a fresh application and reports the outcome. The app,
// and with it the browser, is always closed.
func withApp(cmd *cobra.Command, fn func(context.Context, *app.App) error) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	a, err := newApp()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(); cerr != nil {
			logger.Warn("shutdown", zap.Error(cerr))
		}
	}()

	if err := fn(ctx, a); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), failStyle.Render("❌ "+err.Error()))
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render("✅ Enviado"))
	return nil
}

// startedEngine traces a new run and starts the shared engine before send.
func startedEngine(ctx context.Context, a *app.App, send func() error) error {
	if _, err := a.StartTrace(); err != nil {
		return err
	}
	if err := a.Engine.Start(ctx); err != nil {
		return fmt.Errorf("whatsapp session: %w", err)
	}
	return send()
}
