package main

import (
	"github.com/ErlanBelekov/blog-newsletter/internal/newsletter"
	"github.com/ErlanBelekov/blog-newsletter/internal/toast"
	"github.com/ErlanBelekov/blog-newsletter/internal/tui"
	"github.com/spf13/cobra"
)

var popupCmd = &cobra.Command{
	Use:   "popup",
	Short: "Open the interactive subscribe button and popup",
	Args:  cobra.NoArgs,
	RunE:  runPopup,
}

func runPopup(cmd *cobra.Command, args []string) error {
	ctx, cfg, client, logger, cleanup, err := setup(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	logger.Info("popup started", "endpoint", client.Endpoint(), "variant", cfg.Variant)
	return tui.Run(ctx, tui.Config{
		Popup: newsletter.PopupConfig{
			Title:   cfg.Title,
			Variant: parseVariant(cfg.Variant),
			Client:  client,
		},
		Toasts: toast.FromContext(ctx),
		Logger: logger,
	})
}
