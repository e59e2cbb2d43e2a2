package main

import (
	"errors"
	"fmt"

	"github.com/ErlanBelekov/blog-newsletter/internal/newsletter"
	"github.com/ErlanBelekov/blog-newsletter/internal/toast"
	"github.com/spf13/cobra"
)

var (
	consent bool

	errNotSubscribed = errors.New("not subscribed")
)

var subscribeCmd = &cobra.Command{
	Use:   "subscribe EMAIL",
	Short: "Submit one subscription without the interactive popup",
	Args:  cobra.ExactArgs(1),
	RunE:  runSubscribe,
}

func init() {
	subscribeCmd.Flags().BoolVar(&consent, "consent", false, "agree to the privacy policy and GDPR terms")
}

// runSubscribe drives a headless popup through one submit and prints the
// outcome the popup would have shown.
func runSubscribe(cmd *cobra.Command, args []string) error {
	ctx, cfg, client, logger, cleanup, err := setup(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	toasts := toast.FromContext(ctx)
	var closed bool
	popup := newsletter.NewPopup(newsletter.PopupConfig{
		Title:   cfg.Title,
		Variant: parseVariant(cfg.Variant),
		Client:  client,
		Toasts:  toasts,
		OnClose: func() { closed = true },
		Logger:  logger,
	})
	popup.SetEmail(args[0])
	popup.SetConsent(consent)

	if err := popup.Submit(ctx); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	st := popup.State()
	if st.Phase == newsletter.PhaseSubscribed && closed {
		msg := newsletter.MessageSubscribed
		if t, ok := toasts.Current(); ok {
			msg = t
		}
		fmt.Fprintln(out, msg)
		return nil
	}
	fmt.Fprintln(cmd.ErrOrStderr(), st.ErrorMessage)
	return errNotSubscribed
}
