package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/ErlanBelekov/blog-newsletter/config"
	ctxlog "github.com/ErlanBelekov/blog-newsletter/internal/log"
	"github.com/ErlanBelekov/blog-newsletter/internal/newsletter"
	"github.com/ErlanBelekov/blog-newsletter/internal/toast"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

var (
	endpoint string
	provider string
	variant  string
	title    string
	logFile  string
)

var rootCmd = &cobra.Command{
	Use:          "newsletter",
	Short:        "Subscribe to the blog newsletter from a terminal",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&endpoint, "endpoint", "", "base URL of the newsletter API (env NEWSLETTER_ENDPOINT)")
	rootCmd.PersistentFlags().StringVar(&provider, "provider", "", "provider segment of /api/{provider} (env NEWSLETTER_PROVIDER)")
	rootCmd.PersistentFlags().StringVar(&variant, "variant", "", "popup variant: gdpr or rich (env NEWSLETTER_VARIANT)")
	rootCmd.PersistentFlags().StringVar(&title, "title", "", "popup title (env NEWSLETTER_TITLE)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "log file path, - for stderr (env NEWSLETTER_LOG_FILE)")

	rootCmd.AddCommand(popupCmd)
	rootCmd.AddCommand(subscribeCmd)
}

// loadConfig reads the environment and applies any flags that were set.
func loadConfig(cmd *cobra.Command) (*config.ClientConfig, error) {
	cfg, err := config.LoadClient()
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("endpoint") {
		cfg.Endpoint = endpoint
	}
	if flags.Changed("provider") {
		cfg.Provider = provider
	}
	if flags.Changed("variant") {
		cfg.Variant = variant
	}
	if flags.Changed("title") {
		cfg.Title = title
	}
	if flags.Changed("log-file") {
		cfg.LogFile = logFile
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openLogger writes JSON logs to cfg.LogFile so they stay off the TUI. The
// returned writer is the same destination, for span export.
func openLogger(cfg *config.ClientConfig) (*slog.Logger, io.Writer, func(), error) {
	if cfg.LogFile == "-" {
		return ctxlog.New("local", cfg.SlogLevel(), os.Stderr), os.Stderr, func() {}, nil
	}
	f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return ctxlog.NewJSON(cfg.SlogLevel(), f), f, func() { _ = f.Close() }, nil
}

// newTracerProvider exports finished spans as JSON lines to w and installs
// the provider globally.
func newTracerProvider(w io.Writer) (*sdktrace.TracerProvider, error) {
	exp, err := stdouttrace.New(stdouttrace.WithWriter(w))
	if err != nil {
		return nil, fmt.Errorf("create span exporter: %w", err)
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exp),
		sdktrace.WithResource(resource.NewSchemaless(
			attribute.String("service.name", "newsletter-cli"),
		)),
	)
	otel.SetTracerProvider(tp)
	return tp, nil
}

func parseVariant(s string) newsletter.Variant {
	if s == "rich" {
		return newsletter.VariantRich
	}
	return newsletter.VariantGDPR
}

// setup builds everything both subcommands share. The returned context
// carries the toast manager.
func setup(cmd *cobra.Command) (context.Context, *config.ClientConfig, *newsletter.Client, *slog.Logger, func(), error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, nil, nil, nil, err
	}
	logger, logOut, closeLog, err := openLogger(cfg)
	if err != nil {
		return nil, nil, nil, nil, nil, err
	}
	tp, err := newTracerProvider(logOut)
	if err != nil {
		closeLog()
		return nil, nil, nil, nil, nil, err
	}
	shutdownTracing := func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			logger.Warn("tracer shutdown", "error", err)
		}
	}
	client, err := newsletter.NewClient(cfg.Endpoint, cfg.Provider, newsletter.WithTracerProvider(tp))
	if err != nil {
		shutdownTracing()
		closeLog()
		return nil, nil, nil, nil, nil, err
	}
	toasts := toast.NewManager(toast.WithTTL(cfg.ToastTTL()), toast.WithLogger(logger))
	ctx := toast.NewContext(cmd.Context(), toasts)
	cleanup := func() {
		toasts.Close()
		shutdownTracing()
		closeLog()
	}
	return ctx, cfg, client, logger, cleanup, nil
}
