package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/beeper/medsearch/pkg/search"
	"github.com/beeper/medsearch/pkg/searcherr"
	"github.com/beeper/medsearch/pkg/searchmetrics"
)

type rootOptions struct {
	logLevel    string
	configPath  string
	envFile     string
	metricsAddr string

	log zerolog.Logger
	cfg *search.Config
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "medsearch",
		Short: "Search medical literature across several providers",
		Long: `medsearch queries brave, exa, perplexity and ClinicalTrials.gov through the
search backend and prints ranked, deduplicated results as JSON.

Configuration is read from --config (YAML or JSON5), then MEDSEARCH_* environment
variables. A .env file in the working directory is loaded first.`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", Tag, Commit, BuildTime),
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup(cmd)
		},
	}
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log", "info",
		"Log level: trace, debug, info, warn, error, disabled")
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "",
		"Path to a YAML or JSON5 config file")
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env",
		"Environment file to load before reading MEDSEARCH_* variables")
	cmd.PersistentFlags().StringVar(&opts.metricsAddr, "metrics-addr", "",
		"Serve Prometheus metrics on this address while the command runs")

	cmd.AddCommand(
		newSearchCmd(opts, search.ModeSequential),
		newSearchCmd(opts, search.ModeParallel),
		newProvidersCmd(opts),
		newSavedCmd(opts),
	)
	return cmd
}

func (o *rootOptions) setup(cmd *cobra.Command) error {
	level, err := zerolog.ParseLevel(o.logLevel)
	if err != nil {
		return err
	}
	o.log = zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr(), TimeFormat: time.Kitchen}).
		Level(level).
		With().Timestamp().Logger()
	cmd.SetContext(o.log.WithContext(cmd.Context()))

	if o.envFile != "" {
		if err := godotenv.Load(o.envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load %s: %w", o.envFile, err)
		}
	}

	cfg := &search.Config{}
	if o.configPath != "" {
		cfg, err = search.LoadConfig(o.configPath)
		if err != nil {
			return err
		}
	}
	o.cfg = search.ApplyEnvDefaults(cfg)
	return nil
}

func (o *rootOptions) orchestrator(ctx context.Context) *search.Orchestrator {
	opts := []search.Option{search.WithLogger(o.log)}
	if o.metricsAddr != "" {
		reg := prometheus.NewRegistry()
		opts = append(opts, search.WithObserver(searchmetrics.New(reg)))
		o.serveMetrics(ctx, reg)
	}
	return search.New(o.cfg, opts...)
}

func (o *rootOptions) serveMetrics(ctx context.Context, reg *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: o.metricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			o.log.Warn().Err(err).Str("addr", o.metricsAddr).Msg("Metrics server stopped")
		}
	}()
	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()
	o.log.Info().Str("addr", o.metricsAddr).Msg("Serving metrics")
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func userMessage(err error) string {
	var invalid validation.Errors
	if errors.As(err, &invalid) {
		return err.Error()
	}
	return searcherr.UserMessage(err)
}
