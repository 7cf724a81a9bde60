package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"nyayai/internal/assistant"
	"nyayai/internal/config"
	"nyayai/internal/core"
	"nyayai/internal/core/processors"
	"nyayai/internal/core/providers"
	"nyayai/internal/core/registry"
	"nyayai/internal/core/security"
	"nyayai/internal/pkg/logger"
	"nyayai/internal/store"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:          "nyayai",
	Short:        "Legal assistant for Indian law",
	Long:         `NyayAI answers legal questions, explains IPC sections and summarizes documents using models reached through the OpenRouter gateway.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./configs/config.yaml)")
}

func initConfig() {
	config.Init(cfgFile)
}

// app bundles what every command builds from configuration.
type app struct {
	cfg      *config.Config
	log      *zap.Logger
	registry *registry.Registry
	scanner  *security.Scanner
}

func loadApp() (*app, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, err
	}

	log, err := logger.NewWithOptions(logger.Options{Level: cfg.Log.Level, File: cfg.Log.File})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	reg, err := cfg.Registry()
	if err != nil {
		return nil, fmt.Errorf("invalid backends configuration: %w", err)
	}

	return &app{cfg: cfg, log: log, registry: reg, scanner: security.NewScanner()}, nil
}

func (rt *app) providerOptions() []providers.Option {
	return []providers.Option{
		providers.WithBaseURL(rt.cfg.Gateway.BaseURL),
		providers.WithReferer(rt.cfg.Gateway.Referer),
		providers.WithTimeout(rt.cfg.Gateway.Timeout),
		providers.WithRegistry(rt.registry),
		providers.WithScanner(rt.scanner),
		providers.WithLogger(logger.Wrap(rt.log)),
	}
}

func (rt *app) pipeline() *core.Pipeline {
	p := core.NewPipeline(processors.NewRequestLogger())
	if rt.cfg.Privacy.RedactPrompts {
		p.AddProcessor(processors.NewPIIGuard(rt.scanner))
	}
	return p
}

func (rt *app) assistantOptions() assistant.Options {
	return assistant.Options{
		MaxSummaryChars: rt.cfg.Assistant.MaxSummaryChars,
		Pipeline:        rt.pipeline(),
		Logger:          rt.log,
	}
}

func (rt *app) openStore(ctx context.Context) (*store.Store, error) {
	return store.Open(ctx, rt.cfg.Database.Path, rt.log)
}
