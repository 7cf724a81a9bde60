package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"nyayai/internal/core/providers"
)

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Check that a provider accepts the configured API key",
	Long: `Send the single test request a session would send and report whether the
provider is available. Backends: gemini, openai, deepseek, nemotron.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := loadApp()
		if err != nil {
			return err
		}
		defer rt.log.Sync()

		name, _ := cmd.Flags().GetString("provider")
		key := rt.cfg.Gateway.APIKey
		if flagKey, _ := cmd.Flags().GetString("api-key"); flagKey != "" {
			key = flagKey
		}
		if strings.TrimSpace(key) == "" {
			return fmt.Errorf("no API key: pass --api-key or set NYAYAI_OPENROUTER_API_KEY")
		}

		p, err := providers.Create(cmd.Context(), name, key, rt.providerOptions()...)
		if err != nil {
			return fmt.Errorf("provider %s is unavailable: %w", name, err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "provider %s is available (model %s)\n", p.Tag(), p.Model())
		return nil
	},
}

func SetupProbeCmd() {
	rootCmd.AddCommand(probeCmd)

	probeCmd.Flags().String("provider", "gemini", "Backend to probe")
	probeCmd.Flags().String("api-key", "", "OpenRouter API key")
}
