package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"nyayai/internal/assistant"
	"nyayai/internal/core/providers"
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a legal question from the terminal",
	Long: `Answer one question the way the HTTP API does: cite matching IPC sections,
generate a reply with the chosen provider and save it to the query history.
Without an API key the offline answer is printed.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := loadApp()
		if err != nil {
			return err
		}
		defer rt.log.Sync()

		st, err := rt.openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()

		query := strings.TrimSpace(strings.Join(args, " "))
		name, _ := cmd.Flags().GetString("provider")
		key := rt.cfg.Gateway.APIKey
		if flagKey, _ := cmd.Flags().GetString("api-key"); flagKey != "" {
			key = flagKey
		}

		h := assistant.NewHandler(providers.NewFactory(rt.providerOptions()...), rt.assistantOptions())
		if strings.TrimSpace(key) != "" {
			if err := h.Configure(cmd.Context(), name, key); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "provider %s unavailable, answering offline\n", name)
			}
		}

		sections, err := st.SearchSections(cmd.Context(), query)
		if err != nil {
			return err
		}
		if limit := rt.cfg.Assistant.ContextSections; limit > 0 && len(sections) > limit {
			sections = sections[:limit]
		}

		var response string
		if h.IsOnline() {
			response = h.GenerateLegalResponse(cmd.Context(), query, assistant.SectionContext(sections, len(sections)))
		} else {
			response = assistant.OfflineAnswer(query)
		}
		if err := st.SaveQuery(cmd.Context(), query, response); err != nil {
			rt.log.Warn("failed to save query history", zap.Error(err))
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, response)
		if len(sections) > 0 {
			fmt.Fprintln(out, "\nRelevant IPC Sections:")
			for _, s := range sections {
				printSection(out, s)
			}
		}
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recently asked questions",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := loadApp()
		if err != nil {
			return err
		}
		defer rt.log.Sync()

		st, err := rt.openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()

		limit, _ := cmd.Flags().GetInt("limit")
		records, err := st.RecentQueries(cmd.Context(), limit)
		if err != nil {
			return err
		}
		for _, r := range records {
			fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s\n", r.Timestamp.Format("2006-01-02 15:04"), r.Query)
		}
		return nil
	},
}

func SetupAskCmd() {
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(historyCmd)

	askCmd.Flags().String("provider", "gemini", "Backend to answer with")
	askCmd.Flags().String("api-key", "", "OpenRouter API key")
	historyCmd.Flags().Int("limit", 20, "Number of entries to show")
}
