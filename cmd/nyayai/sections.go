package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"nyayai/internal/store"
)

var sectionsCmd = &cobra.Command{
	Use:   "sections [query]",
	Short: "List or search IPC sections",
	Args:  cobra.ArbitraryArgs,
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

		var sections []store.Section
		if q := strings.TrimSpace(strings.Join(args, " ")); q != "" {
			sections, err = st.SearchSections(cmd.Context(), q)
		} else {
			sections, err = st.AllSections(cmd.Context())
		}
		if err != nil {
			return err
		}

		if len(sections) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No matching sections.")
			return nil
		}
		for _, s := range sections {
			printSection(cmd.OutOrStdout(), s)
		}
		return nil
	},
}

func printSection(w io.Writer, s store.Section) {
	fmt.Fprintf(w, "Section %s: %s\n", s.Number, s.Title)
	fmt.Fprintf(w, "  %s\n", s.Description)
	fmt.Fprintf(w, "  Category:   %s\n", s.Category)
	fmt.Fprintf(w, "  Punishment: %s\n\n", s.Punishment)
}

func SetupSectionsCmd() {
	rootCmd.AddCommand(sectionsCmd)
}
