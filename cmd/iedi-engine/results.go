// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/iedi-engine/internal/rank"
	"github.com/pdiddy/iedi-engine/internal/store"
)

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Inspect stored analyses (list, show, scores, export)",
	Long: `Results reads analyses stored by "analyze" from the results database.
Use subcommands to list analyses, show a ranking, audit per-mention scores,
or export a full report.`,
}

// --- list subcommand ---

var resultsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored analyses, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := store.Open(cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close()

		list, err := st.ListAnalyses(cmd.Context())
		if err != nil {
			return err
		}
		if len(list) == 0 {
			fmt.Println("No analyses stored.")
			return nil
		}

		fmt.Printf("%-36s  %-8s  %-16s  %-6s  %s\n", "ID", "Status", "Created", "Custom", "Name")
		fmt.Println(strings.Repeat("-", 100))
		for _, a := range list {
			fmt.Printf("%-36s  %-8s  %-16s  %-6t  %s\n",
				a.ID, a.Status, a.CreatedAt.Local().Format("2006-01-02 15:04"), a.CustomPeriods, a.Name)
			if a.Error != "" {
				fmt.Printf("%-36s  error: %s\n", "", a.Error)
			}
		}
		fmt.Printf("\n%d analyses\n", len(list))
		return nil
	},
}

// --- show subcommand ---

var resultsShowCmd = &cobra.Command{
	Use:   "show <analysis-id>",
	Short: "Show the ranking of an analysis",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := store.Open(cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close()

		a, err := st.Analysis(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		results, err := st.Results(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(store.Report{Analysis: a, Ranking: results})
		}

		fmt.Printf("Analysis %s (%s) status=%s\n", a.ID, a.Name, a.Status)
		if a.Error != "" {
			fmt.Printf("error: %s\n", a.Error)
		}
		if len(results) == 0 {
			fmt.Println("No results.")
			return nil
		}
		fmt.Println()
		return rank.FormatTable(os.Stdout, results)
	},
}

// --- scores subcommand ---

var resultsScoresCmd = &cobra.Command{
	Use:   "scores <analysis-id>",
	Short: "List the per-mention scores of an analysis",
	Long: `Scores prints one row per scored (mention, entity) pair with the
verification flags behind it, for auditing a ranking.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		entity, _ := cmd.Flags().GetString("entity")

		st, err := store.Open(cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close()

		if entity != "" {
			reg, err := loadRegistry()
			if err == nil {
				if e, rerr := reg.Resolve(entity); rerr == nil {
					entity = e.ID
				}
			}
		}

		scores, err := st.Scores(cmd.Context(), args[0], entity)
		if err != nil {
			return err
		}
		if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(scores)
		}
		return printScores(os.Stdout, scores)
	},
}

// --- export subcommand ---

var resultsExportCmd = &cobra.Command{
	Use:   "export <analysis-id>",
	Short: "Export an analysis report to YAML or JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		withScores, _ := cmd.Flags().GetBool("scores")
		out, _ := cmd.Flags().GetString("out")

		st, err := store.Open(cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close()

		if out == "" {
			return st.Export(cmd.Context(), args[0], format, withScores, os.Stdout)
		}
		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("creating %s: %w", out, err)
		}
		if err := st.Export(cmd.Context(), args[0], format, withScores, f); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Exported to %s\n", out)
		return nil
	},
}

func init() {
	resultsShowCmd.Flags().Bool("json", false, "output as JSON")

	resultsScoresCmd.Flags().String("entity", "", "only scores of this entity (id, name or alias)")
	resultsScoresCmd.Flags().Bool("json", false, "output as JSON")

	resultsExportCmd.Flags().String("format", store.FormatYAML, "export format: yaml or json")
	resultsExportCmd.Flags().Bool("scores", false, "include per-mention scores")
	resultsExportCmd.Flags().String("out", "", "output file (default: stdout)")

	resultsCmd.AddCommand(resultsListCmd)
	resultsCmd.AddCommand(resultsShowCmd)
	resultsCmd.AddCommand(resultsScoresCmd)
	resultsCmd.AddCommand(resultsExportCmd)
	rootCmd.AddCommand(resultsCmd)
}
