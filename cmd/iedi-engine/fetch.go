// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/iedi-engine/internal/period"
	"github.com/pdiddy/iedi-engine/internal/source"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download mentions from the media-monitoring API into a batch file",
	Long: `Fetch pages through the media-monitoring API for one saved search and
window and writes the raw mentions to a JSON or YAML batch file. The file
can later be scored with "analyze --mentions".

The API token and project come from configuration or from the
source-token and source-project files in the secrets directory.`,
	RunE: runFetch,
}

func init() {
	f := fetchCmd.Flags()
	f.String("query", "", "saved search name at the media-monitoring API")
	f.String("start", "", "window start (YYYY-MM-DD or RFC3339)")
	f.String("end", "", "window end (YYYY-MM-DD or RFC3339)")
	f.String("out", "", "output file (.json, .yaml or .yml)")
	f.Int("max-pages", 0, "stop after this many pages (0: no limit)")
	_ = fetchCmd.MarkFlagRequired("query")
	_ = fetchCmd.MarkFlagRequired("out")

	bindFlag("source.max_pages", f.Lookup("max-pages"))

	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	queryName, _ := cmd.Flags().GetString("query")
	start, _ := cmd.Flags().GetString("start")
	end, _ := cmd.Flags().GetString("end")
	out, _ := cmd.Flags().GetString("out")

	loc, err := period.LoadLocation(cfg.Ingest.Timezone)
	if err != nil {
		return err
	}
	w, err := parseWindow(start, end, loc)
	if err != nil {
		return err
	}
	if err := period.ValidateWindow(w, time.Now()); err != nil {
		return err
	}

	api, err := source.NewAPISource(cfg.Source, log)
	if err != nil {
		return err
	}
	raws, err := api.Fetch(cmd.Context(), source.Query{Name: queryName, Window: w})
	if err != nil {
		return err
	}
	if err := source.WriteBatch(out, raws); err != nil {
		return err
	}
	fmt.Printf("Wrote %d mentions to %s\n", len(raws), out)
	return nil
}
