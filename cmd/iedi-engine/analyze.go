// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/pdiddy/iedi-engine/internal/classify"
	"github.com/pdiddy/iedi-engine/internal/period"
	"github.com/pdiddy/iedi-engine/internal/pipeline"
	"github.com/pdiddy/iedi-engine/internal/rank"
	"github.com/pdiddy/iedi-engine/internal/source"
	"github.com/pdiddy/iedi-engine/internal/store"
	"github.com/pdiddy/iedi-engine/pkg/types"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Score mentions and rank entities for a period",
	Long: `Analyze scores every (mention, entity) pair in the given period and ranks
the entities by their final IEDI.

Mentions come from --mentions batch files (JSON or YAML) or, with --fetch,
from the media-monitoring API saved search named by --query.

The period is either shared (--start/--end with optional --entities; all
active entities when omitted) or custom per entity (--periods file with a
"custom" list). Both cannot be given at once.

The run is stored in the results database unless --no-store is set.`,
	RunE: runAnalyze,
}

func init() {
	f := analyzeCmd.Flags()
	f.StringSlice("mentions", nil, "mention batch files (JSON or YAML)")
	f.Bool("fetch", false, "fetch mentions from the media-monitoring API")
	f.String("query", "", "saved search name at the media-monitoring API")
	f.StringSlice("entities", nil, "entity ids, names or aliases (default: all active)")
	f.String("start", "", "period start (YYYY-MM-DD or RFC3339)")
	f.String("end", "", "period end (YYYY-MM-DD or RFC3339; a date covers the whole day)")
	f.String("periods", "", "YAML file with a shared window or per-entity custom windows")
	f.String("name", "", "analysis name (default: derived from the period)")
	f.Int("workers", 0, "concurrent scoring workers (default: GOMAXPROCS)")
	f.Bool("no-store", false, "do not store the run")
	f.Bool("json", false, "print results as JSON")
	f.Bool("scores", false, "also print per-mention scores")

	bindFlag("scoring.workers", f.Lookup("workers"))

	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	mentionFiles, _ := cmd.Flags().GetStringSlice("mentions")
	fetch, _ := cmd.Flags().GetBool("fetch")
	queryName, _ := cmd.Flags().GetString("query")
	name, _ := cmd.Flags().GetString("name")
	noStore, _ := cmd.Flags().GetBool("no-store")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	showScores, _ := cmd.Flags().GetBool("scores")

	if (len(mentionFiles) > 0) == fetch {
		return fmt.Errorf("give exactly one of --mentions or --fetch")
	}
	if fetch && queryName == "" {
		return fmt.Errorf("--fetch needs --query")
	}

	reg, err := loadRegistry()
	if err != nil {
		return err
	}
	loc, err := period.LoadLocation(cfg.Ingest.Timezone)
	if err != nil {
		return err
	}

	pf := planFlags{}
	pf.periodsPath, _ = cmd.Flags().GetString("periods")
	pf.entities, _ = cmd.Flags().GetStringSlice("entities")
	pf.start, _ = cmd.Flags().GetString("start")
	pf.end, _ = cmd.Flags().GetString("end")
	plan, err := buildPlan(pf, reg, loc, time.Now())
	if err != nil {
		return err
	}

	analysis := types.Analysis{
		ID:            uuid.NewString(),
		Name:          firstNonEmpty(name, defaultAnalysisName(plan)),
		Query:         queryName,
		CustomPeriods: plan.Custom(),
		Status:        types.StatusPending,
		CreatedAt:     time.Now(),
		Windows:       plan.Windows(),
	}
	runLog := log.With("analysis", analysis.ID)

	var st *store.Store
	if !noStore {
		st, err = store.Open(cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.CreateAnalysis(ctx, analysis); err != nil {
			return err
		}
		if err := st.SetStatus(ctx, analysis.ID, types.StatusRunning, ""); err != nil {
			return err
		}
	}
	fail := func(err error) error {
		if st != nil {
			if serr := st.SetStatus(context.Background(), analysis.ID, types.StatusFailed, err.Error()); serr != nil {
				runLog.Warn("could not mark analysis failed", "error", serr)
			}
		}
		return err
	}

	raws, err := acquire(ctx, mentionFiles, queryName, plan)
	if err != nil {
		return fail(err)
	}

	mentions, stats := classify.NormalizeBatch(raws, classify.OptionsFromConfig(cfg.Ingest))
	runLog.Info("mentions normalized",
		"received", stats.Received, "kept", stats.Kept, "filtered", stats.Filtered,
		"duplicates", stats.Duplicates, "invalid", stats.Invalid)
	if stats.Invalid > 0 {
		runLog.Warn("mentions without url dropped", "count", stats.Invalid)
	}

	out, err := pipeline.Run(ctx, pipeline.Input{
		Mentions: mentions,
		Plan:     plan,
		Registry: reg,
		Workers:  cfg.Scoring.Workers,
		Logger:   runLog,
	})
	if err != nil {
		return fail(err)
	}

	if st != nil {
		if err := st.SaveRun(ctx, analysis, mentions, out); err != nil {
			return fail(err)
		}
		runLog.Info("analysis stored", "db", cfg.Store.Path)
	}

	return printRun(os.Stdout, analysis, out, jsonOutput, showScores)
}

// acquire reads mention files, or fetches from the API: once over the plan
// bounds for a shared plan, once per entity window for a custom plan.
func acquire(ctx context.Context, files []string, queryName string, plan period.Plan) ([]types.RawMention, error) {
	if len(files) > 0 {
		return source.FileSource{Paths: files}.Fetch(ctx, source.Query{})
	}

	api, err := source.NewAPISource(cfg.Source, log)
	if err != nil {
		return nil, err
	}
	if !plan.Custom() {
		return api.Fetch(ctx, source.Query{Name: queryName, Window: plan.Bounds()})
	}

	var all []types.RawMention
	for _, ew := range plan.Windows() {
		raws, err := api.Fetch(ctx, source.Query{Name: queryName, Window: ew.Window})
		if err != nil {
			return nil, fmt.Errorf("fetching mentions for %s: %w", ew.EntityID, err)
		}
		all = append(all, raws...)
	}
	return all, nil
}

func defaultAnalysisName(plan period.Plan) string {
	if plan.Custom() {
		return "custom periods " + time.Now().Format("2006-01-02 15:04")
	}
	b := plan.Bounds()
	return b.Start.Format("2006-01-02") + " .. " + b.End.Format("2006-01-02")
}

// runReport is the JSON form of an analyze run.
type runReport struct {
	Analysis types.Analysis             `json:"analysis"`
	Stats    pipeline.Stats             `json:"stats"`
	Ranking  []types.EntityPeriodResult `json:"ranking"`
	Scores   []types.MentionScore       `json:"scores,omitempty"`
}

func printRun(w io.Writer, a types.Analysis, out pipeline.Output, jsonOutput, showScores bool) error {
	if jsonOutput {
		r := runReport{Analysis: a, Stats: out.Stats, Ranking: out.Results}
		if showScores {
			r.Scores = out.Scores
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	}

	fmt.Fprintf(w, "Analysis %s (%s)\n", a.ID, a.Name)
	fmt.Fprintf(w, "mentions: %d, matched: %d, unmatched: %d, out of window: %d, scored pairs: %d\n\n",
		out.Stats.Mentions, out.Stats.MatchedMentions, out.Stats.Unmatched, out.Stats.OutOfWindow, out.Stats.Pairs)
	if err := rank.FormatTable(w, out.Results); err != nil {
		return err
	}
	if showScores {
		fmt.Fprintln(w)
		return printScores(w, out.Scores)
	}
	return nil
}

func printScores(w io.Writer, scores []types.MentionScore) error {
	if len(scores) == 0 {
		fmt.Fprintln(w, "No scored mentions.")
		return nil
	}
	fmt.Fprintf(w, "%-12s  %-8s  %-5s  %-13s  %-4s  %-5s  %-5s  %-7s  %-7s  %s\n",
		"Entity", "Sent", "Title", "Subtitle", "Rel", "Niche", "Reach", "Score", "Norm", "URL")
	fmt.Fprintln(w, strings.Repeat("-", 110))
	for _, s := range scores {
		f := s.Features
		fmt.Fprintf(w, "%-12s  %-8s  %-5t  %-13s  %-4t  %-5t  %-5s  %+7.4f  %7.2f  %s\n",
			truncate(s.EntityID, 12), s.Sentiment, f.Title, f.Subtitle, f.RelevantOutlet, f.NicheOutlet,
			f.ReachGroup, s.Score, s.NormalizedScore, s.MentionURL)
	}
	fmt.Fprintf(w, "\n%d scores\n", len(scores))
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
