// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package rank rolls mention scores up into per-entity period results and
// orders entities by their final index.
// Implements: docs/ARCHITECTURE § Ranking.
package rank

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/pdiddy/iedi-engine/pkg/types"
)

// Aggregate computes the result of entity e over window w from the scores
// of its mentions in that window. Scores for other entities must already be
// filtered out by the caller. An empty period yields zeros throughout.
func Aggregate(e types.Entity, w types.Window, scores []types.MentionScore) types.EntityPeriodResult {
	r := types.EntityPeriodResult{
		EntityID:      e.ID,
		EntityName:    e.CanonicalName,
		Window:        w,
		TotalMentions: len(scores),
	}
	if r.TotalMentions == 0 {
		return r
	}

	var sum float64
	for _, s := range scores {
		sum += s.NormalizedScore
		switch s.Sentiment {
		case types.SentimentPositive:
			r.PositiveCount++
		case types.SentimentNegative:
			r.NegativeCount++
		case types.SentimentNeutral:
			r.NeutralCount++
		default:
			r.NeutralCount++
		}
	}

	total := float64(r.TotalMentions)
	r.AverageIndex = sum / total
	r.FinalIndex = r.AverageIndex * float64(r.PositiveCount) / total
	r.PositivityRate = float64(r.PositiveCount) / total * 100
	r.NegativityRate = float64(r.NegativeCount) / total * 100
	return r
}

// Rank returns a copy of results ordered by FinalIndex, highest first, with
// RankPosition set to 1..N. Equal indexes keep their input order.
func Rank(results []types.EntityPeriodResult) []types.EntityPeriodResult {
	out := make([]types.EntityPeriodResult, len(results))
	copy(out, results)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].FinalIndex > out[j].FinalIndex
	})
	for i := range out {
		out[i].RankPosition = i + 1
	}
	return out
}

// FormatTable writes results as an aligned ranking table.
func FormatTable(w io.Writer, results []types.EntityPeriodResult) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tENTITY\tMENTIONS\tPOS\tNEG\tNEU\tPOS%\tAVG\tIEDI\tPERIOD")
	for _, r := range results {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%d\t%d\t%.1f\t%.2f\t%.2f\t%s .. %s\n",
			r.RankPosition, displayName(r), r.TotalMentions,
			r.PositiveCount, r.NegativeCount, r.NeutralCount,
			r.PositivityRate, r.AverageIndex, r.FinalIndex,
			r.Window.Start.Format("2006-01-02"), r.Window.End.Format("2006-01-02"))
	}
	return tw.Flush()
}

func displayName(r types.EntityPeriodResult) string {
	if r.EntityName != "" {
		return r.EntityName
	}
	return r.EntityID
}
