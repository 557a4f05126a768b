// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/iedi-engine/internal/period"
	"github.com/pdiddy/iedi-engine/internal/registry"
	"github.com/pdiddy/iedi-engine/pkg/types"
)

var (
	oct = types.Window{
		Start: time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 10, 31, 23, 59, 59, 0, time.UTC),
	}
	sep = types.Window{
		Start: time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 9, 30, 23, 59, 59, 0, time.UTC),
	}
	inOct = time.Date(2024, 10, 10, 12, 0, 0, 0, time.UTC)
	inSep = time.Date(2024, 9, 10, 12, 0, 0, 0, time.UTC)
)

func testRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	r, err := registry.New(
		[]types.Entity{
			{ID: "bb", CanonicalName: "Banco do Brasil", Aliases: []string{"BB"}, Active: true},
			{ID: "itau", CanonicalName: "Itaú", Active: true},
			{ID: "bradesco", CanonicalName: "Bradesco", Active: true},
		},
		[]types.MediaOutlet{
			{Domain: "valor.globo.com", Classification: types.OutletRelevant, Active: true},
			{Domain: "infomoney.com.br", Classification: types.OutletNiche, Active: true},
		},
	)
	require.NoError(t, err)
	return r
}

func mentions() []types.Mention {
	return []types.Mention{
		{
			URL: "https://valor.globo.com/1", Title: "Lucro do BB sobe", Snippet: "teaser", FullText: "teaser",
			Domain: "valor.globo.com", Sentiment: types.SentimentPositive, MonthlyVisitors: 14_000_000, PublishedAt: inOct,
		},
		{
			URL: "https://blog.example.com/2", Title: "Mercado", Snippet: "Itaú e BB em queda",
			FullText: "Mercado fecha.\n\nItaú e BB em queda.", Sentiment: types.SentimentNegative,
			MonthlyVisitors: 200_000, PublishedAt: inOct,
		},
		{
			URL: "https://infomoney.com.br/3", Title: "Itaú amplia crédito", Snippet: "s", FullText: "s",
			Domain: "infomoney.com.br", Sentiment: types.SentimentNeutral, PublishedAt: inSep,
		},
		{URL: "https://x.com/4", Title: "Selic sobe", Sentiment: types.SentimentPositive, PublishedAt: inOct},
	}
}

func TestRunSharedPlan(t *testing.T) {
	out, err := Run(context.Background(), Input{
		Mentions: mentions(),
		Plan:     period.Shared([]string{"bb", "itau", "bradesco"}, oct),
		Registry: testRegistry(t),
		Workers:  2,
	})
	require.NoError(t, err)

	assert.Equal(t, Stats{Mentions: 4, MatchedMentions: 3, Unmatched: 1, OutOfWindow: 1, Pairs: 3}, out.Stats)

	// Scores follow mention order, then plan order.
	require.Len(t, out.Scores, 3)
	assert.Equal(t, "bb", out.Scores[0].EntityID)
	assert.Equal(t, "https://valor.globo.com/1", out.Scores[0].MentionURL)
	assert.Equal(t, 280, out.Scores[0].Numerator)
	assert.Equal(t, 334, out.Scores[0].Denominator)
	assert.Equal(t, "bb", out.Scores[1].EntityID)
	assert.Equal(t, "itau", out.Scores[2].EntityID)

	// Every planned entity gets a result, zero-mention entities included.
	require.Len(t, out.Results, 3)
	assert.Equal(t, []string{"bb", "itau", "bradesco"}, resultIDs(out.Results))
	assert.Equal(t, []int{1, 2, 3}, []int{out.Results[0].RankPosition, out.Results[1].RankPosition, out.Results[2].RankPosition})

	bb := out.Results[0]
	assert.Equal(t, 2, bb.TotalMentions)
	assert.Equal(t, 1, bb.PositiveCount)
	assert.Equal(t, 1, bb.NegativeCount)
	assert.InDelta(t, bb.AverageIndex/2, bb.FinalIndex, 1e-9)

	itau := out.Results[1]
	assert.Equal(t, 1, itau.TotalMentions)
	assert.Equal(t, 0.0, itau.FinalIndex)

	assert.Equal(t, 0, out.Results[2].TotalMentions)
}

func TestRunCustomPlan(t *testing.T) {
	plan := period.Custom([]types.EntityWindow{
		{EntityID: "bb", Window: oct},
		{EntityID: "itau", Window: sep},
	})
	out, err := Run(context.Background(), Input{Mentions: mentions(), Plan: plan, Registry: testRegistry(t)})
	require.NoError(t, err)

	// The September Itaú mention is now in window; the October one is not.
	assert.Equal(t, 3, out.Stats.Pairs)
	assert.Equal(t, 1, out.Stats.OutOfWindow)

	byID := map[string]types.EntityPeriodResult{}
	for _, r := range out.Results {
		byID[r.EntityID] = r
	}
	assert.Equal(t, sep, byID["itau"].Window)
	assert.Equal(t, 1, byID["itau"].TotalMentions)
	assert.Equal(t, 1, byID["itau"].NeutralCount)
	assert.Equal(t, oct, byID["bb"].Window)
}

func TestRunDeterministicAcrossWorkers(t *testing.T) {
	var ms []types.Mention
	for i := 0; i < 200; i++ {
		sent := types.SentimentPositive
		if i%3 == 0 {
			sent = types.SentimentNegative
		}
		ms = append(ms, types.Mention{
			URL:             fmt.Sprintf("https://valor.globo.com/%d", i),
			Title:           "BB e Bradesco",
			Domain:          "valor.globo.com",
			Sentiment:       sent,
			MonthlyVisitors: int64(i) * 250_000,
			PublishedAt:     inOct,
		})
	}
	in := Input{Mentions: ms, Plan: period.Shared([]string{"bradesco", "bb"}, oct), Registry: testRegistry(t)}

	in.Workers = 1
	serial, err := Run(context.Background(), in)
	require.NoError(t, err)
	in.Workers = 8
	parallel, err := Run(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, serial, parallel)
	assert.Len(t, serial.Scores, 400)
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, err := Run(ctx, Input{
		Mentions: mentions(),
		Plan:     period.Shared([]string{"bb"}, oct),
		Registry: testRegistry(t),
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, out.Results)
	assert.Empty(t, out.Scores)
}

func TestRunUnknownEntity(t *testing.T) {
	_, err := Run(context.Background(), Input{
		Plan:     period.Shared([]string{"nubank"}, oct),
		Registry: testRegistry(t),
	})
	assert.ErrorIs(t, err, registry.ErrUnknownEntity)

	_, err = Run(context.Background(), Input{Plan: period.Shared([]string{"bb"}, oct)})
	assert.Error(t, err)
}

func TestRunNoMentions(t *testing.T) {
	out, err := Run(context.Background(), Input{
		Plan:     period.Shared([]string{"bb", "itau"}, oct),
		Registry: testRegistry(t),
	})
	require.NoError(t, err)
	require.Len(t, out.Results, 2)
	for _, r := range out.Results {
		assert.Equal(t, 0.0, r.FinalIndex)
		assert.Equal(t, 0, r.TotalMentions)
	}
	assert.Equal(t, []string{"bb", "itau"}, resultIDs(out.Results))
}

func resultIDs(rs []types.EntityPeriodResult) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.EntityID
	}
	return out
}
