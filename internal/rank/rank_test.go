// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package rank

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/iedi-engine/pkg/types"
)

var (
	itau   = types.Entity{ID: "itau", CanonicalName: "Itaú", Active: true}
	window = types.Window{
		Start: time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 10, 31, 23, 59, 59, 0, time.UTC),
	}
)

func ms(sent types.Sentiment, normalized float64) types.MentionScore {
	return types.MentionScore{EntityID: "itau", Sentiment: sent, NormalizedScore: normalized}
}

func TestAggregate(t *testing.T) {
	got := Aggregate(itau, window, []types.MentionScore{
		ms(types.SentimentPositive, 8.0),
		ms(types.SentimentNeutral, 0.0),
	})

	assert.Equal(t, "itau", got.EntityID)
	assert.Equal(t, "Itaú", got.EntityName)
	assert.Equal(t, window, got.Window)
	assert.Equal(t, 2, got.TotalMentions)
	assert.Equal(t, 1, got.PositiveCount)
	assert.Equal(t, 0, got.NegativeCount)
	assert.Equal(t, 1, got.NeutralCount)
	assert.InDelta(t, 4.0, got.AverageIndex, 1e-9)
	assert.InDelta(t, 2.0, got.FinalIndex, 1e-9)
	assert.InDelta(t, 50.0, got.PositivityRate, 1e-9)
	assert.InDelta(t, 0.0, got.NegativityRate, 1e-9)
}

func TestAggregateEmpty(t *testing.T) {
	got := Aggregate(itau, window, nil)
	assert.Equal(t, 0, got.TotalMentions)
	assert.Equal(t, 0.0, got.AverageIndex)
	assert.Equal(t, 0.0, got.FinalIndex)
	assert.Equal(t, 0.0, got.PositivityRate)
}

func TestAggregateNoPositives(t *testing.T) {
	got := Aggregate(itau, window, []types.MentionScore{
		ms(types.SentimentNegative, 3.0),
		ms(types.SentimentNeutral, 5.0),
	})
	assert.InDelta(t, 4.0, got.AverageIndex, 1e-9)
	assert.Equal(t, 0.0, got.FinalIndex)
	assert.InDelta(t, 50.0, got.NegativityRate, 1e-9)
}

func TestAggregateMonotonic(t *testing.T) {
	base := []types.MentionScore{
		ms(types.SentimentPositive, 7.0),
		ms(types.SentimentNegative, 3.0),
		ms(types.SentimentNeutral, 5.0),
	}
	before := Aggregate(itau, window, base)

	// Raising one normalized score with counts fixed cannot lower the index.
	raised := append([]types.MentionScore(nil), base...)
	raised[1].NormalizedScore = 4.5
	after := Aggregate(itau, window, raised)
	assert.GreaterOrEqual(t, after.FinalIndex, before.FinalIndex)

	// Turning a neutral mention positive with the same score raises it.
	flipped := append([]types.MentionScore(nil), base...)
	flipped[2].Sentiment = types.SentimentPositive
	assert.Greater(t, Aggregate(itau, window, flipped).FinalIndex, before.FinalIndex)
}

func TestRank(t *testing.T) {
	in := []types.EntityPeriodResult{
		{EntityID: "a", FinalIndex: 1.5},
		{EntityID: "b", FinalIndex: 6.2},
		{EntityID: "c", FinalIndex: 0},
		{EntityID: "d", FinalIndex: 3.1},
	}
	got := Rank(in)

	require.Len(t, got, 4)
	assert.Equal(t, []string{"b", "d", "a", "c"}, entityIDs(got))
	for i, r := range got {
		assert.Equal(t, i+1, r.RankPosition)
	}
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].FinalIndex, got[i].FinalIndex)
	}
	assert.Equal(t, 0, in[0].RankPosition, "input is not modified")
}

func TestRankTiesKeepInputOrder(t *testing.T) {
	got := Rank([]types.EntityPeriodResult{
		{EntityID: "x", FinalIndex: 2},
		{EntityID: "y", FinalIndex: 5},
		{EntityID: "z", FinalIndex: 2},
		{EntityID: "w", FinalIndex: 2},
	})
	assert.Equal(t, []string{"y", "x", "z", "w"}, entityIDs(got))
	assert.Equal(t, []int{1, 2, 3, 4}, positions(got))
}

func TestRankEmpty(t *testing.T) {
	assert.Empty(t, Rank(nil))
}

func TestFormatTable(t *testing.T) {
	results := Rank([]types.EntityPeriodResult{
		Aggregate(itau, window, []types.MentionScore{ms(types.SentimentPositive, 8.0), ms(types.SentimentNeutral, 0.0)}),
		{EntityID: "bb", Window: window},
	})

	var buf bytes.Buffer
	require.NoError(t, FormatTable(&buf, results))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "RANK"))
	assert.Contains(t, lines[1], "Itaú")
	assert.Contains(t, lines[1], "2.00")
	assert.Contains(t, lines[1], "2024-10-01 .. 2024-10-31")
	assert.Contains(t, lines[2], "bb", "falls back to the entity id")
}

func entityIDs(rs []types.EntityPeriodResult) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.EntityID
	}
	return out
}

func positions(rs []types.EntityPeriodResult) []int {
	out := make([]int, len(rs))
	for i, r := range rs {
		out[i] = r.RankPosition
	}
	return out
}
