// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package score

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pdiddy/iedi-engine/pkg/types"
)

const eps = 1e-9

func TestCalculatePaywallRelevantOutlet(t *testing.T) {
	f := types.Features{
		Title:          true,
		Subtitle:       types.SubtitleNotAttempted,
		RelevantOutlet: true,
		ReachGroup:     types.ReachB,
	}
	got := Calculate("https://valor.globo.com/a", "bb", types.SentimentPositive, f)

	assert.Equal(t, 280, got.Numerator)
	assert.Equal(t, 334, got.Denominator)
	assert.InDelta(t, 280.0/334.0, got.Score, eps)
	assert.InDelta(t, 0.8383, got.Score, 1e-4)
	assert.InDelta(t, 9.19, got.NormalizedScore, 5e-3)
	assert.Equal(t, "https://valor.globo.com/a", got.MentionURL)
	assert.Equal(t, "bb", got.EntityID)
	assert.Equal(t, f, got.Features)
}

func TestCalculateNegativeReachOnly(t *testing.T) {
	f := types.Features{
		Subtitle:   types.SubtitleNotFound,
		ReachGroup: types.ReachD,
	}
	got := Calculate("u", "itau", types.SentimentNegative, f)

	assert.Equal(t, 20, got.Numerator)
	assert.Equal(t, 349, got.Denominator)
	assert.InDelta(t, -20.0/349.0, got.Score, eps)
	assert.InDelta(t, -0.0573, got.Score, 1e-4)
	assert.InDelta(t, 4.71, got.NormalizedScore, 5e-3)
}

func TestCalculateNeutral(t *testing.T) {
	feats := []types.Features{
		{},
		{Title: true, Subtitle: types.SubtitleFound, RelevantOutlet: true, ReachGroup: types.ReachA},
		{NicheOutlet: true, Subtitle: types.SubtitleNotFound, ReachGroup: types.ReachC},
	}
	for _, f := range feats {
		got := Calculate("u", "e", types.SentimentNeutral, f)
		assert.Equal(t, 0.0, got.Score)
		assert.Equal(t, 5.0, got.NormalizedScore)
	}
}

func TestCalculateRescale(t *testing.T) {
	sentiments := []types.Sentiment{types.SentimentPositive, types.SentimentNegative, types.SentimentNeutral}
	groups := []types.ReachGroup{types.ReachA, types.ReachB, types.ReachC, types.ReachD}
	checks := []types.SubtitleCheck{types.SubtitleNotAttempted, types.SubtitleFound, types.SubtitleNotFound}

	for _, s := range sentiments {
		for _, g := range groups {
			for _, c := range checks {
				for _, title := range []bool{false, true} {
					f := types.Features{Title: title, Subtitle: c, ReachGroup: g, NicheOutlet: g != types.ReachA}
					got := Calculate("u", "e", s, f)
					assert.GreaterOrEqual(t, got.Score, -1.0)
					assert.LessOrEqual(t, got.Score, 1.0)
					assert.InDelta(t, (got.Score+1)/2*10, got.NormalizedScore, eps)
					assert.Positive(t, got.Denominator)
					assert.LessOrEqual(t, got.Numerator, got.Denominator)
				}
			}
		}
	}
}

func TestDenominator(t *testing.T) {
	w := DefaultWeights

	tests := []struct {
		name string
		f    types.Features
		want int
	}{
		{"group A without subtitle", types.Features{ReachGroup: types.ReachA}, 100 + 91 + 95},
		{"group A with subtitle attempted", types.Features{ReachGroup: types.ReachA, Subtitle: types.SubtitleNotFound}, 100 + 91 + 95 + 80},
		{"group B includes niche", types.Features{ReachGroup: types.ReachB}, 100 + 85 + 95 + 54},
		{"group C subtitle found", types.Features{ReachGroup: types.ReachC, Subtitle: types.SubtitleFound}, 100 + 24 + 95 + 80 + 54},
		{"flags do not change denominator", types.Features{ReachGroup: types.ReachD, Title: true, RelevantOutlet: true}, 100 + 20 + 95 + 54},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, w.Denominator(tt.f))
		})
	}
}

func TestNumerator(t *testing.T) {
	w := DefaultWeights

	assert.Equal(t, 91, w.Numerator(types.Features{ReachGroup: types.ReachA}))
	assert.Equal(t, 85, w.Numerator(types.Features{ReachGroup: types.ReachB, Subtitle: types.SubtitleNotFound}))
	assert.Equal(t, 100+80+54+24, w.Numerator(types.Features{
		Title: true, Subtitle: types.SubtitleFound, NicheOutlet: true, ReachGroup: types.ReachC,
	}))
}

func TestReachWeight(t *testing.T) {
	w := DefaultWeights
	assert.Equal(t, 91, w.Reach(types.ReachA))
	assert.Equal(t, 85, w.Reach(types.ReachB))
	assert.Equal(t, 24, w.Reach(types.ReachC))
	assert.Equal(t, 20, w.Reach(types.ReachD))
	assert.Equal(t, 20, w.Reach(types.ReachGroup("")))
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, 0.0, Normalize(-1))
	assert.Equal(t, 5.0, Normalize(0))
	assert.Equal(t, 10.0, Normalize(1))
}
