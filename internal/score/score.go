// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package score computes the IEDI of a single (mention, entity) pair from
// its verification features and sentiment.
// Implements: docs/ARCHITECTURE § Scoring.
//
// The numerator sums the weights of the checks that passed plus the reach
// weight. The denominator is the best score the mention could have reached:
// title, reach and relevant outlet always count, subtitle counts only when the
// check was attempted, and niche outlet counts for every reach group except A.
package score

import (
	"github.com/pdiddy/iedi-engine/pkg/types"
)

// Weights holds the per-feature weights of the index.
type Weights struct {
	Title          int
	Subtitle       int
	RelevantOutlet int
	NicheOutlet    int
	ReachA         int
	ReachB         int
	ReachC         int
	ReachD         int
}

// DefaultWeights are the production weights.
var DefaultWeights = Weights{
	Title:          100,
	Subtitle:       80,
	RelevantOutlet: 95,
	NicheOutlet:    54,
	ReachA:         91,
	ReachB:         85,
	ReachC:         24,
	ReachD:         20,
}

// Reach returns the weight of group g. An unknown group weighs as D.
func (w Weights) Reach(g types.ReachGroup) int {
	switch g {
	case types.ReachA:
		return w.ReachA
	case types.ReachB:
		return w.ReachB
	case types.ReachC:
		return w.ReachC
	case types.ReachD:
		return w.ReachD
	default:
		return w.ReachD
	}
}

// Numerator sums the weights earned by f.
func (w Weights) Numerator(f types.Features) int {
	n := w.Reach(f.ReachGroup)
	if f.Title {
		n += w.Title
	}
	if f.Subtitle == types.SubtitleFound {
		n += w.Subtitle
	}
	if f.RelevantOutlet {
		n += w.RelevantOutlet
	}
	if f.NicheOutlet {
		n += w.NicheOutlet
	}
	return n
}

// Denominator is the achievable maximum for a mention with features f.
func (w Weights) Denominator(f types.Features) int {
	d := w.Title + w.Reach(f.ReachGroup) + w.RelevantOutlet
	if f.Subtitle.Attempted() {
		d += w.Subtitle
	}
	if f.ReachGroup != types.ReachA {
		d += w.NicheOutlet
	}
	return d
}

// Calculate scores one pair with DefaultWeights.
func Calculate(mentionURL, entityID string, sentiment types.Sentiment, f types.Features) types.MentionScore {
	return DefaultWeights.Calculate(mentionURL, entityID, sentiment, f)
}

// Calculate scores one pair. A neutral mention scores 0 (normalized 5)
// whatever its features.
func (w Weights) Calculate(mentionURL, entityID string, sentiment types.Sentiment, f types.Features) types.MentionScore {
	num := w.Numerator(f)
	den := w.Denominator(f)

	var s float64
	if sign := sentiment.Sign(); sign != 0 && den > 0 {
		s = float64(num) / float64(den) * float64(sign)
	}

	return types.MentionScore{
		MentionURL:      mentionURL,
		EntityID:        entityID,
		Sentiment:       sentiment,
		Features:        f,
		Numerator:       num,
		Denominator:     den,
		Score:           s,
		NormalizedScore: Normalize(s),
	}
}

// Normalize rescales a score in [-1, 1] to [0, 10].
func Normalize(s float64) float64 {
	return (s + 1) / 2 * 10
}
