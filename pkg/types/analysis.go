// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"strings"
	"time"
)

// Window is an analysis time range. Both ends are inclusive.
type Window struct {
	Start time.Time `json:"start" yaml:"start"`
	End   time.Time `json:"end" yaml:"end"`
}

// Contains reports whether t falls inside the window. A zero t is treated as
// contained: undated mentions were already bounded by the source query.
func (w Window) Contains(t time.Time) bool {
	if t.IsZero() {
		return true
	}
	return !t.Before(w.Start) && !t.After(w.End)
}

// String formats the window as "start .. end" in RFC3339.
func (w Window) String() string {
	return w.Start.Format(time.RFC3339) + " .. " + w.End.Format(time.RFC3339)
}

// EntityWindow binds an entity to the window it is analyzed over.
type EntityWindow struct {
	EntityID string `json:"entity_id" yaml:"entity_id"`
	Window   Window `json:"window" yaml:"window"`
}

// EntityPeriodResult is the rollup of all MentionScores of one entity in one
// window. It is recomputed wholesale, never patched.
type EntityPeriodResult struct {
	EntityID   string `json:"entity_id" yaml:"entity_id"`
	EntityName string `json:"entity_name" yaml:"entity_name"`
	Window     Window `json:"window" yaml:"window"`

	TotalMentions int `json:"total_mentions" yaml:"total_mentions"`
	PositiveCount int `json:"positive_count" yaml:"positive_count"`
	NegativeCount int `json:"negative_count" yaml:"negative_count"`
	NeutralCount  int `json:"neutral_count" yaml:"neutral_count"`

	// PositivityRate and NegativityRate are percentages of TotalMentions.
	PositivityRate float64 `json:"positivity_rate" yaml:"positivity_rate"`
	NegativityRate float64 `json:"negativity_rate" yaml:"negativity_rate"`

	// AverageIndex is the mean NormalizedScore.
	AverageIndex float64 `json:"average_index" yaml:"average_index"`

	// FinalIndex is AverageIndex balanced by the share of positive mentions.
	FinalIndex float64 `json:"final_index" yaml:"final_index"`

	RankPosition int `json:"rank_position" yaml:"rank_position"`
}

// AnalysisStatus tracks an analysis through its run.
type AnalysisStatus string

const (
	StatusPending AnalysisStatus = "pending"
	StatusRunning AnalysisStatus = "running"
	StatusDone    AnalysisStatus = "done"
	StatusFailed  AnalysisStatus = "failed"
)

// ParseAnalysisStatus converts a stored string to an AnalysisStatus.
func ParseAnalysisStatus(s string) (AnalysisStatus, error) {
	switch AnalysisStatus(strings.ToLower(s)) {
	case StatusPending:
		return StatusPending, nil
	case StatusRunning:
		return StatusRunning, nil
	case StatusDone:
		return StatusDone, nil
	case StatusFailed:
		return StatusFailed, nil
	default:
		return StatusPending, fmt.Errorf("unknown analysis status %q", s)
	}
}

// Analysis is one scoring run over a set of entity windows.
type Analysis struct {
	ID            string         `json:"id" yaml:"id"`
	Name          string         `json:"name" yaml:"name"`
	Query         string         `json:"query,omitempty" yaml:"query,omitempty"`
	CustomPeriods bool           `json:"custom_periods" yaml:"custom_periods"`
	Status        AnalysisStatus `json:"status" yaml:"status"`
	CreatedAt     time.Time      `json:"created_at" yaml:"created_at"`
	Windows       []EntityWindow `json:"windows,omitempty" yaml:"windows,omitempty"`
}
