// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the IEDI scoring pipeline:
// reference data (Entity, MediaOutlet), mentions as received and as validated
// (RawMention, Mention), per-mention scores (Features, MentionScore) and
// per-entity results (EntityPeriodResult, Analysis).
package types

import (
	"fmt"
	"strings"
	"time"
)

// Sentiment is the tone of a mention as supplied by the mention source.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
)

// ParseSentiment converts a source string to a Sentiment. Matching is
// case-insensitive. Unknown or empty values are an error; callers at the
// input boundary map that error to SentimentNeutral.
func ParseSentiment(s string) (Sentiment, error) {
	switch Sentiment(strings.ToLower(strings.TrimSpace(s))) {
	case SentimentPositive:
		return SentimentPositive, nil
	case SentimentNegative:
		return SentimentNegative, nil
	case SentimentNeutral:
		return SentimentNeutral, nil
	default:
		return SentimentNeutral, fmt.Errorf("unknown sentiment %q", s)
	}
}

// Sign returns +1 for positive, -1 for negative and 0 for neutral.
func (s Sentiment) Sign() int {
	switch s {
	case SentimentPositive:
		return 1
	case SentimentNegative:
		return -1
	case SentimentNeutral:
		return 0
	default:
		return 0
	}
}

// ReachGroup is the audience band of a mention, A being the largest.
type ReachGroup string

const (
	ReachA ReachGroup = "A"
	ReachB ReachGroup = "B"
	ReachC ReachGroup = "C"
	ReachD ReachGroup = "D"
)

// CategoryDetail is a taxonomy tag attached to a mention by the source.
type CategoryDetail struct {
	Name  string `json:"name" yaml:"name"`
	Group string `json:"group,omitempty" yaml:"group,omitempty"`
}

// RawMention is a mention exactly as a source delivered it. Pointer fields
// distinguish an absent value from an empty one; classify.Normalize turns a
// RawMention into a Mention and is the only place defaults are applied.
type RawMention struct {
	URL               string           `json:"url,omitempty" yaml:"url,omitempty"`
	OriginalURL       string           `json:"originalUrl,omitempty" yaml:"originalUrl,omitempty"`
	Title             string           `json:"title,omitempty" yaml:"title,omitempty"`
	Snippet           string           `json:"snippet,omitempty" yaml:"snippet,omitempty"`
	FullText          *string          `json:"fullText,omitempty" yaml:"fullText,omitempty"`
	Domain            string           `json:"domain,omitempty" yaml:"domain,omitempty"`
	Sentiment         *string          `json:"sentiment,omitempty" yaml:"sentiment,omitempty"`
	MonthlyVisitors   *int64           `json:"monthlyVisitors,omitempty" yaml:"monthlyVisitors,omitempty"`
	Date              string           `json:"date,omitempty" yaml:"date,omitempty"`
	ContentSourceName string           `json:"contentSourceName,omitempty" yaml:"contentSourceName,omitempty"`
	CategoryDetails   []CategoryDetail `json:"categoryDetails,omitempty" yaml:"categoryDetails,omitempty"`
}

// Mention is a validated news mention. Its identity is the canonical URL,
// which is stable across extraction re-runs.
type Mention struct {
	URL             string    `json:"url" yaml:"url"`
	Title           string    `json:"title" yaml:"title"`
	Snippet         string    `json:"snippet" yaml:"snippet"`
	FullText        string    `json:"full_text" yaml:"full_text"`
	Domain          string    `json:"domain" yaml:"domain"`
	Sentiment       Sentiment `json:"sentiment" yaml:"sentiment"`
	MonthlyVisitors int64     `json:"monthly_visitors" yaml:"monthly_visitors"`
	PublishedAt     time.Time `json:"published_at" yaml:"published_at"`

	// AudienceUnknown is set when the source reported no monthly visitors.
	// The reach group then comes from the registered outlet's audience.
	AudienceUnknown bool `json:"audience_unknown,omitempty" yaml:"audience_unknown,omitempty"`

	// Categories holds taxonomy tags naming the entities the source
	// attributed the mention to. When non-empty it is authoritative.
	Categories []string `json:"categories,omitempty" yaml:"categories,omitempty"`
}

// SubtitleCheck records whether the first paragraph was verified. A check
// that was never attempted is distinct from one that found nothing.
type SubtitleCheck string

const (
	SubtitleNotAttempted SubtitleCheck = "not_attempted"
	SubtitleFound        SubtitleCheck = "found"
	SubtitleNotFound     SubtitleCheck = "not_found"
)

// Attempted reports whether subtitle verification ran.
func (c SubtitleCheck) Attempted() bool {
	switch c {
	case SubtitleFound, SubtitleNotFound:
		return true
	case SubtitleNotAttempted:
		return false
	default:
		return false
	}
}

// Features holds the verification flags for one (mention, entity) pair.
type Features struct {
	Title          bool          `json:"title" yaml:"title"`
	Subtitle       SubtitleCheck `json:"subtitle" yaml:"subtitle"`
	RelevantOutlet bool          `json:"relevant_outlet" yaml:"relevant_outlet"`
	NicheOutlet    bool          `json:"niche_outlet" yaml:"niche_outlet"`
	ReachGroup     ReachGroup    `json:"reach_group" yaml:"reach_group"`
}

// MentionScore is the IEDI of one mention for one entity. It is computed
// once per evaluation and replaced wholesale on re-run.
type MentionScore struct {
	MentionURL  string    `json:"mention_url" yaml:"mention_url"`
	EntityID    string    `json:"entity_id" yaml:"entity_id"`
	Sentiment   Sentiment `json:"sentiment" yaml:"sentiment"`
	Features    Features  `json:"features" yaml:"features"`
	Numerator   int       `json:"numerator" yaml:"numerator"`
	Denominator int       `json:"denominator" yaml:"denominator"`

	// Score is the signed index in [-1, 1].
	Score float64 `json:"score" yaml:"score"`

	// NormalizedScore is Score rescaled to [0, 10].
	NormalizedScore float64 `json:"normalized_score" yaml:"normalized_score"`
}
