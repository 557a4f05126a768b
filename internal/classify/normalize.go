// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package classify

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pdiddy/iedi-engine/internal/registry"
	"github.com/pdiddy/iedi-engine/pkg/types"
)

// ErrMissingURL is returned by Normalize for a mention with no URL. The URL
// is the mention's identity, so such a record cannot be scored or stored.
var ErrMissingURL = errors.New("mention has no url")

// DefaultTaxonomyGroup is the category group whose tags name entities.
const DefaultTaxonomyGroup = "Bancos"

// DefaultAllowedSources are the content sources kept by NormalizeBatch.
var DefaultAllowedSources = []string{"News", "Online News"}

// NormalizeOptions controls how raw mentions are validated.
type NormalizeOptions struct {
	// TaxonomyGroup selects category details that count as entity tags.
	// Empty means every category name counts.
	TaxonomyGroup string

	// AllowedSources lists accepted contentSourceName values. Nil means
	// DefaultAllowedSources; an empty non-nil slice accepts everything.
	AllowedSources []string

	// Location is used for dates that carry no offset. Nil means UTC.
	Location *time.Location
}

// OptionsFromConfig builds NormalizeOptions from ingest settings.
func OptionsFromConfig(cfg types.IngestConfig) NormalizeOptions {
	opts := NormalizeOptions{
		TaxonomyGroup:  cfg.TaxonomyGroup,
		AllowedSources: cfg.AllowedSources,
		Location:       time.UTC,
	}
	if cfg.Timezone != "" {
		if loc, err := time.LoadLocation(cfg.Timezone); err == nil {
			opts.Location = loc
		}
	}
	return opts
}

// Normalize validates a raw mention and applies the documented defaults:
// a missing full text equals the snippet, missing monthly visitors are 0
// and flagged as unknown,
// a missing or unknown sentiment is neutral, and the domain is normalized.
// This is the only place those defaults are applied.
func Normalize(raw types.RawMention, opts NormalizeOptions) (types.Mention, error) {
	u := strings.TrimSpace(raw.URL)
	if u == "" {
		u = strings.TrimSpace(raw.OriginalURL)
	}
	if u == "" {
		return types.Mention{}, ErrMissingURL
	}

	m := types.Mention{
		URL:       u,
		Title:     raw.Title,
		Snippet:   raw.Snippet,
		FullText:  raw.Snippet,
		Domain:    registry.NormalizeDomain(raw.Domain),
		Sentiment: types.SentimentNeutral,
	}
	if raw.FullText != nil {
		m.FullText = *raw.FullText
	}
	if raw.Sentiment != nil {
		if s, err := types.ParseSentiment(*raw.Sentiment); err == nil {
			m.Sentiment = s
		}
	}
	switch {
	case raw.MonthlyVisitors == nil:
		m.AudienceUnknown = true
	case *raw.MonthlyVisitors > 0:
		m.MonthlyVisitors = *raw.MonthlyVisitors
	}
	m.PublishedAt = parseDate(raw.Date, opts.Location)

	for _, c := range raw.CategoryDetails {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			continue
		}
		if opts.TaxonomyGroup != "" && !strings.EqualFold(c.Group, opts.TaxonomyGroup) {
			continue
		}
		m.Categories = append(m.Categories, name)
	}
	return m, nil
}

// BatchStats counts what NormalizeBatch kept and dropped.
type BatchStats struct {
	Received   int `json:"received" yaml:"received"`
	Kept       int `json:"kept" yaml:"kept"`
	Filtered   int `json:"filtered" yaml:"filtered"`
	Duplicates int `json:"duplicates" yaml:"duplicates"`
	Invalid    int `json:"invalid" yaml:"invalid"`
}

// NormalizeBatch normalizes raws in order. It drops mentions from content
// sources outside opts.AllowedSources, mentions without a URL, and repeated
// URLs (the first occurrence wins).
func NormalizeBatch(raws []types.RawMention, opts NormalizeOptions) ([]types.Mention, BatchStats) {
	allowed := opts.AllowedSources
	if allowed == nil {
		allowed = DefaultAllowedSources
	}

	stats := BatchStats{Received: len(raws)}
	seen := make(map[string]bool, len(raws))
	out := make([]types.Mention, 0, len(raws))

	for _, raw := range raws {
		if raw.ContentSourceName != "" && len(allowed) > 0 && !containsFold(allowed, raw.ContentSourceName) {
			stats.Filtered++
			continue
		}
		m, err := Normalize(raw, opts)
		if err != nil {
			stats.Invalid++
			continue
		}
		if seen[m.URL] {
			stats.Duplicates++
			continue
		}
		seen[m.URL] = true
		out = append(out, m)
	}
	stats.Kept = len(out)
	return out, stats
}

// String summarizes the counts on one line.
func (s BatchStats) String() string {
	return fmt.Sprintf("received %d, kept %d, filtered %d, duplicates %d, invalid %d",
		s.Received, s.Kept, s.Filtered, s.Duplicates, s.Invalid)
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000-0700",
	"2006-01-02T15:04:05-0700",
}

var localLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseDate accepts the date formats mention sources emit. Unparsable
// values yield the zero time.
func parseDate(s string, loc *time.Location) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t
		}
	}
	return time.Time{}
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
