// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package classify decides which entities a mention concerns and extracts
// the verification features the index calculator weighs: title and first
// paragraph hits, outlet tier and reach group.
// Implements: docs/ARCHITECTURE § Classification.
//
// Raw source records enter through Normalize, which applies every input
// default exactly once; everything downstream works on types.Mention.
package classify

import (
	"strings"
	"unicode/utf8"

	"github.com/pdiddy/iedi-engine/pkg/types"
)

// Reach group thresholds on monthly visitors.
const (
	reachAFloor = 29_000_000 // A: strictly above
	reachBFloor = 11_000_000 // B: strictly above
	reachCFloor = 500_000    // C: at or above
)

// firstParagraphLimit is the fallback length, in characters, of the first
// paragraph when the text has no blank-line break.
const firstParagraphLimit = 300

// OutletLookup resolves a mention domain to registered outlet data.
// *registry.Registry satisfies it.
type OutletLookup interface {
	LookupOutlet(domain string) (types.MediaOutlet, bool)
}

// Classifier detects entities in mentions and computes their features.
// Matchers are compiled once in New; a Classifier is safe for concurrent use.
type Classifier struct {
	entities []types.Entity
	matchers map[string]*matcher
	outlets  OutletLookup
}

// New builds a Classifier over the given entities. outlets may be nil, in
// which case every domain is unclassified.
func New(entities []types.Entity, outlets OutletLookup) *Classifier {
	c := &Classifier{
		entities: entities,
		matchers: make(map[string]*matcher, len(entities)),
		outlets:  outlets,
	}
	for _, e := range entities {
		c.matchers[e.ID] = newMatcher(e)
	}
	return c
}

// Detect returns the entities m concerns, in classifier order. Taxonomy tags
// on the mention are authoritative: when present, only exact tag matches
// count and the text search does not run. Otherwise the title and snippet
// are searched for each entity's names.
func (c *Classifier) Detect(m types.Mention) []types.Entity {
	var found []types.Entity
	if len(m.Categories) > 0 {
		for _, e := range c.entities {
			for _, tag := range m.Categories {
				if matchesTag(tag, e) {
					found = append(found, e)
					break
				}
			}
		}
		return found
	}

	text := m.Title + " " + m.Snippet
	for _, e := range c.entities {
		if c.matcher(e).In(text) {
			found = append(found, e)
		}
	}
	return found
}

// Features computes the verification flags of m for entity e. The reach
// group uses the mention's audience; when the source did not report one,
// the registered outlet's audience is used, and group D when the outlet is
// unknown too.
func (c *Classifier) Features(m types.Mention, e types.Entity) types.Features {
	mt := c.matcher(e)

	f := types.Features{
		Title:    mt.In(m.Title),
		Subtitle: types.SubtitleNotAttempted,
	}

	// Snippet == full text means only a teaser is available (paywall).
	if m.Snippet != m.FullText {
		if mt.In(FirstParagraph(m.FullText)) {
			f.Subtitle = types.SubtitleFound
		} else {
			f.Subtitle = types.SubtitleNotFound
		}
	}

	visitors := m.MonthlyVisitors
	if c.outlets != nil && m.Domain != "" {
		if o, ok := c.outlets.LookupOutlet(m.Domain); ok {
			switch o.Classification {
			case types.OutletRelevant:
				f.RelevantOutlet = true
			case types.OutletNiche:
				f.NicheOutlet = true
			case types.OutletUnclassified:
			}
			if m.AudienceUnknown {
				visitors = o.MonthlyVisitors
			}
		}
	}
	f.ReachGroup = ReachGroupFor(visitors)
	return f
}

func (c *Classifier) matcher(e types.Entity) *matcher {
	if mt, ok := c.matchers[e.ID]; ok {
		return mt
	}
	return newMatcher(e)
}

// ReachGroupFor bands monthly visitors into reach groups A-D. Predicates
// are tested A, B, C, D and the first match wins.
func ReachGroupFor(monthlyVisitors int64) types.ReachGroup {
	switch {
	case monthlyVisitors > reachAFloor:
		return types.ReachA
	case monthlyVisitors > reachBFloor:
		return types.ReachB
	case monthlyVisitors >= reachCFloor:
		return types.ReachC
	default:
		return types.ReachD
	}
}

// FirstParagraph returns the text before the first blank-line break, or the
// first 300 characters when there is no such break or it leads with
// whitespace only. The result is trimmed.
func FirstParagraph(fullText string) string {
	if fullText == "" {
		return ""
	}
	if head, _, found := strings.Cut(fullText, "\n\n"); found {
		if p := strings.TrimSpace(head); p != "" {
			return p
		}
	}
	if utf8.RuneCountInString(fullText) <= firstParagraphLimit {
		return strings.TrimSpace(fullText)
	}
	return strings.TrimSpace(string([]rune(fullText)[:firstParagraphLimit]))
}
