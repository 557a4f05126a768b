// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"strings"
)

// Entity is a tracked organization (a bank) whose press exposure is scored.
// Aliases are matched case-insensitively, in order, alongside CanonicalName.
type Entity struct {
	// ID is the stable registry key (e.g. "banco-do-brasil").
	ID string `json:"id" yaml:"id"`

	// CanonicalName is the display name and primary match term.
	CanonicalName string `json:"name" yaml:"name"`

	// Aliases are alternate names and abbreviations (e.g. "BB").
	Aliases []string `json:"aliases,omitempty" yaml:"aliases,omitempty"`

	// Active controls whether the entity takes part in detection.
	Active bool `json:"active" yaml:"active"`
}

// Names returns the canonical name followed by all non-empty aliases.
func (e Entity) Names() []string {
	names := make([]string, 0, len(e.Aliases)+1)
	if strings.TrimSpace(e.CanonicalName) != "" {
		names = append(names, e.CanonicalName)
	}
	for _, a := range e.Aliases {
		if strings.TrimSpace(a) != "" {
			names = append(names, a)
		}
	}
	return names
}

// OutletClass is the editorial tier of a media outlet. An outlet is at most
// one of relevant or niche.
type OutletClass string

const (
	OutletRelevant     OutletClass = "relevant"
	OutletNiche        OutletClass = "niche"
	OutletUnclassified OutletClass = "unclassified"
)

// ParseOutletClass converts a string to an OutletClass. The empty string maps
// to OutletUnclassified; any other unknown value is an error.
func ParseOutletClass(s string) (OutletClass, error) {
	switch OutletClass(strings.ToLower(strings.TrimSpace(s))) {
	case OutletRelevant:
		return OutletRelevant, nil
	case OutletNiche:
		return OutletNiche, nil
	case OutletUnclassified, "":
		return OutletUnclassified, nil
	default:
		return OutletUnclassified, fmt.Errorf("unknown outlet classification %q", s)
	}
}

// MediaOutlet is reference data for a news domain.
type MediaOutlet struct {
	// Domain is the normalized host (lowercase, no "www.").
	Domain string `json:"domain" yaml:"domain"`

	// Name is the outlet's display name.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// Classification is relevant, niche, or unclassified.
	Classification OutletClass `json:"classification" yaml:"classification"`

	// MonthlyVisitors is the outlet's audience size.
	MonthlyVisitors int64 `json:"monthly_visitors" yaml:"monthly_visitors"`

	// Active controls whether lookups can return the outlet.
	Active bool `json:"active" yaml:"active"`
}
