// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package registry holds the reference data the scoring pipeline reads:
// tracked entities with their aliases, and media outlets with their
// editorial classification and audience size.
// Implements: docs/ARCHITECTURE § Reference Data.
//
// A Registry is immutable once built and safe for concurrent lookups.
package registry

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/iedi-engine/pkg/types"
)

// ErrUnknownEntity is returned by Resolve when no entity matches.
var ErrUnknownEntity = errors.New("unknown entity")

// Registry is an in-memory view of entity and outlet reference data.
type Registry struct {
	entities []types.Entity
	byID     map[string]int
	outlets  map[string]types.MediaOutlet
}

// File is the on-disk YAML layout of a reference data file.
type File struct {
	Entities []EntityRecord `yaml:"entities"`
	Outlets  []OutletRecord `yaml:"outlets"`
}

// EntityRecord is one entity in a reference file. Active defaults to true.
type EntityRecord struct {
	ID      string   `yaml:"id"`
	Name    string   `yaml:"name"`
	Aliases []string `yaml:"aliases,omitempty"`
	Active  *bool    `yaml:"active,omitempty"`
}

// OutletRecord is one media outlet in a reference file. Active defaults to true.
type OutletRecord struct {
	Domain          string `yaml:"domain"`
	Name            string `yaml:"name,omitempty"`
	Classification  string `yaml:"classification"`
	MonthlyVisitors int64  `yaml:"monthly_visitors"`
	Active          *bool  `yaml:"active,omitempty"`
}

// Load reads a YAML reference file and builds a Registry.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading registry %s: %w", path, err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing registry %s: %w", path, err)
	}
	return FromFile(f)
}

// FromFile converts a parsed reference file into a Registry.
func FromFile(f File) (*Registry, error) {
	entities := make([]types.Entity, 0, len(f.Entities))
	for _, r := range f.Entities {
		entities = append(entities, types.Entity{
			ID:            strings.TrimSpace(r.ID),
			CanonicalName: strings.TrimSpace(r.Name),
			Aliases:       r.Aliases,
			Active:        r.Active == nil || *r.Active,
		})
	}

	outlets := make([]types.MediaOutlet, 0, len(f.Outlets))
	for _, r := range f.Outlets {
		class, err := types.ParseOutletClass(r.Classification)
		if err != nil {
			return nil, fmt.Errorf("outlet %s: %w", r.Domain, err)
		}
		outlets = append(outlets, types.MediaOutlet{
			Domain:          r.Domain,
			Name:            r.Name,
			Classification:  class,
			MonthlyVisitors: r.MonthlyVisitors,
			Active:          r.Active == nil || *r.Active,
		})
	}
	return New(entities, outlets)
}

// New builds a Registry from values. Entity IDs must be unique and names
// non-empty; outlet domains must be unique after normalization.
func New(entities []types.Entity, outlets []types.MediaOutlet) (*Registry, error) {
	r := &Registry{
		entities: make([]types.Entity, 0, len(entities)),
		byID:     make(map[string]int, len(entities)),
		outlets:  make(map[string]types.MediaOutlet, len(outlets)),
	}

	for _, e := range entities {
		if e.ID == "" {
			return nil, fmt.Errorf("entity %q has no id", e.CanonicalName)
		}
		if strings.TrimSpace(e.CanonicalName) == "" {
			return nil, fmt.Errorf("entity %s has no name", e.ID)
		}
		if _, dup := r.byID[e.ID]; dup {
			return nil, fmt.Errorf("duplicate entity id %s", e.ID)
		}
		r.byID[e.ID] = len(r.entities)
		r.entities = append(r.entities, e)
	}

	for _, o := range outlets {
		domain := NormalizeDomain(o.Domain)
		if domain == "" {
			return nil, fmt.Errorf("outlet %q has no domain", o.Name)
		}
		if o.MonthlyVisitors < 0 {
			return nil, fmt.Errorf("outlet %s has negative monthly visitors", domain)
		}
		if _, dup := r.outlets[domain]; dup {
			return nil, fmt.Errorf("duplicate outlet domain %s", domain)
		}
		o.Domain = domain
		r.outlets[domain] = o
	}

	return r, nil
}

// Entities returns all entities in registration order.
func (r *Registry) Entities() []types.Entity {
	out := make([]types.Entity, len(r.entities))
	copy(out, r.entities)
	return out
}

// ActiveEntities returns the entities that take part in detection.
func (r *Registry) ActiveEntities() []types.Entity {
	var out []types.Entity
	for _, e := range r.entities {
		if e.Active {
			out = append(out, e)
		}
	}
	return out
}

// Entity returns the entity with the given ID.
func (r *Registry) Entity(id string) (types.Entity, bool) {
	i, ok := r.byID[id]
	if !ok {
		return types.Entity{}, false
	}
	return r.entities[i], true
}

// Resolve finds an entity by ID, canonical name, or alias. Name and alias
// comparison is case-insensitive.
func (r *Registry) Resolve(key string) (types.Entity, error) {
	key = strings.TrimSpace(key)
	if e, ok := r.Entity(key); ok {
		return e, nil
	}
	for _, e := range r.entities {
		for _, n := range e.Names() {
			if strings.EqualFold(n, key) {
				return e, nil
			}
		}
	}
	return types.Entity{}, fmt.Errorf("%w: %q", ErrUnknownEntity, key)
}

// Outlets returns the number of registered outlets.
func (r *Registry) Outlets() int {
	return len(r.outlets)
}

// LookupOutlet finds the active outlet serving domain. An exact match wins;
// otherwise the longest registered domain that is a dot-suffix of domain is
// used, so "economia.valor.globo.com" resolves to "valor.globo.com".
func (r *Registry) LookupOutlet(domain string) (types.MediaOutlet, bool) {
	d := NormalizeDomain(domain)
	if d == "" {
		return types.MediaOutlet{}, false
	}
	for {
		if o, ok := r.outlets[d]; ok && o.Active {
			return o, true
		}
		i := strings.IndexByte(d, '.')
		if i < 0 {
			return types.MediaOutlet{}, false
		}
		d = d[i+1:]
		// Stop before bare TLDs such as "com".
		if !strings.Contains(d, ".") {
			return types.MediaOutlet{}, false
		}
	}
}

// NormalizeDomain lowercases a host, strips any scheme, port, path and a
// leading "www.". It accepts bare hosts and full URLs.
func NormalizeDomain(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}
	if strings.Contains(s, "://") {
		if u, err := url.Parse(s); err == nil {
			s = u.Host
		}
	}
	if i := strings.IndexAny(s, "/?#"); i >= 0 {
		s = s[:i]
	}
	if i := strings.LastIndexByte(s, ':'); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimSuffix(s, ".")
	return strings.TrimPrefix(s, "www.")
}
