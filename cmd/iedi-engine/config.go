// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/iedi-engine/internal/period"
	"github.com/pdiddy/iedi-engine/internal/registry"
	"github.com/pdiddy/iedi-engine/pkg/types"
)

// bindFlag ties a config key to a flag. Binding only fails for a nil flag,
// which is a programming error.
func bindFlag(key string, f *pflag.Flag) {
	if err := viper.BindPFlag(key, f); err != nil {
		panic(fmt.Sprintf("binding flag for %s: %v", key, err))
	}
}

func loadRegistry() (*registry.Registry, error) {
	reg, err := registry.Load(cfg.RegistryPath)
	if err != nil {
		return nil, err
	}
	log.Debug("registry loaded", "path", cfg.RegistryPath,
		"entities", len(reg.Entities()), "outlets", reg.Outlets())
	return reg, nil
}

// periodsFile is the on-disk form of an analysis plan: either a shared
// window over a list of entities or a list of per-entity windows.
type periodsFile struct {
	Entities []string       `yaml:"entities,omitempty"`
	Start    string         `yaml:"start,omitempty"`
	End      string         `yaml:"end,omitempty"`
	Custom   []customPeriod `yaml:"custom,omitempty"`
}

type customPeriod struct {
	Entity string `yaml:"entity"`
	Start  string `yaml:"start"`
	End    string `yaml:"end"`
}

// planFlags gathers the plan-related flags of a command.
type planFlags struct {
	periodsPath string
	entities    []string
	start       string
	end         string
}

// buildPlan turns flags or a periods file into a validated plan. Entity
// keys may be IDs, names or aliases. With no entities, every active entity
// of the registry is planned.
func buildPlan(pf planFlags, reg *registry.Registry, loc *time.Location, now time.Time) (period.Plan, error) {
	var req period.Request

	if pf.periodsPath != "" {
		data, err := os.ReadFile(pf.periodsPath)
		if err != nil {
			return period.Plan{}, fmt.Errorf("reading periods %s: %w", pf.periodsPath, err)
		}
		var f periodsFile
		if err := yaml.Unmarshal(data, &f); err != nil {
			return period.Plan{}, fmt.Errorf("parsing periods %s: %w", pf.periodsPath, err)
		}
		if len(f.Custom) > 0 {
			if len(f.Entities) > 0 || f.Start != "" || f.End != "" {
				return period.Plan{}, period.ErrAmbiguousRequest
			}
			for _, c := range f.Custom {
				id, err := resolveEntity(reg, c.Entity)
				if err != nil {
					return period.Plan{}, err
				}
				w, err := parseWindow(c.Start, c.End, loc)
				if err != nil {
					return period.Plan{}, fmt.Errorf("entity %s: %w", c.Entity, err)
				}
				req.Custom = append(req.Custom, types.EntityWindow{EntityID: id, Window: w})
			}
		} else {
			pf.entities = append(pf.entities, f.Entities...)
			pf.start = firstNonEmpty(pf.start, f.Start)
			pf.end = firstNonEmpty(pf.end, f.End)
		}
	}

	if len(req.Custom) == 0 {
		if pf.start == "" && pf.end == "" {
			return period.Plan{}, fmt.Errorf("%w: give --start and --end or a --periods file", period.ErrAmbiguousRequest)
		}
		w, err := parseWindow(pf.start, pf.end, loc)
		if err != nil {
			return period.Plan{}, err
		}
		ids, err := resolveEntities(reg, pf.entities)
		if err != nil {
			return period.Plan{}, err
		}
		req.EntityIDs = ids
		req.Window = &w
	}

	plan, err := period.FromRequest(req)
	if err != nil {
		return period.Plan{}, err
	}
	if err := plan.Validate(now); err != nil {
		return period.Plan{}, err
	}
	return plan, nil
}

func resolveEntities(reg *registry.Registry, keys []string) ([]string, error) {
	if len(keys) == 0 {
		var ids []string
		for _, e := range reg.ActiveEntities() {
			ids = append(ids, e.ID)
		}
		return ids, nil
	}
	ids := make([]string, 0, len(keys))
	for _, k := range keys {
		id, err := resolveEntity(reg, k)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func resolveEntity(reg *registry.Registry, key string) (string, error) {
	e, err := reg.Resolve(key)
	if err != nil {
		return "", err
	}
	return e.ID, nil
}

// parseWindow parses window bounds. A date-only end covers its whole day.
func parseWindow(start, end string, loc *time.Location) (types.Window, error) {
	s, err := period.ParseTime(start, loc)
	if err != nil {
		return types.Window{}, err
	}
	e, err := period.ParseTime(end, loc)
	if err != nil {
		return types.Window{}, err
	}
	if len(strings.TrimSpace(end)) == len("2006-01-02") {
		e = period.EndOfDay(e)
	}
	return types.Window{Start: s, End: e}, nil
}
