// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline runs one scoring pass: it detects entities in validated
// mentions, scores every (mention, entity) pair that falls inside the
// entity's window, then aggregates and ranks the planned entities.
// Implements: docs/ARCHITECTURE § Pipeline.
//
// Pair scoring runs concurrently; aggregation waits for every pair.
package pipeline

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/iedi-engine/internal/classify"
	"github.com/pdiddy/iedi-engine/internal/logger"
	"github.com/pdiddy/iedi-engine/internal/period"
	"github.com/pdiddy/iedi-engine/internal/rank"
	"github.com/pdiddy/iedi-engine/internal/registry"
	"github.com/pdiddy/iedi-engine/internal/score"
	"github.com/pdiddy/iedi-engine/pkg/types"
)

// Input is everything one run needs. Registry resolves the planned entity
// IDs and classifies outlets.
type Input struct {
	Mentions []types.Mention
	Plan     period.Plan
	Registry *registry.Registry

	// Workers bounds concurrent scoring. Zero uses GOMAXPROCS.
	Workers int

	// Logger may be nil.
	Logger *logger.Logger
}

// Stats counts what the run saw.
type Stats struct {
	Mentions        int `json:"mentions" yaml:"mentions"`
	MatchedMentions int `json:"matched_mentions" yaml:"matched_mentions"`
	Unmatched       int `json:"unmatched" yaml:"unmatched"`
	OutOfWindow     int `json:"out_of_window" yaml:"out_of_window"`
	Pairs           int `json:"pairs" yaml:"pairs"`
}

// Output is the result of a run. Results are ranked; Scores are in mention
// order, then plan order within a mention.
type Output struct {
	Results []types.EntityPeriodResult
	Scores  []types.MentionScore
	Stats   Stats
}

type pair struct {
	mention *types.Mention
	entity  types.Entity
}

// Run scores in.Mentions against in.Plan. The plan is not validated here;
// callers validate it against the clock first. A cancelled context returns
// ctx.Err() and no output.
func Run(ctx context.Context, in Input) (Output, error) {
	log := logger.OrNop(in.Logger)

	if in.Registry == nil {
		return Output{}, fmt.Errorf("running pipeline: no registry")
	}
	entities, err := plannedEntities(in.Plan, in.Registry)
	if err != nil {
		return Output{}, err
	}

	workers := in.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	log.Info("scoring started",
		"mentions", len(in.Mentions),
		"entities", len(entities),
		"custom_periods", in.Plan.Custom(),
		"workers", workers,
	)

	c := classify.New(entities, in.Registry)
	stats := Stats{Mentions: len(in.Mentions)}

	// Detection runs once per mention.
	detected := make([][]types.Entity, len(in.Mentions))
	err = fanOut(ctx, len(in.Mentions), workers, func(i int) {
		detected[i] = c.Detect(in.Mentions[i])
	})
	if err != nil {
		return Output{}, err
	}

	var pairs []pair
	for i := range in.Mentions {
		m := &in.Mentions[i]
		if len(detected[i]) == 0 {
			stats.Unmatched++
			log.Debug("no entity detected", "url", m.URL)
			continue
		}
		stats.MatchedMentions++
		for _, e := range detected[i] {
			w, _ := in.Plan.WindowFor(e.ID)
			if !w.Contains(m.PublishedAt) {
				stats.OutOfWindow++
				log.Debug("mention outside entity window", "url", m.URL, "entity", e.ID, "published_at", m.PublishedAt)
				continue
			}
			pairs = append(pairs, pair{mention: m, entity: e})
		}
	}
	stats.Pairs = len(pairs)

	scores := make([]types.MentionScore, len(pairs))
	err = fanOut(ctx, len(pairs), workers, func(i int) {
		p := pairs[i]
		f := c.Features(*p.mention, p.entity)
		scores[i] = score.Calculate(p.mention.URL, p.entity.ID, p.mention.Sentiment, f)
	})
	if err != nil {
		return Output{}, err
	}

	// Barrier: every pair is scored before any entity is aggregated.
	byEntity := make(map[string][]types.MentionScore, len(entities))
	for _, s := range scores {
		byEntity[s.EntityID] = append(byEntity[s.EntityID], s)
	}
	results := make([]types.EntityPeriodResult, len(entities))
	for i, e := range entities {
		w, _ := in.Plan.WindowFor(e.ID)
		results[i] = rank.Aggregate(e, w, byEntity[e.ID])
	}
	results = rank.Rank(results)

	log.Info("scoring finished",
		"matched_mentions", stats.MatchedMentions,
		"unmatched", stats.Unmatched,
		"out_of_window", stats.OutOfWindow,
		"pairs", stats.Pairs,
	)
	return Output{Results: results, Scores: scores, Stats: stats}, nil
}

// plannedEntities resolves the plan's entity IDs in plan order.
func plannedEntities(p period.Plan, r *registry.Registry) ([]types.Entity, error) {
	ids := p.EntityIDs()
	entities := make([]types.Entity, 0, len(ids))
	for _, id := range ids {
		e, ok := r.Entity(id)
		if !ok {
			return nil, fmt.Errorf("resolving planned entity %s: %w", id, registry.ErrUnknownEntity)
		}
		entities = append(entities, e)
	}
	return entities, nil
}

// fanOut calls fn for 0..n-1 on at most workers goroutines. fn writes into
// its own slot, so no locking is needed. The context is checked before each
// dispatch.
func fanOut(ctx context.Context, n, workers int, fn func(i int)) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < n; i++ {
		i := i // per-iteration copy (go.mod targets Go 1.21 loop semantics)
		if err := gctx.Err(); err != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			fn(i)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
