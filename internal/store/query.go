// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pdiddy/iedi-engine/pkg/types"
)

// AnalysisSummary is one row of ListAnalyses.
type AnalysisSummary struct {
	types.Analysis `yaml:",inline"`

	// Error is the failure reason of a failed analysis.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Analysis returns the analysis with its windows in plan order.
func (s *Store) Analysis(ctx context.Context, id string) (AnalysisSummary, error) {
	var (
		a       AnalysisSummary
		query   sql.NullString
		errMsg  sql.NullString
		custom  int
		status  string
		created string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, query, custom_periods, status, error, created_at FROM analyses WHERE id = ?`, id,
	).Scan(&a.ID, &a.Name, &query, &custom, &status, &errMsg, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return AnalysisSummary{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return AnalysisSummary{}, fmt.Errorf("querying analysis %s: %w", id, err)
	}
	a.Query = query.String
	a.Error = errMsg.String
	a.CustomPeriods = custom != 0
	a.Status, _ = types.ParseAnalysisStatus(status)
	a.CreatedAt = parseTime(created)

	rows, err := s.db.QueryContext(ctx,
		`SELECT entity_id, start_at, end_at FROM analysis_windows WHERE analysis_id = ? ORDER BY position`, id)
	if err != nil {
		return AnalysisSummary{}, fmt.Errorf("querying windows of %s: %w", id, err)
	}
	defer rows.Close()

	for rows.Next() {
		var ew types.EntityWindow
		var start, end string
		if err := rows.Scan(&ew.EntityID, &start, &end); err != nil {
			return AnalysisSummary{}, fmt.Errorf("scanning window: %w", err)
		}
		ew.Window = types.Window{Start: parseTime(start), End: parseTime(end)}
		a.Windows = append(a.Windows, ew)
	}
	return a, rows.Err()
}

// ListAnalyses returns all analyses, newest first, without their windows.
func (s *Store) ListAnalyses(ctx context.Context) ([]AnalysisSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, query, custom_periods, status, error, created_at
		 FROM analyses ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("listing analyses: %w", err)
	}
	defer rows.Close()

	var out []AnalysisSummary
	for rows.Next() {
		var (
			a       AnalysisSummary
			query   sql.NullString
			errMsg  sql.NullString
			custom  int
			status  string
			created string
		)
		if err := rows.Scan(&a.ID, &a.Name, &query, &custom, &status, &errMsg, &created); err != nil {
			return nil, fmt.Errorf("scanning analysis: %w", err)
		}
		a.Query = query.String
		a.Error = errMsg.String
		a.CustomPeriods = custom != 0
		a.Status, _ = types.ParseAnalysisStatus(status)
		a.CreatedAt = parseTime(created)
		out = append(out, a)
	}
	return out, rows.Err()
}

// Results returns the entity results of an analysis ordered by rank.
func (s *Store) Results(ctx context.Context, analysisID string) ([]types.EntityPeriodResult, error) {
	if err := s.exists(ctx, analysisID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT entity_id, entity_name, start_at, end_at,
			total_mentions, positive_count, negative_count, neutral_count,
			positivity_rate, negativity_rate, average_index, final_index, rank_position
		 FROM entity_results WHERE analysis_id = ? ORDER BY rank_position`, analysisID)
	if err != nil {
		return nil, fmt.Errorf("querying results of %s: %w", analysisID, err)
	}
	defer rows.Close()

	var out []types.EntityPeriodResult
	for rows.Next() {
		var r types.EntityPeriodResult
		var name sql.NullString
		var start, end string
		if err := rows.Scan(&r.EntityID, &name, &start, &end,
			&r.TotalMentions, &r.PositiveCount, &r.NegativeCount, &r.NeutralCount,
			&r.PositivityRate, &r.NegativityRate, &r.AverageIndex, &r.FinalIndex, &r.RankPosition,
		); err != nil {
			return nil, fmt.Errorf("scanning result: %w", err)
		}
		r.EntityName = name.String
		r.Window = types.Window{Start: parseTime(start), End: parseTime(end)}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Scores returns the mention scores of an analysis in run order. A
// non-empty entityID restricts them to that entity.
func (s *Store) Scores(ctx context.Context, analysisID, entityID string) ([]types.MentionScore, error) {
	if err := s.exists(ctx, analysisID); err != nil {
		return nil, err
	}
	q := `SELECT mention_url, entity_id, sentiment, title_hit, subtitle, relevant_outlet, niche_outlet,
			reach_group, numerator, denominator, score, normalized_score
		 FROM mention_scores WHERE analysis_id = ?`
	args := []any{analysisID}
	if entityID != "" {
		q += ` AND entity_id = ?`
		args = append(args, entityID)
	}
	q += ` ORDER BY position`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying scores of %s: %w", analysisID, err)
	}
	defer rows.Close()

	var out []types.MentionScore
	for rows.Next() {
		var (
			sc                    types.MentionScore
			sentiment, subtitle   string
			reach                 string
			title, relevant, niche int
		)
		if err := rows.Scan(&sc.MentionURL, &sc.EntityID, &sentiment, &title, &subtitle, &relevant, &niche,
			&reach, &sc.Numerator, &sc.Denominator, &sc.Score, &sc.NormalizedScore,
		); err != nil {
			return nil, fmt.Errorf("scanning score: %w", err)
		}
		sc.Sentiment, _ = types.ParseSentiment(sentiment)
		sc.Features = types.Features{
			Title:          title != 0,
			Subtitle:       types.SubtitleCheck(subtitle),
			RelevantOutlet: relevant != 0,
			NicheOutlet:    niche != 0,
			ReachGroup:     types.ReachGroup(reach),
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

// Mention returns a stored mention by URL.
func (s *Store) Mention(ctx context.Context, url string) (types.Mention, bool, error) {
	var (
		m          types.Mention
		sentiment  string
		published  sql.NullString
		categories sql.NullString
		unknown    int
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT url, title, snippet, full_text, domain, sentiment, monthly_visitors, audience_unknown, published_at, categories
		 FROM mentions WHERE url = ?`, url,
	).Scan(&m.URL, &m.Title, &m.Snippet, &m.FullText, &m.Domain, &sentiment, &m.MonthlyVisitors, &unknown, &published, &categories)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Mention{}, false, nil
	}
	if err != nil {
		return types.Mention{}, false, fmt.Errorf("querying mention %s: %w", url, err)
	}
	m.Sentiment, _ = types.ParseSentiment(sentiment)
	m.AudienceUnknown = unknown != 0
	m.PublishedAt = parseTime(published.String)
	m.Categories = decodeStrings(categories.String)
	return m, true, nil
}

func (s *Store) exists(ctx context.Context, id string) error {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM analyses WHERE id = ?`, id).Scan(&n); err != nil {
		return fmt.Errorf("checking analysis %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}
