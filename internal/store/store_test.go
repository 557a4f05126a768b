// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/iedi-engine/internal/pipeline"
	"github.com/pdiddy/iedi-engine/pkg/types"
)

var oct = types.Window{
	Start: time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC),
	End:   time.Date(2024, 10, 31, 23, 59, 59, 0, time.UTC),
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(types.StoreConfig{Path: filepath.Join(t.TempDir(), "db", "iedi.db")})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testAnalysis(name string) types.Analysis {
	return types.Analysis{
		ID:        uuid.NewString(),
		Name:      name,
		Query:     "Bancos BR",
		Status:    types.StatusPending,
		CreatedAt: time.Date(2024, 11, 1, 10, 0, 0, 0, time.UTC),
		Windows: []types.EntityWindow{
			{EntityID: "itau", Window: oct},
			{EntityID: "bb", Window: oct},
		},
	}
}

func testMentions() []types.Mention {
	return []types.Mention{
		{
			URL: "https://valor.globo.com/1", Title: "Itaú lucra", Snippet: "s", FullText: "s",
			Domain: "valor.globo.com", Sentiment: types.SentimentPositive, MonthlyVisitors: 14_000_000,
			PublishedAt: time.Date(2024, 10, 5, 9, 0, 0, 0, time.UTC), Categories: []string{"Itaú"},
		},
		{URL: "https://blog.example.com/2", Title: "BB", Sentiment: types.SentimentNegative, AudienceUnknown: true},
	}
}

func testOutput() pipeline.Output {
	return pipeline.Output{
		Scores: []types.MentionScore{
			{
				MentionURL: "https://valor.globo.com/1", EntityID: "itau", Sentiment: types.SentimentPositive,
				Features: types.Features{Title: true, Subtitle: types.SubtitleNotAttempted, RelevantOutlet: true, ReachGroup: types.ReachB},
				Numerator: 280, Denominator: 334, Score: 280.0 / 334.0, NormalizedScore: (280.0/334.0 + 1) / 2 * 10,
			},
			{
				MentionURL: "https://blog.example.com/2", EntityID: "bb", Sentiment: types.SentimentNegative,
				Features:  types.Features{Title: true, Subtitle: types.SubtitleNotAttempted, ReachGroup: types.ReachD},
				Numerator: 120, Denominator: 269, Score: -120.0 / 269.0, NormalizedScore: (1 - 120.0/269.0) / 2 * 10,
			},
		},
		Results: []types.EntityPeriodResult{
			{EntityID: "itau", EntityName: "Itaú", Window: oct, TotalMentions: 1, PositiveCount: 1, PositivityRate: 100, AverageIndex: 9.19, FinalIndex: 9.19, RankPosition: 1},
			{EntityID: "bb", EntityName: "Banco do Brasil", Window: oct, TotalMentions: 1, NegativeCount: 1, NegativityRate: 100, AverageIndex: 2.77, RankPosition: 2},
		},
	}
}

func TestSaveRunAndQuery(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	a := testAnalysis("outubro")

	require.NoError(t, s.CreateAnalysis(ctx, a))
	require.NoError(t, s.SetStatus(ctx, a.ID, types.StatusRunning, ""))
	require.NoError(t, s.SaveRun(ctx, a, testMentions(), testOutput()))

	got, err := s.Analysis(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "outubro", got.Name)
	assert.Equal(t, "Bancos BR", got.Query)
	assert.Equal(t, types.StatusDone, got.Status)
	assert.True(t, a.CreatedAt.Equal(got.CreatedAt))
	require.Len(t, got.Windows, 2)
	assert.Equal(t, "itau", got.Windows[0].EntityID)
	assert.True(t, oct.Start.Equal(got.Windows[0].Window.Start))

	results, err := s.Results(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "itau", results[0].EntityID)
	assert.Equal(t, 1, results[0].RankPosition)
	assert.Equal(t, 9.19, results[0].FinalIndex)
	assert.Equal(t, "Banco do Brasil", results[1].EntityName)
	assert.True(t, oct.End.Equal(results[1].Window.End))

	scores, err := s.Scores(ctx, a.ID, "")
	require.NoError(t, err)
	require.Len(t, scores, 2)
	assert.Equal(t, testOutput().Scores, scores)

	bbOnly, err := s.Scores(ctx, a.ID, "bb")
	require.NoError(t, err)
	require.Len(t, bbOnly, 1)
	assert.Equal(t, "https://blog.example.com/2", bbOnly[0].MentionURL)

	m, ok, err := s.Mention(ctx, "https://valor.globo.com/1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(14_000_000), m.MonthlyVisitors)
	assert.False(t, m.AudienceUnknown)
	assert.Equal(t, []string{"Itaú"}, m.Categories)
	assert.True(t, testMentions()[0].PublishedAt.Equal(m.PublishedAt))

	m, ok, err = s.Mention(ctx, "https://blog.example.com/2")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, m.PublishedAt.IsZero())
	assert.True(t, m.AudienceUnknown)
	assert.Nil(t, m.Categories)
}

func TestSaveRunReplacesWholesale(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	a := testAnalysis("rerun")

	require.NoError(t, s.SaveRun(ctx, a, testMentions(), testOutput()))

	// A re-run with one entity left replaces scores and results entirely.
	out := testOutput()
	out.Scores = out.Scores[:1]
	out.Results = out.Results[:1]
	a.Windows = a.Windows[:1]
	require.NoError(t, s.SaveRun(ctx, a, testMentions()[:1], out))

	results, err := s.Results(ctx, a.ID)
	require.NoError(t, err)
	assert.Len(t, results, 1)

	scores, err := s.Scores(ctx, a.ID, "")
	require.NoError(t, err)
	assert.Len(t, scores, 1)

	got, err := s.Analysis(ctx, a.ID)
	require.NoError(t, err)
	assert.Len(t, got.Windows, 1)

	// Mentions are shared across analyses and are not deleted.
	_, ok, err := s.Mention(ctx, "https://blog.example.com/2")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSaveRunIsAtomic(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	a := testAnalysis("atomic")
	require.NoError(t, s.SaveRun(ctx, a, testMentions(), testOutput()))

	// The second score references a mention that is not stored, which
	// violates the foreign key; nothing from this save may persist.
	out := testOutput()
	out.Scores[1].MentionURL = "https://missing.example.com"
	out.Results[0].FinalIndex = 0.5
	require.Error(t, s.SaveRun(ctx, a, nil, out))

	results, err := s.Results(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 9.19, results[0].FinalIndex)
}

func TestSetStatusFailed(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	a := testAnalysis("broken")
	require.NoError(t, s.CreateAnalysis(ctx, a))
	require.NoError(t, s.SetStatus(ctx, a.ID, types.StatusFailed, "mentions API returned HTTP 401"))

	got, err := s.Analysis(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusFailed, got.Status)
	assert.Equal(t, "mentions API returned HTTP 401", got.Error)

	results, err := s.Results(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, results)

	assert.ErrorIs(t, s.SetStatus(ctx, "nope", types.StatusDone, ""), ErrNotFound)
}

func TestNotFound(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.Analysis(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Results(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Scores(ctx, "nope", "")
	assert.ErrorIs(t, err, ErrNotFound)
	_, ok, err := s.Mention(ctx, "nope")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestListAnalyses(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	older := testAnalysis("setembro")
	older.CreatedAt = time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC)
	newer := testAnalysis("outubro")
	newer.CreatedAt = time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.CreateAnalysis(ctx, older))
	require.NoError(t, s.CreateAnalysis(ctx, newer))

	list, err := s.ListAnalyses(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "outubro", list[0].Name)
	assert.Equal(t, "setembro", list[1].Name)
	assert.Equal(t, types.StatusPending, list[0].Status)
}

func TestListAnalysesSubSecondOrder(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	// Stored text must sort in time order even when fractions differ in
	// length or the offsets differ.
	base := time.Date(2024, 11, 1, 10, 0, 0, 0, time.UTC)
	first := testAnalysis("first")
	first.CreatedAt = base.Add(100 * time.Millisecond)
	second := testAnalysis("second")
	second.CreatedAt = base.Add(150 * time.Millisecond)
	third := testAnalysis("third")
	third.CreatedAt = base.Add(time.Second).In(time.FixedZone("BRT", -3*3600))
	for _, a := range []types.Analysis{second, third, first} {
		require.NoError(t, s.CreateAnalysis(ctx, a))
	}

	list, err := s.ListAnalyses(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "third", list[0].Name)
	assert.Equal(t, "second", list[1].Name)
	assert.Equal(t, "first", list[2].Name)
	assert.True(t, second.CreatedAt.Equal(list[1].CreatedAt))
}

func TestExport(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	a := testAnalysis("export")
	require.NoError(t, s.SaveRun(ctx, a, testMentions(), testOutput()))

	var buf bytes.Buffer
	require.NoError(t, s.Export(ctx, a.ID, "json", true, &buf))
	var report Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &report))
	assert.Equal(t, a.ID, report.Analysis.ID)
	assert.Len(t, report.Ranking, 2)
	assert.Len(t, report.Scores, 2)

	buf.Reset()
	require.NoError(t, s.Export(ctx, a.ID, "YAML", false, &buf))
	var doc map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))
	assert.Contains(t, doc, "analysis")
	assert.Contains(t, doc, "ranking")
	assert.NotContains(t, doc, "scores")

	assert.Error(t, s.Export(ctx, a.ID, "csv", false, &buf))
	assert.ErrorIs(t, s.Export(ctx, "nope", "json", false, &buf), ErrNotFound)
}
