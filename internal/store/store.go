// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists analyses, their mentions, per-mention scores and
// per-entity results in SQLite. A run's scores and results are replaced
// wholesale on every save, never patched.
// Implements: docs/ARCHITECTURE § Result Store.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/iedi-engine/internal/pipeline"
	"github.com/pdiddy/iedi-engine/pkg/types"
)

// DefaultPath is the database file used when none is configured.
const DefaultPath = "data/iedi.db"

// ErrNotFound is returned when an analysis does not exist.
var ErrNotFound = errors.New("analysis not found")

// timeFormat is fixed width and times are stored in UTC, so stored text
// sorts in time order.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// Store manages the results database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at cfg.Path and creates the schema if
// it does not exist.
func Open(cfg types.StoreConfig) (*Store, error) {
	path := cfg.Path
	if path == "" {
		path = DefaultPath
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS analyses (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			query TEXT,
			custom_periods INTEGER NOT NULL DEFAULT 0,
			status TEXT NOT NULL,
			error TEXT,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS analysis_windows (
			analysis_id TEXT NOT NULL REFERENCES analyses(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			entity_id TEXT NOT NULL,
			start_at TEXT NOT NULL,
			end_at TEXT NOT NULL,
			PRIMARY KEY (analysis_id, entity_id)
		)`,
		`CREATE TABLE IF NOT EXISTS mentions (
			url TEXT PRIMARY KEY,
			title TEXT,
			snippet TEXT,
			full_text TEXT,
			domain TEXT,
			sentiment TEXT NOT NULL,
			monthly_visitors INTEGER NOT NULL DEFAULT 0,
			audience_unknown INTEGER NOT NULL DEFAULT 0,
			published_at TEXT,
			categories TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS mention_scores (
			analysis_id TEXT NOT NULL REFERENCES analyses(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			mention_url TEXT NOT NULL REFERENCES mentions(url),
			entity_id TEXT NOT NULL,
			sentiment TEXT NOT NULL,
			title_hit INTEGER NOT NULL,
			subtitle TEXT NOT NULL,
			relevant_outlet INTEGER NOT NULL,
			niche_outlet INTEGER NOT NULL,
			reach_group TEXT NOT NULL,
			numerator INTEGER NOT NULL,
			denominator INTEGER NOT NULL,
			score REAL NOT NULL,
			normalized_score REAL NOT NULL,
			PRIMARY KEY (analysis_id, mention_url, entity_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_scores_entity ON mention_scores(analysis_id, entity_id)`,
		`CREATE TABLE IF NOT EXISTS entity_results (
			analysis_id TEXT NOT NULL REFERENCES analyses(id) ON DELETE CASCADE,
			entity_id TEXT NOT NULL,
			entity_name TEXT,
			start_at TEXT NOT NULL,
			end_at TEXT NOT NULL,
			total_mentions INTEGER NOT NULL,
			positive_count INTEGER NOT NULL,
			negative_count INTEGER NOT NULL,
			neutral_count INTEGER NOT NULL,
			positivity_rate REAL NOT NULL,
			negativity_rate REAL NOT NULL,
			average_index REAL NOT NULL,
			final_index REAL NOT NULL,
			rank_position INTEGER NOT NULL,
			PRIMARY KEY (analysis_id, entity_id)
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// CreateAnalysis records a new analysis with its windows. It is called
// before scoring so that a failed run still leaves a trace.
func (s *Store) CreateAnalysis(ctx context.Context, a types.Analysis) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := upsertAnalysis(ctx, tx, a); err != nil {
		return err
	}
	if err := replaceWindows(ctx, tx, a); err != nil {
		return err
	}
	return tx.Commit()
}

// SetStatus moves an analysis to status. msg is kept as the failure reason
// and may be empty.
func (s *Store) SetStatus(ctx context.Context, id string, status types.AnalysisStatus, msg string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE analyses SET status = ?, error = ?, updated_at = ? WHERE id = ?`,
		string(status), nullString(msg), time.Now().UTC().Format(timeFormat), id,
	)
	if err != nil {
		return fmt.Errorf("updating status of %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// SaveRun stores a finished run in one transaction: the analysis and its
// windows are upserted, mentions are upserted by URL, and the analysis's
// scores and results are deleted and re-inserted. The analysis is marked
// done.
func (s *Store) SaveRun(ctx context.Context, a types.Analysis, mentions []types.Mention, out pipeline.Output) error {
	a.Status = types.StatusDone

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := upsertAnalysis(ctx, tx, a); err != nil {
		return err
	}
	if err := replaceWindows(ctx, tx, a); err != nil {
		return err
	}
	if err := upsertMentions(ctx, tx, mentions); err != nil {
		return err
	}
	if err := replaceScores(ctx, tx, a.ID, out.Scores); err != nil {
		return err
	}
	if err := replaceResults(ctx, tx, a.ID, out.Results); err != nil {
		return err
	}
	return tx.Commit()
}

func upsertAnalysis(ctx context.Context, tx *sql.Tx, a types.Analysis) error {
	if a.ID == "" {
		return fmt.Errorf("storing analysis: empty id")
	}
	created := a.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	status := a.Status
	if status == "" {
		status = types.StatusPending
	}
	_, err := tx.ExecContext(ctx,
		`INSERT INTO analyses (id, name, query, custom_periods, status, error, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, NULL, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			name=excluded.name, query=excluded.query, custom_periods=excluded.custom_periods,
			status=excluded.status, error=NULL, updated_at=excluded.updated_at`,
		a.ID, a.Name, a.Query, boolInt(a.CustomPeriods), string(status),
		created.UTC().Format(timeFormat), time.Now().UTC().Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("upserting analysis %s: %w", a.ID, err)
	}
	return nil
}

func replaceWindows(ctx context.Context, tx *sql.Tx, a types.Analysis) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM analysis_windows WHERE analysis_id = ?`, a.ID); err != nil {
		return fmt.Errorf("deleting windows: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO analysis_windows (analysis_id, position, entity_id, start_at, end_at) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing window insert: %w", err)
	}
	defer stmt.Close()

	for i, ew := range a.Windows {
		if _, err := stmt.ExecContext(ctx, a.ID, i, ew.EntityID,
			formatTime(ew.Window.Start), formatTime(ew.Window.End)); err != nil {
			return fmt.Errorf("inserting window for %s: %w", ew.EntityID, err)
		}
	}
	return nil
}

func upsertMentions(ctx context.Context, tx *sql.Tx, mentions []types.Mention) error {
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO mentions (url, title, snippet, full_text, domain, sentiment, monthly_visitors, audience_unknown, published_at, categories)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(url) DO UPDATE SET
			title=excluded.title, snippet=excluded.snippet, full_text=excluded.full_text,
			domain=excluded.domain, sentiment=excluded.sentiment,
			monthly_visitors=excluded.monthly_visitors, audience_unknown=excluded.audience_unknown,
			published_at=excluded.published_at,
			categories=excluded.categories`)
	if err != nil {
		return fmt.Errorf("preparing mention upsert: %w", err)
	}
	defer stmt.Close()

	for _, m := range mentions {
		categoriesJSON, _ := json.Marshal(m.Categories)
		if _, err := stmt.ExecContext(ctx,
			m.URL, m.Title, m.Snippet, m.FullText, m.Domain, string(m.Sentiment),
			m.MonthlyVisitors, boolInt(m.AudienceUnknown), formatTime(m.PublishedAt), string(categoriesJSON),
		); err != nil {
			return fmt.Errorf("upserting mention %s: %w", m.URL, err)
		}
	}
	return nil
}

func replaceScores(ctx context.Context, tx *sql.Tx, analysisID string, scores []types.MentionScore) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM mention_scores WHERE analysis_id = ?`, analysisID); err != nil {
		return fmt.Errorf("deleting scores: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO mention_scores (analysis_id, position, mention_url, entity_id, sentiment,
			title_hit, subtitle, relevant_outlet, niche_outlet, reach_group,
			numerator, denominator, score, normalized_score)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing score insert: %w", err)
	}
	defer stmt.Close()

	for i, sc := range scores {
		f := sc.Features
		if _, err := stmt.ExecContext(ctx,
			analysisID, i, sc.MentionURL, sc.EntityID, string(sc.Sentiment),
			boolInt(f.Title), string(f.Subtitle), boolInt(f.RelevantOutlet), boolInt(f.NicheOutlet),
			string(f.ReachGroup), sc.Numerator, sc.Denominator, sc.Score, sc.NormalizedScore,
		); err != nil {
			return fmt.Errorf("inserting score %s/%s: %w", sc.MentionURL, sc.EntityID, err)
		}
	}
	return nil
}

func replaceResults(ctx context.Context, tx *sql.Tx, analysisID string, results []types.EntityPeriodResult) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM entity_results WHERE analysis_id = ?`, analysisID); err != nil {
		return fmt.Errorf("deleting results: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO entity_results (analysis_id, entity_id, entity_name, start_at, end_at,
			total_mentions, positive_count, negative_count, neutral_count,
			positivity_rate, negativity_rate, average_index, final_index, rank_position)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing result insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range results {
		if _, err := stmt.ExecContext(ctx,
			analysisID, r.EntityID, r.EntityName, formatTime(r.Window.Start), formatTime(r.Window.End),
			r.TotalMentions, r.PositiveCount, r.NegativeCount, r.NeutralCount,
			r.PositivityRate, r.NegativityRate, r.AverageIndex, r.FinalIndex, r.RankPosition,
		); err != nil {
			return fmt.Errorf("inserting result for %s: %w", r.EntityID, err)
		}
	}
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeFormat)
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(timeFormat, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
