// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/iedi-engine/pkg/types"
)

// Report is the exported form of one analysis.
type Report struct {
	Analysis AnalysisSummary            `json:"analysis" yaml:"analysis"`
	Ranking  []types.EntityPeriodResult `json:"ranking" yaml:"ranking"`
	Scores   []types.MentionScore       `json:"scores,omitempty" yaml:"scores,omitempty"`
}

// Export formats.
const (
	FormatYAML = "yaml"
	FormatJSON = "json"
)

// BuildReport loads the analysis, its ranking and, when withScores is set,
// its mention scores.
func (s *Store) BuildReport(ctx context.Context, id string, withScores bool) (Report, error) {
	a, err := s.Analysis(ctx, id)
	if err != nil {
		return Report{}, err
	}
	results, err := s.Results(ctx, id)
	if err != nil {
		return Report{}, err
	}
	r := Report{Analysis: a, Ranking: results}
	if withScores {
		if r.Scores, err = s.Scores(ctx, id, ""); err != nil {
			return Report{}, err
		}
	}
	return r, nil
}

// Export writes the report of analysis id to w as YAML or JSON.
func (s *Store) Export(ctx context.Context, id, format string, withScores bool, w io.Writer) error {
	format = strings.ToLower(format)
	if format != FormatYAML && format != FormatJSON {
		return fmt.Errorf("unsupported export format %q (want yaml or json)", format)
	}

	r, err := s.BuildReport(ctx, id, withScores)
	if err != nil {
		return err
	}

	var data []byte
	if format == FormatJSON {
		data, err = json.MarshalIndent(r, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling JSON: %w", err)
		}
		data = append(data, '\n')
	} else {
		data, err = yaml.Marshal(r)
		if err != nil {
			return fmt.Errorf("marshaling YAML: %w", err)
		}
	}
	_, err = w.Write(data)
	return err
}

func decodeStrings(s string) []string {
	if s == "" || s == "null" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil
	}
	return out
}
