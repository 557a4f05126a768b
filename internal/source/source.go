// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package source acquires raw mentions, either from batch files on disk or
// from the media-monitoring API. Sources return mentions exactly as
// delivered; validation happens in classify.Normalize.
// Implements: docs/ARCHITECTURE § Acquisition.
package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/iedi-engine/pkg/types"
)

// Query selects mentions of one saved search within a window.
type Query struct {
	// Name is the saved search (query) name at the provider.
	Name   string
	Window types.Window
}

// Source returns the raw mentions matching a query.
type Source interface {
	Fetch(ctx context.Context, q Query) ([]types.RawMention, error)
}

// FileSource reads mentions from batch files. JSON files hold either an
// array of mentions or an API page ({"results": [...]}); .yaml and .yml
// files hold an array or a {results: [...]} document. Files are read in
// order and concatenated. The query is ignored: window filtering happens in
// the pipeline.
type FileSource struct {
	Paths []string
}

// Fetch reads every file in Paths.
func (s FileSource) Fetch(ctx context.Context, _ Query) ([]types.RawMention, error) {
	var all []types.RawMention
	for _, p := range s.Paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		raws, err := ReadBatch(p)
		if err != nil {
			return nil, err
		}
		all = append(all, raws...)
	}
	return all, nil
}

// batch is the wrapped form of a mention file, matching one API page.
type batch struct {
	Results []types.RawMention `json:"results" yaml:"results"`
}

// ReadBatch reads one mention file.
func ReadBatch(path string) ([]types.RawMention, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading mentions %s: %w", path, err)
	}
	raws, err := decodeBatch(data, isYAML(path))
	if err != nil {
		return nil, fmt.Errorf("parsing mentions %s: %w", path, err)
	}
	return raws, nil
}

func decodeBatch(data []byte, asYAML bool) ([]types.RawMention, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}

	if asYAML {
		var node yaml.Node
		if err := yaml.Unmarshal(trimmed, &node); err != nil {
			return nil, err
		}
		if len(node.Content) > 0 && node.Content[0].Kind == yaml.SequenceNode {
			var raws []types.RawMention
			err := node.Decode(&raws)
			return raws, err
		}
		var b batch
		err := node.Decode(&b)
		return b.Results, err
	}

	if trimmed[0] == '[' {
		var raws []types.RawMention
		err := json.Unmarshal(trimmed, &raws)
		return raws, err
	}
	var b batch
	err := json.Unmarshal(trimmed, &b)
	return b.Results, err
}

// WriteBatch writes raws to path as JSON, or YAML for .yaml/.yml paths,
// creating parent directories as needed.
func WriteBatch(path string, raws []types.RawMention) error {
	if raws == nil {
		raws = []types.RawMention{}
	}

	var data []byte
	var err error
	if isYAML(path) {
		data, err = yaml.Marshal(batch{Results: raws})
	} else {
		data, err = json.MarshalIndent(batch{Results: raws}, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("encoding mentions: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing mentions %s: %w", path, err)
	}
	return nil
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	default:
		return false
	}
}
