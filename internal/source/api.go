// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/iedi-engine/internal/httputil"
	"github.com/pdiddy/iedi-engine/internal/logger"
	"github.com/pdiddy/iedi-engine/pkg/types"
)

// DefaultPageSize is the largest page the mentions endpoint serves.
const DefaultPageSize = 5000

// apiDateFormat is the timestamp layout the mentions endpoint expects.
const apiDateFormat = "2006-01-02T15:04:05.000-0700"

// ErrNoCredentials is returned when the API source has no token or project.
var ErrNoCredentials = errors.New("media-monitoring API token and project are required")

// APISource pages through the media-monitoring mentions endpoint:
//
//	GET {BaseURL}/projects/{Project}/data/mentions
//	    ?queryName=..&startDate=..&endDate=..&pageSize=..&page=..
//
// Each request goes through httputil.DoWithRetry.
type APISource struct {
	Client *http.Client
	Config types.SourceConfig
	Logger *logger.Logger
}

// NewAPISource builds an APISource with an HTTP client using cfg.Timeout.
func NewAPISource(cfg types.SourceConfig, log *logger.Logger) (*APISource, error) {
	if cfg.Token == "" || cfg.Project == "" {
		return nil, ErrNoCredentials
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("media-monitoring API base url is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &APISource{
		Client: &http.Client{Timeout: timeout},
		Config: cfg,
		Logger: log,
	}, nil
}

type mentionsPage struct {
	ResultsTotal    int                `json:"resultsTotal"`
	ResultsPage     int                `json:"resultsPage"`
	ResultsPageSize int                `json:"resultsPageSize"`
	Results         []types.RawMention `json:"results"`
}

// Fetch returns every mention of q. Paging stops at an empty page, after
// the last page implied by resultsTotal, or at Config.MaxPages.
func (s *APISource) Fetch(ctx context.Context, q Query) ([]types.RawMention, error) {
	if strings.TrimSpace(q.Name) == "" {
		return nil, fmt.Errorf("fetching mentions: empty query name")
	}
	log := logger.OrNop(s.Logger).With("query", q.Name)

	pageSize := s.Config.PageSize
	if pageSize <= 0 || pageSize > DefaultPageSize {
		pageSize = DefaultPageSize
	}

	var all []types.RawMention
	for page := 0; ; page++ {
		if s.Config.MaxPages > 0 && page >= s.Config.MaxPages {
			log.Warn("page cap reached", "max_pages", s.Config.MaxPages, "fetched", len(all))
			break
		}

		p, err := s.fetchPage(ctx, q, page, pageSize)
		if err != nil {
			return nil, err
		}
		all = append(all, p.Results...)
		log.Debug("page fetched", "page", page, "results", len(p.Results), "total", p.ResultsTotal)

		if len(p.Results) == 0 {
			break
		}
		pages := (p.ResultsTotal + pageSize - 1) / pageSize
		if page+1 >= pages {
			break
		}
	}

	log.Info("mentions fetched", "count", len(all), "window", q.Window.String())
	return all, nil
}

func (s *APISource) fetchPage(ctx context.Context, q Query, page, pageSize int) (mentionsPage, error) {
	endpoint := strings.TrimRight(s.Config.BaseURL, "/") +
		"/projects/" + url.PathEscape(s.Config.Project) + "/data/mentions"
	params := url.Values{
		"queryName": {q.Name},
		"startDate": {q.Window.Start.Format(apiDateFormat)},
		"endDate":   {q.Window.End.Format(apiDateFormat)},
		"pageSize":  {strconv.Itoa(pageSize)},
		"page":      {strconv.Itoa(page)},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return mentionsPage{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.Config.Token)
	req.Header.Set("Accept", "application/json")
	if s.Config.UserAgent != "" {
		req.Header.Set("User-Agent", s.Config.UserAgent)
	}

	log := logger.OrNop(s.Logger)
	resp, err := httputil.DoWithRetry(ctx, s.Client, req, s.Config.MaxRetries,
		func(status int, wait time.Duration, attempt, maxRetries int) {
			log.Warn("mentions API throttled", "status", status, "wait", wait, "attempt", attempt, "max_retries", maxRetries)
		})
	if err != nil {
		return mentionsPage{}, fmt.Errorf("mentions API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return mentionsPage{}, fmt.Errorf("mentions API returned HTTP %d: %s",
			resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var p mentionsPage
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return mentionsPage{}, fmt.Errorf("parsing mentions page %d: %w", page, err)
	}
	return p, nil
}
