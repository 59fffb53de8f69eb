package fetcher

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sells-group/meeting-tracker/internal/model"
	"github.com/sells-group/meeting-tracker/internal/resilience"
	"github.com/sells-group/meeting-tracker/pkg/newsapi"
)

// NewsAPISearch is one NewsAPI query. All searches built by NewsAPISources
// share a breaker, so an invalid key or exhausted quota stops the rest.
type NewsAPISearch struct {
	client   newsapi.Client
	breaker  *resilience.Breaker
	retry    resilience.RetryConfig
	query    string
	language string
	sortBy   string
	pageSize int
}

// NewsAPIOptions holds the search parameters shared by every query.
type NewsAPIOptions struct {
	Language   string
	SortBy     string
	PageSize   int
	MaxRetries int
}

// NewsAPISources returns one Source per query.
func NewsAPISources(client newsapi.Client, queries []string, opts NewsAPIOptions) []Source {
	breaker := resilience.NewBreaker(resilience.BreakerConfig{Name: "newsapi", Threshold: 3})
	retry := resilience.DefaultRetryConfig()
	retry.MaxAttempts = opts.MaxRetries + 1
	retry.OnRetry = resilience.LogRetry("newsapi")

	out := make([]Source, 0, len(queries))
	for _, q := range queries {
		out = append(out, &NewsAPISearch{
			client:   client,
			breaker:  breaker,
			retry:    retry,
			query:    q,
			language: opts.Language,
			sortBy:   opts.SortBy,
			pageSize: opts.PageSize,
		})
	}
	return out
}

func (s *NewsAPISearch) Name() string { return "newsapi:" + s.query }

func (s *NewsAPISearch) Fetch(ctx context.Context, since time.Time) ([]model.Article, error) {
	var resp *newsapi.Response
	err := s.breaker.Execute(ctx, func(ctx context.Context) error {
		var err error
		resp, err = resilience.DoVal(ctx, s.retry, func(ctx context.Context) (*newsapi.Response, error) {
			r, err := s.client.Everything(ctx, newsapi.Query{
				Q:        s.query,
				From:     since,
				Language: s.language,
				SortBy:   s.sortBy,
				PageSize: s.pageSize,
			})
			return r, asStatusError(err)
		})
		return err
	})
	if err != nil {
		return nil, &SourceError{Source: s.Name(), Err: err}
	}

	out := make([]model.Article, 0, len(resp.Articles))
	for _, a := range resp.Articles {
		if a.URL == "" || a.Title == "[Removed]" {
			continue
		}
		out = append(out, model.Article{
			Title:       strings.TrimSpace(a.Title),
			Body:        joinNonEmpty(a.Description, a.Content),
			PublishedAt: a.PublishedAt.UTC(),
			SourceURL:   a.URL,
			SourceName:  a.Source.Name,
		})
	}
	return out, nil
}

// asStatusError maps NewsAPI errors onto the retry and breaker vocabulary.
func asStatusError(err error) error {
	var apiErr *newsapi.Error
	if errors.As(err, &apiErr) {
		return &resilience.StatusError{Service: "newsapi", StatusCode: apiErr.StatusCode, Body: apiErr.Message}
	}
	return err
}

func joinNonEmpty(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}
