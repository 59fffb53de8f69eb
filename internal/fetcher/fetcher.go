package fetcher

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/meeting-tracker/internal/model"
)

// Result is the outcome of fetching every source.
type Result struct {
	Articles []model.Article
	// Errors holds one entry per failed source, in source order.
	Errors []*SourceError
}

// Warnings renders Errors for the run log and report.
func (r Result) Warnings() []string {
	out := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		out = append(out, e.Error())
	}
	return out
}

// Fetcher fans out to sources with bounded parallelism.
type Fetcher struct {
	sources     []Source
	concurrency int
	now         func() time.Time
}

// New creates a Fetcher. concurrency below 1 means one source at a time.
func New(sources []Source, concurrency int) *Fetcher {
	return &Fetcher{sources: sources, concurrency: max(concurrency, 1), now: time.Now}
}

// FetchAll reads every source, isolating failures per source. Articles are
// deduplicated by URL (first source wins) and filtered to the lookback
// window; undated articles are kept. The order follows source order, then
// each source's own order.
func (f *Fetcher) FetchAll(ctx context.Context, lookbackDays int) (Result, error) {
	since := f.now().AddDate(0, 0, -lookbackDays)

	batches := make([][]model.Article, len(f.sources))
	errs := make([]error, len(f.sources))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.concurrency)
	for i, src := range f.sources {
		g.Go(func() error {
			arts, err := src.Fetch(gctx, since)
			batches[i] = arts
			errs[i] = err
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	var res Result
	seen := make(map[string]struct{})
	for i, src := range f.sources {
		if errs[i] != nil {
			var se *SourceError
			if !errors.As(errs[i], &se) {
				se = &SourceError{Source: src.Name(), Err: errs[i]}
			}
			res.Errors = append(res.Errors, se)
			zap.L().Warn("fetcher: source unavailable",
				zap.String("source", se.Source),
				zap.Error(se.Err),
			)
		}

		kept := 0
		for _, a := range batches[i] {
			if a.SourceURL == "" {
				continue
			}
			if !a.PublishedAt.IsZero() && a.PublishedAt.Before(since) {
				continue
			}
			if _, dup := seen[a.SourceURL]; dup {
				continue
			}
			seen[a.SourceURL] = struct{}{}
			res.Articles = append(res.Articles, a)
			kept++
		}
		zap.L().Debug("fetcher: source done",
			zap.String("source", src.Name()),
			zap.Int("fetched", len(batches[i])),
			zap.Int("kept", kept),
		)
	}

	zap.L().Info("fetcher: fetched articles",
		zap.Int("sources", len(f.sources)),
		zap.Int("failed", len(res.Errors)),
		zap.Int("articles", len(res.Articles)),
	)
	return res, nil
}
