package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/meeting-tracker/internal/classify"
	"github.com/sells-group/meeting-tracker/internal/dedup"
	"github.com/sells-group/meeting-tracker/internal/extract"
	"github.com/sells-group/meeting-tracker/internal/fetcher"
	"github.com/sells-group/meeting-tracker/internal/pipeline"
	"github.com/sells-group/meeting-tracker/internal/scorer"
	"github.com/sells-group/meeting-tracker/internal/store"
	"github.com/sells-group/meeting-tracker/internal/taxonomy"
	"github.com/sells-group/meeting-tracker/pkg/newsapi"
	"github.com/sells-group/meeting-tracker/pkg/sendgrid"
)

// trackerEnv holds the store, taxonomy and tracker used by the run, add
// and history commands.
type trackerEnv struct {
	Store    store.Store
	Taxonomy *taxonomy.Taxonomy
	Tracker  *pipeline.Tracker
}

// Close releases resources held by the environment.
func (e *trackerEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initTracker loads the taxonomy, opens the store and builds the tracker.
// A bad taxonomy fails here, before anything is fetched. Callers should
// defer env.Close().
func initTracker(ctx context.Context) (*trackerEnv, error) {
	tx, err := taxonomy.Load(cfg.Tracker.TaxonomyPath)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}

	httpClient := fetcher.NewHTTPClient(fetcher.HTTPOptions{
		UserAgent:  cfg.Fetch.UserAgent,
		Timeout:    time.Duration(cfg.Fetch.TimeoutSecs) * time.Second,
		MaxRetries: cfg.Fetch.MaxRetries,
	})

	subject := tx.Extraction().Subject
	var (
		sources []fetcher.Source
		search  newsapi.Client
	)
	if cfg.NewsAPI.Key != "" {
		search = newsapi.NewClient(cfg.NewsAPI.Key, newsapi.WithBaseURL(cfg.NewsAPI.BaseURL))
		sources = append(sources, fetcher.NewsAPISources(search, cfg.NewsAPI.Queries, fetcher.NewsAPIOptions{
			Language:   cfg.NewsAPI.Language,
			SortBy:     cfg.NewsAPI.SortBy,
			PageSize:   cfg.NewsAPI.PageSize,
			MaxRetries: cfg.Fetch.MaxRetries,
		})...)
	} else {
		zap.L().Warn("TRACKER_NEWSAPI_KEY not set, NewsAPI search disabled")
	}
	sources = append(sources, fetcher.RSSSources(httpClient, cfg.RSS.Feeds, subject)...)

	deps := pipeline.Deps{
		Fetcher:    fetcher.New(sources, cfg.Fetch.MaxConcurrentSources),
		Extractor:  extract.New(tx.Extraction()),
		Classifier: classify.New(tx),
		Scorer:     scorer.New(tx),
		Merger:     dedup.New(st),
		Runs:       st,
	}
	if cfg.Scrape.Enabled {
		deps.Scraper = fetcher.NewScraper(httpClient, cfg.Scrape.MinChars, cfg.Scrape.MaxChars)
	}
	if cfg.Tracker.LookupEnabled {
		deps.Resolver = extract.NewResolver(tx.Extraction(), search, extract.ResolverOptions{
			MaxSearches: cfg.Tracker.MaxLookups,
			Language:    cfg.NewsAPI.Language,
		})
	}
	if cfg.Mail.SendGridKey != "" {
		deps.Mailer = sendgrid.NewClient(cfg.Mail.SendGridKey, sendgrid.WithBaseURL(cfg.Mail.BaseURL))
	}

	tr := pipeline.New(deps, pipeline.Options{
		MaxConcurrentArticles: cfg.Tracker.MaxConcurrentArticles,
		XLSXPath:              cfg.Report.XLSXPath,
		HTMLPreviewPath:       cfg.Report.HTMLPreviewPath,
		Sender:                cfg.Mail.Sender,
		Recipients:            cfg.Mail.Recipients,
		MailRetries:           cfg.Fetch.MaxRetries,
	})

	zap.L().Info("tracker initialized",
		zap.String("store", cfg.Store.Driver),
		zap.Int("sources", len(sources)),
		zap.Int("industries", len(tx.Industries())),
		zap.Bool("scrape", cfg.Scrape.Enabled),
		zap.Bool("lookup", cfg.Tracker.LookupEnabled),
		zap.Int("recipients", len(cfg.Mail.Recipients)),
	)
	return &trackerEnv{Store: st, Taxonomy: tx, Tracker: tr}, nil
}

// openStore opens the configured store for commands that only read history.
func openStore(ctx context.Context) (store.Store, error) {
	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, eris.Wrap(err, "open store")
	}
	return st, nil
}
