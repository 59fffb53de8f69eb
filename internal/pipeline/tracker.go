// Package pipeline runs one tracker pass: fetch, extract, classify, score,
// merge, compose and deliver.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/meeting-tracker/internal/classify"
	"github.com/sells-group/meeting-tracker/internal/dedup"
	"github.com/sells-group/meeting-tracker/internal/extract"
	"github.com/sells-group/meeting-tracker/internal/fetcher"
	"github.com/sells-group/meeting-tracker/internal/model"
	"github.com/sells-group/meeting-tracker/internal/report"
	"github.com/sells-group/meeting-tracker/internal/resilience"
	"github.com/sells-group/meeting-tracker/internal/scorer"
	"github.com/sells-group/meeting-tracker/pkg/sendgrid"
)

// ArticleSource fetches the run's articles. *fetcher.Fetcher satisfies it.
type ArticleSource interface {
	FetchAll(ctx context.Context, lookbackDays int) (fetcher.Result, error)
}

// Enricher adds page text to an article. *fetcher.Scraper satisfies it.
type Enricher interface {
	Enrich(ctx context.Context, a model.Article) model.Article
}

// Resolver fills a missing company or chief executive. *extract.Resolver
// satisfies it.
type Resolver interface {
	Resolve(ctx context.Context, m model.ExtractedMeeting, text string) model.ExtractedMeeting
}

// RunLog records run metadata. store.Store satisfies it.
type RunLog interface {
	SaveRun(ctx context.Context, run *model.Run) error
}

// Deps are the collaborators of a Tracker. Scraper, Resolver and Mailer are
// optional.
type Deps struct {
	Fetcher    ArticleSource
	Extractor  *extract.Extractor
	Classifier *classify.Classifier
	Scorer     *scorer.Scorer
	Merger     *dedup.Merger
	Runs       RunLog
	Scraper    Enricher
	Resolver   Resolver
	Mailer     sendgrid.Client
}

// Options configure delivery and parallelism.
type Options struct {
	MaxConcurrentArticles int
	XLSXPath              string
	HTMLPreviewPath       string
	Sender                string
	Recipients            []string
	MailRetries           int
}

// RunOptions are the per-invocation flags.
type RunOptions struct {
	LookbackDays int
	NoEmail      bool
}

// Delivery describes what happened to the report after a run.
type Delivery string

const (
	DeliveryEmailed Delivery = "emailed"
	DeliveryPreview Delivery = "preview"
	DeliverySkipped Delivery = "skipped"
)

// Outcome is the result of one run.
type Outcome struct {
	Run      model.Run
	Report   model.Report
	Delivery Delivery
}

// Tracker wires the pipeline stages together.
type Tracker struct {
	deps      Deps
	opts      Options
	mailRetry resilience.RetryConfig
	now       func() time.Time
	newID     func() string
}

// New creates a Tracker.
func New(deps Deps, opts Options) *Tracker {
	opts.MaxConcurrentArticles = max(opts.MaxConcurrentArticles, 1)
	retry := resilience.DefaultRetryConfig()
	retry.MaxAttempts = opts.MailRetries + 1
	retry.OnRetry = resilience.LogRetry("sendgrid")
	return &Tracker{deps: deps, opts: opts, mailRetry: retry, now: time.Now, newID: uuid.NewString}
}

// Run executes one pass. A persistence failure is returned as a
// *dedup.PersistenceError and nothing is delivered. The run log is written
// at start and finish; run log failures are logged, not returned.
func (t *Tracker) Run(ctx context.Context, ro RunOptions) (*Outcome, error) {
	run := &model.Run{
		ID:           t.newID(),
		Status:       model.RunStatusRunning,
		LookbackDays: ro.LookbackDays,
		StartedAt:    t.now().UTC(),
	}
	log := zap.L().With(zap.String("run_id", run.ID))
	log.Info("pipeline: run started", zap.Int("lookback_days", ro.LookbackDays))
	t.saveRun(ctx, run)

	out := &Outcome{Delivery: DeliverySkipped}
	err := t.execute(ctx, ro, run, out)

	run.Finish(t.now().UTC(), err)
	t.saveRun(context.WithoutCancel(ctx), run)
	out.Run = *run

	if err != nil {
		log.Error("pipeline: run failed", zap.Error(err))
		return out, err
	}
	log.Info("pipeline: run complete",
		zap.Int("articles", run.ArticlesFetched),
		zap.Int("candidates", run.Candidates),
		zap.Int("new_meetings", run.NewMeetings),
		zap.Int("total_meetings", run.TotalMeetings),
		zap.String("delivery", string(out.Delivery)),
	)
	return out, nil
}

func (t *Tracker) execute(ctx context.Context, ro RunOptions, run *model.Run, out *Outcome) error {
	fetched, err := t.deps.Fetcher.FetchAll(ctx, ro.LookbackDays)
	if err != nil {
		return eris.Wrap(err, "pipeline: fetch")
	}
	run.ArticlesFetched = len(fetched.Articles)
	run.Warnings = fetched.Warnings()

	candidates := t.Analyze(ctx, fetched.Articles)
	run.Candidates = len(candidates)

	fresh, history, err := t.deps.Merger.Merge(ctx, candidates)
	if err != nil {
		return err
	}
	run.NewMeetings = len(fresh)
	run.TotalMeetings = len(history)

	out.Report = report.Compose(fresh, history, report.Options{
		GeneratedAt:  t.now().UTC(),
		LookbackDays: ro.LookbackDays,
		Warnings:     run.Warnings,
	})

	d, err := t.deliver(ctx, out.Report, ro.NoEmail)
	if err != nil {
		return err
	}
	out.Delivery = d
	return nil
}

// Analyze extracts, classifies and scores every article in parallel. The
// result follows article order, then each article's own candidate order.
func (t *Tracker) Analyze(ctx context.Context, articles []model.Article) []model.ClassifiedMeeting {
	results := make([][]model.ClassifiedMeeting, len(articles))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(t.opts.MaxConcurrentArticles)
	for i, a := range articles {
		g.Go(func() error {
			results[i] = t.analyzeArticle(gctx, a)
			return nil
		})
	}
	_ = g.Wait()

	var out []model.ClassifiedMeeting
	for _, r := range results {
		out = append(out, r...)
	}
	return out
}

func (t *Tracker) analyzeArticle(ctx context.Context, a model.Article) []model.ClassifiedMeeting {
	if ok, _ := t.deps.Extractor.Gate(a.Text()); !ok {
		return nil
	}
	if t.deps.Scraper != nil {
		a = t.deps.Scraper.Enrich(ctx, a)
	}

	extracted := t.deps.Extractor.Extract(a)
	out := make([]model.ClassifiedMeeting, 0, len(extracted))
	for _, m := range extracted {
		out = append(out, t.Classify(t.resolve(ctx, m, a.Text())))
	}
	return out
}

// Classify runs the classifier and scorer on one extracted meeting.
func (t *Tracker) Classify(m model.ExtractedMeeting) model.ClassifiedMeeting {
	res := t.deps.Classifier.Classify(m.CompanyRaw)
	return t.deps.Scorer.Apply(model.ClassifiedMeeting{
		ExtractedMeeting: m,
		Industry:         res.Industry,
		Confidence:       res.Confidence,
		MatchTier:        res.Tier,
	})
}

// Add classifies a hand-entered meeting and merges it into the history.
// Adding the same meeting twice records it once.
func (t *Tracker) Add(ctx context.Context, m model.ExtractedMeeting) ([]model.MeetingRecord, error) {
	if !m.Valid() {
		return nil, eris.New("pipeline: attendee name or company is required")
	}
	fresh, _, err := t.deps.Merger.Merge(ctx, []model.ClassifiedMeeting{t.Classify(t.resolve(ctx, m, ""))})
	return fresh, err
}

func (t *Tracker) resolve(ctx context.Context, m model.ExtractedMeeting, text string) model.ExtractedMeeting {
	if t.deps.Resolver == nil {
		return m
	}
	return t.deps.Resolver.Resolve(ctx, m, text)
}

func (t *Tracker) saveRun(ctx context.Context, run *model.Run) {
	if t.deps.Runs == nil {
		return
	}
	if err := t.deps.Runs.SaveRun(ctx, run); err != nil {
		zap.L().Warn("pipeline: save run failed", zap.String("run_id", run.ID), zap.Error(err))
	}
}
