package extract

import (
	"context"
	"regexp"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/sells-group/meeting-tracker/internal/model"
	"github.com/sells-group/meeting-tracker/internal/taxonomy"
	"github.com/sells-group/meeting-tracker/pkg/newsapi"
)

// lookupTitles are the executive titles a lookup accepts. President is left
// out: next to the subject it almost always names a head of state.
var lookupTitles = []string{
	"Chief Executive Officer", "Chief Executive", "CEO",
	"Executive Chairman", "Chairman", "Chairwoman", "Co-Founder", "Founder",
}

const (
	lookupCompany = `[A-Z][A-Za-z0-9&\-]*(?:\s+[A-Z][A-Za-z0-9&\-]*){0,2}`
	chiefTitle    = `(?i:CEO|chief\s+executive(?:\s+officer)?)`

	personPageSize  = 3
	companyPageSize = 5
)

// ResolverOptions configure a Resolver.
type ResolverOptions struct {
	// MaxSearches caps NewsAPI calls over the resolver's lifetime. Zero
	// limits lookups to the article text and configured executives.
	MaxSearches int
	// Rate limits NewsAPI calls. Zero means one per second.
	Rate     rate.Limit
	Language string
}

// Resolver fills a missing company for a named attendee, or a missing chief
// executive for a named company. It looks in the article text first, then
// in the configured executives, then in NewsAPI search results. Search
// results, misses included, are cached. A Resolver is safe for concurrent
// use.
type Resolver struct {
	client   newsapi.Client
	filter   *entityFilter
	titles   string
	execs    []taxonomy.Executive
	limiter  *rate.Limiter
	language string
	group    singleflight.Group

	mu       sync.Mutex
	searches int
	cache    map[string]lookupResult
}

type lookupResult struct {
	value string
	title string
}

// NewResolver builds a Resolver. client may be nil, which disables search.
func NewResolver(ex taxonomy.Extraction, client newsapi.Client, opts ResolverOptions) *Resolver {
	limit := opts.Rate
	if limit == 0 {
		limit = 1
	}
	return &Resolver{
		client:   client,
		filter:   newEntityFilter(ex.Subject, ex.Triggers, ex.ExcludedNames, ex.BlockedEntities, ex.Nationalities, ex.NonNameWords),
		titles:   alternation(lookupTitles, nil),
		execs:    ex.Executives,
		limiter:  rate.NewLimiter(limit, 1),
		language: opts.Language,
		searches: opts.MaxSearches,
		cache:    make(map[string]lookupResult),
	}
}

// Resolve returns m with its missing company or chief executive filled in
// when one can be found. text is the source article's text and may be
// empty. Lookup failures leave m unchanged.
func (r *Resolver) Resolve(ctx context.Context, m model.ExtractedMeeting, text string) model.ExtractedMeeting {
	switch {
	case m.AttendeeName != "" && m.CompanyRaw == "":
		if res := r.companyOf(ctx, m.AttendeeName, text); res.value != "" {
			m.CompanyRaw = res.value
			if m.AttendeeTitle == "" {
				m.AttendeeTitle = res.title
			}
		}
	case m.AttendeeName == "" && m.CompanyRaw != "" && isChiefExecutive(m.AttendeeTitle):
		if res := r.chiefOf(ctx, m.CompanyRaw, text); res.value != "" {
			m.AttendeeName = res.value
			if m.AttendeeTitle == "" {
				m.AttendeeTitle = res.title
			}
		}
	}
	return m
}

func isChiefExecutive(title string) bool {
	t := strings.ToLower(squash(title))
	return t == "" || t == "ceo" || strings.HasPrefix(t, "chief executive")
}

func (r *Resolver) companyOf(ctx context.Context, name, text string) lookupResult {
	nq := `(?i:` + alternation([]string{name}, nil) + `)`
	tq := `(?i:` + r.titles + `)`
	patterns := []*regexp.Regexp{
		regexp.MustCompile(`(` + lookupCompany + `)\s+(` + tq + `)\s+` + nq + `\b`),
		regexp.MustCompile(nq + `[^.]*?\b(` + tq + `)\b[^.]*?\b(?:of|at)\s+(` + lookupCompany + `)`),
	}
	match := func(t string) (lookupResult, bool) {
		for i, re := range patterns {
			sm := re.FindStringSubmatch(t)
			if sm == nil {
				continue
			}
			company, title := sm[1], sm[2]
			if i == 1 {
				company, title = sm[2], sm[1]
			}
			company = r.filter.trimClause(cleanCompany(company))
			if company == "" || len(strings.Fields(company)) > 3 || !r.filter.companyOK(company) ||
				strings.Contains(strings.ToLower(name), strings.ToLower(company)) {
				continue
			}
			return lookupResult{value: company, title: canonicalTitle(title)}, true
		}
		return lookupResult{}, false
	}

	if res, ok := match(text); ok {
		return res
	}
	for _, e := range r.execs {
		if strings.EqualFold(e.Name, name) {
			return lookupResult{value: e.Company, title: e.Title}
		}
	}
	return r.remote(ctx, "person:"+strings.ToLower(name), `"`+name+`" CEO`, personPageSize, match)
}

func (r *Resolver) chiefOf(ctx context.Context, company, text string) lookupResult {
	cq := `(?i:` + alternation([]string{company}, nil) + `)`
	patterns := []*regexp.Regexp{
		regexp.MustCompile(`\b` + cq + `\s+` + chiefTitle + `\s+(` + givenSurname + `)`),
		regexp.MustCompile(`(` + givenSurname + `),\s+(?:(?i:the)\s+)?` + chiefTitle + `\s+(?:of|at)\s+` + cq + `\b`),
		regexp.MustCompile(`(` + givenSurname + `)\s+is\s+(?:the\s+)?` + chiefTitle + `\s+(?:of|at)\s+` + cq + `\b`),
	}
	match := func(t string) (lookupResult, bool) {
		for _, re := range patterns {
			for _, sm := range re.FindAllStringSubmatch(t, -1) {
				if name := cleanName(sm[1]); r.filter.nameOK(name) {
					return lookupResult{value: name, title: "CEO"}, true
				}
			}
		}
		return lookupResult{}, false
	}

	if res, ok := match(text); ok {
		return res
	}
	for _, e := range r.execs {
		if strings.EqualFold(e.Company, company) && isChiefExecutive(e.Title) {
			return lookupResult{value: e.Name, title: e.Title}
		}
	}
	return r.remote(ctx, "company:"+strings.ToLower(company), `"`+company+`" CEO`, companyPageSize, match)
}

// remote runs one cached, budgeted search. Concurrent lookups of the same
// key share a single call.
func (r *Resolver) remote(ctx context.Context, key, query string, pageSize int, match func(string) (lookupResult, bool)) lookupResult {
	if r.client == nil {
		return lookupResult{}
	}
	v, _, _ := r.group.Do(key, func() (any, error) {
		r.mu.Lock()
		if res, ok := r.cache[key]; ok {
			r.mu.Unlock()
			return res, nil
		}
		if r.searches <= 0 {
			r.mu.Unlock()
			return lookupResult{}, nil
		}
		r.searches--
		r.mu.Unlock()

		res, err := r.search(ctx, query, pageSize, match)
		if err != nil {
			zap.L().Warn("extract: lookup search failed", zap.String("query", query), zap.Error(err))
			return lookupResult{}, nil
		}
		r.mu.Lock()
		r.cache[key] = res
		r.mu.Unlock()
		zap.L().Debug("extract: lookup search", zap.String("query", query), zap.String("found", res.value))
		return res, nil
	})
	return v.(lookupResult)
}

func (r *Resolver) search(ctx context.Context, query string, pageSize int, match func(string) (lookupResult, bool)) (lookupResult, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return lookupResult{}, eris.Wrap(err, "extract: lookup rate wait")
	}
	resp, err := r.client.Everything(ctx, newsapi.Query{
		Q:        query,
		Language: r.language,
		SortBy:   "relevancy",
		PageSize: pageSize,
	})
	if err != nil {
		return lookupResult{}, eris.Wrapf(err, "extract: lookup %q", query)
	}
	for _, a := range resp.Articles {
		if res, ok := match(a.Title + ". " + a.Description + ". " + a.Content); ok {
			return res, nil
		}
	}
	return lookupResult{}, nil
}

func canonicalTitle(raw string) string {
	raw = squash(raw)
	for _, t := range lookupTitles {
		if strings.EqualFold(raw, t) {
			return t
		}
	}
	return raw
}
