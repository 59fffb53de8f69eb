// Package extract turns news articles into meeting candidates using ordered,
// independent text rules.
package extract

import (
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/meeting-tracker/internal/model"
	"github.com/sells-group/meeting-tracker/internal/taxonomy"
)

var (
	summitCues  = phraseRegexp([]string{"summit", "roundtable", "forum"}, false)
	callCues    = phraseRegexp([]string{"call", "phone call", "phoned", "spoke by phone", "video call", "conference call"}, false)
	meetingCues = phraseRegexp([]string{
		"met", "meet", "meets", "meeting", "hosted", "hosts", "hosting", "welcomed",
		"dinner", "lunch", "breakfast", "sat down",
	}, false)
)

type location struct {
	name string
	re   *regexp.Regexp
}

// Extractor finds meeting candidates in articles. It is immutable after New
// and safe for concurrent use.
type Extractor struct {
	subject      *regexp.Regexp
	triggers     *regexp.Regexp
	business     *regexp.Regexp
	political    *regexp.Regexp
	maxPolitical int
	span         int
	locations    []location
	filter       *entityFilter
	rules        []Rule
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithRules replaces the default rule list. Rules are tried in order.
func WithRules(rules ...Rule) Option {
	return func(e *Extractor) { e.rules = rules }
}

// New builds an Extractor from the taxonomy's extraction settings.
func New(ex taxonomy.Extraction, opts ...Option) *Extractor {
	e := &Extractor{
		subject:      phraseRegexp([]string{ex.Subject}, false),
		triggers:     phraseRegexp(ex.Triggers, false),
		business:     phraseRegexp(ex.BusinessCues, true),
		political:    phraseRegexp(ex.PoliticalCues, false),
		maxPolitical: ex.MaxPoliticalCues,
		span:         ex.WindowSpan,
		filter:       newEntityFilter(ex.Subject, ex.Triggers, ex.ExcludedNames, ex.BlockedEntities, ex.Nationalities, ex.NonNameWords),
		rules:        DefaultRules(ex),
	}
	for _, l := range ex.Locations {
		phrases := append([]string{l.Name}, l.Aliases...)
		e.locations = append(e.locations, location{name: l.Name, re: phraseRegexp(phrases, false)})
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Gate reports whether the article text is worth extracting from. The
// returned reason is empty when the article passes.
func (e *Extractor) Gate(text string) (bool, string) {
	switch {
	case !matches(e.subject, text):
		return false, "no subject mention"
	case !matches(e.triggers, text):
		return false, "no trigger phrase"
	case e.business != nil && !matches(e.business, text):
		return false, "no business cue"
	}
	if n := distinctMatches(e.political, text); n > e.maxPolitical {
		return false, fmt.Sprintf("%d political cues", n)
	}
	return true, ""
}

// Extract returns the meeting candidates found in a. An article that fails
// the gate yields nil. Extract never panics; a failing rule degrades the
// result to the candidates collected so far.
func (e *Extractor) Extract(a model.Article) (out []model.ExtractedMeeting) {
	log := zap.L().With(zap.String("url", a.SourceURL))
	defer func() {
		if r := recover(); r != nil {
			log.Warn("extract: recovered from rule failure", zap.Any("panic", r))
		}
	}()

	text := a.Text()
	if ok, reason := e.Gate(text); !ok {
		log.Debug("extract: article skipped", zap.String("reason", reason))
		return nil
	}

	sentences := splitSentences(text)
	seen := make(map[string]struct{})
	ref := a.Ref()

	for i, s := range sentences {
		if !matches(e.triggers, s) {
			continue
		}
		end := i + 1 + e.span
		if end > len(sentences) {
			end = len(sentences)
		}
		window := strings.Join(sentences[i:end], " ")

		for _, f := range e.applyRules(window) {
			m := model.ExtractedMeeting{
				AttendeeName:  f.Name,
				AttendeeTitle: f.Title,
				CompanyRaw:    f.Company,
				Location:      e.locate(window, text),
				MeetingType:   meetingType(window),
				MeetingDate:   meetingDate(window, a.PublishedAt),
				Source:        ref,
			}
			if !m.Valid() {
				continue
			}
			key := strings.ToLower(m.AttendeeName) + "\x1f" + strings.ToLower(m.CompanyRaw)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, m)
		}
	}

	log.Debug("extract: article processed", zap.Int("candidates", len(out)))
	return out
}

// applyRules returns the cleaned fragments of the first rule that yields any.
func (e *Extractor) applyRules(window string) []Fragment {
	for _, r := range e.rules {
		var kept []Fragment
		for _, f := range r.Apply(window) {
			f.Name = cleanName(f.Name)
			f.Company = e.filter.trimClause(cleanCompany(f.Company))
			f.Title = squash(f.Title)
			if !e.filter.nameOK(f.Name) || !e.filter.companyOK(f.Company) {
				continue
			}
			if f.Name == "" && f.Company == "" {
				continue
			}
			kept = append(kept, f)
		}
		if len(kept) > 0 {
			return kept
		}
	}
	return nil
}

// locate prefers a location named in the window over one named elsewhere
// in the article.
func (e *Extractor) locate(window, article string) string {
	for _, l := range e.locations {
		if matches(l.re, window) {
			return l.name
		}
	}
	for _, l := range e.locations {
		if matches(l.re, article) {
			return l.name
		}
	}
	return ""
}

func meetingType(window string) model.MeetingType {
	switch {
	case matches(summitCues, window):
		return model.MeetingTypeSummit
	case matches(callCues, window):
		return model.MeetingTypeCall
	case matches(meetingCues, window):
		return model.MeetingTypeMeeting
	default:
		return model.MeetingTypeOther
	}
}

func cleanName(n string) string {
	words := strings.Fields(n)
	for len(words) > 2 && leadingNoise[strings.ToLower(words[0])] {
		words = words[1:]
	}
	for len(words) > 2 && leadingNoise[strings.ToLower(words[len(words)-1])] {
		words = words[:len(words)-1]
	}
	return strings.Join(words, " ")
}
