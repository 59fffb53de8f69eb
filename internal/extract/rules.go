package extract

import (
	"regexp"
	"strings"

	"github.com/sells-group/meeting-tracker/internal/taxonomy"
)

// Fragment is a partial attendee description produced by a rule.
type Fragment struct {
	Name    string
	Title   string
	Company string
}

// Rule pulls attendee fragments out of one text window. Rules must be pure.
type Rule interface {
	Name() string
	Apply(window string) []Fragment
}

const (
	word          = `[A-Z0-9][A-Za-z0-9&.\-]*`
	companyAfter  = word + `(?:\s+(?:&\s+|of\s+)?` + word + `){0,3}`
	companyBefore = word + `(?:\s+(?:&\s+|of\s+)?` + word + `){0,2}`
	fullName      = `[A-Z][a-z]+(?:-[A-Z][a-z]+)?(?:\s+[A-Z][a-zA-Z'\-]+){1,2}`
	givenSurname  = `[A-Z][a-z]+(?:-[A-Z][a-z]+)?\s+[A-Z][a-zA-Z'\-]+`
	articleWord   = `(?:(?:the|a|an)\s+)?`
)

// patternRule is a Rule backed by one regular expression. Group indexes of
// zero mean the rule does not capture that field.
type patternRule struct {
	name                       string
	re                         *regexp.Regexp
	nameIdx, titleIdx, compIdx int
}

func (r *patternRule) Name() string { return r.name }

func (r *patternRule) Apply(window string) []Fragment {
	var out []Fragment
	for _, m := range r.re.FindAllStringSubmatch(window, -1) {
		var f Fragment
		if r.nameIdx > 0 {
			f.Name = squash(m[r.nameIdx])
		}
		if r.titleIdx > 0 {
			f.Title = squash(m[r.titleIdx])
		}
		if r.compIdx > 0 {
			f.Company = squash(m[r.compIdx])
		}
		out = append(out, f)
	}
	return out
}

// TitleOfCompany matches "Andy Jassy, CEO of Amazon".
func TitleOfCompany(titles []string) Rule {
	return &patternRule{
		name: "title_of_company",
		re: regexp.MustCompile(`(` + fullName + `),\s+` + articleWord +
			`((?i:` + alternation(titles, nil) + `))\s+(?:of|at)\s+(` + companyAfter + `)`),
		nameIdx: 1, titleIdx: 2, compIdx: 3,
	}
}

// CompanyTitleName matches "Amazon CEO Andy Jassy" and hyphenated given
// names such as "Intel CEO Lip-Bu Tan".
func CompanyTitleName(titles []string) Rule {
	return &patternRule{
		name: "company_title_name",
		re: regexp.MustCompile(`(` + companyBefore + `)\s+(` + alternation(titles, nil) +
			`)\s+(` + givenSurname + `)`),
		compIdx: 1, titleIdx: 2, nameIdx: 3,
	}
}

// NameCommaTitle matches "Andy Jassy, Amazon's chief executive".
func NameCommaTitle(titles []string) Rule {
	return &patternRule{
		name: "name_comma_title",
		re: regexp.MustCompile(`(` + fullName + `),\s+(` + companyBefore + `)['’]s\s+` +
			`((?i:` + alternation(titles, nil) + `))`),
		nameIdx: 1, compIdx: 2, titleIdx: 3,
	}
}

// CompanyTitleOnly matches "met with Intel CEO" where no name is given.
func CompanyTitleOnly(triggers, titles []string) Rule {
	return &patternRule{
		name: "company_title_only",
		re: regexp.MustCompile(`(?i:\b(?:` + alternation(triggers, nil) + `))\s+(?:(?i:with)\s+)?` +
			`(?:(?i:the)\s+)?(` + companyBefore + `)\s+(` + alternation(titles, nil) + `)\b`),
		compIdx: 1, titleIdx: 2,
	}
}

// knownExecutiveRule recognizes configured executives by name alone.
type knownExecutiveRule struct {
	execs []taxonomy.Executive
	res   []*regexp.Regexp
}

// KnownExecutive matches configured prominent executives by name.
func KnownExecutive(execs []taxonomy.Executive) Rule {
	r := &knownExecutiveRule{}
	for _, e := range execs {
		if strings.TrimSpace(e.Name) == "" {
			continue
		}
		r.execs = append(r.execs, e)
		r.res = append(r.res, phraseRegexp([]string{e.Name}, false))
	}
	return r
}

func (r *knownExecutiveRule) Name() string { return "known_executive" }

func (r *knownExecutiveRule) Apply(window string) []Fragment {
	var out []Fragment
	for i, re := range r.res {
		if re.MatchString(window) {
			e := r.execs[i]
			out = append(out, Fragment{Name: e.Name, Title: e.Title, Company: e.Company})
		}
	}
	return out
}

// DefaultRules returns the built-in rules in priority order.
func DefaultRules(ex taxonomy.Extraction) []Rule {
	return []Rule{
		TitleOfCompany(ex.Titles),
		CompanyTitleName(ex.Titles),
		NameCommaTitle(ex.Titles),
		KnownExecutive(ex.Executives),
		CompanyTitleOnly(ex.Triggers, ex.Titles),
	}
}
