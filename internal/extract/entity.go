package extract

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/sells-group/meeting-tracker/internal/classify"
)

// leadingNoise are capitalized words that precede a company name at the
// start of a clause but are never part of it.
var leadingNoise = map[string]bool{
	"the": true, "a": true, "an": true, "on": true, "in": true, "at": true,
	"and": true, "but": true, "after": true, "before": true, "when": true,
	"while": true, "with": true, "meanwhile": true, "also": true, "former": true, "then": true,
	"vice": true, "president": true, "senator": true, "secretary": true,
	"monday": true, "tuesday": true, "wednesday": true, "thursday": true,
	"friday": true, "saturday": true, "sunday": true, "january": true,
	"february": true, "march": true, "april": true, "may": true, "june": true,
	"july": true, "august": true, "september": true, "october": true,
	"november": true, "december": true, "last": true, "this": true,
}

const maxCompanyWords = 4

// entityFilter rejects fragments that do not name a private-sector
// attendee.
type entityFilter struct {
	subject       string
	subjectWords  map[string]bool
	triggerWords  map[string]bool
	excluded      *regexp.Regexp
	blocked       *regexp.Regexp
	nationalities map[string]bool
	nonNameWords  map[string]bool
}

func newEntityFilter(subject string, triggers, excluded, blocked, nationalities, nonNameWords []string) *entityFilter {
	trig := make(map[string]bool)
	for _, t := range triggers {
		for _, w := range strings.Fields(t) {
			trig[strings.ToLower(w)] = true
		}
	}
	f := &entityFilter{
		subject:       strings.ToLower(subject),
		subjectWords:  lowerSet(strings.Fields(subject)),
		triggerWords:  trig,
		excluded:      phraseRegexp(append([]string{subject}, excluded...), false),
		blocked:       phraseRegexp(blocked, false),
		nationalities: lowerSet(nationalities),
		nonNameWords:  lowerSet(nonNameWords),
	}
	return f
}

func lowerSet(words []string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[strings.ToLower(strings.TrimSpace(w))] = true
	}
	return m
}

// cleanCompany trims punctuation, leading clause words and legal suffixes.
// It returns "" when nothing company-like remains.
func cleanCompany(raw string) string {
	words := strings.Fields(raw)
	for len(words) > 0 && leadingNoise[strings.ToLower(words[0])] {
		words = words[1:]
	}
	c := strings.Join(words, " ")
	c = strings.TrimRight(c, ".,;:")
	c = strings.TrimSuffix(c, "'s")
	c = strings.TrimSuffix(c, "’s")
	return classify.TrimLegalSuffix(c)
}

// trimClause drops the leading clause that a Title-Case headline lets a
// company capture swallow ("Trump Meets With Apple"). The subject is only
// dropped when a trigger word follows it, so "Trump Organization" stays
// whole.
func (f *entityFilter) trimClause(c string) string {
	words := strings.Fields(c)
	for len(words) > 0 {
		w := strings.ToLower(words[0])
		switch {
		case leadingNoise[w] || f.triggerWords[w]:
			words = words[1:]
		case f.subjectWords[w] && len(words) > 1 && f.triggerWords[strings.ToLower(words[1])]:
			words = words[2:]
		default:
			return strings.Join(words, " ")
		}
	}
	return ""
}

// companyOK reports whether c can be kept as a company.
func (f *entityFilter) companyOK(c string) bool {
	if c == "" {
		return true
	}
	words := strings.Fields(c)
	if len(words) > maxCompanyWords {
		return false
	}
	lower := strings.ToLower(c)
	if lower == f.subject || matches(f.blocked, c) {
		return false
	}
	for _, w := range words {
		if strings.ToLower(w) == f.subject {
			return false
		}
	}
	if len(words) == 1 && f.nationalities[lower] {
		return false
	}
	return true
}

// nameOK reports whether n can be kept as an attendee name.
func (f *entityFilter) nameOK(n string) bool {
	if n == "" {
		return true
	}
	if matches(f.excluded, n) {
		return false
	}
	return looksLikePersonName(n, f.nonNameWords)
}

// looksLikePersonName checks for two or three capitalized, mostly lowercase
// words, none of which is a known non-name word.
func looksLikePersonName(name string, nonNameWords map[string]bool) bool {
	parts := strings.Fields(name)
	if len(parts) < 2 || len(parts) > 3 {
		return false
	}

	for _, part := range parts {
		if nonNameWords[strings.ToLower(part)] {
			return false
		}
		for _, sub := range strings.Split(part, "-") {
			runes := []rune(sub)
			if len(runes) < 2 || len(runes) > 15 || !unicode.IsUpper(runes[0]) {
				return false
			}
		}

		var lower, alpha int
		for _, r := range []rune(part)[1:] {
			if unicode.IsLetter(r) {
				alpha++
				if unicode.IsLower(r) {
					lower++
				}
			}
		}
		if alpha > 0 && float64(lower) < float64(alpha)*0.4 {
			return false
		}
	}
	return true
}
