// Package classify maps free-text company names onto the industry taxonomy.
package classify

import (
	"strings"
	"unicode/utf8"

	"github.com/sells-group/meeting-tracker/internal/model"
	"github.com/sells-group/meeting-tracker/internal/taxonomy"
)

// MinSubstringRunes is the shortest contained string accepted by the
// substring tier.
const MinSubstringRunes = 4

// Result is the outcome of classifying one company string.
type Result struct {
	Industry   string
	Confidence model.Confidence
	Tier       model.MatchTier
	Matched    string
}

type entry struct {
	key      string
	runes    int
	industry string
	label    string
}

// Classifier resolves company names against a taxonomy. It is immutable and
// safe for concurrent use.
type Classifier struct {
	names    []entry
	aliases  []entry
	all      []entry // names and aliases interleaved in declaration order
	keywords []entry
}

// New indexes the taxonomy. Entries keep declaration order.
func New(tx *taxonomy.Taxonomy) *Classifier {
	c := &Classifier{}
	for _, ind := range tx.Industries() {
		for _, co := range ind.Companies {
			c.names = appendEntry(c.names, Normalize(co.Name), ind.Name, co.Name)
			c.all = appendEntry(c.all, Normalize(co.Name), ind.Name, co.Name)
			for _, a := range co.Aliases {
				c.aliases = appendEntry(c.aliases, Normalize(a), ind.Name, a)
				c.all = appendEntry(c.all, Normalize(a), ind.Name, a)
			}
		}
		for _, a := range ind.Aliases {
			c.aliases = appendEntry(c.aliases, Normalize(a), ind.Name, a)
			c.all = appendEntry(c.all, Normalize(a), ind.Name, a)
		}
		for _, k := range ind.Keywords {
			c.keywords = appendEntry(c.keywords, Normalize(k), ind.Name, k)
		}
	}
	return c
}

func appendEntry(list []entry, key, industry, label string) []entry {
	if key == "" {
		return list
	}
	return append(list, entry{key: key, runes: utf8.RuneCountInString(key), industry: industry, label: label})
}

// Classify assigns an industry and confidence to companyRaw. Tiers are tried
// in order and the first hit wins: exact name, exact alias, substring,
// keyword. Within a tier the longest match wins, then declaration order.
func (c *Classifier) Classify(companyRaw string) Result {
	n := Normalize(companyRaw)
	if n == "" {
		return none()
	}

	if e, ok := best(c.names, func(e entry) bool { return e.key == n }); ok {
		return hit(e, model.ConfidenceHigh, model.MatchExact)
	}
	if e, ok := best(c.aliases, func(e entry) bool { return e.key == n }); ok {
		return hit(e, model.ConfidenceHigh, model.MatchAlias)
	}

	nRunes := utf8.RuneCountInString(n)
	substring := func(e entry) bool {
		switch {
		case e.runes <= nRunes:
			return e.runes >= MinSubstringRunes && strings.Contains(n, e.key)
		default:
			return nRunes >= MinSubstringRunes && strings.Contains(e.key, n)
		}
	}
	if e, ok := best(c.all, substring); ok {
		return hit(e, model.ConfidenceMedium, model.MatchSubstring)
	}

	if e, ok := best(c.keywords, func(e entry) bool { return strings.Contains(n, e.key) }); ok {
		return hit(e, model.ConfidenceLow, model.MatchKeyword)
	}
	return none()
}

// best returns the longest matching entry; earlier entries win ties.
func best(list []entry, match func(entry) bool) (entry, bool) {
	var found entry
	ok := false
	for _, e := range list {
		if !match(e) {
			continue
		}
		if !ok || e.runes > found.runes {
			found, ok = e, true
		}
	}
	return found, ok
}

func hit(e entry, conf model.Confidence, tier model.MatchTier) Result {
	return Result{Industry: e.industry, Confidence: conf, Tier: tier, Matched: e.label}
}

func none() Result {
	return Result{Confidence: model.ConfidenceLow, Tier: model.MatchNone}
}
