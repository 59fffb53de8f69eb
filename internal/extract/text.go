package extract

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// phraseRegexp compiles a case-insensitive alternation of phrases. Each
// phrase is bounded on the sides where it begins or ends with a word
// character; prefixOnly drops the trailing bound so "tech" also matches
// "technology".
func phraseRegexp(phrases []string, prefixOnly bool) *regexp.Regexp {
	alt := alternation(phrases, func(p, q string) string {
		if isWordByte(p[0]) {
			q = `\b` + q
		}
		if !prefixOnly && isWordByte(p[len(p)-1]) {
			q += `\b`
		}
		return q
	})
	if alt == "" {
		return nil
	}
	return regexp.MustCompile(`(?i)(?:` + alt + `)`)
}

// alternation quotes phrases longest-first so longer phrases win at the same
// position. Spaces match any run of whitespace.
func alternation(phrases []string, wrap func(raw, quoted string) string) string {
	sorted := make([]string, 0, len(phrases))
	for _, p := range phrases {
		if p = strings.TrimSpace(p); p != "" {
			sorted = append(sorted, p)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool { return len(sorted[i]) > len(sorted[j]) })

	parts := make([]string, 0, len(sorted))
	for _, p := range sorted {
		q := strings.ReplaceAll(regexp.QuoteMeta(p), " ", `\s+`)
		if wrap != nil {
			q = wrap(p, q)
		}
		parts = append(parts, q)
	}
	return strings.Join(parts, "|")
}

func isWordByte(b byte) bool {
	return b == '_' || ('0' <= b && b <= '9') || ('a' <= b && b <= 'z') || ('A' <= b && b <= 'Z')
}

// matches reports whether re finds anything in s. A nil pattern never matches.
func matches(re *regexp.Regexp, s string) bool {
	return re != nil && re.MatchString(s)
}

// distinctMatches counts the different phrases of re present in s.
func distinctMatches(re *regexp.Regexp, s string) int {
	if re == nil {
		return 0
	}
	seen := make(map[string]struct{})
	for _, m := range re.FindAllString(s, -1) {
		seen[strings.Join(strings.Fields(strings.ToLower(m)), " ")] = struct{}{}
	}
	return len(seen)
}

var abbreviations = map[string]bool{
	"inc": true, "corp": true, "co": true, "ltd": true, "mr": true, "mrs": true,
	"ms": true, "dr": true, "st": true, "jr": true, "sr": true, "vs": true,
	"gov": true, "sen": true, "rep": true, "gen": true, "u.s": true, "u.k": true,
	"d.c": true, "no": true,
}

// splitSentences breaks text at terminal punctuation followed by whitespace
// and at line breaks. Common abbreviations and single-letter initials do not
// end a sentence.
func splitSentences(text string) []string {
	var out []string
	start := 0
	emit := func(end int) {
		if s := strings.TrimSpace(text[start:end]); s != "" {
			out = append(out, strings.Join(strings.Fields(s), " "))
		}
		start = end
	}

	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		next := i + size
		switch {
		case r == '\n':
			emit(next)
		case r == '.' || r == '!' || r == '?':
			if next < len(text) {
				nr, _ := utf8.DecodeRuneInString(text[next:])
				if !unicode.IsSpace(nr) {
					break
				}
			}
			if r == '.' && isAbbreviation(text[start:i]) {
				break
			}
			emit(next)
		}
		i = next
	}
	emit(len(text))
	return out
}

func isAbbreviation(before string) bool {
	idx := strings.LastIndexFunc(before, unicode.IsSpace)
	word := strings.ToLower(strings.TrimLeft(before[idx+1:], "(\"'"))
	if word == "" {
		return false
	}
	if abbreviations[word] {
		return true
	}
	// Initials: "J", "J.B", "p.m".
	for _, seg := range strings.Split(word, ".") {
		r, size := utf8.DecodeRuneInString(seg)
		if size != len(seg) || !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

// squash collapses whitespace.
func squash(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
