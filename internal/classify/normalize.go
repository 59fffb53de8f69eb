package classify

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

var legalSuffix = regexp.MustCompile(
	`(?i)(?:\s*,\s*|\s+)(L\.?L\.?C\.?|INC\.?|INCORPORATED|CORP\.?|CORPORATION|` +
		`CO\.|LTD\.?|LIMITED|PLC|L\.P\.|LLP|L\.L\.P\.|N\.V\.|S\.A\.|AG|GMBH)\s*$`)

var multiSpace = regexp.MustCompile(`\s+`)

// TrimLegalSuffix removes trailing legal-entity suffixes such as "Inc." and
// "Corp." while keeping the original casing.
func TrimLegalSuffix(name string) string {
	n := strings.TrimSpace(name)
	for {
		trimmed := legalSuffix.ReplaceAllString(n, "")
		trimmed = strings.TrimRight(trimmed, " ,&")
		if trimmed == n || trimmed == "" {
			break
		}
		n = trimmed
	}
	return multiSpace.ReplaceAllString(n, " ")
}

// Normalize prepares a company name for matching: NFKC, legal suffixes
// stripped, whitespace collapsed, case folded.
func Normalize(name string) string {
	n := norm.NFKC.String(name)
	n = TrimLegalSuffix(n)
	// Casers are stateful and not safe to share.
	return cases.Fold().String(n)
}
