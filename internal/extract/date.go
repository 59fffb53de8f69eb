package extract

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

const monthNames = `January|February|March|April|May|June|July|August|September|October|November|December`

var (
	monthDayYear = regexp.MustCompile(`\b(` + monthNames + `)\s+(\d{1,2}),?\s+(\d{4})\b`)
	numericDate  = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})/(\d{4})\b`)
	weekdayMonth = regexp.MustCompile(`\b(?:Monday|Tuesday|Wednesday|Thursday|Friday|Saturday|Sunday),?\s+(` +
		monthNames + `)\s+(\d{1,2})\b`)
)

// meetingDate returns the first explicit calendar date in text, or the
// publish date when there is none. A date without a year takes the publish
// year, or the year before when that would put it after publication.
func meetingDate(text string, published time.Time) time.Time {
	if m := monthDayYear.FindStringSubmatch(text); m != nil {
		if d, ok := civilDate(atoi(m[3]), monthNumber(m[1]), atoi(m[2])); ok {
			return d
		}
	}
	if m := numericDate.FindStringSubmatch(text); m != nil {
		if d, ok := civilDate(atoi(m[3]), atoi(m[1]), atoi(m[2])); ok {
			return d
		}
	}
	if m := weekdayMonth.FindStringSubmatch(text); m != nil && !published.IsZero() {
		year := published.Year()
		if d, ok := civilDate(year, monthNumber(m[1]), atoi(m[2])); ok {
			if d.After(published.AddDate(0, 0, 1)) {
				d, ok = civilDate(year-1, monthNumber(m[1]), atoi(m[2]))
			}
			if ok {
				return d
			}
		}
	}
	if published.IsZero() {
		return time.Time{}
	}
	p := published.UTC()
	return time.Date(p.Year(), p.Month(), p.Day(), 0, 0, 0, 0, time.UTC)
}

// civilDate builds a UTC midnight date, rejecting overflow such as
// February 30.
func civilDate(year, month, day int) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if d.Day() != day {
		return time.Time{}, false
	}
	return d, true
}

func monthNumber(name string) int {
	for m := time.January; m <= time.December; m++ {
		if strings.EqualFold(m.String(), name) {
			return int(m)
		}
	}
	return 0
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
