package statement

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	isoDate      = regexp.MustCompile(`^(\d{4})[-/.](\d{1,2})[-/.](\d{1,2})$`)
	dayMonthDate = regexp.MustCompile(`^(\d{1,2})[-/.](\d{1,2})(?:[-/.](\d{2,4}))?$`)
)

// NormalizeDate parses ISO-like (YYYY-MM-DD) and day/month (D/M[/YY[YY]])
// notations. Ambiguous day/month pairs are read day first. Anything that does
// not resolve to a real calendar date becomes the day of now.
func NormalizeDate(s string, now time.Time) time.Time {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	base := strings.TrimSpace(s)
	if i := strings.IndexAny(base, " T"); i >= 0 {
		base = base[:i]
	}

	if m := isoDate.FindStringSubmatch(base); m != nil {
		if d, ok := calendarDate(atoi(m[1]), atoi(m[2]), atoi(m[3])); ok {
			return d
		}
		return today
	}

	if m := dayMonthDate.FindStringSubmatch(base); m != nil {
		a, b := atoi(m[1]), atoi(m[2])
		year := now.Year()
		if m[3] != "" {
			year = atoi(m[3])
			if year < 100 {
				year += 2000
			}
		}

		day, month := a, b
		if a <= 12 && b > 12 {
			day, month = b, a
		}
		if d, ok := calendarDate(year, month, day); ok {
			return d
		}
	}

	return today
}

func calendarDate(year, month, day int) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date rolls 31/02 over into March
	if d.Day() != day || int(d.Month()) != month {
		return time.Time{}, false
	}
	return d, true
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
