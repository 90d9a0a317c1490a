package parser

import (
	"regexp"
	"strconv"
	"time"
)

// minguoOffset converts a Republic of China year to the Gregorian year.
const minguoOffset = 1911

type datePattern struct {
	pattern    *regexp.Regexp
	yearOffset int
}

// datePatterns are tried in order. Each captures year, month and day.
var datePatterns = []datePattern{
	{pattern: regexp.MustCompile(`(\d{4})[/\-.](\d{1,2})[/\-.](\d{1,2})`)},
	{pattern: regexp.MustCompile(`(\d{3})[/\-.](\d{1,2})[/\-.](\d{1,2})`), yearOffset: minguoOffset},
}

// ParseDate returns the date of the first pattern that matches text and forms
// a real calendar date. The result is midnight in loc.
func ParseDate(text string, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.Local
	}
	for _, p := range datePatterns {
		m := p.pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		year, errY := strconv.Atoi(m[1])
		month, errM := strconv.Atoi(m[2])
		day, errD := strconv.Atoi(m[3])
		if errY != nil || errM != nil || errD != nil {
			continue
		}
		if date, ok := calendarDate(year+p.yearOffset, month, day, loc); ok {
			return date, true
		}
	}
	return time.Time{}, false
}

// calendarDate rejects components that time.Date would silently normalise,
// such as month 13 or April 31.
func calendarDate(year, month, day int, loc *time.Location) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}
