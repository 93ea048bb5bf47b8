// Package due parses the workflow's due-date inputs: m/h/d/w shorthand,
// natural-language weekdays, absolute dates, and the two fixed textual
// timestamp layouts the create flow passes between invocations.
package due

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"clickat/internal/utils"
)

// The create flow serializes timestamps in one of two textual layouts,
// distinguished by length: 26 characters carry microseconds.
const (
	layoutMinute  = "2006-01-02 15:04"
	layoutSecond  = "2006-01-02 15:04:05"
	lenWithMicros = 26
)

var weekdays = map[string]time.Weekday{
	"mon": time.Monday, "monday": time.Monday,
	"tue": time.Tuesday, "tuesday": time.Tuesday,
	"wed": time.Wednesday, "wednesday": time.Wednesday,
	"thu": time.Thursday, "thursday": time.Thursday,
	"fri": time.Friday, "friday": time.Friday,
	"sat": time.Saturday, "saturday": time.Saturday,
	"sun": time.Sunday, "sunday": time.Sunday,
}

var relativeDays = map[string]int{
	"tod": 0, "today": 0,
	"tom": 1, "tomorrow": 1,
}

var (
	datePattern = regexp.MustCompile(`\d{4}-\d?\d-\d?\d`)
	// Word boundaries keep "25.99" from matching as "5.9".
	timePattern = regexp.MustCompile(`\b(2[0-3]|[01]?[0-9])\.[0-5]?[0-9](\.[0-5]?[0-9])?\b`)
)

// ParseShorthand parses a unit-prefixed offset like "m30", "h2", "d1" or
// "w1" into a duration.
func ParseShorthand(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return 0, utils.ErrInvalidDueShorthand(s)
	}

	n, err := strconv.Atoi(s[1:])
	if err != nil {
		return 0, utils.ErrInvalidDueShorthand(s)
	}

	switch s[0] {
	case 'm':
		return time.Duration(n) * time.Minute, nil
	case 'h':
		return time.Duration(n) * time.Hour, nil
	case 'd':
		return time.Duration(n) * 24 * time.Hour, nil
	case 'w':
		return time.Duration(n) * 7 * 24 * time.Hour, nil
	}
	return 0, utils.ErrInvalidDueShorthand(s)
}

// DescribeShorthand renders a shorthand value for display, e.g.
// "d2" -> "2 days". The second return is false for unparseable input.
func DescribeShorthand(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return "", false
	}
	units := map[byte]string{'m': "minutes", 'h': "hours", 'd': "days", 'w': "weeks"}
	unit, ok := units[s[0]]
	if !ok {
		return "", false
	}
	if _, err := strconv.Atoi(s[1:]); err != nil {
		return "", false
	}
	return s[1:] + " " + unit, true
}

// NextWeekday returns the date of the next occurrence of weekday after d,
// always in the future (a weekday matching today rolls to next week).
func NextWeekday(d time.Time, weekday time.Weekday) time.Time {
	daysAhead := int(weekday) - int(d.Weekday())
	if daysAhead <= 0 {
		daysAhead += 7
	}
	return d.AddDate(0, 0, daysAhead)
}

// ParseNatural resolves weekday names, today/tomorrow (with an optional
// HH.MM time suffix) and absolute YYYY-MM-DD / HH.MM values. It returns
// (nil, nil) when the value is not a natural-language date, so callers
// can fall back to shorthand parsing.
func ParseNatural(value string, now time.Time) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}

	fields := strings.Fields(value)
	first := strings.ToLower(fields[0])

	if wd, ok := weekdays[first]; ok {
		t := NextWeekday(now, wd)
		return &t, nil
	}

	if offset, ok := relativeDays[first]; ok {
		t := now.AddDate(0, 0, offset)
		if len(fields) > 1 {
			rest := strings.Join(fields[1:], " ")
			if m := timePattern.FindString(rest); m != "" {
				h, min := splitClock(m)
				t = time.Date(t.Year(), t.Month(), t.Day(), h, min, 0, 0, t.Location())
			} else {
				h, err := strconv.Atoi(fields[1])
				if err != nil {
					return nil, fmt.Errorf("not a valid time: %q (use 24h format with a dot, e.g. 15.00)", fields[1])
				}
				t = time.Date(t.Year(), t.Month(), t.Day(), h, 0, 0, 0, t.Location())
			}
		}
		return &t, nil
	}

	dateMatch := datePattern.FindString(value)
	timeMatch := timePattern.FindString(value)
	if dateMatch == "" && timeMatch == "" {
		return nil, nil
	}

	day := now
	if dateMatch != "" {
		parsed, err := time.ParseInLocation("2006-1-2", dateMatch, now.Location())
		if err != nil {
			return nil, nil
		}
		day = parsed
	}

	if timeMatch != "" {
		h, min := splitClock(timeMatch)
		t := time.Date(day.Year(), day.Month(), day.Day(), h, min, 0, 0, now.Location())
		return &t, nil
	}

	// Date only: keep the current wall-clock time.
	t := time.Date(day.Year(), day.Month(), day.Day(), now.Hour(), now.Minute(), now.Second(), 0, now.Location())
	return &t, nil
}

func splitClock(s string) (hour, minute int) {
	parts := strings.Split(s, ".")
	hour, _ = strconv.Atoi(parts[0])
	if len(parts) > 1 {
		minute, _ = strconv.Atoi(parts[1])
	}
	return hour, minute
}

// ToMillis converts one of the two fixed textual timestamp layouts into
// local-time milliseconds since the epoch. A 26-character value carries
// microseconds, which are discarded along with the seconds; anything
// else must be the 19-character seconds layout.
func ToMillis(text string) (int64, error) {
	var t time.Time
	var err error

	if len(text) == lenWithMicros {
		t, err = time.ParseInLocation(layoutMinute, text[:len(layoutMinute)], time.Local)
	} else {
		t, err = time.ParseInLocation(layoutSecond, text, time.Local)
	}
	if err != nil {
		return 0, fmt.Errorf("invalid due timestamp %q: %w", text, err)
	}

	return t.UnixMilli(), nil
}

// EndOfTodayMillis returns 23:59:59 local time today as epoch milliseconds.
func EndOfTodayMillis(now time.Time) int64 {
	eod := time.Date(now.Year(), now.Month(), now.Day(), 23, 59, 59, 0, now.Location())
	return eod.UnixMilli()
}

// Format renders a timestamp the way items and notifications display it.
func Format(t time.Time) string {
	return t.Format(layoutMinute)
}

// FormatPayload renders a timestamp in the seconds layout that ToMillis
// accepts, for passing between invocations.
func FormatPayload(t time.Time) string {
	return t.Format(layoutSecond)
}
