// Package timeparsing turns the date text typed into grid cells into calendar
// dates.
//
// Parsing is layered, first match wins:
//  1. Absolute dates (ISO, US numeric, month names, RFC3339)
//  2. Compact offsets (+3d, 2w, -1m)
//  3. Natural language via olebedev/when (tomorrow, next friday)
package timeparsing

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

// DateLayout is the canonical storage format for date cells.
const DateLayout = "2006-01-02"

var absoluteLayouts = []string{
	DateLayout,
	"2006/01/02",
	"2006-1-2",
	"01/02/2006",
	"1/2/2006",
	"01-02-2006",
	"1/2/06",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"2 January 2006",
	"02-Jan-2006",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	time.RFC3339Nano,
}

// compactOffsetRe matches [+-]?(\d+)([dwmy]).
var compactOffsetRe = regexp.MustCompile(`^([+-]?)(\d+)([dwmy])$`)

var nlp = func() *when.Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return w
}()

// ParseDate parses s relative to now and returns the date at midnight in
// now's location.
func ParseDate(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	if t, ok := parseAbsolute(s, now.Location()); ok {
		return t, nil
	}
	if t, err := ParseCompactOffset(s, now); err == nil {
		return midnight(t), nil
	}
	if t, err := ParseNaturalLanguage(s, now); err == nil {
		return midnight(t), nil
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// FormatDate normalizes s to YYYY-MM-DD.
func FormatDate(s string, now time.Time) (string, error) {
	t, err := ParseDate(s, now)
	if err != nil {
		return "", err
	}
	return t.Format(DateLayout), nil
}

func parseAbsolute(s string, loc *time.Location) (time.Time, bool) {
	for _, layout := range absoluteLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return midnight(t), true
		}
	}
	return time.Time{}, false
}

// ParseCompactOffset parses "+3d", "2w", "-1m" or "1y" as an offset from now.
// A missing sign means forward.
func ParseCompactOffset(s string, now time.Time) (time.Time, error) {
	m := compactOffsetRe.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, fmt.Errorf("not a compact offset: %q", s)
	}
	n, err := strconv.Atoi(m[2])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid offset amount: %q", m[2])
	}
	if m[1] == "-" {
		n = -n
	}
	switch m[3] {
	case "w":
		return now.AddDate(0, 0, 7*n), nil
	case "m":
		return now.AddDate(0, n, 0), nil
	case "y":
		return now.AddDate(n, 0, 0), nil
	default:
		return now.AddDate(0, 0, n), nil
	}
}

// ParseNaturalLanguage resolves phrases such as "tomorrow" or "next friday".
func ParseNaturalLanguage(s string, now time.Time) (time.Time, error) {
	r, err := nlp.Parse(s, now)
	if err != nil {
		return time.Time{}, err
	}
	if r == nil {
		return time.Time{}, fmt.Errorf("no date found in %q", s)
	}
	return r.Time, nil
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
