package normalize

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/araddon/dateparse"
	"github.com/poiesic/datakg/core"
)

var leadingYear = regexp.MustCompile(`\b(1[0-9]{3}|2[0-9]{3})\b`)

// ExtractYear returns the calendar year of a date string or 0 when none can
// be found. ISO timestamps with or without zone, RFC dates, and bare years
// are accepted.
func ExtractYear(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if t, err := dateparse.ParseAny(s); err == nil {
		if year := t.Year(); core.IsValidYear(year) {
			return year
		}
	}
	if m := leadingYear.FindString(s); m != "" {
		year, _ := strconv.Atoi(m)
		if core.IsValidYear(year) {
			return year
		}
	}
	return 0
}
