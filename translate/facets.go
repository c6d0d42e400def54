package translate

import (
	"strings"
	"time"

	"github.com/dlclark/regexp2"

	"github.com/poiesic/datakg/core"
)

const matchTimeout = 100 * time.Millisecond

var (
	formatPattern    = mustCompile(`\b(csv|json|html|pdf|excel|zip|doc|xls|spreadsheet)\b`)
	topicPattern     = mustCompile(`about (.+)`)
	publisherPattern = mustCompile(`from ([\w\s]+)`)
)

func mustCompile(pattern string) *regexp2.Regexp {
	re := regexp2.MustCompile(pattern, regexp2.IgnoreCase)
	re.MatchTimeout = matchTimeout
	return re
}

// ExtractFacets scans query for a format keyword, an "about" topic and a
// "from" publisher. The format is lowercased; topic and publisher keep
// their case and lose surrounding whitespace and trailing punctuation. The
// topic runs to the end of the line, so it can swallow later qualifiers.
func ExtractFacets(query string) core.Facets {
	var f core.Facets
	if m := find(formatPattern, query); m != nil {
		f.Format = strings.ToLower(m.String())
	}
	if m := find(topicPattern, query); m != nil {
		f.Topic = trimFacet(m.GroupByNumber(1).String())
	}
	if m := find(publisherPattern, query); m != nil {
		f.Publisher = trimFacet(m.GroupByNumber(1).String())
	}
	return f
}

func trimFacet(s string) string {
	return strings.TrimSpace(strings.TrimRight(strings.TrimSpace(s), "?.!,;:"))
}

func find(re *regexp2.Regexp, s string) *regexp2.Match {
	m, err := re.FindStringMatch(s)
	if err != nil {
		return nil
	}
	return m
}
