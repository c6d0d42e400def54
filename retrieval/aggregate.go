package retrieval

import (
	"strings"

	"github.com/poiesic/datakg/core"
)

// Aggregate merges results that share a title into one AggregatedResult per
// title, in the order titles are first seen. The first description,
// dataset id and publisher seen for a title win. Resources are the distinct
// (name, url, format) tuples of the group in first-seen order; rows without
// a URL contribute none. A row without a distribution name is named after
// its URL.
//
// Titles are compared exactly, so two different datasets with the same
// title are merged.
func Aggregate(results []core.RetrievalResult) []core.AggregatedResult {
	out := make([]core.AggregatedResult, 0)
	byTitle := make(map[string]int)
	seen := make(map[string]map[core.Resource]bool)

	for _, r := range results {
		idx, ok := byTitle[r.Title]
		if !ok {
			idx = len(out)
			byTitle[r.Title] = idx
			seen[r.Title] = make(map[core.Resource]bool)
			out = append(out, core.AggregatedResult{
				ID:          r.DatasetID,
				Title:       r.Title,
				Description: r.Description,
				Publisher:   r.Publisher,
				Resources:   []core.Resource{},
			})
		}
		if r.URL == "" {
			continue
		}
		res := core.Resource{Name: r.Name, URL: r.URL, Format: r.Format}
		if res.Name == "" {
			res.Name = ResourceName(r.URL)
		}
		if res.Format == "" {
			res.Format = core.UnknownFormat
		}
		if seen[r.Title][res] {
			continue
		}
		seen[r.Title][res] = true
		out[idx].Resources = append(out[idx].Resources, res)
	}
	return out
}

// ResourceName derives a display name from a download URL: the text after
// its last slash, or core.UnknownName when that is empty.
func ResourceName(url string) string {
	name := url[strings.LastIndex(url, "/")+1:]
	if name == "" {
		return core.UnknownName
	}
	return name
}
