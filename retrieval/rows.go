package retrieval

import (
	"github.com/poiesic/datakg/core"
	"github.com/poiesic/datakg/graph"
	"github.com/poiesic/datakg/translate"
)

// resultsFromRows maps query rows onto retrieval results using the
// variable names of the generated queries. Publishers bound to an agent
// IRI instead of its name are turned back into a display name.
func resultsFromRows(res *graph.Results) []core.RetrievalResult {
	if res == nil {
		return nil
	}
	out := make([]core.RetrievalResult, 0, len(res.Rows))
	for _, row := range res.Rows {
		r := core.RetrievalResult{
			Title:       row.Value(translate.VarTitle),
			Description: row.Value(translate.VarDescription),
			URL:         row.Value(translate.VarURL),
			Format:      row.Value(translate.VarFormat),
			Name:        row.Value(translate.VarName),
		}
		if ds := row[translate.VarDataset]; ds.IsIRI() {
			if id, ok := graph.DatasetID(ds.Value); ok {
				r.DatasetID = id
			}
		}
		if pub := row[translate.VarPublisher]; pub.IsIRI() {
			r.Publisher = graph.PublisherName(pub.Value)
		} else {
			r.Publisher = pub.Value
		}
		out = append(out, r)
	}
	return out
}
