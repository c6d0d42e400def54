// Package translate turns free-text search requests into something the
// graph store can execute.
//
// Facet extraction is rule based and never fails: it pulls a file format
// keyword, an "about <topic>" phrase and a "from <publisher>" phrase out of
// the text, leaving absent facets empty. The patterns are deliberately
// loose; "about air pollution in csv" yields the topic "air pollution in
// csv" with the format "csv" detected separately.
//
// Pattern-query generation asks a text generator for a complete graph
// pattern query and cuts the query out of whatever explanatory text
// surrounds it. Output that does not contain a balanced query is a
// core.ErrTranslation failure; callers skip the strategy rather than run
// malformed text.
package translate
