package translate

import (
	"fmt"
	"strings"

	"github.com/dlclark/regexp2"

	"github.com/poiesic/datakg/core"
	"github.com/poiesic/datakg/normalize"
)

// Variables every generated query projects. Retrieval strategies read rows
// through these names.
const (
	VarDataset     = "dataset"
	VarTitle       = "title"
	VarDescription = "description"
	VarURL         = "url"
	VarName        = "name"
	VarFormat      = "format"
	VarPublisher   = "publisher"
	VarCreated     = "created"
	VarModified    = "modified"
)

const queryPrefixes = `PREFIX dcat: <http://www.w3.org/ns/dcat#>
PREFIX dcterms: <http://purl.org/dc/terms/>
PREFIX foaf: <http://xmlns.com/foaf/0.1/>
PREFIX skos: <http://www.w3.org/2004/02/skos/core#>
`

const keywordTemplate = queryPrefixes + `
SELECT DISTINCT ?dataset ?title ?description ?url ?format ?publisher
WHERE {
  ?dataset a dcat:Dataset .
  OPTIONAL { ?dataset dcterms:title ?title . }
  OPTIONAL { ?dataset dcterms:description ?description . }
  OPTIONAL { ?dataset dcat:distribution ?distribution .
             ?distribution dcat:mediaType ?format ;
                           dcat:downloadURL ?url . }
  OPTIONAL { ?dataset dcterms:publisher ?agent .
             ?agent foaf:name ?publisher . }
  %s
}
`

const patternTemplate = queryPrefixes + `
SELECT DISTINCT ?dataset ?title ?description ?url ?format ?publisher ?created ?modified
WHERE {
  ?dataset a dcat:Dataset .
  OPTIONAL { ?dataset dcterms:title ?title . }
  OPTIONAL { ?dataset dcterms:description ?description . }
  OPTIONAL { ?dataset dcat:keyword ?tag .
             ?tag skos:prefLabel ?keyword . }
  OPTIONAL { ?dataset dcat:theme ?group .
             ?group skos:prefLabel ?theme . }
  OPTIONAL { ?dataset dcat:distribution ?distribution .
             ?distribution dcat:mediaType ?format ;
                           dcat:downloadURL ?url . }
  OPTIONAL { ?dataset dcterms:publisher ?agent .
             ?agent foaf:name ?publisher . }
  OPTIONAL { ?dataset dcterms:created ?created . }
  OPTIONAL { ?dataset dcterms:modified ?modified . }

  FILTER (
%s
  )
}
ORDER BY DESC(
  (%s)
)
`

// Relevance weights of the fields a pattern query ranks on.
var rankedFields = []struct {
	name   string
	weight int
}{
	{VarTitle, 3},
	{VarDescription, 2},
	{"keyword", 1},
	{"theme", 1},
}

// KeywordQuery compiles facets into a filter query: the topic must occur in
// the title or description, the format in a distribution media type and the
// publisher in the publisher name. Empty facets add no filter, so empty
// Facets match every dataset.
func KeywordQuery(f core.Facets) string {
	var filters []string
	if f.Topic != "" {
		topic := regexLiteral(f.Topic)
		filters = append(filters, fmt.Sprintf(
			`FILTER (REGEX(LCASE(STR(?title)), "%[1]s", "i") || REGEX(LCASE(STR(?description)), "%[1]s", "i"))`, topic))
	}
	if f.Format != "" {
		filters = append(filters, fmt.Sprintf(`FILTER (REGEX(LCASE(STR(?format)), "%s", "i"))`, regexLiteral(f.Format)))
	}
	if f.Publisher != "" {
		filters = append(filters, fmt.Sprintf(`FILTER (REGEX(LCASE(STR(?publisher)), "%s", "i"))`, regexLiteral(f.Publisher)))
	}
	return fmt.Sprintf(keywordTemplate, strings.Join(filters, "\n  "))
}

// PatternQuery returns the relevance-ranked query for keywords. Each
// content word of keywords is a search term; a dataset qualifies when any
// term occurs in its title, description, tag or theme, and results are
// ordered by the sum over terms of the weights title 3, description 2,
// tag 1 and theme 1. Keywords made only of stop words are used as a single
// phrase.
func PatternQuery(keywords string) string {
	terms := normalize.ContentWords(keywords)
	if len(terms) == 0 {
		terms = []string{strings.ToLower(strings.TrimSpace(keywords))}
	}
	return patternQuery(terms)
}

func patternQuery(terms []string) string {
	var filters, scores []string
	for _, term := range terms {
		re, lit := regexLiteral(term), stringLiteral(term)
		for _, f := range rankedFields {
			filters = append(filters, fmt.Sprintf(`    REGEX(LCASE(STR(?%s)), "%s", "i")`, f.name, re))
			scores = append(scores, fmt.Sprintf(`IF(CONTAINS(LCASE(STR(?%s)), "%s"), %d, 0)`, f.name, lit, f.weight))
		}
	}
	return fmt.Sprintf(patternTemplate, strings.Join(filters, " ||\n"), strings.Join(scores, " +\n   "))
}

// regexLiteral lowercases s, escapes regex metacharacters and then quotes
// the result for a string literal.
func regexLiteral(s string) string {
	return stringLiteral(regexp2.Escape(strings.ToLower(s)))
}

var literalEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\r", `\r`, "\t", `\t`)

func stringLiteral(s string) string {
	return literalEscaper.Replace(s)
}
