package translate

import "strings"

const promptHeader = `### Task
You are an assistant that converts natural language queries into SPARQL queries for a knowledge graph.
The knowledge graph contains metadata about datasets, including:

- Titles (dcterms:title)
- Descriptions (dcterms:description)
- Keywords (dcat:keyword, labelled with skos:prefLabel)
- Themes (dcat:theme, labelled with skos:prefLabel)
- Distributions (dcat:distribution) with a file format (dcat:mediaType) and a download URL (dcat:downloadURL)
- Publishers (dcterms:publisher, named with foaf:name)
- Dataset creation and modification years (dcterms:created, dcterms:modified)

The SPARQL query should:
- Match datasets based on keywords in the title, description, keyword and theme.
- Use REGEX matching (REGEX(LCASE(...))) for flexible text search.
- Order results by relevance using weighted ranking.
- Include dataset creation and modification years if available.

### SPARQL Query Template
`

const placeholder = "xkeywordsx"

const promptExample = `
### Example
User Query: "Show me datasets about air pollution"

SPARQL Query Output:
`

// Prompt builds the pattern-query generation prompt for query. The
// template and the worked example are built like PatternQuery builds its
// queries, so the model is shown exactly the shape the store executes.
func Prompt(query string) string {
	var b strings.Builder
	b.WriteString(promptHeader)
	b.WriteString("```sparql\n")
	b.WriteString(strings.ReplaceAll(patternQuery([]string{placeholder}), placeholder, "{keywords}"))
	b.WriteString("```\n")
	b.WriteString(promptExample)
	b.WriteString("```sparql\n")
	b.WriteString(PatternQuery("air pollution"))
	b.WriteString("```\n\n### User Query\n\"")
	b.WriteString(strings.TrimSpace(query))
	b.WriteString("\"\n\n### SPARQL Query:\n")
	return b.String()
}
