package translate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractQuery(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    string
		wantErr error
	}{
		{
			name: "surrounding chatter",
			text: "Sure! Here is the query:\n```sparql\nPREFIX dcat: <http://www.w3.org/ns/dcat#>\nSELECT ?d WHERE { ?d a dcat:Dataset . }\n```\nHope this helps.",
			want: "PREFIX dcat: <http://www.w3.org/ns/dcat#>\nSELECT ?d WHERE { ?d a dcat:Dataset . }",
		},
		{
			name: "select without prefix",
			text: "select ?d where { ?d ?p ?o } and that is all",
			want: "select ?d where { ?d ?p ?o }",
		},
		{
			name: "nested groups",
			text: "SELECT ?d WHERE { ?d a ?t . OPTIONAL { ?d ?p ?o . } } trailing } brace",
			want: "SELECT ?d WHERE { ?d a ?t . OPTIONAL { ?d ?p ?o . } }",
		},
		{
			name: "braces inside literals",
			text: `SELECT ?d WHERE { ?d ?p ?o FILTER(CONTAINS(?o, "}{")) } done`,
			want: `SELECT ?d WHERE { ?d ?p ?o FILTER(CONTAINS(?o, "}{")) }`,
		},
		{
			name: "order by and limit kept, stray brace dropped",
			text: "SELECT ?d WHERE { ?d ?p ?o }\nORDER BY DESC(\n  (IF(CONTAINS(?o, \"x\"), 3, 0))\n) ?d\nLIMIT 10\n}\nExplanation follows.",
			want: "SELECT ?d WHERE { ?d ?p ?o }\nORDER BY DESC(\n  (IF(CONTAINS(?o, \"x\"), 3, 0))\n) ?d\nLIMIT 10",
		},
		{
			name: "order by function call",
			text: "SELECT ?d WHERE { ?d ?p ?o } ORDER BY STRLEN(?o) OFFSET 2 thanks",
			want: "SELECT ?d WHERE { ?d ?p ?o } ORDER BY STRLEN(?o) OFFSET 2",
		},
		{
			name: "less-than operator is not an IRI",
			text: "SELECT ?d WHERE { ?d ?p ?o FILTER(?o < 3) } x",
			want: "SELECT ?d WHERE { ?d ?p ?o FILTER(?o < 3) }",
		},
		{
			name: "lowercase prefix in prose is skipped",
			text: "Using the prefix declarations below, select datasets:\nPREFIX dcat: <http://www.w3.org/ns/dcat#>\nSELECT ?d WHERE { ?d a dcat:Dataset . }",
			want: "PREFIX dcat: <http://www.w3.org/ns/dcat#>\nSELECT ?d WHERE { ?d a dcat:Dataset . }",
		},
		{
			name: "uppercase select wins over lowercase prefix",
			text: "no prefix needed { really }\nSELECT ?d WHERE { ?d ?p ?o }",
			want: "SELECT ?d WHERE { ?d ?p ?o }",
		},
		{
			name:    "no query",
			text:    "I cannot help with that.",
			wantErr: ErrNoQuery,
		},
		{
			name:    "prefixes only",
			text:    "PREFIX dcat: <http://www.w3.org/ns/dcat#>",
			wantErr: ErrUnbalanced,
		},
		{
			name:    "unclosed group",
			text:    "SELECT ?d WHERE { ?d ?p ?o . OPTIONAL { ?d ?q ?r }",
			wantErr: ErrUnbalanced,
		},
		{
			name:    "keyword inside a word",
			text:    "PREFIXED SELECTION",
			wantErr: ErrNoQuery,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractQuery(tt.text)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractQuery_PatternQueryRoundTrip(t *testing.T) {
	q := PatternQuery("air pollution")
	got, err := ExtractQuery("Here you go:\n" + q + "\n}\n")
	require.NoError(t, err)
	assert.Equal(t, q[:len(q)-1], got)
}
