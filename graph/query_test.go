package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/datakg/core"
)

func titles(r *Results) []string {
	var out []string
	for _, row := range r.Rows {
		out = append(out, row.Value("title"))
	}
	return out
}

func TestQuery_BasicPattern(t *testing.T) {
	s := newSampleStore(t)
	res, err := s.Query(context.Background(), `
		PREFIX dcat: <http://www.w3.org/ns/dcat#>
		PREFIX dct: <http://purl.org/dc/terms/>
		SELECT ?dataset ?title WHERE {
			?dataset a dcat:Dataset ;
			         dct:title ?title .
		}`)
	require.NoError(t, err)
	assert.Equal(t, []string{"dataset", "title"}, res.Vars)
	assert.Equal(t, []string{"London Air Quality", "Noise Map", "School Census"}, titles(res))
}

func TestQuery_Optional(t *testing.T) {
	s := newSampleStore(t)
	res, err := s.Query(context.Background(), `
		SELECT ?title ?publisherName WHERE {
			?d a dcat:Dataset ; dcterms:title ?title .
			OPTIONAL { ?d dcterms:publisher ?p . ?p foaf:name ?publisherName . }
		}`)
	require.NoError(t, err)
	require.Equal(t, 3, res.Len())
	assert.Equal(t, "Greater London Authority", res.Rows[0].Value("publisherName"))
	assert.False(t, res.Rows[2].Bound("publisherName"))
}

func TestQuery_Filters(t *testing.T) {
	s := newSampleStore(t)
	tests := []struct {
		name   string
		filter string
		want   []string
	}{
		{"regex case insensitive", `REGEX(?title, "AIR", "i")`, []string{"London Air Quality"}},
		{"regex on either field", `REGEX(?title, "pollution", "i") || REGEX(?description, "pollution", "i")`, []string{"London Air Quality", "Noise Map"}},
		{"contains lcase", `CONTAINS(LCASE(STR(?description)), "pupil")`, []string{"School Census"}},
		{"starts with", `STRSTARTS(?title, "Noise")`, []string{"Noise Map"}},
		{"equality", `?title = "School Census"`, []string{"School Census"}},
		{"negation", `!CONTAINS(?title, "o")`, nil},
		{"unbound compares false", `?missing = "x"`, nil},
		{"bound", `!BOUND(?missing)`, []string{"London Air Quality", "Noise Map", "School Census"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := s.Query(context.Background(), `
				SELECT ?title WHERE {
					?d a dcat:Dataset ; dcterms:title ?title ; dcterms:description ?description .
					FILTER (`+tt.filter+`)
				}`)
			require.NoError(t, err)
			assert.Equal(t, tt.want, titles(res))
		})
	}
}

func TestQuery_FilterOnOptionalVariable(t *testing.T) {
	s := newSampleStore(t)
	res, err := s.Query(context.Background(), `
		SELECT DISTINCT ?title WHERE {
			?d a dcat:Dataset ; dcterms:title ?title .
			OPTIONAL { ?d dcat:distribution ?r . ?r dcat:mediaType ?format . }
			FILTER(REGEX(?format, "json", "i"))
		}`)
	require.NoError(t, err)
	assert.Equal(t, []string{"Noise Map"}, titles(res))
}

func TestQuery_WeightedOrdering(t *testing.T) {
	s := NewStore()
	for _, d := range []core.Dataset{
		{ID: "desc_only", Title: "Borough Statistics", Description: "air pollution summary"},
		{ID: "title_match", Title: "London Air Quality", Description: "pollution levels"},
		{ID: "tie_a", Title: "Parks", Description: "green spaces"},
		{ID: "tie_b", Title: "Libraries", Description: "opening hours"},
	} {
		d := d
		require.NoError(t, s.AddDataset(&d))
	}

	res, err := s.Query(context.Background(), `
		SELECT DISTINCT ?title WHERE {
			?d a dcat:Dataset ; dcterms:title ?title ; dcterms:description ?description .
			OPTIONAL { ?d dcat:keyword ?k . ?k skos:prefLabel ?keyword . }
		}
		ORDER BY DESC(
			IF(CONTAINS(LCASE(STR(?title)), "air"), 3, 0) +
			IF(CONTAINS(LCASE(STR(?description)), "pollution"), 2, 0) +
			IF(CONTAINS(LCASE(STR(?keyword)), "air"), 1, 0)
		)`)
	require.NoError(t, err)
	assert.Equal(t, []string{"London Air Quality", "Borough Statistics", "Parks", "Libraries"}, titles(res))
}

func TestQuery_OrderLimitOffset(t *testing.T) {
	s := newSampleStore(t)
	res, err := s.Query(context.Background(), `
		SELECT ?title WHERE { ?d dcterms:title ?title . ?d a dcat:Dataset }
		ORDER BY ?title LIMIT 2 OFFSET 1`)
	require.NoError(t, err)
	assert.Equal(t, []string{"Noise Map", "School Census"}, titles(res))
}

func TestQuery_NumericComparison(t *testing.T) {
	s := newSampleStore(t)
	res, err := s.Query(context.Background(), `
		SELECT ?title WHERE {
			?d dcterms:title ?title ; dcterms:created ?year .
			FILTER(?year >= 2010 && ?year < 2020)
		}`)
	require.NoError(t, err)
	assert.Equal(t, []string{"London Air Quality"}, titles(res))
}

func TestQuery_SelectStar(t *testing.T) {
	s := newSampleStore(t)
	res, err := s.Query(context.Background(), `SELECT * WHERE { ?d ex:similarTo ?other }`)
	require.NoError(t, err)
	assert.Equal(t, []string{"d", "other"}, res.Vars)
	assert.Zero(t, res.Len())
}

func TestQuery_Malformed(t *testing.T) {
	s := newSampleStore(t)
	tests := []struct {
		name  string
		query string
	}{
		{"empty", ``},
		{"not select", `DELETE WHERE { ?s ?p ?o }`},
		{"unterminated group", `SELECT ?s WHERE { ?s ?p ?o`},
		{"undeclared prefix", `SELECT ?s WHERE { ?s nope:thing ?o }`},
		{"union", `SELECT ?s WHERE { { ?s ?p ?o } UNION { ?s ?p ?o } }`},
		{"bad filter", `SELECT ?s WHERE { ?s ?p ?o FILTER(?o = ) }`},
		{"unknown function", `SELECT ?s WHERE { ?s ?p ?o FILTER(LANGMATCHES(?o, "en")) }`},
		{"arity", `SELECT ?s WHERE { ?s ?p ?o FILTER(CONTAINS(?o)) }`},
		{"trailing garbage", `SELECT ?s WHERE { ?s ?p ?o } nonsense`},
		{"unterminated string", `SELECT ?s WHERE { ?s ?p "open }`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := s.Query(context.Background(), tt.query)
			require.Error(t, err)
			assert.ErrorIs(t, err, core.ErrQuery)
			assert.Nil(t, res)
		})
	}
}

func TestQuery_Cancelled(t *testing.T) {
	s := newSampleStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.Query(ctx, `SELECT ?s WHERE { ?s ?p ?o }`)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTranslateExpression(t *testing.T) {
	p := &parser{q: &query{prefixes: DefaultPrefixes}}
	toks, err := tokenize(`(?a = "x" && REGEX(?b, 'y', "i") || ?c != dcat:Dataset)`)
	require.NoError(t, err)
	e, err := p.translate(toks[:len(toks)-1])
	require.NoError(t, err)
	assert.Equal(t, `(v_a == "x" && REGEX(v_b,"y","i") || v_c != "http://www.w3.org/ns/dcat#Dataset")`, e.src)
	assert.Equal(t, []string{"a", "b", "c"}, e.vars)
}
