// Package graph holds the catalog knowledge graph.
//
// A Store keeps RDF triples in memory with subject, predicate and object
// indexes. Datasets, distributions, publishers, tags and themes are written
// using DCAT, Dublin Core, FOAF and SKOS terms under the namespaces in
// vocab.go; publishers and concepts are shared nodes keyed by their
// normalized label.
//
// Query evaluates a SELECT subset of SPARQL. FILTER and ORDER BY
// expressions are compiled to CEL programs, with REGEX, CONTAINS and the
// other string builtins bound as CEL functions.
//
// The store persists as Turtle. SaveFile writes to a temporary file and
// renames it over the target, so readers never observe a partial graph.
package graph
