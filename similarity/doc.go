// Package similarity links datasets whose embeddings are closely aligned.
//
// A Linker takes one vector per dataset, compares every pair whose cosine
// similarity it needs and emits a symmetric edge for each pair scoring
// strictly above the threshold. Catalogs up to Config.ExactCeiling datasets
// are compared exhaustively through a blocked matrix product; larger ones
// go through a seeded random-hyperplane LSH pass that restricts the
// candidate pairs. Either way the compared scores are kept in a Matrix,
// which can be persisted next to the graph for later inspection.
package similarity
