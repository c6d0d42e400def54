// Package ingestion builds a searchable catalog from raw dataset records.
//
// A build runs a fixed sequence of stages:
//   - normalize raw records into datasets
//   - load them into a graph store
//   - embed every dataset's title and description
//   - open or rebuild the vector index for those embeddings
//   - compute similarity, persist the matrix and link similar datasets
//   - save the graph
//
// A build holds an exclusive lock on its artifact directory and every
// artifact is replaced atomically, so readers never observe a partial build.
package ingestion
