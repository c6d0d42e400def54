// Package vectorindex provides the nearest-neighbor index over dataset
// embeddings.
//
// The index is flat: vectors are L2-normalized into one contiguous block and
// a search scores every row. Distance is 1 - cosine similarity, so it lies
// in [0, 2] and a similarity floor s corresponds to a distance ceiling of
// 1 - s.
//
// An index persists to a single file carrying the embedding model, the
// dimension and a fingerprint of the content it was built from. Open reuses
// the file only when all three still match and the checksum verifies;
// otherwise the index is rebuilt and replaced atomically.
package vectorindex
