// Package enrich adds themes to catalog datasets by asking a text-generation
// model to classify each dataset into a fixed controlled vocabulary.
//
// Only vocabulary values are ever applied. Anything else the model proposes
// is reported as rejected. The graph is updated through the same
// idempotent AddDataset path used at build time, so an enrichment pass can be
// repeated without duplicating themes.
package enrich
