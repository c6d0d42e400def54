// Package mock provides deterministic test doubles for the ai interfaces.
//
// MockEmbedder derives unit vectors from an FNV hash of the text, so equal
// texts always embed identically. MockGenerator streams scripted fragments.
// Both expose function fields for injecting failures and record their calls.
package mock
