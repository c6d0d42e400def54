// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import (
	"encoding/binary"

	"github.com/go-crypt/x/blake2b"
)

// Sentinel values substituted for missing or blank metadata.
const (
	UnknownText      = "Unknown"
	UnknownPublisher = "Unknown Publisher"
	UnknownFormat    = "Unknown Format"
	UnknownName      = "Unknown Name"
)

type ID uint64

// IDFromContent derives a stable 64-bit identifier from arbitrary text.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// RawResource is one resource entry of a raw catalog record.
type RawResource struct {
	ID     string `json:"id" yaml:"id"`
	Name   string `json:"name" yaml:"name"`
	URL    string `json:"url" yaml:"url"`
	Format string `json:"format" yaml:"format"`
}

// RawRecord is a dataset record as produced by a catalog fetcher. Every field
// is optional; different fetchers fill different subsets.
type RawRecord struct {
	ID               string        `json:"id" yaml:"id"`
	Title            string        `json:"title" yaml:"title"`
	Summary          string        `json:"summary" yaml:"summary"`
	Description      string        `json:"description" yaml:"description"`
	Notes            string        `json:"notes" yaml:"notes"`
	Publisher        string        `json:"publisher" yaml:"publisher"`
	Organization     string        `json:"organization" yaml:"organization"`
	Tags             []string      `json:"tags" yaml:"tags"`
	Groups           []string      `json:"groups" yaml:"groups"`
	MetadataCreated  string        `json:"metadata_created" yaml:"metadata_created"`
	MetadataModified string        `json:"metadata_modified" yaml:"metadata_modified"`
	URL              string        `json:"url" yaml:"url"`
	DatasetPage      string        `json:"dataset_page" yaml:"dataset_page"`
	License          string        `json:"license" yaml:"license"`
	Resources        []RawResource `json:"resources" yaml:"resources"`
}

// Dataset is a normalized catalog entry. Title and Description are never
// empty; Publisher is UnknownPublisher when the source had none. Created and
// Modified are zero when no year could be extracted.
type Dataset struct {
	ID            string
	Title         string
	Description   string
	Publisher     string
	Tags          []string
	Themes        []string
	Created       int
	Modified      int
	Page          string
	License       string
	Distributions []Distribution
}

// EmbeddingText returns the text the dataset is embedded under.
func (d *Dataset) EmbeddingText() string {
	return d.Title + " " + d.Description
}

// HasPublisher reports whether the dataset references a real publisher.
func (d *Dataset) HasPublisher() bool {
	return d.Publisher != "" && d.Publisher != UnknownPublisher
}

// Distribution is one downloadable variant of a Dataset.
type Distribution struct {
	ID     string
	Name   string
	URL    string
	Format string
}

// Facets are the structured search dimensions extracted from free text.
// An empty field means the facet was not present.
type Facets struct {
	Topic     string
	Format    string
	Publisher string
}

// Empty reports whether no facet was extracted.
func (f Facets) Empty() bool {
	return f.Topic == "" && f.Format == "" && f.Publisher == ""
}

// RetrievalRequest is built per incoming query and never shared.
type RetrievalRequest struct {
	Query        string
	Facets       *Facets
	PatternQuery string
}

// RetrievalResult is one row produced by a retrieval strategy.
type RetrievalResult struct {
	DatasetID   string
	Title       string
	Description string
	URL         string
	Format      string
	// Name is the distribution's own name; empty when the source row had none.
	Name      string
	Publisher string
	// Distance is only meaningful for vector results.
	Distance float32
}

// Resource is one (name, url, format) tuple of an aggregated result.
type Resource struct {
	Name   string `json:"name" yaml:"name"`
	URL    string `json:"url" yaml:"url"`
	Format string `json:"format" yaml:"format"`
}

// AggregatedResult is the canonical output shape handed to callers.
type AggregatedResult struct {
	ID          string     `json:"id,omitempty"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Publisher   string     `json:"publisher,omitempty"`
	Resources   []Resource `json:"resources"`
}

// GroundTruthDataset is one expected dataset of a ground-truth entry.
type GroundTruthDataset struct {
	Title       string     `json:"title" yaml:"title"`
	Description string     `json:"description" yaml:"description"`
	DatasetPage string     `json:"dataset_page" yaml:"dataset_page"`
	Resources   []Resource `json:"resources" yaml:"resources"`
}

// GroundTruthEntry maps a keyword query to its curated relevant datasets.
type GroundTruthEntry struct {
	Keyword  string               `json:"keyword_search" yaml:"keyword_search"`
	Datasets []GroundTruthDataset `json:"retrieved_datasets" yaml:"retrieved_datasets"`
}
