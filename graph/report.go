package graph

import "github.com/poiesic/datakg/core"

// Metadata fields tracked by MetadataReport.
const (
	FieldTitle         = "title"
	FieldDescription   = "description"
	FieldPublisher     = "publisher"
	FieldTags          = "tags"
	FieldThemes        = "themes"
	FieldDistributions = "distributions"
	FieldCreated       = "created"
	FieldModified      = "modified"
)

// ReportFields lists the tracked fields in report order.
var ReportFields = []string{
	FieldTitle, FieldDescription, FieldPublisher, FieldTags,
	FieldThemes, FieldDistributions, FieldCreated, FieldModified,
}

// MetadataReport lists, per field, the datasets missing it.
type MetadataReport struct {
	Datasets int
	Missing  map[string][]string
}

// Count returns how many datasets lack field.
func (r MetadataReport) Count(field string) int {
	return len(r.Missing[field])
}

// Complete returns the number of datasets missing nothing.
func (r MetadataReport) Complete() int {
	incomplete := make(map[string]bool)
	for _, ids := range r.Missing {
		for _, id := range ids {
			incomplete[id] = true
		}
	}
	return r.Datasets - len(incomplete)
}

// MetadataReport scans every dataset for missing metadata. Sentinel values
// count as missing.
func (s *Store) MetadataReport() MetadataReport {
	datasets := s.Datasets()
	r := MetadataReport{Datasets: len(datasets), Missing: make(map[string][]string)}
	for _, d := range datasets {
		missing := map[string]bool{
			FieldTitle:         d.Title == "" || d.Title == core.UnknownText,
			FieldDescription:   d.Description == "" || d.Description == core.UnknownText,
			FieldPublisher:     !d.HasPublisher(),
			FieldTags:          len(d.Tags) == 0,
			FieldThemes:        len(d.Themes) == 0,
			FieldDistributions: len(d.Distributions) == 0,
			FieldCreated:       d.Created == 0,
			FieldModified:      d.Modified == 0,
		}
		for _, f := range ReportFields {
			if missing[f] {
				r.Missing[f] = append(r.Missing[f], d.ID)
			}
		}
	}
	return r
}
