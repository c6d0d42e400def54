package core

import (
	"testing"
)

func TestIDFromContent(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantSame bool
	}{
		{
			name:     "same content produces same ID",
			content:  "Air Quality London air pollution levels",
			wantSame: true,
		},
		{
			name:     "empty string",
			content:  "",
			wantSame: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id1 := IDFromContent(tt.content)
			id2 := IDFromContent(tt.content)

			if tt.wantSame && id1 != id2 {
				t.Errorf("IDFromContent() produced different IDs for same content: %d vs %d", id1, id2)
			}
		})
	}
}

func TestIDFromContent_Different(t *testing.T) {
	if IDFromContent("d1") == IDFromContent("d2") {
		t.Errorf("IDFromContent() produced same ID for different content")
	}
}

func TestDataset_EmbeddingText(t *testing.T) {
	d := Dataset{Title: "Air Pollution", Description: "Unknown"}
	if got := d.EmbeddingText(); got != "Air Pollution Unknown" {
		t.Errorf("EmbeddingText() = %q", got)
	}
}

func TestDataset_HasPublisher(t *testing.T) {
	tests := []struct {
		name      string
		publisher string
		want      bool
	}{
		{name: "named publisher", publisher: "Greater London Authority", want: true},
		{name: "sentinel", publisher: UnknownPublisher, want: false},
		{name: "empty", publisher: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Dataset{Publisher: tt.publisher}
			if got := d.HasPublisher(); got != tt.want {
				t.Errorf("HasPublisher() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFacets_Empty(t *testing.T) {
	if !(Facets{}).Empty() {
		t.Errorf("zero Facets should be empty")
	}
	if (Facets{Format: "csv"}).Empty() {
		t.Errorf("Facets with a format should not be empty")
	}
}
