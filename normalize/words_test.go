package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContentWords(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{name: "question", text: "Can you show me datasets about Air Pollution?", want: []string{"air", "pollution"}},
		{name: "punctuation and duplicates", text: "(noise), noise; \"traffic\"", want: []string{"noise", "traffic"}},
		{name: "only stop words", text: "the data of the", want: []string{}},
		{name: "empty", text: "", want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ContentWords(tt.text))
		})
	}
}

func TestIsStopWord(t *testing.T) {
	assert.True(t, IsStopWord("The"))
	assert.False(t, IsStopWord("housing"))
}
