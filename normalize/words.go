package normalize

import "strings"

// Stop words dropped from search terms and scored text
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "be": true, "is": true, "are": true,
	"was": true, "to": true, "of": true, "and": true, "in": true, "that": true,
	"have": true, "it": true, "for": true, "not": true, "on": true, "with": true,
	"as": true, "you": true, "do": true, "at": true, "this": true, "but": true,
	"by": true, "from": true, "or": true, "me": true, "show": true, "can": true,
	"about": true, "datasets": true, "dataset": true, "data": true, "any": true,
	"find": true, "i": true, "am": true, "looking": true, "there": true,
}

// IsStopWord reports whether the lowercased word carries no search meaning.
func IsStopWord(word string) bool {
	return stopWords[strings.ToLower(word)]
}

// ContentWords splits text into lowercased words with surrounding
// punctuation trimmed, dropping stop words and duplicates.
func ContentWords(text string) []string {
	words := strings.Fields(text)
	filtered := make([]string, 0, len(words))
	seen := make(map[string]bool, len(words))

	for _, word := range words {
		cleaned := strings.ToLower(strings.Trim(word, ".,!?;:'\"-()[]{}"))
		if cleaned == "" || stopWords[cleaned] || seen[cleaned] {
			continue
		}
		seen[cleaned] = true
		filtered = append(filtered, cleaned)
	}
	return filtered
}
