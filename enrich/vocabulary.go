package enrich

import "strings"

// Vocabulary is the controlled list of themes datasets may be classified
// into.
var Vocabulary = []string{
	"Demographics", "Environment", "Employment and Skills", "Planning", "Transparency",
	"Business and Economy", "Housing", "Health", "Education", "Transport",
	"Crime and Community Safety", "Young People", "Income, Poverty, and Welfare",
	"Art and Culture", "COVID-19 Data and Analysis", "Championing London",
	"Sport", "London 2012",
}

// MaxThemes caps how many themes one classification may contribute.
const MaxThemes = 5

// longest vocabulary entry in comma-separated parts
const maxParts = 3

var vocabularyIndex = func() map[string]string {
	m := make(map[string]string, len(Vocabulary))
	for _, v := range Vocabulary {
		m[vocabularyKey(v)] = v
	}
	return m
}()

// vocabularyKey ignores case and spacing, including around commas.
func vocabularyKey(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.ReplaceAll(s, ",", " , "))), " ")
}

// Canonical returns the vocabulary spelling of theme, matched
// case-insensitively.
func Canonical(theme string) (string, bool) {
	v, ok := vocabularyIndex[vocabularyKey(theme)]
	return v, ok
}

// ParseThemes reads "- group:" lines from model output. Values are split on
// commas, rejoining adjacent parts when they form a vocabulary entry that
// itself contains commas. Accepted values are canonical, distinct and at most
// MaxThemes; everything else is returned as rejected.
func ParseThemes(text string) (accepted, rejected []string) {
	seen := make(map[string]bool)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		rest, ok := cutPrefixFold(line, "- group:")
		if !ok {
			continue
		}
		parts := strings.Split(rest, ",")
		for i := 0; i < len(parts); {
			theme, n := matchAt(parts, i)
			if n == 0 {
				if v := strings.TrimSpace(parts[i]); v != "" {
					rejected = append(rejected, v)
				}
				i++
				continue
			}
			i += n
			if seen[theme] {
				continue
			}
			seen[theme] = true
			if len(accepted) == MaxThemes {
				rejected = append(rejected, theme)
				continue
			}
			accepted = append(accepted, theme)
		}
	}
	return accepted, rejected
}

// matchAt finds the longest vocabulary entry formed by parts[i:i+n].
func matchAt(parts []string, i int) (string, int) {
	for n := min(maxParts, len(parts)-i); n > 0; n-- {
		if v, ok := Canonical(strings.Join(parts[i:i+n], ",")); ok {
			return v, n
		}
	}
	return "", 0
}

func cutPrefixFold(s, prefix string) (string, bool) {
	if len(s) < len(prefix) || !strings.EqualFold(s[:len(prefix)], prefix) {
		return "", false
	}
	return s[len(prefix):], true
}
