package translate

import (
	"errors"
	"strings"
)

var (
	// ErrNoQuery indicates the text contains no query opening clause.
	ErrNoQuery = errors.New("no query found in generated text")

	// ErrUnbalanced indicates the query's WHERE group never closes.
	ErrUnbalanced = errors.New("unbalanced braces in generated query")
)

// ExtractQuery cuts a query out of generated text. The query starts at the
// first PREFIX keyword (or SELECT when there is no prefix), runs through the
// brace that closes its first group and then through any ORDER BY, LIMIT
// and OFFSET clauses that follow. Braces inside string literals and IRIs
// are ignored. Uppercase keywords are preferred, so prose that mentions a
// prefix or a selection does not start the query early.
func ExtractQuery(text string) (string, error) {
	start := queryStart(text)
	if start < 0 {
		return "", ErrNoQuery
	}

	open := indexOutsideLiterals(text, start, '{')
	if open < 0 {
		return "", ErrUnbalanced
	}
	end := matchingBrace(text, open)
	if end < 0 {
		return "", ErrUnbalanced
	}
	end = solutionModifiers(text, end+1)
	return strings.TrimSpace(text[start:end]), nil
}

func queryStart(text string) int {
	for _, fold := range []bool{false, true} {
		for _, kw := range []string{"PREFIX", "SELECT"} {
			if i := keywordIndex(text, kw, fold); i >= 0 {
				return i
			}
		}
	}
	return -1
}

// keywordIndex finds kw as a whole word, ignoring case when fold is set.
func keywordIndex(text, kw string, fold bool) int {
	for i := 0; i+len(kw) <= len(text); i++ {
		if i > 0 && isWordByte(text[i-1]) {
			continue
		}
		if fold && hasKeyword(text, i, kw) || !fold && strings.HasPrefix(text[i:], kw) && wordEnds(text, i+len(kw)) {
			return i
		}
	}
	return -1
}

func isWordByte(c byte) bool {
	return c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

// scan walks text from pos, calling fn for every byte outside string
// literals, IRIs and comments. fn returns false to stop; scan returns the
// position it stopped at or -1.
func scan(text string, pos int, fn func(i int) bool) int {
	for i := pos; i < len(text); i++ {
		switch c := text[i]; c {
		case '"', '\'':
			i = skipString(text, i, c)
			if i < 0 {
				return -1
			}
		case '<':
			if j := iriEnd(text, i); j > 0 {
				i = j
				continue
			}
			if !fn(i) {
				return i
			}
		case '#':
			for i < len(text) && text[i] != '\n' {
				i++
			}
		default:
			if !fn(i) {
				return i
			}
		}
	}
	return -1
}

func skipString(text string, i int, quote byte) int {
	for j := i + 1; j < len(text); j++ {
		switch text[j] {
		case '\\':
			j++
		case quote:
			return j
		case '\n':
			return j
		}
	}
	return -1
}

// iriEnd returns the index of the '>' closing an IRI opened at i, or -1
// when the '<' is a comparison operator.
func iriEnd(text string, i int) int {
	for j := i + 1; j < len(text); j++ {
		c := text[j]
		if c == '>' {
			return j
		}
		if c <= ' ' || c == '{' || c == '}' || c == '"' || c == '<' {
			return -1
		}
	}
	return -1
}

func indexOutsideLiterals(text string, pos int, target byte) int {
	return scan(text, pos, func(i int) bool { return text[i] != target })
}

func matchingBrace(text string, open int) int {
	depth := 0
	return scan(text, open, func(i int) bool {
		switch text[i] {
		case '{':
			depth++
		case '}':
			depth--
		}
		return depth != 0
	})
}

func matchingParen(text string, open int) int {
	depth := 0
	return scan(text, open, func(i int) bool {
		switch text[i] {
		case '(':
			depth++
		case ')':
			depth--
		}
		return depth != 0
	})
}

// solutionModifiers returns the end of the ORDER BY, LIMIT and OFFSET
// clauses starting at pos, or pos when there are none.
func solutionModifiers(text string, pos int) int {
	end := pos
	for {
		i := skipSpace(text, end)
		switch {
		case hasKeyword(text, i, "ORDER"):
			j := skipSpace(text, i+len("ORDER"))
			if !hasKeyword(text, j, "BY") {
				return end
			}
			k, ok := orderKeys(text, j+len("BY"))
			if !ok {
				return end
			}
			end = k
		case hasKeyword(text, i, "LIMIT"), hasKeyword(text, i, "OFFSET"):
			kw := "LIMIT"
			if hasKeyword(text, i, "OFFSET") {
				kw = "OFFSET"
			}
			j := skipSpace(text, i+len(kw))
			k := j
			for k < len(text) && text[k] >= '0' && text[k] <= '9' {
				k++
			}
			if k == j {
				return end
			}
			end = k
		default:
			return end
		}
	}
}

// orderKeys consumes one or more ordering keys: ASC(...), DESC(...),
// (...), FUNC(...) or ?var.
func orderKeys(text string, pos int) (int, bool) {
	end, found := pos, false
	for {
		i := skipSpace(text, end)
		if i >= len(text) {
			return end, found
		}
		switch c := text[i]; {
		case c == '?' || c == '$':
			j := i + 1
			for j < len(text) && isWordByte(text[j]) {
				j++
			}
			if j == i+1 {
				return end, found
			}
			end, found = j, true
		case c == '(':
			j := matchingParen(text, i)
			if j < 0 {
				return end, found
			}
			end, found = j+1, true
		case isWordByte(c):
			j := i
			for j < len(text) && isWordByte(text[j]) {
				j++
			}
			word := strings.ToUpper(text[i:j])
			if word == "LIMIT" || word == "OFFSET" || word == "ORDER" {
				return end, found
			}
			k := skipSpace(text, j)
			if k >= len(text) || text[k] != '(' {
				return end, found
			}
			m := matchingParen(text, k)
			if m < 0 {
				return end, found
			}
			end, found = m+1, true
		default:
			return end, found
		}
	}
}

func skipSpace(text string, i int) int {
	for i < len(text) && (text[i] == ' ' || text[i] == '\t' || text[i] == '\n' || text[i] == '\r') {
		i++
	}
	return i
}

func hasKeyword(text string, i int, kw string) bool {
	if i+len(kw) > len(text) || !strings.EqualFold(text[i:i+len(kw)], kw) {
		return false
	}
	return wordEnds(text, i+len(kw))
}

func wordEnds(text string, i int) bool {
	return i == len(text) || !isWordByte(text[i])
}
