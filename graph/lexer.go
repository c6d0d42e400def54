package graph

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIRI           // <http://...>
	tokPName         // prefix:local
	tokVar           // ?name
	tokString        // "..." or '...'
	tokNumber
	tokIdent // keywords and function names
	tokPunct // { } ( ) . ; , *
	tokOp    // = != < > <= >= && || ! + - /
	tokLangTag
	tokDatatype // ^^
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

func (t token) String() string {
	if t.kind == tokEOF {
		return "end of query"
	}
	return fmt.Sprintf("%q at offset %d", t.text, t.pos)
}

// isKeyword reports whether the token is the given keyword, ignoring case.
func (t token) isKeyword(kw string) bool {
	return t.kind == tokIdent && strings.EqualFold(t.text, kw)
}

func (t token) is(kind tokenKind, text string) bool {
	return t.kind == kind && t.text == text
}

type lexer struct {
	src string
	pos int
}

func tokenize(src string) ([]token, error) {
	lx := &lexer{src: src}
	var out []token
	for {
		tok, err := lx.next()
		if err != nil {
			return nil, err
		}
		out = append(out, tok)
		if tok.kind == tokEOF {
			return out, nil
		}
	}
}

func (lx *lexer) peekRune(offset int) rune {
	if lx.pos+offset >= len(lx.src) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(lx.src[lx.pos+offset:])
	return r
}

func (lx *lexer) skipSpaceAndComments() {
	for lx.pos < len(lx.src) {
		r, size := utf8.DecodeRuneInString(lx.src[lx.pos:])
		switch {
		case unicode.IsSpace(r):
			lx.pos += size
		case r == '#':
			for lx.pos < len(lx.src) && lx.src[lx.pos] != '\n' {
				lx.pos++
			}
		default:
			return
		}
	}
}

func (lx *lexer) errorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s at offset %d", ErrSyntax, fmt.Sprintf(format, args...), lx.pos)
}

func (lx *lexer) next() (token, error) {
	lx.skipSpaceAndComments()
	start := lx.pos
	if lx.pos >= len(lx.src) {
		return token{kind: tokEOF, pos: start}, nil
	}
	r := lx.peekRune(0)
	switch {
	case r == '<':
		// An IRI reference contains no whitespace; otherwise this is a
		// comparison operator.
		if end := strings.IndexByte(lx.src[lx.pos:], '>'); end > 0 {
			body := lx.src[lx.pos+1 : lx.pos+end]
			if !strings.ContainsAny(body, " \t\r\n<\"{}|^`") {
				lx.pos += end + 1
				return token{kind: tokIRI, text: body, pos: start}, nil
			}
		}
		return lx.operator(start)
	case r == '?' || r == '$':
		lx.pos++
		name := lx.varName()
		if name == "" {
			return token{}, lx.errorf("empty variable name")
		}
		return token{kind: tokVar, text: name, pos: start}, nil
	case r == '"' || r == '\'':
		return lx.stringLiteral(start, byte(r))
	case r == '@':
		lx.pos++
		tag := lx.name()
		if tag == "" {
			return token{}, lx.errorf("empty language tag")
		}
		return token{kind: tokLangTag, text: tag, pos: start}, nil
	case r == '^' && lx.peekRune(1) == '^':
		lx.pos += 2
		return token{kind: tokDatatype, text: "^^", pos: start}, nil
	case unicode.IsDigit(r):
		return lx.number(start), nil
	case strings.ContainsRune("{}().;,*", r):
		// A dot followed by a digit is a decimal like .5.
		if r == '.' && unicode.IsDigit(lx.peekRune(1)) {
			return lx.number(start), nil
		}
		lx.pos++
		return token{kind: tokPunct, text: string(r), pos: start}, nil
	case r == ':' || unicode.IsLetter(r) || r == '_':
		name := lx.name()
		if lx.peekRune(0) == ':' {
			lx.pos++
			local := lx.localName()
			return token{kind: tokPName, text: name + ":" + local, pos: start}, nil
		}
		return token{kind: tokIdent, text: name, pos: start}, nil
	}
	return lx.operator(start)
}

func (lx *lexer) operator(start int) (token, error) {
	for _, op := range []string{"!=", "<=", ">=", "&&", "||", "==", "=", "<", ">", "!", "+", "-", "/"} {
		if strings.HasPrefix(lx.src[lx.pos:], op) {
			lx.pos += len(op)
			return token{kind: tokOp, text: op, pos: start}, nil
		}
	}
	return token{}, lx.errorf("unexpected character %q", lx.peekRune(0))
}

// varName reads a variable name, which unlike other names cannot contain
// dashes.
func (lx *lexer) varName() string {
	start := lx.pos
	for lx.pos < len(lx.src) {
		r, size := utf8.DecodeRuneInString(lx.src[lx.pos:])
		if !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_') {
			break
		}
		lx.pos += size
	}
	return lx.src[start:lx.pos]
}

func (lx *lexer) name() string {
	start := lx.pos
	for lx.pos < len(lx.src) {
		r, size := utf8.DecodeRuneInString(lx.src[lx.pos:])
		if !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-') {
			break
		}
		lx.pos += size
	}
	return lx.src[start:lx.pos]
}

// localName reads the local part of a prefixed name. Dots are allowed
// in the middle but a trailing dot terminates the statement.
func (lx *lexer) localName() string {
	start := lx.pos
	for lx.pos < len(lx.src) {
		r, size := utf8.DecodeRuneInString(lx.src[lx.pos:])
		if r == '.' {
			next := lx.peekRune(1)
			if unicode.IsLetter(next) || unicode.IsDigit(next) || next == '_' {
				lx.pos += size
				continue
			}
			break
		}
		if !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-' || r == '%') {
			break
		}
		lx.pos += size
	}
	return lx.src[start:lx.pos]
}

func (lx *lexer) number(start int) token {
	seenDot := false
	for lx.pos < len(lx.src) {
		c := lx.src[lx.pos]
		if c == '.' && !seenDot && lx.pos+1 < len(lx.src) && lx.src[lx.pos+1] >= '0' && lx.src[lx.pos+1] <= '9' {
			seenDot = true
			lx.pos++
			continue
		}
		if c < '0' || c > '9' {
			break
		}
		lx.pos++
	}
	return token{kind: tokNumber, text: lx.src[start:lx.pos], pos: start}
}

func (lx *lexer) stringLiteral(start int, quote byte) (token, error) {
	long := strings.HasPrefix(lx.src[lx.pos:], strings.Repeat(string(quote), 3))
	if long {
		lx.pos += 3
	} else {
		lx.pos++
	}
	var b strings.Builder
	for lx.pos < len(lx.src) {
		c := lx.src[lx.pos]
		switch {
		case c == '\\' && lx.pos+1 < len(lx.src):
			lx.pos++
			switch e := lx.src[lx.pos]; e {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			default:
				b.WriteByte(e)
			}
			lx.pos++
		case c == quote && long:
			if strings.HasPrefix(lx.src[lx.pos:], strings.Repeat(string(quote), 3)) {
				lx.pos += 3
				return token{kind: tokString, text: b.String(), pos: start}, nil
			}
			b.WriteByte(c)
			lx.pos++
		case c == quote:
			lx.pos++
			return token{kind: tokString, text: b.String(), pos: start}, nil
		case c == '\n' && !long:
			return token{}, lx.errorf("newline in string literal")
		default:
			b.WriteByte(c)
			lx.pos++
		}
	}
	return token{}, lx.errorf("unterminated string literal")
}
