package graph

import (
	"fmt"
	"strconv"
	"strings"
)

// query is a parsed SELECT query.
type query struct {
	prefixes map[string]string
	distinct bool
	vars     []string // nil selects every variable
	where    *group
	order    []orderKey
	limit    int // negative means unlimited
	offset   int
}

type group struct {
	patterns []element
	filters  []*expression
}

// element is either a triplePattern or an optional group.
type element interface{ isElement() }

type triplePattern struct {
	s, p, o node
}

type optionalGroup struct {
	g *group
}

func (triplePattern) isElement() {}
func (optionalGroup) isElement() {}

// node is a triple pattern position: a variable when v is set, otherwise a
// constant term.
type node struct {
	v    string
	term Term
}

func (n node) String() string {
	if n.v != "" {
		return "?" + n.v
	}
	return n.term.String()
}

type orderKey struct {
	expr *expression
	desc bool
}

// expression is a filter or ordering expression translated to CEL source.
type expression struct {
	src  string
	vars []string
}

var unsupportedKeywords = map[string]bool{
	"UNION": true, "MINUS": true, "BIND": true, "VALUES": true, "GRAPH": true,
	"SERVICE": true, "CONSTRUCT": true, "ASK": true, "DESCRIBE": true,
	"FROM": true, "GROUP": true, "HAVING": true, "BASE": true, "EXISTS": true,
	"NOT": true, "IN": true, "AS": true,
}

// sparqlFunctions maps the supported builtins to their arity bounds.
var sparqlFunctions = map[string][2]int{
	"REGEX":     {2, 3},
	"CONTAINS":  {2, 2},
	"STRSTARTS": {2, 2},
	"STRENDS":   {2, 2},
	"LCASE":     {1, 1},
	"UCASE":     {1, 1},
	"STR":       {1, 1},
	"STRLEN":    {1, 1},
	"IF":        {3, 3},
	"BOUND":     {1, 1},
}

type parser struct {
	toks []token
	pos  int
	q    *query
}

func parseQuery(src string) (*query, error) {
	toks, err := tokenize(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks, q: &query{prefixes: make(map[string]string), limit: -1}}
	for k, v := range DefaultPrefixes {
		p.q.prefixes[k] = v
	}
	if err := p.parse(); err != nil {
		return nil, err
	}
	return p.q, nil
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) advance() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) errorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrSyntax, fmt.Sprintf(format, args...))
}

func (p *parser) unsupported(t token) error {
	return fmt.Errorf("%w: %s", ErrUnsupported, t)
}

func (p *parser) expectPunct(text string) error {
	t := p.advance()
	if !t.is(tokPunct, text) {
		return p.errorf("expected %q, found %s", text, t)
	}
	return nil
}

func (p *parser) parse() error {
	for p.peek().isKeyword("PREFIX") {
		p.advance()
		name := p.advance()
		if name.kind != tokPName || !strings.HasSuffix(name.text, ":") {
			return p.errorf("expected prefix name, found %s", name)
		}
		iri := p.advance()
		if iri.kind != tokIRI {
			return p.errorf("expected IRI for prefix %s, found %s", name.text, iri)
		}
		p.q.prefixes[strings.TrimSuffix(name.text, ":")] = iri.text
	}

	t := p.advance()
	if !t.isKeyword("SELECT") {
		if t.kind == tokIdent && unsupportedKeywords[strings.ToUpper(t.text)] {
			return p.unsupported(t)
		}
		return p.errorf("expected SELECT, found %s", t)
	}
	if p.peek().isKeyword("DISTINCT") || p.peek().isKeyword("REDUCED") {
		p.q.distinct = true
		p.advance()
	}
	if p.peek().is(tokPunct, "*") {
		p.advance()
	} else {
		for p.peek().kind == tokVar {
			p.q.vars = append(p.q.vars, p.advance().text)
		}
		if len(p.q.vars) == 0 {
			if t := p.peek(); t.is(tokPunct, "(") {
				return p.unsupported(t)
			}
			return p.errorf("expected projection, found %s", p.peek())
		}
	}

	if t := p.peek(); t.kind == tokIdent && unsupportedKeywords[strings.ToUpper(t.text)] {
		return p.unsupported(t)
	}
	if p.peek().isKeyword("WHERE") {
		p.advance()
	}
	g, err := p.parseGroup()
	if err != nil {
		return err
	}
	p.q.where = g
	return p.parseModifiers()
}

func (p *parser) parseModifiers() error {
	for {
		t := p.peek()
		switch {
		case t.kind == tokEOF:
			return nil
		case t.isKeyword("ORDER"):
			p.advance()
			if !p.advance().isKeyword("BY") {
				return p.errorf("expected BY after ORDER")
			}
			if err := p.parseOrderKeys(); err != nil {
				return err
			}
		case t.isKeyword("LIMIT"), t.isKeyword("OFFSET"):
			p.advance()
			n := p.advance()
			v, err := strconv.Atoi(n.text)
			if n.kind != tokNumber || err != nil || v < 0 {
				return p.errorf("expected non-negative integer after %s, found %s", t.text, n)
			}
			if t.isKeyword("LIMIT") {
				p.q.limit = v
			} else {
				p.q.offset = v
			}
		case t.kind == tokIdent && unsupportedKeywords[strings.ToUpper(t.text)]:
			return p.unsupported(t)
		default:
			return p.errorf("unexpected %s", t)
		}
	}
}

func (p *parser) parseOrderKeys() error {
	for {
		t := p.peek()
		switch {
		case t.isKeyword("ASC"), t.isKeyword("DESC"):
			p.advance()
			if !p.peek().is(tokPunct, "(") {
				return p.errorf("expected ( after %s", t.text)
			}
			e, err := p.parseBracketed()
			if err != nil {
				return err
			}
			p.q.order = append(p.q.order, orderKey{expr: e, desc: t.isKeyword("DESC")})
		case t.kind == tokVar:
			p.advance()
			p.q.order = append(p.q.order, orderKey{expr: &expression{src: celVar(t.text), vars: []string{t.text}}})
		case t.is(tokPunct, "("):
			e, err := p.parseBracketed()
			if err != nil {
				return err
			}
			p.q.order = append(p.q.order, orderKey{expr: e})
		case t.kind == tokIdent && isFunction(t.text):
			e, err := p.parseCall()
			if err != nil {
				return err
			}
			p.q.order = append(p.q.order, orderKey{expr: e})
		default:
			if len(p.q.order) == 0 {
				return p.errorf("expected ordering expression, found %s", t)
			}
			return nil
		}
	}
}

func (p *parser) parseGroup() (*group, error) {
	if err := p.expectPunct("{"); err != nil {
		return nil, err
	}
	g := &group{}
	for {
		t := p.peek()
		switch {
		case t.kind == tokEOF:
			return nil, p.errorf("unterminated group")
		case t.is(tokPunct, "}"):
			p.advance()
			if p.peek().isKeyword("UNION") {
				return nil, p.unsupported(p.peek())
			}
			return g, nil
		case t.is(tokPunct, "."):
			p.advance()
		case t.is(tokPunct, "{"):
			inner, err := p.parseGroup()
			if err != nil {
				return nil, err
			}
			g.patterns = append(g.patterns, inner.patterns...)
			g.filters = append(g.filters, inner.filters...)
		case t.isKeyword("OPTIONAL"):
			p.advance()
			inner, err := p.parseGroup()
			if err != nil {
				return nil, err
			}
			g.patterns = append(g.patterns, optionalGroup{g: inner})
		case t.isKeyword("FILTER"):
			p.advance()
			var e *expression
			var err error
			switch next := p.peek(); {
			case next.is(tokPunct, "("):
				e, err = p.parseBracketed()
			case next.kind == tokIdent && unsupportedKeywords[strings.ToUpper(next.text)]:
				return nil, p.unsupported(next)
			case next.kind == tokIdent:
				e, err = p.parseCall()
			default:
				return nil, p.errorf("expected filter expression, found %s", next)
			}
			if err != nil {
				return nil, err
			}
			g.filters = append(g.filters, e)
		case t.kind == tokIdent && unsupportedKeywords[strings.ToUpper(t.text)]:
			return nil, p.unsupported(t)
		default:
			if err := p.parseTriples(g); err != nil {
				return nil, err
			}
		}
	}
}

// parseTriples reads one subject with its predicate-object list.
func (p *parser) parseTriples(g *group) error {
	subj, err := p.parseNode(false)
	if err != nil {
		return err
	}
	for {
		pred, err := p.parseNode(true)
		if err != nil {
			return err
		}
		for {
			obj, err := p.parseNode(false)
			if err != nil {
				return err
			}
			g.patterns = append(g.patterns, triplePattern{s: subj, p: pred, o: obj})
			if !p.peek().is(tokPunct, ",") {
				break
			}
			p.advance()
		}
		if !p.peek().is(tokPunct, ";") {
			return nil
		}
		for p.peek().is(tokPunct, ";") {
			p.advance()
		}
		if t := p.peek(); t.is(tokPunct, ".") || t.is(tokPunct, "}") {
			return nil
		}
	}
}

func (p *parser) parseNode(predicate bool) (node, error) {
	t := p.advance()
	switch t.kind {
	case tokVar:
		return node{v: t.text}, nil
	case tokIRI:
		return node{term: IRI(t.text)}, nil
	case tokPName:
		iri, err := p.expand(t)
		if err != nil {
			return node{}, err
		}
		return node{term: IRI(iri)}, nil
	case tokIdent:
		if predicate && t.text == "a" {
			return node{term: IRI(PropType)}, nil
		}
		if !predicate && (strings.EqualFold(t.text, "true") || strings.EqualFold(t.text, "false")) {
			return node{term: TypedLiteral(strings.ToLower(t.text), XSDBoolean)}, nil
		}
	case tokString:
		if predicate {
			break
		}
		lit, err := p.literalSuffix(t.text)
		return node{term: lit}, err
	case tokNumber:
		if predicate {
			break
		}
		return node{term: numberTerm(t.text)}, nil
	case tokPunct:
		if t.text == "[" || t.text == "(" {
			return node{}, p.unsupported(t)
		}
	}
	return node{}, p.errorf("unexpected %s in triple pattern", t)
}

func (p *parser) literalSuffix(value string) (Term, error) {
	switch t := p.peek(); t.kind {
	case tokLangTag:
		p.advance()
		return LangLiteral(value, t.text), nil
	case tokDatatype:
		p.advance()
		dt := p.advance()
		switch dt.kind {
		case tokIRI:
			return TypedLiteral(value, dt.text), nil
		case tokPName:
			iri, err := p.expand(dt)
			if err != nil {
				return Term{}, err
			}
			return TypedLiteral(value, iri), nil
		}
		return Term{}, p.errorf("expected datatype IRI, found %s", dt)
	}
	return Literal(value), nil
}

func (p *parser) expand(t token) (string, error) {
	prefix, local, _ := strings.Cut(t.text, ":")
	ns, ok := p.q.prefixes[prefix]
	if !ok {
		return "", p.errorf("undeclared prefix %q", prefix)
	}
	return ns + local, nil
}

func numberTerm(text string) Term {
	if strings.Contains(text, ".") {
		return TypedLiteral(text, XSDDecimal)
	}
	return TypedLiteral(text, XSDInteger)
}

func isFunction(name string) bool {
	_, ok := sparqlFunctions[strings.ToUpper(name)]
	return ok
}

// parseBracketed reads "( expr )" and translates it.
func (p *parser) parseBracketed() (*expression, error) {
	start := p.pos
	if err := p.skipBalanced(); err != nil {
		return nil, err
	}
	return p.translate(p.toks[start:p.pos])
}

// parseCall reads "NAME( args )" and translates it.
func (p *parser) parseCall() (*expression, error) {
	start := p.pos
	p.advance()
	if !p.peek().is(tokPunct, "(") {
		return nil, p.errorf("expected ( after %s", p.toks[start].text)
	}
	if err := p.skipBalanced(); err != nil {
		return nil, err
	}
	return p.translate(p.toks[start:p.pos])
}

func (p *parser) skipBalanced() error {
	depth := 0
	for {
		t := p.advance()
		switch {
		case t.kind == tokEOF:
			return p.errorf("unbalanced parentheses")
		case t.is(tokPunct, "("):
			depth++
		case t.is(tokPunct, ")"):
			depth--
			if depth == 0 {
				return nil
			}
		}
	}
}

func celVar(name string) string { return "v_" + name }

// translate rewrites expression tokens into CEL source. Variables become
// v_-prefixed identifiers, IRIs become their string form and SPARQL's
// single "=" becomes "==".
func (p *parser) translate(toks []token) (*expression, error) {
	var b strings.Builder
	e := &expression{}
	seen := make(map[string]bool)
	type call struct {
		name  string
		args  int
		depth int
	}
	var calls []call
	depth := 0
	space := func() {
		if n := b.Len(); n > 0 {
			if last := b.String()[n-1]; last != '(' && last != ',' {
				b.WriteByte(' ')
			}
		}
	}

	for i := 0; i < len(toks); i++ {
		t := toks[i]
		switch t.kind {
		case tokVar:
			space()
			b.WriteString(celVar(t.text))
			if !seen[t.text] {
				seen[t.text] = true
				e.vars = append(e.vars, t.text)
			}
		case tokIRI:
			space()
			b.WriteString(strconv.Quote(t.text))
		case tokPName:
			iri, err := p.expand(t)
			if err != nil {
				return nil, err
			}
			space()
			b.WriteString(strconv.Quote(iri))
		case tokString:
			space()
			value := t.text
			if i+1 < len(toks) && toks[i+1].kind == tokLangTag {
				i++
			} else if i+2 < len(toks) && toks[i+1].kind == tokDatatype {
				i += 2
				if dt := toks[i]; dt.kind == tokPName || dt.kind == tokIRI {
					iri := dt.text
					if dt.kind == tokPName {
						var err error
						if iri, err = p.expand(dt); err != nil {
							return nil, err
						}
					}
					if iri == XSDInteger || iri == XSDDecimal || iri == XSDDouble || iri == XSDGYear {
						if _, err := strconv.ParseFloat(value, 64); err == nil {
							b.WriteString(value)
							continue
						}
					}
				}
			}
			b.WriteString(strconv.Quote(value))
		case tokNumber:
			space()
			if strings.HasPrefix(t.text, ".") {
				b.WriteString("0")
			}
			b.WriteString(t.text)
		case tokIdent:
			upper := strings.ToUpper(t.text)
			switch {
			case upper == "TRUE" || upper == "FALSE":
				space()
				b.WriteString(strings.ToLower(upper))
			case isFunction(upper):
				if i+1 >= len(toks) || !toks[i+1].is(tokPunct, "(") {
					return nil, p.errorf("expected ( after %s", t.text)
				}
				space()
				b.WriteString(upper)
				calls = append(calls, call{name: upper, depth: depth + 1})
			case unsupportedKeywords[upper]:
				return nil, p.unsupported(t)
			default:
				return nil, fmt.Errorf("%w: function %s", ErrUnsupported, t.text)
			}
		case tokOp:
			space()
			if t.text == "=" {
				b.WriteString("==")
			} else {
				b.WriteString(t.text)
			}
		case tokPunct:
			switch t.text {
			case "(":
				depth++
				if n := len(calls); n > 0 && calls[n-1].depth == depth && i > 0 && toks[i-1].kind == tokIdent {
					b.WriteString("(")
					continue
				}
				space()
				b.WriteString("(")
			case ")":
				if n := len(calls); n > 0 && calls[n-1].depth == depth {
					c := calls[n-1]
					if !(i > 0 && toks[i-1].is(tokPunct, "(")) {
						c.args++
					}
					bounds := sparqlFunctions[c.name]
					if c.args < bounds[0] || c.args > bounds[1] {
						return nil, p.errorf("%s takes %d to %d arguments, got %d", c.name, bounds[0], bounds[1], c.args)
					}
					calls = calls[:n-1]
				}
				depth--
				b.WriteString(")")
			case ",":
				if n := len(calls); n > 0 && calls[n-1].depth == depth {
					calls[n-1].args++
				} else {
					return nil, p.errorf("unexpected , in expression")
				}
				b.WriteString(",")
			case "*":
				space()
				b.WriteString("*")
			default:
				return nil, p.errorf("unexpected %s in expression", t)
			}
		default:
			return nil, p.errorf("unexpected %s in expression", t)
		}
	}
	if depth != 0 {
		return nil, p.errorf("unbalanced parentheses in expression")
	}
	e.src = b.String()
	return e, nil
}
