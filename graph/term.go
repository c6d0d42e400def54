package graph

import (
	"strconv"
	"strings"
)

// TermKind distinguishes IRIs, literals and blank nodes.
type TermKind uint8

const (
	KindIRI TermKind = iota + 1
	KindLiteral
	KindBlank
)

// Term is an RDF term. Terms are comparable and usable as map keys.
type Term struct {
	Kind     TermKind
	Value    string
	Datatype string
	Lang     string
}

// IRI returns an IRI term.
func IRI(v string) Term {
	return Term{Kind: KindIRI, Value: v}
}

// Literal returns a plain string literal.
func Literal(v string) Term {
	return Term{Kind: KindLiteral, Value: v}
}

// TypedLiteral returns a literal with an explicit datatype. xsd:string is
// folded into the plain form so both spellings compare equal.
func TypedLiteral(v, datatype string) Term {
	if datatype == XSDString {
		datatype = ""
	}
	return Term{Kind: KindLiteral, Value: v, Datatype: datatype}
}

// LangLiteral returns a language-tagged string.
func LangLiteral(v, lang string) Term {
	return Term{Kind: KindLiteral, Value: v, Lang: strings.ToLower(lang)}
}

// Blank returns a blank node.
func Blank(id string) Term {
	return Term{Kind: KindBlank, Value: id}
}

func (t Term) IsZero() bool    { return t.Kind == 0 }
func (t Term) IsIRI() bool     { return t.Kind == KindIRI }
func (t Term) IsLiteral() bool { return t.Kind == KindLiteral }

// Int returns the integer value of a numeric or gYear literal.
func (t Term) Int() (int64, bool) {
	if t.Kind != KindLiteral {
		return 0, false
	}
	switch t.Datatype {
	case XSDInteger, XSDGYear:
		n, err := strconv.ParseInt(strings.TrimSpace(t.Value), 10, 64)
		return n, err == nil
	}
	return 0, false
}

// Float returns the value of a decimal or double literal.
func (t Term) Float() (float64, bool) {
	if t.Kind != KindLiteral {
		return 0, false
	}
	switch t.Datatype {
	case XSDDecimal, XSDDouble:
		f, err := strconv.ParseFloat(strings.TrimSpace(t.Value), 64)
		return f, err == nil
	}
	return 0, false
}

// String renders the term in N-Triples-like syntax for logs and errors.
func (t Term) String() string {
	switch t.Kind {
	case KindIRI:
		return "<" + t.Value + ">"
	case KindBlank:
		return "_:" + t.Value
	case KindLiteral:
		s := strconv.Quote(t.Value)
		if t.Lang != "" {
			return s + "@" + t.Lang
		}
		if t.Datatype != "" {
			return s + "^^<" + t.Datatype + ">"
		}
		return s
	}
	return "<nil>"
}

// Triple is one subject-predicate-object statement.
type Triple struct {
	S, P, O Term
}

func (t Triple) String() string {
	return t.S.String() + " " + t.P.String() + " " + t.O.String() + " ."
}
