package graph

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/knakk/rdf"

	"github.com/poiesic/datakg/core"
	"github.com/poiesic/datakg/storage"
)

// WriteTurtle serializes every triple as Turtle in insertion order.
func (s *Store) WriteTurtle(w io.Writer) error {
	enc := rdf.NewTripleEncoder(w, rdf.Turtle)
	for _, t := range s.Triples() {
		rt, err := toRDF(t)
		if err != nil {
			return fmt.Errorf("encode %s: %w", t, err)
		}
		if err := enc.Encode(rt); err != nil {
			return fmt.Errorf("encode %s: %w", t, err)
		}
	}
	return enc.Close()
}

// ReadTurtle parses Turtle and adds its triples. Nothing is added if the
// document fails to parse.
func (s *Store) ReadTurtle(r io.Reader) (int, error) {
	dec := rdf.NewTripleDecoder(bufio.NewReader(r), rdf.Turtle)
	var triples []Triple
	for {
		rt, err := dec.Decode()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, core.NewError(core.ErrInput, "read turtle", err)
		}
		triples = append(triples, fromRDF(rt))
	}
	s.Add(triples...)
	return len(triples), nil
}

// SaveFile writes the store to path, replacing any previous file only once
// the new one is complete.
func (s *Store) SaveFile(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := storage.WriteFileAtomic(path, func(w io.Writer) error {
		return s.WriteTurtle(w)
	})
	if err != nil {
		return fmt.Errorf("save graph %s: %w", path, err)
	}
	s.logger.Info("graph saved", "path", path, "triples", s.Len())
	return nil
}

// LoadFile reads a Turtle file written by SaveFile. A missing file reports
// core.ErrNotFound.
func LoadFile(ctx context.Context, path string, opts ...Option) (*Store, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, core.NewError(core.ErrNotFound, "load graph", err)
		}
		return nil, fmt.Errorf("load graph %s: %w", path, err)
	}
	defer f.Close()

	s := NewStore(opts...)
	n, err := s.ReadTurtle(f)
	if err != nil {
		return nil, err
	}
	s.logger.Info("graph loaded", "path", path, "triples", n, "datasets", len(s.datasets))
	return s, nil
}

func toRDF(t Triple) (rdf.Triple, error) {
	subj, err := toRDFNode(t.S)
	if err != nil {
		return rdf.Triple{}, err
	}
	pred, err := rdf.NewIRI(t.P.Value)
	if err != nil {
		return rdf.Triple{}, err
	}
	obj, err := toRDFObject(t.O)
	if err != nil {
		return rdf.Triple{}, err
	}
	return rdf.Triple{Subj: subj, Pred: pred, Obj: obj}, nil
}

func toRDFNode(t Term) (rdf.Subject, error) {
	if t.Kind == KindBlank {
		return rdf.NewBlank(t.Value)
	}
	return rdf.NewIRI(t.Value)
}

func toRDFObject(t Term) (rdf.Object, error) {
	switch t.Kind {
	case KindIRI:
		return rdf.NewIRI(t.Value)
	case KindBlank:
		return rdf.NewBlank(t.Value)
	}
	if t.Lang != "" {
		return rdf.NewLangLiteral(t.Value, t.Lang)
	}
	if t.Datatype != "" {
		dt, err := rdf.NewIRI(t.Datatype)
		if err != nil {
			return nil, err
		}
		return rdf.NewTypedLiteral(t.Value, dt), nil
	}
	return rdf.NewLiteral(t.Value)
}

func fromRDF(rt rdf.Triple) Triple {
	return Triple{S: fromRDFTerm(rt.Subj), P: fromRDFTerm(rt.Pred), O: fromRDFTerm(rt.Obj)}
}

func fromRDFTerm(t rdf.Term) Term {
	switch v := t.(type) {
	case rdf.IRI:
		return IRI(v.String())
	case rdf.Blank:
		return Blank(strings.TrimPrefix(v.String(), "_:"))
	case rdf.Literal:
		if lang := v.Lang(); lang != "" {
			return LangLiteral(v.String(), lang)
		}
		return TypedLiteral(v.String(), v.DataType.String())
	}
	return Term{}
}
