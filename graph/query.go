package graph

import (
	"context"
	"sort"
	"strings"

	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"

	"github.com/poiesic/datakg/core"
)

// Row is one solution: variable name to bound term. Unbound variables are
// absent.
type Row map[string]Term

// Value returns the lexical value bound to a variable, or "".
func (r Row) Value(v string) string { return r[v].Value }

// Bound reports whether the variable has a binding.
func (r Row) Bound(v string) bool {
	_, ok := r[v]
	return ok
}

// Results holds the projected variables and solutions of a query, in
// solution order.
type Results struct {
	Vars []string
	Rows []Row
}

// Len returns the number of solutions.
func (r *Results) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Rows)
}

// Query executes a pattern query against the store.
//
// The supported language is a SELECT subset: PREFIX declarations, DISTINCT,
// basic graph patterns with ";" and "," continuations, nested OPTIONAL
// groups, FILTER expressions, ORDER BY and LIMIT/OFFSET. Filters may use
// comparison and boolean operators together with REGEX, CONTAINS,
// STRSTARTS, STRENDS, LCASE, UCASE, STR, STRLEN, IF and BOUND. Any
// other construct is rejected. Failures carry core.ErrQuery.
//
// Solutions are returned in the order the engine produces them; ORDER BY
// sorts stably, so ties keep that order.
func (s *Store) Query(ctx context.Context, src string) (*Results, error) {
	q, err := parseQuery(src)
	if err != nil {
		return nil, core.NewError(core.ErrQuery, "parse query", err)
	}

	ev, err := newEvaluator(s, q)
	if err != nil {
		return nil, core.NewError(core.ErrQuery, "compile query", err)
	}

	s.mu.RLock()
	rows, err := ev.evalGroup(ctx, q.where, []Row{{}})
	s.mu.RUnlock()
	if err != nil {
		return nil, core.NewError(core.ErrQuery, "evaluate query", err)
	}

	if len(ev.order) > 0 {
		ev.sort(rows)
	}

	vars := q.vars
	if vars == nil {
		vars = patternVars(q.where)
	}
	rows = project(rows, vars, q.distinct)

	if q.offset > 0 {
		if q.offset >= len(rows) {
			rows = nil
		} else {
			rows = rows[q.offset:]
		}
	}
	if q.limit >= 0 && q.limit < len(rows) {
		rows = rows[:q.limit]
	}
	return &Results{Vars: vars, Rows: rows}, nil
}

type compiledGroup struct {
	filters []*program
}

type compiledOrder struct {
	prg  *program
	desc bool
}

type evaluator struct {
	store  *Store
	groups map[*group]*compiledGroup
	order  []compiledOrder
}

func newEvaluator(s *Store, q *query) (*evaluator, error) {
	env, err := newEnv(queryVars(q))
	if err != nil {
		return nil, err
	}
	ev := &evaluator{store: s, groups: make(map[*group]*compiledGroup)}

	var walk func(g *group) error
	walk = func(g *group) error {
		cg := &compiledGroup{}
		for _, f := range g.filters {
			prg, err := compile(env, f)
			if err != nil {
				return err
			}
			cg.filters = append(cg.filters, prg)
		}
		ev.groups[g] = cg
		for _, el := range g.patterns {
			if opt, ok := el.(optionalGroup); ok {
				if err := walk(opt.g); err != nil {
					return err
				}
			}
		}
		return nil
	}
	if err := walk(q.where); err != nil {
		return nil, err
	}

	for _, key := range q.order {
		prg, err := compile(env, key.expr)
		if err != nil {
			return nil, err
		}
		ev.order = append(ev.order, compiledOrder{prg: prg, desc: key.desc})
	}
	return ev, nil
}

// evalGroup extends each input solution with the group's patterns, then
// applies its filters. Filters see every binding the group produces,
// wherever they appear in the group text.
func (ev *evaluator) evalGroup(ctx context.Context, g *group, input []Row) ([]Row, error) {
	rows := input
	for _, el := range g.patterns {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if len(rows) == 0 {
			return nil, nil
		}
		switch el := el.(type) {
		case triplePattern:
			rows = ev.join(rows, el)
		case optionalGroup:
			var out []Row
			for _, row := range rows {
				ext, err := ev.evalGroup(ctx, el.g, []Row{row})
				if err != nil {
					return nil, err
				}
				if len(ext) == 0 {
					out = append(out, row)
				} else {
					out = append(out, ext...)
				}
			}
			rows = out
		}
	}

	filters := ev.groups[g].filters
	if len(filters) == 0 {
		return rows, nil
	}
	kept := rows[:0:0]
	for _, row := range rows {
		if ev.accept(filters, row) {
			kept = append(kept, row)
		}
	}
	return kept, nil
}

// accept evaluates filters against a row. An evaluation error counts as
// false.
func (ev *evaluator) accept(filters []*program, row Row) bool {
	for _, f := range filters {
		out, err := f.eval(row)
		if err != nil || types.IsError(out) || !effectiveBool(out) {
			return false
		}
	}
	return true
}

func (ev *evaluator) join(rows []Row, tp triplePattern) []Row {
	var out []Row
	for _, row := range rows {
		s, p, o := resolve(tp.s, row), resolve(tp.p, row), resolve(tp.o, row)
		ev.store.match(s, p, o, func(t Triple) {
			ext, ok := bind(row, tp, t)
			if ok {
				out = append(out, ext)
			}
		})
	}
	return out
}

func resolve(n node, row Row) Term {
	if n.v == "" {
		return n.term
	}
	return row[n.v]
}

// bind extends row with the variables of tp matched against t. A variable
// used twice in one pattern must bind the same term.
func bind(row Row, tp triplePattern, t Triple) (Row, bool) {
	ext := make(Row, len(row)+3)
	for k, v := range row {
		ext[k] = v
	}
	for _, pair := range [3]struct {
		n node
		t Term
	}{{tp.s, t.S}, {tp.p, t.P}, {tp.o, t.O}} {
		if pair.n.v == "" {
			continue
		}
		if prev, ok := ext[pair.n.v]; ok && prev != pair.t {
			return nil, false
		}
		ext[pair.n.v] = pair.t
	}
	return ext, true
}

type sortKey []ref.Val

func (ev *evaluator) sort(rows []Row) {
	keys := make([]sortKey, len(rows))
	for i, row := range rows {
		keys[i] = make(sortKey, len(ev.order))
		for j, o := range ev.order {
			v, err := o.prg.eval(row)
			if err != nil || types.IsError(v) {
				v = types.NullValue
			}
			keys[i][j] = v
		}
	}
	idx := make([]int, len(rows))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		ka, kb := keys[idx[a]], keys[idx[b]]
		for j, o := range ev.order {
			c := compareValues(ka[j], kb[j])
			if c == 0 {
				continue
			}
			if o.desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})
	sorted := make([]Row, len(rows))
	for i, k := range idx {
		sorted[i] = rows[k]
	}
	copy(rows, sorted)
}

// compareValues orders null before booleans, numbers and strings.
func compareValues(a, b ref.Val) int {
	ra, rb := valueRank(a), valueRank(b)
	if ra != rb {
		return ra - rb
	}
	switch ra {
	case 1:
		return boolInt(bool(a.(types.Bool))) - boolInt(bool(b.(types.Bool)))
	case 2:
		fa, fb := number(a), number(b)
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		}
		return 0
	case 3:
		return strings.Compare(lexical(a), lexical(b))
	}
	return 0
}

func valueRank(v ref.Val) int {
	switch v.(type) {
	case types.Bool:
		return 1
	case types.Int, types.Uint, types.Double:
		return 2
	case types.String:
		return 3
	}
	return 0
}

func number(v ref.Val) float64 {
	switch v := v.(type) {
	case types.Int:
		return float64(v)
	case types.Uint:
		return float64(v)
	case types.Double:
		return float64(v)
	}
	return 0
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func project(rows []Row, vars []string, distinct bool) []Row {
	out := make([]Row, 0, len(rows))
	seen := make(map[string]bool)
	for _, row := range rows {
		p := make(Row, len(vars))
		for _, v := range vars {
			if t, ok := row[v]; ok {
				p[v] = t
			}
		}
		if distinct {
			var key strings.Builder
			for _, v := range vars {
				key.WriteString(p[v].String())
				key.WriteByte(0)
			}
			if seen[key.String()] {
				continue
			}
			seen[key.String()] = true
		}
		out = append(out, p)
	}
	return out
}

// patternVars lists the variables of a group's patterns in order of first
// appearance.
func patternVars(g *group) []string {
	var vars []string
	seen := make(map[string]bool)
	var walk func(g *group)
	walk = func(g *group) {
		for _, el := range g.patterns {
			switch el := el.(type) {
			case triplePattern:
				for _, n := range []node{el.s, el.p, el.o} {
					if n.v != "" && !seen[n.v] {
						seen[n.v] = true
						vars = append(vars, n.v)
					}
				}
			case optionalGroup:
				walk(el.g)
			}
		}
	}
	walk(g)
	return vars
}

// queryVars lists every variable named anywhere in the query.
func queryVars(q *query) []string {
	vars := patternVars(q.where)
	seen := make(map[string]bool, len(vars))
	for _, v := range vars {
		seen[v] = true
	}
	add := func(e *expression) {
		for _, v := range e.vars {
			if !seen[v] {
				seen[v] = true
				vars = append(vars, v)
			}
		}
	}
	var walk func(g *group)
	walk = func(g *group) {
		for _, f := range g.filters {
			add(f)
		}
		for _, el := range g.patterns {
			if opt, ok := el.(optionalGroup); ok {
				walk(opt.g)
			}
		}
	}
	walk(q.where)
	for _, o := range q.order {
		add(o.expr)
	}
	for _, v := range q.vars {
		if !seen[v] {
			seen[v] = true
			vars = append(vars, v)
		}
	}
	return vars
}
