package graph

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dlclark/regexp2"
	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
)

// regexTimeout bounds a single REGEX evaluation.
const regexTimeout = 250 * time.Millisecond

// program is a compiled filter or ordering expression.
type program struct {
	src  string
	vars []string
	prg  cel.Program
}

// regexCache memoizes compiled REGEX patterns for one query.
type regexCache struct {
	mu sync.Mutex
	m  map[string]*regexp2.Regexp
}

func (c *regexCache) get(pattern, flags string) (*regexp2.Regexp, error) {
	key := flags + "/" + pattern
	c.mu.Lock()
	defer c.mu.Unlock()
	if re, ok := c.m[key]; ok {
		return re, nil
	}
	var opts regexp2.RegexOptions
	for _, f := range flags {
		switch f {
		case 'i':
			opts |= regexp2.IgnoreCase
		case 's':
			opts |= regexp2.Singleline
		case 'm':
			opts |= regexp2.Multiline
		case 'x':
			opts |= regexp2.IgnorePatternWhitespace
		default:
			return nil, fmt.Errorf("unknown regex flag %q", f)
		}
	}
	re, err := regexp2.Compile(pattern, opts)
	if err != nil {
		return nil, err
	}
	re.MatchTimeout = regexTimeout
	c.m[key] = re
	return re, nil
}

// newEnv builds a CEL environment declaring each query variable as dyn and
// binding the supported SPARQL builtins.
func newEnv(vars []string) (*cel.Env, error) {
	cache := &regexCache{m: make(map[string]*regexp2.Regexp)}
	dyn := cel.DynType
	opts := []cel.EnvOption{cel.CrossTypeNumericComparisons(true)}
	for _, v := range vars {
		opts = append(opts, cel.Variable(celVar(v), dyn))
	}

	stringPredicate := func(name string, fn func(a, b string) bool) cel.EnvOption {
		return cel.Function(name,
			cel.Overload("sparql_"+strings.ToLower(name), []*cel.Type{dyn, dyn}, cel.BoolType,
				cel.BinaryBinding(func(a, b ref.Val) ref.Val {
					return types.Bool(fn(lexical(a), lexical(b)))
				})))
	}
	stringFunc := func(name string, fn func(string) ref.Val, result *cel.Type) cel.EnvOption {
		return cel.Function(name,
			cel.Overload("sparql_"+strings.ToLower(name), []*cel.Type{dyn}, result,
				cel.UnaryBinding(func(v ref.Val) ref.Val { return fn(lexical(v)) })))
	}
	regex := func(values ...ref.Val) ref.Val {
		flags := ""
		if len(values) == 3 {
			flags = lexical(values[2])
		}
		re, err := cache.get(lexical(values[1]), flags)
		if err != nil {
			return types.NewErr("REGEX: %v", err)
		}
		ok, err := re.MatchString(lexical(values[0]))
		if err != nil {
			return types.NewErr("REGEX: %v", err)
		}
		return types.Bool(ok)
	}

	opts = append(opts,
		stringPredicate("CONTAINS", strings.Contains),
		stringPredicate("STRSTARTS", strings.HasPrefix),
		stringPredicate("STRENDS", strings.HasSuffix),
		stringFunc("LCASE", func(s string) ref.Val { return types.String(strings.ToLower(s)) }, cel.StringType),
		stringFunc("UCASE", func(s string) ref.Val { return types.String(strings.ToUpper(s)) }, cel.StringType),
		stringFunc("STR", func(s string) ref.Val { return types.String(s) }, cel.StringType),
		stringFunc("STRLEN", func(s string) ref.Val { return types.Int(len([]rune(s))) }, cel.IntType),
		cel.Function("REGEX",
			cel.Overload("sparql_regex", []*cel.Type{dyn, dyn}, cel.BoolType,
				cel.BinaryBinding(func(a, b ref.Val) ref.Val { return regex(a, b) })),
			cel.Overload("sparql_regex_flags", []*cel.Type{dyn, dyn, dyn}, cel.BoolType,
				cel.FunctionBinding(regex))),
		cel.Function("IF",
			cel.Overload("sparql_if", []*cel.Type{dyn, dyn, dyn}, dyn,
				cel.FunctionBinding(func(values ...ref.Val) ref.Val {
					if effectiveBool(values[0]) {
						return values[1]
					}
					return values[2]
				}))),
		cel.Function("BOUND",
			cel.Overload("sparql_bound", []*cel.Type{dyn}, cel.BoolType,
				cel.UnaryBinding(func(v ref.Val) ref.Val {
					_, null := v.(types.Null)
					return types.Bool(!null)
				}))),
	)
	return cel.NewEnv(opts...)
}

func compile(env *cel.Env, e *expression) (*program, error) {
	ast, iss := env.Compile(e.src)
	if iss != nil && iss.Err() != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSyntax, e.src, iss.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSyntax, e.src, err)
	}
	return &program{src: e.src, vars: e.vars, prg: prg}, nil
}

// eval runs the program against a solution. Unbound variables are null.
func (p *program) eval(row Row) (ref.Val, error) {
	act := make(map[string]any, len(p.vars))
	for _, v := range p.vars {
		act[celVar(v)] = celValue(row[v])
	}
	out, _, err := p.prg.Eval(act)
	return out, err
}

func celValue(t Term) any {
	if t.IsZero() {
		return types.NullValue
	}
	if n, ok := t.Int(); ok {
		return n
	}
	if f, ok := t.Float(); ok {
		return f
	}
	if t.Datatype == XSDBoolean {
		return t.Value == "true" || t.Value == "1"
	}
	return t.Value
}

// lexical returns the string form of a value; null is the empty string.
func lexical(v ref.Val) string {
	switch v := v.(type) {
	case types.String:
		return string(v)
	case types.Int:
		return strconv.FormatInt(int64(v), 10)
	case types.Double:
		return strconv.FormatFloat(float64(v), 'f', -1, 64)
	case types.Bool:
		return strconv.FormatBool(bool(v))
	case types.Null:
		return ""
	}
	if v == nil {
		return ""
	}
	return fmt.Sprint(v.Value())
}

// effectiveBool applies SPARQL's effective boolean value rules.
func effectiveBool(v ref.Val) bool {
	switch v := v.(type) {
	case types.Bool:
		return bool(v)
	case types.String:
		return v != ""
	case types.Int:
		return v != 0
	case types.Double:
		return v != 0
	}
	return false
}
