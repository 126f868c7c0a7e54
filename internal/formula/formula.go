// Package formula compiles and evaluates the expressions of formula rules.
// Expressions run on a sealed Starlark thread: the environment contains only
// the sibling fields of the record under construction, the math module, and a
// rand() helper bound to the record's private random stream. No I/O, no host
// access, bounded execution steps.
package formula

import (
	"fmt"
	"math/rand"
	"sort"
	"time"

	starlarkmath "go.starlark.net/lib/math"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/skinclarityclub/Future-MarketingAI-sub004/internal/domain"
)

const (
	defaultMaxSteps = uint64(50_000)
	maxSourceBytes  = 8 * 1024
)

// Runtime compiles formula expressions. One runtime is shared by all
// templates; compiled formulas are immutable and safe for concurrent Eval.
type Runtime struct {
	maxSteps uint64
}

// NewRuntime returns a runtime with the default step budget.
func NewRuntime() *Runtime {
	return &Runtime{maxSteps: defaultMaxSteps}
}

// Compiled is a validated formula expression ready for per-record evaluation.
type Compiled struct {
	src      string
	expr     syntax.Expr
	maxSteps uint64
}

// Compile parses src and verifies that every free identifier is either a
// declared dependency field or an allow-listed helper. Unknown identifiers
// fail here, at registration time, not mid-batch.
func (r *Runtime) Compile(src string, deps []string) (*Compiled, error) {
	if len(src) > maxSourceBytes {
		return nil, domain.ErrValidation("formula exceeds %d bytes", maxSourceBytes)
	}
	expr, err := (&syntax.FileOptions{}).ParseExpr("<formula>", src, 0)
	if err != nil {
		return nil, domain.ErrValidation("formula %q does not parse: %v", src, err)
	}

	allowed := map[string]bool{"math": true, "rand": true}
	for _, d := range deps {
		allowed[d] = true
	}
	free := map[string]bool{}
	collectFreeIdents(expr, free)

	var unknown []string
	for name := range free {
		if allowed[name] || starlark.Universe[name] != nil {
			continue
		}
		unknown = append(unknown, name)
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, domain.ErrValidation(
			"formula %q references undeclared identifiers %v; add them to dependencies", src, unknown)
	}

	return &Compiled{src: src, expr: expr, maxSteps: r.maxSteps}, nil
}

// Source returns the original expression text.
func (c *Compiled) Source() string { return c.src }

// Eval computes the formula over the partially built record. The result is a
// float64, string, or bool.
func (c *Compiled) Eval(rng *rand.Rand, record domain.Record) (any, error) {
	env := make(starlark.StringDict, len(record)+2)
	for name, value := range record {
		sv, err := toStarlark(value)
		if err != nil {
			return nil, domain.ErrFormula("formula %q: field %q: %v", c.src, name, err)
		}
		env[name] = sv
	}
	env["math"] = starlarkmath.Module
	env["rand"] = randBuiltin(rng)

	thread := &starlark.Thread{Name: "formula-eval"}
	thread.SetMaxExecutionSteps(c.maxSteps)

	result, err := starlark.EvalExprOptions(&syntax.FileOptions{}, thread, c.expr, env)
	if err != nil {
		return nil, domain.ErrFormula("formula %q: %v", c.src, err)
	}
	return fromStarlark(result, c.src)
}

func randBuiltin(rng *rand.Rand) *starlark.Builtin {
	return starlark.NewBuiltin("rand", func(_ *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		if err := starlark.UnpackArgs("rand", args, kwargs); err != nil {
			return nil, err
		}
		return starlark.Float(rng.Float64()), nil
	})
}

// toStarlark maps a record value into the evaluation environment. Numerics
// become floats so that "/" behaves as real division regardless of how the
// value was generated.
func toStarlark(v any) (starlark.Value, error) {
	switch value := v.(type) {
	case float64:
		return starlark.Float(value), nil
	case float32:
		return starlark.Float(value), nil
	case int:
		return starlark.Float(value), nil
	case int64:
		return starlark.Float(value), nil
	case string:
		return starlark.String(value), nil
	case bool:
		return starlark.Bool(value), nil
	case time.Time:
		return starlark.Float(value.Unix()), nil
	default:
		return nil, fmt.Errorf("unsupported value type %T", v)
	}
}

func fromStarlark(v starlark.Value, src string) (any, error) {
	switch value := v.(type) {
	case starlark.Float:
		return float64(value), nil
	case starlark.Int:
		f, ok := starlark.AsFloat(value)
		if !ok {
			return nil, domain.ErrFormula("formula %q: integer result out of range", src)
		}
		return f, nil
	case starlark.String:
		return string(value), nil
	case starlark.Bool:
		return bool(value), nil
	default:
		return nil, domain.ErrFormula("formula %q returned unsupported type %s", src, v.Type())
	}
}

// collectFreeIdents gathers identifier references, skipping attribute names
// (x.y reads attribute y, not variable y), keyword-argument names, and
// comprehension/lambda-bound variables.
func collectFreeIdents(n syntax.Node, free map[string]bool) {
	syntax.Walk(n, func(node syntax.Node) bool {
		switch v := node.(type) {
		case *syntax.Ident:
			free[v.Name] = true
			return true
		case *syntax.DotExpr:
			collectFreeIdents(v.X, free)
			return false
		case *syntax.CallExpr:
			collectFreeIdents(v.Fn, free)
			for _, arg := range v.Args {
				if kw, ok := arg.(*syntax.BinaryExpr); ok && kw.Op == syntax.EQ {
					if _, isIdent := kw.X.(*syntax.Ident); isIdent {
						collectFreeIdents(kw.Y, free)
						continue
					}
				}
				collectFreeIdents(arg, free)
			}
			return false
		case *syntax.Comprehension:
			bound := map[string]bool{}
			for _, clause := range v.Clauses {
				switch cl := clause.(type) {
				case *syntax.ForClause:
					collectFreeIdents(cl.X, free)
					collectBoundIdents(cl.Vars, bound)
				case *syntax.IfClause:
					collectFreeIdents(cl.Cond, free)
				}
			}
			collectFreeIdents(v.Body, free)
			for name := range bound {
				delete(free, name)
			}
			return false
		case *syntax.LambdaExpr:
			bound := map[string]bool{}
			for _, p := range v.Params {
				collectBoundIdents(p, bound)
			}
			collectFreeIdents(v.Body, free)
			for name := range bound {
				delete(free, name)
			}
			return false
		}
		return true
	})
}

func collectBoundIdents(n syntax.Node, bound map[string]bool) {
	syntax.Walk(n, func(node syntax.Node) bool {
		if ident, ok := node.(*syntax.Ident); ok {
			bound[ident.Name] = true
		}
		return true
	})
}
