package plan

import (
	"fmt"
	"log/slog"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/joeycumines/go-btcore/internal/leaf"
	pabtpkg "github.com/joeycumines/go-pabt"
)

// Cond matches a single blackboard variable with a predicate.
type Cond struct {
	key   any
	match func(value any) bool
}

var _ pabtpkg.Condition = (*Cond)(nil)

func NewCond(key any, match func(value any) bool) *Cond {
	return &Cond{key: key, match: match}
}

func (c *Cond) Key() any { return c.key }

func (c *Cond) Match(value any) bool {
	if c.match == nil {
		return false
	}
	return c.match(value)
}

func EqualityCond(key, expected any) *Cond {
	return NewCond(key, func(value any) bool { return value == expected })
}

func NotNilCond(key any) *Cond {
	return NewCond(key, func(value any) bool { return value != nil })
}

func NilCond(key any) *Cond {
	return NewCond(key, func(value any) bool { return value == nil })
}

// ExprCond matches a variable with an expr-lang expression, in which the
// variable is bound as value, e.g. "value >= 3".
type ExprCond struct {
	key        any
	expression string
	program    *vm.Program
}

var _ pabtpkg.Condition = (*ExprCond)(nil)

// NewExprCond compiles expression through the shared leaf cache.
func NewExprCond(key any, expression string) (*ExprCond, error) {
	program, err := leaf.CompileExpr(expression)
	if err != nil {
		return nil, fmt.Errorf("plan: condition on %v: %w", key, err)
	}
	return &ExprCond{key: key, expression: expression, program: program}, nil
}

func (c *ExprCond) Key() any { return c.key }

func (c *ExprCond) Expression() string { return c.expression }

// Match treats evaluation errors and non-boolean results as a mismatch.
func (c *ExprCond) Match(value any) bool {
	out, err := expr.Run(c.program, map[string]any{"value": value})
	if err != nil {
		slog.Warn("plan: condition evaluation failed",
			"key", c.key,
			"expression", c.expression,
			"error", err)
		return false
	}
	b, _ := out.(bool)
	return b
}

// Effect is the value an action promises to leave in a variable.
type Effect struct {
	key   any
	value any
}

var _ pabtpkg.Effect = (*Effect)(nil)

func NewEffect(key, value any) *Effect {
	return &Effect{key: key, value: value}
}

func (e *Effect) Key() any { return e.key }

func (e *Effect) Value() any { return e.value }
