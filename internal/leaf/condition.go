package leaf

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/builtin"
	"github.com/expr-lang/expr/vm"
	"github.com/joeycumines/go-btcore/internal/btcore"
)

// FuncCondition reports Success when its predicate holds and Failure
// otherwise. Conditions never return Running.
type FuncCondition struct {
	*btcore.Node
	predicate func() bool
}

func NewFuncCondition(name string, predicate func() bool) *FuncCondition {
	if predicate == nil {
		panic("leaf: nil predicate")
	}
	c := &FuncCondition{predicate: predicate}
	c.Node = btcore.NewNode(name, btcore.ConditionNode, c)
	return c
}

func (c *FuncCondition) Tick() btcore.NodeStatus {
	if c.predicate() {
		return btcore.Success
	}
	return btcore.Failure
}

func (c *FuncCondition) OnHalt() {}

// Env supplies the variables an ExprCondition is evaluated against.
type Env func() map[string]any

// ExprCondition evaluates a boolean expr-lang expression on every tick.
// Undefined variables evaluate to nil rather than failing compilation.
// Compilation and evaluation errors yield Failure and are kept for
// LastError.
type ExprCondition struct {
	*btcore.Node
	expression string
	env        Env

	mu      sync.Mutex
	program *vm.Program
	lastErr error
}

// NewExprCondition panics if expression is empty. A nil env evaluates
// against no variables.
func NewExprCondition(name, expression string, env Env) *ExprCondition {
	if expression == "" {
		panic("leaf: empty expression")
	}
	c := &ExprCondition{expression: expression, env: env}
	c.Node = btcore.NewNode(name, btcore.ConditionNode, c)
	return c
}

func (c *ExprCondition) Expression() string { return c.expression }

func (c *ExprCondition) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

func (c *ExprCondition) Tick() btcore.NodeStatus {
	ok, err := c.Evaluate()
	c.mu.Lock()
	c.lastErr = err
	c.mu.Unlock()
	if err != nil {
		slog.Warn("leaf: expression condition error",
			"node", c.Name(),
			"expression", c.expression,
			"error", err)
		return btcore.Failure
	}
	if ok {
		return btcore.Success
	}
	return btcore.Failure
}

func (c *ExprCondition) OnHalt() {}

// Evaluate runs the expression once against the current environment.
func (c *ExprCondition) Evaluate() (bool, error) {
	program, err := c.compile()
	if err != nil {
		return false, fmt.Errorf("compile %q: %w", c.expression, err)
	}
	var env map[string]any
	if c.env != nil {
		env = c.env()
	}
	if env == nil {
		env = map[string]any{}
	}
	out, err := expr.Run(program, env)
	if err != nil {
		return false, fmt.Errorf("evaluate %q: %w", c.expression, err)
	}
	b, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("evaluate %q: non-boolean result %T", c.expression, out)
	}
	return b, nil
}

func (c *ExprCondition) compile() (*vm.Program, error) {
	c.mu.Lock()
	program := c.program
	c.mu.Unlock()
	if program != nil {
		return program, nil
	}
	program, err := CompileExpr(c.expression)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	if c.program == nil {
		c.program = program
	}
	program = c.program
	c.mu.Unlock()
	return program, nil
}

// CompileExpr compiles a boolean expression through the shared cache.
// Variables are resolved from the environment at run time, and a bare
// identifier that shares its name with an expr builtin (count, len, max,
// ...) still names a variable. Builtins remain callable.
func CompileExpr(expression string) (*vm.Program, error) {
	if program, ok := exprCache.Get(expression); ok {
		return program, nil
	}
	program, err := expr.Compile(expression,
		expr.AsBool(),
		expr.AllowUndefinedVariables(),
		expr.Patch(envIdentifiers{}),
	)
	if err != nil {
		return nil, err
	}
	exprCache.Put(expression, program)
	return program, nil
}

// envIdentifiers rewrites bare identifiers named like builtins into
// $env["name"] lookups. Calls of builtins parse as BuiltinNode and are not
// affected, and let cannot rebind a builtin name.
type envIdentifiers struct{}

func (envIdentifiers) Visit(node *ast.Node) {
	n, ok := (*node).(*ast.IdentifierNode)
	if !ok {
		return
	}
	if _, ok := builtin.Index[n.Value]; ok {
		ast.Patch(node, &ast.MemberNode{
			Node:     &ast.IdentifierNode{Value: "$env"},
			Property: &ast.StringNode{Value: n.Value},
		})
	}
}
