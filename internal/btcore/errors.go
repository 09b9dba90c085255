package btcore

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingParameter is wrapped by a ParameterError for absent keys.
	ErrMissingParameter = errors.New("missing required parameter")
	// ErrInvalidValue is wrapped by a ParameterError for malformed values.
	ErrInvalidValue = errors.New("invalid value")
	// ErrNoChildren is returned by builders of composites given no children.
	ErrNoChildren = errors.New("composite requires at least one child")
	// ErrNilChild is returned when a nil TreeNode is supplied as a child.
	ErrNilChild = errors.New("nil child")
)

// ParameterError is a construction error: a builder could not interpret
// its NodeParameters.
type ParameterError struct {
	Key string
	Err error
}

func (e *ParameterError) Error() string {
	return fmt.Sprintf("parameter %q: %v", e.Key, e.Err)
}

func (e *ParameterError) Unwrap() error { return e.Err }

// BuildError attributes a construction failure to the node being built.
type BuildError struct {
	Node string
	Err  error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("btcore: build %q: %v", e.Node, e.Err)
}

func (e *BuildError) Unwrap() error { return e.Err }

// ContractError reports a programming error, such as ticking a composite
// with no children or a Tick implementation returning Idle. It is raised by
// panic, never reported as Failure.
type ContractError struct {
	Node   string
	Type   NodeType
	Reason string
}

func (e *ContractError) Error() string {
	return fmt.Sprintf("btcore: contract violation in %s node %q: %s", e.Type, e.Node, e.Reason)
}

func contractViolation(n TreeNode, format string, args ...any) {
	panic(&ContractError{
		Node:   n.Name(),
		Type:   n.Type(),
		Reason: fmt.Sprintf(format, args...),
	})
}
