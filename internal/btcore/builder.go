package btcore

import (
	"errors"
	"fmt"
)

// NodeBuilder constructs a node from its name and parameters. Leaf
// builders are supplied by the application; tree assembly calls them.
type NodeBuilder func(name string, params NodeParameters) (TreeNode, error)

// ControlBuilder constructs a control node around an already built list of
// children.
type ControlBuilder func(name string, params NodeParameters, children ...TreeNode) (TreeNode, error)

// DecoratorBuilder constructs a decorator around an already built child.
type DecoratorBuilder func(name string, params NodeParameters, child TreeNode) (TreeNode, error)

// Build calls b, attributing any error to the node name. A builder that
// returns neither node nor error is reported as an error too.
func (b NodeBuilder) Build(name string, params NodeParameters) (TreeNode, error) {
	node, err := b(name, params)
	if err != nil {
		return nil, &BuildError{Node: name, Err: err}
	}
	if node == nil {
		return nil, &BuildError{Node: name, Err: errors.New("builder returned nil node")}
	}
	return node, nil
}

// Parameter keys understood by the builders in this package.
const (
	ParamFailurePolicy = "failure_policy"
	ParamSuccessPolicy = "success_policy"
	ParamResetPolicy   = "reset_policy"
	ParamAttempts      = "num_attempts"
	ParamCycles        = "num_cycles"
)

func checkChildren(children []TreeNode) error {
	if len(children) == 0 {
		return ErrNoChildren
	}
	for i, c := range children {
		if c == nil {
			return fmt.Errorf("%w at index %d", ErrNilChild, i)
		}
	}
	return nil
}

func buildError(name string, err error) error {
	return &BuildError{Node: name, Err: err}
}

// BuildSequence builds a Sequence; it takes no parameters.
func BuildSequence(name string, _ NodeParameters, children ...TreeNode) (TreeNode, error) {
	if err := checkChildren(children); err != nil {
		return nil, buildError(name, err)
	}
	return NewSequence(name, children...), nil
}

// BuildFallback builds a Fallback; it takes no parameters.
func BuildFallback(name string, _ NodeParameters, children ...TreeNode) (TreeNode, error) {
	if err := checkChildren(children); err != nil {
		return nil, buildError(name, err)
	}
	return NewFallback(name, children...), nil
}

// BuildParallel reads failure_policy (default FAIL_ON_ONE) and
// success_policy (default SUCCEED_ON_ALL).
func BuildParallel(name string, params NodeParameters, children ...TreeNode) (TreeNode, error) {
	if err := checkChildren(children); err != nil {
		return nil, buildError(name, err)
	}
	failure, success := FailOnOne, SucceedOnAll
	if v, ok := params.Get(ParamFailurePolicy); ok {
		p, err := ParseFailurePolicy(v)
		if err != nil {
			return nil, buildError(name, &ParameterError{Key: ParamFailurePolicy, Err: err})
		}
		failure = p
	}
	if v, ok := params.Get(ParamSuccessPolicy); ok {
		p, err := ParseSuccessPolicy(v)
		if err != nil {
			return nil, buildError(name, &ParameterError{Key: ParamSuccessPolicy, Err: err})
		}
		success = p
	}
	return NewParallel(name, failure, success, children...), nil
}

func checkChild(child TreeNode) error {
	if child == nil {
		return ErrNilChild
	}
	return nil
}

// BuildInverter builds an Inverter; it takes no parameters.
func BuildInverter(name string, _ NodeParameters, child TreeNode) (TreeNode, error) {
	if err := checkChild(child); err != nil {
		return nil, buildError(name, err)
	}
	return NewInverter(name, child), nil
}

// BuildForceSuccess builds a ForceSuccess; it takes no parameters.
func BuildForceSuccess(name string, _ NodeParameters, child TreeNode) (TreeNode, error) {
	if err := checkChild(child); err != nil {
		return nil, buildError(name, err)
	}
	return NewForceSuccess(name, child), nil
}

// BuildForceFailure builds a ForceFailure; it takes no parameters.
func BuildForceFailure(name string, _ NodeParameters, child TreeNode) (TreeNode, error) {
	if err := checkChild(child); err != nil {
		return nil, buildError(name, err)
	}
	return NewForceFailure(name, child), nil
}

// BuildRetry requires num_attempts (positive) and reads reset_policy
// (default ON_SUCCESS_OR_FAILURE).
func BuildRetry(name string, params NodeParameters, child TreeNode) (TreeNode, error) {
	attempts, policy, err := counterParams(params, ParamAttempts)
	if err == nil {
		err = checkChild(child)
	}
	if err != nil {
		return nil, buildError(name, err)
	}
	return NewRetry(name, attempts, policy, child), nil
}

// BuildRepeat requires num_cycles (positive) and reads reset_policy
// (default ON_SUCCESS_OR_FAILURE).
func BuildRepeat(name string, params NodeParameters, child TreeNode) (TreeNode, error) {
	cycles, policy, err := counterParams(params, ParamCycles)
	if err == nil {
		err = checkChild(child)
	}
	if err != nil {
		return nil, buildError(name, err)
	}
	return NewRepeat(name, cycles, policy, child), nil
}

func counterParams(params NodeParameters, key string) (int, ResetPolicy, error) {
	if _, err := params.Required(key); err != nil {
		return 0, 0, err
	}
	n, err := params.Int(key, 0)
	if err != nil {
		return 0, 0, err
	}
	if n < 1 {
		return 0, 0, &ParameterError{Key: key, Err: fmt.Errorf("%w: must be positive, got %d", ErrInvalidValue, n)}
	}
	policy := OnSuccessOrFailure
	if v, ok := params.Get(ParamResetPolicy); ok {
		if policy, err = ParseResetPolicy(v); err != nil {
			return 0, 0, &ParameterError{Key: ParamResetPolicy, Err: err}
		}
	}
	return n, policy, nil
}

var (
	_ ControlBuilder   = BuildSequence
	_ ControlBuilder   = BuildFallback
	_ ControlBuilder   = BuildParallel
	_ DecoratorBuilder = BuildInverter
	_ DecoratorBuilder = BuildForceSuccess
	_ DecoratorBuilder = BuildForceFailure
	_ DecoratorBuilder = BuildRetry
	_ DecoratorBuilder = BuildRepeat
)
