package btcore

import (
	"fmt"
	"strings"
)

// NodeType classifies a node for introspection and visualization. It never
// affects how a node is ticked.
type NodeType int

const (
	UndefinedNode NodeType = iota
	ActionNode
	ConditionNode
	ControlNode
	DecoratorNode
	SubTreeNode
)

func (t NodeType) String() string {
	switch t {
	case ActionNode:
		return "Action"
	case ConditionNode:
		return "Condition"
	case ControlNode:
		return "Control"
	case DecoratorNode:
		return "Decorator"
	case SubTreeNode:
		return "SubTree"
	default:
		return "Undefined"
	}
}

// NodeStatus is the outcome of the most recent tick of a node.
type NodeStatus int

const (
	// Idle means the node was never ticked, or was halted since.
	Idle NodeStatus = iota
	// Running means the node must be ticked again to make progress.
	Running
	// Success is a terminal outcome for the current cycle.
	Success
	// Failure is a terminal outcome for the current cycle. It is a domain
	// result, not an error.
	Failure
	// Exit is reserved for callers that mark a tree as torn down. The core
	// never sets it, and a Tick returning it is a contract violation.
	Exit
)

func (s NodeStatus) String() string {
	switch s {
	case Idle:
		return "IDLE"
	case Running:
		return "RUNNING"
	case Success:
		return "SUCCESS"
	case Failure:
		return "FAILURE"
	case Exit:
		return "EXIT"
	default:
		return fmt.Sprintf("NodeStatus(%d)", int(s))
	}
}

// IsTerminal reports whether s is Success or Failure.
func (s NodeStatus) IsTerminal() bool {
	return s == Success || s == Failure
}

// FailurePolicy decides when a Parallel node fails.
type FailurePolicy int

const (
	// FailOnOne fails as soon as any child fails.
	FailOnOne FailurePolicy = iota
	// FailOnAll fails only once every child has failed.
	FailOnAll
)

func (p FailurePolicy) String() string {
	switch p {
	case FailOnOne:
		return "FAIL_ON_ONE"
	case FailOnAll:
		return "FAIL_ON_ALL"
	default:
		return fmt.Sprintf("FailurePolicy(%d)", int(p))
	}
}

// SuccessPolicy decides when a Parallel node succeeds. If a failure and a
// success condition trigger in the same pass, failure wins.
type SuccessPolicy int

const (
	// SucceedOnOne succeeds as soon as any child succeeds.
	SucceedOnOne SuccessPolicy = iota
	// SucceedOnAll succeeds only once every child has succeeded.
	SucceedOnAll
)

func (p SuccessPolicy) String() string {
	switch p {
	case SucceedOnOne:
		return "SUCCEED_ON_ONE"
	case SucceedOnAll:
		return "SUCCEED_ON_ALL"
	default:
		return fmt.Sprintf("SuccessPolicy(%d)", int(p))
	}
}

// ResetPolicy decides which concluding child result clears a decorator's
// internal counter.
type ResetPolicy int

const (
	OnSuccessOrFailure ResetPolicy = iota
	OnSuccess
	OnFailure
)

func (p ResetPolicy) String() string {
	switch p {
	case OnSuccessOrFailure:
		return "ON_SUCCESS_OR_FAILURE"
	case OnSuccess:
		return "ON_SUCCESS"
	case OnFailure:
		return "ON_FAILURE"
	default:
		return fmt.Sprintf("ResetPolicy(%d)", int(p))
	}
}

// Matches reports whether a concluding child status clears the counter.
func (p ResetPolicy) Matches(child NodeStatus) bool {
	switch p {
	case OnSuccessOrFailure:
		return child.IsTerminal()
	case OnSuccess:
		return child == Success
	case OnFailure:
		return child == Failure
	default:
		return false
	}
}

// normalizeEnum folds "FAIL_ON_ONE", "fail_on_one", "FailOnOne" and
// "fail-on-one" to "failonone".
func normalizeEnum(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer("_", "", "-", "", " ", "").Replace(s)
}

// ParseFailurePolicy parses the textual forms used in tree descriptions.
func ParseFailurePolicy(s string) (FailurePolicy, error) {
	switch normalizeEnum(s) {
	case "failonone":
		return FailOnOne, nil
	case "failonall":
		return FailOnAll, nil
	}
	return 0, fmt.Errorf("%w: failure policy %q", ErrInvalidValue, s)
}

// ParseSuccessPolicy parses the textual forms used in tree descriptions.
func ParseSuccessPolicy(s string) (SuccessPolicy, error) {
	switch normalizeEnum(s) {
	case "succeedonone":
		return SucceedOnOne, nil
	case "succeedonall":
		return SucceedOnAll, nil
	}
	return 0, fmt.Errorf("%w: success policy %q", ErrInvalidValue, s)
}

// ParseResetPolicy parses the textual forms used in tree descriptions.
func ParseResetPolicy(s string) (ResetPolicy, error) {
	switch normalizeEnum(s) {
	case "onsuccessorfailure":
		return OnSuccessOrFailure, nil
	case "onsuccess":
		return OnSuccess, nil
	case "onfailure":
		return OnFailure, nil
	}
	return 0, fmt.Errorf("%w: reset policy %q", ErrInvalidValue, s)
}
