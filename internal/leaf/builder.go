package leaf

import (
	"context"
	"fmt"
	"time"

	"github.com/joeycumines/go-btcore/internal/btcore"
	"gopkg.in/yaml.v3"
)

// Leaf kinds understood by Builders.
const (
	KindCondition     = "Condition"
	KindSetBlackboard = "SetBlackboard"
	KindWait          = "Wait"
	KindAlwaysSuccess = "AlwaysSuccess"
	KindAlwaysFailure = "AlwaysFailure"
)

// Parameter keys read by the builders.
const (
	ParamExpression = "expression"
	ParamKey        = "key"
	ParamValue      = "value"
	ParamDuration   = "duration"
)

// Builders returns a builder per leaf kind, bound to bb. Wait actions
// derive their contexts from ctx.
func Builders(ctx context.Context, bb *Blackboard) map[string]btcore.NodeBuilder {
	if bb == nil {
		panic("leaf: nil blackboard")
	}
	return map[string]btcore.NodeBuilder{
		KindCondition: func(name string, params btcore.NodeParameters) (btcore.TreeNode, error) {
			expression, err := params.Required(ParamExpression)
			if err != nil {
				return nil, err
			}
			if _, err := CompileExpr(expression); err != nil {
				return nil, &btcore.ParameterError{Key: ParamExpression, Err: fmt.Errorf("%w: %w", btcore.ErrInvalidValue, err)}
			}
			return NewExprCondition(name, expression, bb.Snapshot), nil
		},

		KindSetBlackboard: func(name string, params btcore.NodeParameters) (btcore.TreeNode, error) {
			key, err := params.Required(ParamKey)
			if err != nil {
				return nil, err
			}
			raw, _ := params.Get(ParamValue)
			value, err := ParseValue(raw)
			if err != nil {
				return nil, &btcore.ParameterError{Key: ParamValue, Err: fmt.Errorf("%w: %w", btcore.ErrInvalidValue, err)}
			}
			return NewFuncAction(name, func() btcore.NodeStatus {
				bb.Set(key, value)
				return btcore.Success
			}, nil), nil
		},

		KindWait: func(name string, params btcore.NodeParameters) (btcore.TreeNode, error) {
			if _, err := params.Required(ParamDuration); err != nil {
				return nil, err
			}
			d, err := params.Duration(ParamDuration, 0)
			if err != nil {
				return nil, err
			}
			return NewAsyncAction(ctx, name, func(ctx context.Context) error {
				return Sleep(ctx, d)
			}), nil
		},

		KindAlwaysSuccess: func(name string, _ btcore.NodeParameters) (btcore.TreeNode, error) {
			return NewFuncAction(name, func() btcore.NodeStatus { return btcore.Success }, nil), nil
		},

		KindAlwaysFailure: func(name string, _ btcore.NodeParameters) (btcore.TreeNode, error) {
			return NewFuncAction(name, func() btcore.NodeStatus { return btcore.Failure }, nil), nil
		},
	}
}

// ParseValue decodes a parameter string as a YAML scalar, so "3" becomes an
// int, "true" a bool, and "ready" stays a string. An empty string is nil.
func ParseValue(raw string) (any, error) {
	var v any
	if err := yaml.Unmarshal([]byte(raw), &v); err != nil {
		return nil, err
	}
	return v, nil
}

// Sleep waits for d or until ctx is done, returning ctx.Err() in the latter
// case.
func Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
