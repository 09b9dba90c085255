package command

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strconv"

	"github.com/joeycumines/go-btcore/internal/btcore"
	"github.com/joeycumines/go-btcore/internal/leaf"
	"github.com/joeycumines/go-btcore/internal/plan"
	pabtpkg "github.com/joeycumines/go-pabt"
)

// nodeParams holds per-node parameter overrides, keyed by node name.
type nodeParams map[string]btcore.NodeParameters

// of returns defaults overlaid with the overrides for name.
func (p nodeParams) of(name string, defaults btcore.NodeParameters) btcore.NodeParameters {
	out := defaults.Clone()
	if out == nil {
		out = make(btcore.NodeParameters)
	}
	maps.Copy(out, p[name])
	return out
}

// overlay merges sources in order, later sources winning key by key.
func overlay(sources ...map[string]btcore.NodeParameters) nodeParams {
	out := make(nodeParams)
	for _, src := range sources {
		for node, params := range src {
			if out[node] == nil {
				out[node] = make(btcore.NodeParameters, len(params))
			}
			maps.Copy(out[node], params)
		}
	}
	return out
}

// demoTree builds one of the trees the run command can tick.
type demoTree func(ctx context.Context, params nodeParams, cycles int) (btcore.TreeNode, *leaf.Blackboard, error)

var demoTrees = map[string]demoTree{
	"counter": buildCounterTree,
	"door":    buildDoorTree,
}

func demoTreeNames() []string {
	return slices.Sorted(maps.Keys(demoTrees))
}

// buildCounterTree builds:
//
//	Sequence demo
//	  SetBlackboard init      (count = 0)
//	  Repeat loop             (num_cycles = cycles)
//	    Sequence step
//	      Wait work           (duration = 20ms)
//	      increment
//	  Condition check         (count == num_cycles)
func buildCounterTree(ctx context.Context, params nodeParams, cycles int) (btcore.TreeNode, *leaf.Blackboard, error) {
	bb := new(leaf.Blackboard)
	builders := leaf.Builders(ctx, bb)

	initNode, err := builders[leaf.KindSetBlackboard].Build("init", params.of("init", btcore.NodeParameters{
		leaf.ParamKey:   "count",
		leaf.ParamValue: "0",
	}))
	if err != nil {
		return nil, nil, err
	}

	work, err := builders[leaf.KindWait].Build("work", params.of("work", btcore.NodeParameters{
		leaf.ParamDuration: "20ms",
	}))
	if err != nil {
		return nil, nil, err
	}

	increment := leaf.NewFuncAction("increment", func() btcore.NodeStatus {
		n, _ := bb.Get("count").(int)
		bb.Set("count", n+1)
		return btcore.Success
	}, nil)

	step, err := btcore.BuildSequence("step", params.of("step", nil), work, increment)
	if err != nil {
		return nil, nil, err
	}

	loopParams := params.of("loop", btcore.NodeParameters{
		btcore.ParamCycles: strconv.Itoa(cycles),
	})
	loop, err := btcore.BuildRepeat("loop", loopParams, step)
	if err != nil {
		return nil, nil, err
	}

	check, err := builders[leaf.KindCondition].Build("check", params.of("check", btcore.NodeParameters{
		leaf.ParamExpression: "count == " + loopParams[btcore.ParamCycles],
	}))
	if err != nil {
		return nil, nil, err
	}

	root, err := btcore.BuildSequence("demo", params.of("demo", nil), initNode, loop, check)
	if err != nil {
		return nil, nil, err
	}
	return root, bb, nil
}

// buildDoorTree builds a tree that plans its way to an open door:
//
//	Sequence door
//	  Planner enter           (goal: door == "open")
//	  Condition opened        (door == "open")
//
// with two planner actions, each a Wait followed by a SetBlackboard:
// unlock (effect locked=false) and open (requires locked=false, effect
// door=open). cycles is unused.
func buildDoorTree(ctx context.Context, params nodeParams, _ int) (btcore.TreeNode, *leaf.Blackboard, error) {
	bb := new(leaf.Blackboard)
	bb.Set("locked", true)
	bb.Set("door", "shut")
	builders := leaf.Builders(ctx, bb)

	step := func(name, key, value string) (btcore.TreeNode, error) {
		wait, err := builders[leaf.KindWait].Build(name+"-wait", params.of(name+"-wait", btcore.NodeParameters{
			leaf.ParamDuration: "20ms",
		}))
		if err != nil {
			return nil, err
		}
		set, err := builders[leaf.KindSetBlackboard].Build(name+"-set", params.of(name+"-set", btcore.NodeParameters{
			leaf.ParamKey:   key,
			leaf.ParamValue: value,
		}))
		if err != nil {
			return nil, err
		}
		return btcore.BuildSequence(name, params.of(name, nil), wait, set)
	}

	unlock, err := step("unlock", "locked", "false")
	if err != nil {
		return nil, nil, err
	}
	open, err := step("open", "door", "open")
	if err != nil {
		return nil, nil, err
	}

	state := plan.NewState(bb)
	state.RegisterAction(plan.NewActionBuilder().
		WithEffect("locked", false).
		WithNode(unlock).
		Build("unlock"))
	state.RegisterAction(plan.NewActionBuilder().
		WithConditions(plan.EqualityCond("locked", false)).
		WithEffect("door", "open").
		WithNode(open).
		Build("open"))

	planner, err := plan.NewPlanner("enter", state, pabtpkg.IConditions{plan.EqualityCond("door", "open")})
	if err != nil {
		return nil, nil, err
	}

	opened, err := builders[leaf.KindCondition].Build("opened", params.of("opened", btcore.NodeParameters{
		leaf.ParamExpression: `door == "open"`,
	}))
	if err != nil {
		return nil, nil, err
	}

	root, err := btcore.BuildSequence("door", params.of("door", nil), planner, opened)
	if err != nil {
		return nil, nil, fmt.Errorf("door tree: %w", err)
	}
	return root, bb, nil
}
