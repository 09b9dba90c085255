package plan

import (
	"fmt"
	"log/slog"
	"sync"

	bt "github.com/joeycumines/go-behaviortree"
	"github.com/joeycumines/go-btcore/internal/btcore"
	"github.com/joeycumines/go-btcore/internal/interop"
	pabtpkg "github.com/joeycumines/go-pabt"
)

// Planner is an action leaf that pursues goals with PA-BT. It succeeds once
// any goal holds, and fails if the plan cannot be expanded further.
//
// Halting a Planner halts every registered action node that is Running.
type Planner struct {
	*btcore.Node
	state *State
	goals []pabtpkg.IConditions
	root  bt.Node

	mu      sync.Mutex
	lastErr error
}

// NewPlanner builds the initial plan. goals are alternatives: each is a
// conjunction of conditions.
func NewPlanner(name string, state *State, goals ...pabtpkg.IConditions) (*Planner, error) {
	if state == nil {
		return nil, &btcore.BuildError{Node: name, Err: fmt.Errorf("nil state")}
	}
	if len(goals) == 0 {
		return nil, &btcore.BuildError{Node: name, Err: fmt.Errorf("no goals: %w", btcore.ErrMissingParameter)}
	}
	p, err := pabtpkg.INew(state, goals)
	if err != nil {
		return nil, &btcore.BuildError{Node: name, Err: err}
	}
	pl := &Planner{state: state, goals: goals, root: p.Node()}
	pl.Node = btcore.NewNode(name, btcore.ActionNode, pl)
	return pl, nil
}

func (p *Planner) State() *State { return p.state }

func (p *Planner) Goals() []pabtpkg.IConditions { return p.goals }

func (p *Planner) LastError() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastErr
}

func (p *Planner) Tick() btcore.NodeStatus {
	status, err := p.root.Tick()
	var mapped btcore.NodeStatus
	if err == nil {
		mapped, err = interop.FromStatus(status)
	}
	p.mu.Lock()
	p.lastErr = err
	p.mu.Unlock()
	if err != nil {
		slog.Warn("plan: planner tick failed", "node", p.Name(), "error", err)
		return btcore.Failure
	}
	return mapped
}

func (p *Planner) OnHalt() {
	for _, a := range p.state.actions.All() {
		if n := a.TreeNode(); n.Status() == btcore.Running {
			n.Halt()
		}
	}
}
