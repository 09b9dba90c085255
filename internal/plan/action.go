package plan

import (
	"slices"
	"sync"

	bt "github.com/joeycumines/go-behaviortree"
	"github.com/joeycumines/go-btcore/internal/btcore"
	"github.com/joeycumines/go-btcore/internal/interop"
	pabtpkg "github.com/joeycumines/go-pabt"
)

// Action is a planner action whose work is done by a btcore node.
type Action struct {
	Name       string
	conditions []pabtpkg.IConditions
	effects    pabtpkg.Effects
	node       btcore.TreeNode
	btNode     bt.Node
}

var _ pabtpkg.IAction = (*Action)(nil)

// NewAction panics if node is nil.
func NewAction(name string, conditions []pabtpkg.IConditions, effects pabtpkg.Effects, node btcore.TreeNode) *Action {
	if node == nil {
		panic("plan: nil action node (action=" + name + ")")
	}
	return &Action{
		Name:       name,
		conditions: conditions,
		effects:    effects,
		node:       node,
		btNode:     interop.ToNode(node),
	}
}

func (a *Action) Conditions() []pabtpkg.IConditions { return a.conditions }

func (a *Action) Effects() pabtpkg.Effects { return a.effects }

// Node returns the action node as seen by the planner.
func (a *Action) Node() bt.Node { return a.btNode }

// TreeNode returns the btcore node doing the work.
func (a *Action) TreeNode() btcore.TreeNode { return a.node }

// ActionBuilder assembles an Action fluently.
type ActionBuilder struct {
	conditions []pabtpkg.IConditions
	effects    pabtpkg.Effects
	node       btcore.TreeNode
}

func NewActionBuilder() *ActionBuilder {
	return &ActionBuilder{}
}

// WithConditions adds one disjunct: the action is applicable if all conds
// of any added group hold.
func (b *ActionBuilder) WithConditions(conds ...pabtpkg.Condition) *ActionBuilder {
	b.conditions = append(b.conditions, conds)
	return b
}

func (b *ActionBuilder) WithEffect(key, value any) *ActionBuilder {
	b.effects = append(b.effects, NewEffect(key, value))
	return b
}

func (b *ActionBuilder) WithNode(node btcore.TreeNode) *ActionBuilder {
	b.node = node
	return b
}

func (b *ActionBuilder) Build(name string) *Action {
	return NewAction(name, b.conditions, b.effects, b.node)
}

// ActionRegistry holds actions by name. Iteration is in name order, so
// planning is deterministic.
type ActionRegistry struct {
	mu      sync.RWMutex
	actions map[string]*Action
}

func NewActionRegistry() *ActionRegistry {
	return &ActionRegistry{actions: make(map[string]*Action)}
}

// Register replaces any action of the same name.
func (r *ActionRegistry) Register(action *Action) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions[action.Name] = action
}

func (r *ActionRegistry) Get(name string) *Action {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.actions[name]
}

func (r *ActionRegistry) All() []*Action {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.actions))
	for name := range r.actions {
		names = append(names, name)
	}
	slices.Sort(names)
	out := make([]*Action, 0, len(names))
	for _, name := range names {
		out = append(out, r.actions[name])
	}
	return out
}
