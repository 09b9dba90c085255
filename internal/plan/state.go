package plan

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/joeycumines/go-btcore/internal/leaf"
	pabtpkg "github.com/joeycumines/go-pabt"
)

// ErrUnsupportedKey is returned by Variable for keys that cannot name a
// blackboard entry.
var ErrUnsupportedKey = errors.New("plan: unsupported variable key")

// ActionGenerator produces actions on demand for a failed condition. It is
// consulted before the registry; if it yields any action, the registry is
// not searched.
type ActionGenerator func(failed pabtpkg.Condition) ([]pabtpkg.IAction, error)

// State is the planner's view of the world: variables come from a
// blackboard, actions from a registry and an optional generator.
type State struct {
	*leaf.Blackboard
	actions *ActionRegistry

	mu        sync.RWMutex
	generator ActionGenerator
}

var _ pabtpkg.IState = (*State)(nil)

func NewState(bb *leaf.Blackboard) *State {
	if bb == nil {
		bb = new(leaf.Blackboard)
	}
	return &State{Blackboard: bb, actions: NewActionRegistry()}
}

func (s *State) RegisterAction(action *Action) {
	s.actions.Register(action)
}

func (s *State) Registry() *ActionRegistry { return s.actions }

func (s *State) SetActionGenerator(gen ActionGenerator) {
	s.mu.Lock()
	s.generator = gen
	s.mu.Unlock()
}

// Variable normalises key to a blackboard key. Strings are used as is,
// integers in decimal and fmt.Stringer values through String.
func (s *State) Variable(key any) (any, error) {
	var name string
	switch k := key.(type) {
	case nil:
		return nil, fmt.Errorf("%w: nil", ErrUnsupportedKey)
	case string:
		name = k
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		name = fmt.Sprintf("%d", k)
	case fmt.Stringer:
		name = k.String()
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedKey, key)
	}
	return s.Get(name), nil
}

// Actions returns the actions with an effect satisfying failed, or every
// registered action if failed is nil.
func (s *State) Actions(failed pabtpkg.Condition) ([]pabtpkg.IAction, error) {
	if failed == nil {
		registered := s.actions.All()
		out := make([]pabtpkg.IAction, len(registered))
		for i, a := range registered {
			out[i] = a
		}
		return out, nil
	}

	s.mu.RLock()
	gen := s.generator
	s.mu.RUnlock()

	var relevant []pabtpkg.IAction
	if gen != nil {
		generated, err := gen(failed)
		if err != nil {
			slog.Warn("plan: action generator failed", "key", failed.Key(), "error", err)
		}
		for _, a := range generated {
			if satisfies(a, failed) {
				relevant = append(relevant, a)
			}
		}
		if len(generated) > 0 {
			return relevant, nil
		}
	}

	for _, a := range s.actions.All() {
		if satisfies(a, failed) {
			relevant = append(relevant, a)
		}
	}
	slog.Debug("plan: actions for failed condition", "key", failed.Key(), "count", len(relevant))
	return relevant, nil
}

func satisfies(action pabtpkg.IAction, failed pabtpkg.Condition) bool {
	for _, effect := range action.Effects() {
		if effect != nil && effect.Key() == failed.Key() && failed.Match(effect.Value()) {
			return true
		}
	}
	return false
}
