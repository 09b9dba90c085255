// Package plan provides a planning leaf for btcore trees, built on the
// Planning and Acting with Behavior Trees (PA-BT) algorithm from go-pabt.
//
// A State exposes a leaf.Blackboard as the planner's variables, and holds
// the registered actions. Each Action pairs preconditions and effects with
// a btcore node that does the work. A Planner is a leaf that, on every
// tick, checks its goals, expands the plan towards failed conditions using
// actions whose effects satisfy them, and ticks the selected actions.
//
//	bb := new(leaf.Blackboard)
//	state := plan.NewState(bb)
//	state.RegisterAction(plan.NewActionBuilder().
//		WithEffect("door", "open").
//		WithNode(openDoor).
//		Build("open-door"))
//	p, err := plan.NewPlanner("reach", state, pabtpkg.IConditions{plan.EqualityCond("door", "open")})
package plan
