package btcore

import "sync/atomic"

// Decorated holds the single child of a decorator node.
type Decorated struct {
	child TreeNode
}

func newDecorated(child TreeNode) Decorated {
	if child == nil {
		panic("btcore: nil child")
	}
	return Decorated{child: child}
}

func (d *Decorated) Child() TreeNode {
	return d.child
}

// HaltChild halts the child if it is Running.
func (d *Decorated) HaltChild() {
	if d.child.Status() == Running {
		d.child.Halt()
	}
}

// ResetCounter is the cycle counter of repeating decorators. When the
// decorator concludes, the counter is cleared only if the concluding child
// result matches the policy. Halt always clears it.
type ResetCounter struct {
	policy ResetPolicy
	count  atomic.Int64
}

func (c *ResetCounter) ResetPolicy() ResetPolicy { return c.policy }

// Count returns the current counter value.
func (c *ResetCounter) Count() int {
	return int(c.count.Load())
}

func (c *ResetCounter) increment() int {
	return int(c.count.Add(1))
}

func (c *ResetCounter) conclude(child NodeStatus) {
	if c.policy.Matches(child) {
		c.count.Store(0)
	}
}

func (c *ResetCounter) reset() {
	c.count.Store(0)
}

// Inverter swaps Success and Failure.
type Inverter struct {
	*Node
	Decorated
}

// NewInverter returns an Inverter that swaps its child's Success and Failure.
func NewInverter(name string, child TreeNode) *Inverter {
	d := &Inverter{Decorated: newDecorated(child)}
	d.Node = NewNode(name, DecoratorNode, d)
	return d
}

func (d *Inverter) Tick() NodeStatus {
	switch d.child.ExecuteTick() {
	case Success:
		return Failure
	case Failure:
		return Success
	default:
		return Running
	}
}

func (d *Inverter) OnHalt() { d.HaltChild() }

// ForceSuccess reports Success whenever the child concludes.
type ForceSuccess struct {
	*Node
	Decorated
}

// NewForceSuccess returns a decorator that turns a child Failure into Success.
func NewForceSuccess(name string, child TreeNode) *ForceSuccess {
	d := &ForceSuccess{Decorated: newDecorated(child)}
	d.Node = NewNode(name, DecoratorNode, d)
	return d
}

func (d *ForceSuccess) Tick() NodeStatus {
	if d.child.ExecuteTick().IsTerminal() {
		return Success
	}
	return Running
}

func (d *ForceSuccess) OnHalt() { d.HaltChild() }

// ForceFailure reports Failure whenever the child concludes.
type ForceFailure struct {
	*Node
	Decorated
}

// NewForceFailure returns a decorator that turns a child Success into Failure.
func NewForceFailure(name string, child TreeNode) *ForceFailure {
	d := &ForceFailure{Decorated: newDecorated(child)}
	d.Node = NewNode(name, DecoratorNode, d)
	return d
}

func (d *ForceFailure) Tick() NodeStatus {
	if d.child.ExecuteTick().IsTerminal() {
		return Failure
	}
	return Running
}

func (d *ForceFailure) OnHalt() { d.HaltChild() }
