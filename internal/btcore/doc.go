/*
Package btcore is the execution core of a behavior tree engine: the node
status machine, the tick and halt protocol, status change notification, and
the control and decorator nodes that compose leaves supplied by an
application.

# Ticking

A tree is driven by a single goroutine calling ExecuteTick on the root once
per scheduling cycle. Each node's Tick returns Running, Success or Failure;
Running means "tick me again next cycle". Success and Failure are domain
outcomes handled by composition (a Fallback tries the next child, a Sequence
stops), they are never errors.

	tree := btcore.NewSequence("root",
		checkBattery,
		btcore.NewFallback("reach",
			btcore.NewRetry("approach", 3, btcore.OnSuccessOrFailure, approach),
			callForHelp,
		),
	)
	for tree.ExecuteTick() == btcore.Running {
		time.Sleep(100 * time.Millisecond)
	}

# Writing nodes

A concrete node embeds *Node and passes itself to NewNode as the Behavior:

	type Blink struct {
		*btcore.Node
		on bool
	}

	func NewBlink(name string) *Blink {
		b := &Blink{}
		b.Node = btcore.NewNode(name, btcore.ActionNode, b)
		return b
	}

	func (b *Blink) Tick() btcore.NodeStatus { b.on = !b.on; return btcore.Success }
	func (b *Blink) OnHalt()                 {}

# Concurrency

Other goroutines may call Status, WaitValidStatus and
SubscribeToStatusChange at any time. Halt may be called from any goroutine:
it waits for an in-flight tick to finish, and a Running result of that tick
is recorded as Idle. Halt on a composite returns only after every Running
descendant has been halted.

Status change callbacks run synchronously on the goroutine that changed the
status, after the status guard has been released, so they may tick or halt
other nodes.

# Errors

Builders report construction problems as errors (ParameterError wrapped in
BuildError). Programming errors, such as ticking a control node that has no
children or a Tick returning Idle, panic with a *ContractError.
*/
package btcore
