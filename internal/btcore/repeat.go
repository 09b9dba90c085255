package btcore

import "fmt"

// Repeat re-ticks its child after each Success until it has succeeded the
// configured number of cycles. A child Failure fails the decorator.
type Repeat struct {
	*Node
	Decorated
	ResetCounter
	cycles int
}

func NewRepeat(name string, cycles int, policy ResetPolicy, child TreeNode) *Repeat {
	if cycles < 1 {
		panic(fmt.Sprintf("btcore: repeat cycles must be positive, got %d", cycles))
	}
	d := &Repeat{Decorated: newDecorated(child), cycles: cycles}
	d.policy = policy
	d.Node = NewNode(name, DecoratorNode, d)
	return d
}

// Cycles returns the configured number of cycles.
func (d *Repeat) Cycles() int { return d.cycles }

func (d *Repeat) Tick() NodeStatus {
	for {
		switch d.child.ExecuteTick() {
		case Success:
			if d.increment() >= d.cycles {
				d.conclude(Success)
				return Success
			}
		case Failure:
			d.conclude(Failure)
			return Failure
		default:
			return Running
		}
	}
}

func (d *Repeat) OnHalt() {
	d.HaltChild()
	d.reset()
}
