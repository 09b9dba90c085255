package btcore

import "fmt"

// Retry re-ticks its child after each Failure, up to a number of attempts.
// It succeeds as soon as the child succeeds, and fails once the attempts are
// used up. The attempt counter follows the ResetPolicy, so with OnFailure an
// attempt budget is shared by consecutive successful cycles.
type Retry struct {
	*Node
	Decorated
	ResetCounter
	attempts int
}

func NewRetry(name string, attempts int, policy ResetPolicy, child TreeNode) *Retry {
	if attempts < 1 {
		panic(fmt.Sprintf("btcore: retry attempts must be positive, got %d", attempts))
	}
	d := &Retry{Decorated: newDecorated(child), attempts: attempts}
	d.policy = policy
	d.Node = NewNode(name, DecoratorNode, d)
	return d
}

// Attempts returns the configured number of attempts.
func (d *Retry) Attempts() int { return d.attempts }

func (d *Retry) Tick() NodeStatus {
	for {
		switch d.child.ExecuteTick() {
		case Success:
			d.conclude(Success)
			return Success
		case Failure:
			if d.increment() >= d.attempts {
				d.conclude(Failure)
				return Failure
			}
		default:
			return Running
		}
	}
}

func (d *Retry) OnHalt() {
	d.HaltChild()
	d.reset()
}
