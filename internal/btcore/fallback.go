package btcore

// Fallback (a selector) ticks its children in order until one succeeds, and
// fails once all of them have failed. Like Sequence, it resumes from the
// child it left Running.
type Fallback struct {
	*Node
	Composite
	current int
}

// NewFallback returns a Fallback trying children in order until one succeeds.
func NewFallback(name string, children ...TreeNode) *Fallback {
	f := &Fallback{Composite: newComposite(children)}
	f.Node = NewNode(name, ControlNode, f)
	return f
}

func (f *Fallback) Tick() NodeStatus {
	f.requireChildren(f)
	for f.current < len(f.children) {
		switch f.children[f.current].ExecuteTick() {
		case Failure:
			f.current++
		case Success:
			f.HaltChildren(f.current + 1)
			f.current = 0
			return Success
		default:
			return Running
		}
	}
	f.current = 0
	return Failure
}

func (f *Fallback) OnHalt() {
	f.HaltChildren(0)
	f.current = 0
}
