package btcore

// Sequence ticks its children in order and succeeds once all of them have
// succeeded. It resumes from the child it left Running, so children that
// already succeeded in the current pass are not ticked again.
type Sequence struct {
	*Node
	Composite
	current int
}

// NewSequence returns a Sequence ticking children in order.
func NewSequence(name string, children ...TreeNode) *Sequence {
	s := &Sequence{Composite: newComposite(children)}
	s.Node = NewNode(name, ControlNode, s)
	return s
}

func (s *Sequence) Tick() NodeStatus {
	s.requireChildren(s)
	for s.current < len(s.children) {
		switch s.children[s.current].ExecuteTick() {
		case Success:
			s.current++
		case Failure:
			s.HaltChildren(s.current + 1)
			s.current = 0
			return Failure
		default:
			return Running
		}
	}
	s.current = 0
	return Success
}

func (s *Sequence) OnHalt() {
	s.HaltChildren(0)
	s.current = 0
}
