package btcore

// Parallel ticks every child that has not concluded in the current pass,
// then applies its policies to the recorded outcomes. Failure takes
// precedence when both policies trigger in the same pass.
//
// If every child has concluded and neither policy triggered (possible only
// with FailOnAll and SucceedOnAll), the verdict is Failure, since success
// can no longer be reached.
type Parallel struct {
	*Node
	Composite
	failurePolicy FailurePolicy
	successPolicy SuccessPolicy
	// outcomes of the current pass, Idle for children still to conclude
	outcomes []NodeStatus
}

// NewParallel returns a Parallel over children with the given policies.
// With FailOnAll and SucceedOnAll, a pass where every child concludes with a
// mix of Success and Failure returns Failure.
func NewParallel(name string, failure FailurePolicy, success SuccessPolicy, children ...TreeNode) *Parallel {
	p := &Parallel{
		Composite:     newComposite(children),
		failurePolicy: failure,
		successPolicy: success,
	}
	p.outcomes = make([]NodeStatus, len(p.children))
	p.Node = NewNode(name, ControlNode, p)
	return p
}

func (p *Parallel) FailurePolicy() FailurePolicy { return p.failurePolicy }

func (p *Parallel) SuccessPolicy() SuccessPolicy { return p.successPolicy }

func (p *Parallel) Tick() NodeStatus {
	p.requireChildren(p)

	var successes, failures int
	for i, child := range p.children {
		if !p.outcomes[i].IsTerminal() {
			if status := child.ExecuteTick(); status.IsTerminal() {
				p.outcomes[i] = status
			}
		}
		switch p.outcomes[i] {
		case Success:
			successes++
		case Failure:
			failures++
		}
	}

	verdict := p.verdict(successes, failures)
	if verdict != Running {
		p.HaltChildren(0)
		clear(p.outcomes)
	}
	return verdict
}

func (p *Parallel) verdict(successes, failures int) NodeStatus {
	n := len(p.children)
	switch {
	case p.failurePolicy == FailOnOne && failures > 0,
		p.failurePolicy == FailOnAll && failures == n:
		return Failure
	case p.successPolicy == SucceedOnOne && successes > 0,
		p.successPolicy == SucceedOnAll && successes == n:
		return Success
	case successes+failures == n:
		return Failure
	}
	return Running
}

func (p *Parallel) OnHalt() {
	p.HaltChildren(0)
	clear(p.outcomes)
}
