package btcore

import (
	"log/slog"
	"slices"
)

// Composite holds the child list of a control node. The list is fixed at
// construction and owned exclusively by the control node.
type Composite struct {
	children []TreeNode
}

func newComposite(children []TreeNode) Composite {
	for _, c := range children {
		if c == nil {
			panic("btcore: nil child")
		}
	}
	return Composite{children: slices.Clone(children)}
}

// Children returns a copy of the child list.
func (c *Composite) Children() []TreeNode {
	return slices.Clone(c.children)
}

func (c *Composite) ChildrenCount() int {
	return len(c.children)
}

func (c *Composite) ChildAt(i int) TreeNode {
	return c.children[i]
}

// HaltChildren halts every Running child from index from onwards. Children
// that are Idle or already terminal are left untouched.
func (c *Composite) HaltChildren(from int) {
	for i := from; i < len(c.children); i++ {
		if child := c.children[i]; child.Status() == Running {
			slog.Debug("btcore: halting child", "child", child.Name(), "index", i)
			child.Halt()
		}
	}
}

func (c *Composite) requireChildren(self TreeNode) {
	if len(c.children) == 0 {
		contractViolation(self, "ticked with no children")
	}
}
