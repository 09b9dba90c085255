package btcore

// ApplyRecursive calls fn on root and then, depth first, on every node
// reachable from it through control children, decorator children and
// subtree fragments.
func ApplyRecursive(root TreeNode, fn func(TreeNode)) {
	if root == nil {
		return
	}
	fn(root)
	switch n := root.(type) {
	case interface{ Children() []TreeNode }:
		for _, c := range n.Children() {
			ApplyRecursive(c, fn)
		}
	case interface{ Child() TreeNode }:
		ApplyRecursive(n.Child(), fn)
	case interface{ Tree() *Tree }:
		ApplyRecursive(n.Tree().Root(), fn)
	}
}

// SubscriptionGroup is a set of subscriptions released together.
type SubscriptionGroup []*StatusChangeSubscriber

// Unsubscribe revokes every subscription in the group.
func (g SubscriptionGroup) Unsubscribe() {
	for _, s := range g {
		s.Unsubscribe()
	}
}

// SubscribeTree subscribes fn to every node reachable from root. The
// returned group must be kept alive for as long as fn should be called.
func SubscribeTree(root TreeNode, fn StatusChangeCallback) SubscriptionGroup {
	var group SubscriptionGroup
	ApplyRecursive(root, func(n TreeNode) {
		group = append(group, n.SubscribeToStatusChange(fn))
	})
	return group
}
