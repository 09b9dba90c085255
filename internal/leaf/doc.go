// Package leaf provides ready-made leaf nodes for btcore trees: synchronous
// and asynchronous actions, predicate conditions, and conditions written as
// expr-lang expressions evaluated against a shared Blackboard.
//
// Leaves are the only nodes that do domain work. Everything here follows
// the btcore halt contract: after Halt returns, no asynchronous work started
// by the leaf is still running, and the next tick starts fresh.
//
// Builders for each leaf kind are available through Builders, keyed by the
// names used in tree descriptions and configuration files.
package leaf
