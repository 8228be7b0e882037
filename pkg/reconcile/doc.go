// Package reconcile updates a host tree so it reflects a new declarative
// tree, reusing the host nodes of the previously rendered tree.
//
// # Render
//
// A Container remembers the last tree rendered into one host parent. The
// first Render mounts; later renders patch against the remembered tree:
//
//	doc := memdom.NewDocument("body")
//	engine := reconcile.NewEngine(doc)
//	root := reconcile.NewContainer(doc.Root())
//
//	_, err := engine.Render(ctx, vdom.Ul(items...), root)
//
// # Patching
//
// Two nodes at the same position are patched in place when kind and tag
// match: the host handle moves to the new node, attributes are diffed per
// name, and children are reconciled. Otherwise the old host node is
// replaced.
//
// # Children
//
// Sequences of children are matched with a four-pointer scan over the old
// and new lists (start/start, start/end, end/start, end/end) comparing keys,
// falling back to a linear key search. Unkeyed siblings pair by position.
// Matched nodes are patched and moved; unmatched new nodes are mounted;
// leftover old nodes are removed.
//
// # Errors
//
// Contract violations (malformed nodes, depth overflow, duplicate keys with
// strict keys enabled, re-entrant renders) fail fast. Host Binding errors
// are returned as is, wrapped; the host tree may be partially updated and
// the container keeps its previous tree.
package reconcile
