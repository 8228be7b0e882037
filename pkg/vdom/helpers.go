package vdom

import (
	"fmt"
	"sort"
)

// Text creates a text node.
func Text(content string) *VNode {
	return CreateText(content)
}

// Textf creates a formatted text node.
func Textf(format string, args ...any) *VNode {
	return Text(fmt.Sprintf(format, args...))
}

// If returns node when condition holds and nil otherwise. Builders drop nil
// children, so a false condition leaves no slot behind.
func If(condition bool, node *VNode) *VNode {
	if condition {
		return node
	}
	return nil
}

// When is If with a lazily built node.
func When(condition bool, fn func() *VNode) *VNode {
	if condition {
		return fn()
	}
	return nil
}

// Key creates the key attribute. Any value is accepted and stringified, so
// Key(7) and Key("7") identify the same node.
func Key(key any) Attr {
	return attr(KeyAttr, fmt.Sprintf("%v", key))
}

// Range maps items to nodes, dropping nil results. Passing the result to a
// builder declares a sequence of children.
func Range[T any](items []T, fn func(item T, index int) *VNode) []*VNode {
	result := make([]*VNode, 0, len(items))
	for i, item := range items {
		if node := fn(item, i); node != nil {
			result = append(result, node)
		}
	}
	return result
}

// Keyed maps items to nodes and sets each node's key from keyOf, unless fn
// already gave the node one.
//
// Example:
//
//	vdom.Ul(vdom.Keyed(users, func(u User) any { return u.ID }, func(u User) *vdom.VNode {
//	    return vdom.Li(u.Name)
//	}))
func Keyed[T any](items []T, keyOf func(T) any, fn func(T) *VNode) []*VNode {
	result := make([]*VNode, 0, len(items))
	for _, item := range items {
		node := fn(item)
		if node == nil {
			continue
		}
		if node.Key == "" {
			node.Key = fmt.Sprintf("%v", keyOf(item))
		}
		result = append(result, node)
	}
	return result
}

// KeyedMap maps a map to keyed nodes in sorted key order. Map keys become
// node keys, so the order is stable across renders.
func KeyedMap[V any](m map[string]V, fn func(key string, value V) *VNode) []*VNode {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return Keyed(keys, func(k string) any { return k }, func(k string) *VNode {
		return fn(k, m[k])
	})
}
