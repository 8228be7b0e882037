package vdom

import "fmt"

// CreateElement builds an element node.
//
// attrs maps attribute names to values (see Attribute). children declares
// the child shape: nil or an empty sequence gives ArityNone; a *VNode, a
// string, or any other scalar gives AritySingle; a []*VNode or []any with at
// least one entry gives ArityMany, even when only one entry survives.
func CreateElement(tag string, attrs map[string]any, children any) *VNode {
	node := &VNode{Kind: KindElement, Tag: tag}
	var set attrSet
	for name, value := range attrs {
		set.addRaw(name, value)
	}
	node.Attrs = set.finish()
	node.Key = set.key
	node.Arity, node.Children = classifyChildren(children)
	return node
}

// CreateText builds a text node.
func CreateText(content string) *VNode {
	return &VNode{Kind: KindText, Text: content}
}

// CreateComponent builds a component node. It must be resolved with Resolve
// before it reaches the reconciler.
func CreateComponent(fn ComponentFunc, props map[string]any, children any) *VNode {
	node := &VNode{Kind: KindComponent, Comp: fn, Props: Props(props)}
	if k, ok := props[KeyAttr]; ok && k != nil {
		node.Key = stringify(k)
	}
	node.Arity, node.Children = classifyChildren(children)
	return node
}

// classifyChildren derives the arity and child list from a declared shape.
func classifyChildren(children any) (Arity, []*VNode) {
	switch v := children.(type) {
	case nil:
		return ArityNone, nil
	case *VNode:
		if v == nil {
			return ArityNone, nil
		}
		return AritySingle, []*VNode{v}
	case []*VNode:
		if len(v) == 0 {
			return ArityNone, nil
		}
		out := make([]*VNode, 0, len(v))
		for _, c := range v {
			if c != nil {
				out = append(out, c)
			}
		}
		return ArityMany, out
	case []any:
		if len(v) == 0 {
			return ArityNone, nil
		}
		out := make([]*VNode, 0, len(v))
		for _, c := range v {
			if n := toNode(c); n != nil {
				out = append(out, n)
			}
		}
		return ArityMany, out
	default:
		if n := toNode(v); n != nil {
			return AritySingle, []*VNode{n}
		}
		return ArityNone, nil
	}
}

// toNode coerces a child value to a node: raw text becomes a Text node.
func toNode(v any) *VNode {
	switch c := v.(type) {
	case nil:
		return nil
	case *VNode:
		return c
	case string:
		return CreateText(c)
	case ComponentFunc:
		return CreateComponent(c, nil, nil)
	case fmt.Stringer:
		return CreateText(c.String())
	case int, int64, float64, bool:
		return CreateText(stringify(c))
	}
	return nil
}

// createElement creates an element from variadic builder arguments.
// Arguments can be: nil, Attr, []Attr, *VNode, []*VNode, string,
// ComponentFunc. A single child argument declares AritySingle; a slice
// argument or two or more child arguments declare ArityMany.
func createElement(tag string, args []any) *VNode {
	node := &VNode{Kind: KindElement, Tag: tag}
	var set attrSet
	var children []*VNode
	childArgs := 0
	sequence := false

	for _, arg := range args {
		switch v := arg.(type) {
		case nil:
			// Ignore nil (allows conditional attributes)
			continue

		case Attr:
			set.add(v)

		case []Attr:
			for _, a := range v {
				set.add(a)
			}

		case []*VNode:
			if len(v) > 0 {
				sequence = true
			}
			for _, c := range v {
				if c != nil {
					children = append(children, c)
				}
			}

		case *VNode:
			if v == nil {
				continue
			}
			childArgs++
			children = append(children, v)

		default:
			if n := toNode(v); n != nil {
				childArgs++
				children = append(children, n)
			}
		}
	}

	node.Attrs = set.finish()
	node.Key = set.key
	node.Children = children
	switch {
	case !sequence && childArgs == 0:
		node.Arity = ArityNone
	case sequence || childArgs > 1:
		node.Arity = ArityMany
	default:
		node.Arity = AritySingle
	}
	return node
}
