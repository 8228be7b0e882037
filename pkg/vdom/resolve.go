package vdom

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMalformed reports a node that violates the builder contract.
	ErrMalformed = errors.New("vdom: malformed node")
	// ErrTooDeep reports a tree deeper than the allowed maximum.
	ErrTooDeep = errors.New("vdom: tree exceeds maximum depth")
	// ErrNilRender reports a component that rendered nothing.
	ErrNilRender = errors.New("vdom: component rendered nil")
)

// maxComponentNesting bounds component-to-component expansion at one position.
const maxComponentNesting = 256

// Resolve returns a tree in which every Component node has been replaced by
// its rendered output. Unchanged subtrees are shared with the input; nodes
// on a path to a component are copied, so the input is never modified.
// A component's key is carried over to its output when the output has none.
func Resolve(node *VNode) (*VNode, error) {
	return resolve(node, "")
}

func resolve(node *VNode, path string) (*VNode, error) {
	if node == nil {
		return nil, nil
	}

	for n := 0; node.Kind == KindComponent; n++ {
		if n >= maxComponentNesting {
			return nil, fmt.Errorf("%w: component nesting exceeds %d at %s", ErrTooDeep, maxComponentNesting, pathOrRoot(path))
		}
		if node.Comp == nil {
			return nil, fmt.Errorf("%w: component without render function at %s", ErrMalformed, pathOrRoot(path))
		}
		out := node.Comp(node.Props, node.Children)
		if out == nil {
			return nil, fmt.Errorf("%w at %s", ErrNilRender, pathOrRoot(path))
		}
		if out.Key == "" && node.Key != "" {
			cp := *out
			cp.Key = node.Key
			out = &cp
		}
		node = out
	}

	var children []*VNode
	for i, c := range node.Children {
		rc, err := resolve(c, childPath(path, node, i))
		if err != nil {
			return nil, err
		}
		if rc != c && children == nil {
			children = make([]*VNode, len(node.Children))
			copy(children, node.Children)
		}
		if children != nil {
			children[i] = rc
		}
	}
	if children == nil {
		return node, nil
	}
	cp := *node
	cp.Children = children
	return &cp, nil
}

// Validate checks the contract every node must satisfy before it reaches the
// reconciler: elements have tags, components are resolved, text nodes have
// no children, Single arity means exactly one child, and the tree is no
// deeper than maxDepth (when maxDepth > 0).
func Validate(node *VNode, maxDepth int) error {
	return validate(node, 1, maxDepth, "")
}

func validate(node *VNode, depth, maxDepth int, path string) error {
	if node == nil {
		return fmt.Errorf("%w: nil node at %s", ErrMalformed, pathOrRoot(path))
	}
	if maxDepth > 0 && depth > maxDepth {
		return fmt.Errorf("%w: depth %d > %d at %s", ErrTooDeep, depth, maxDepth, pathOrRoot(path))
	}
	switch node.Kind {
	case KindElement:
		if node.Tag == "" {
			return fmt.Errorf("%w: element without tag at %s", ErrMalformed, pathOrRoot(path))
		}
	case KindText:
		if len(node.Children) > 0 {
			return fmt.Errorf("%w: text node with children at %s", ErrMalformed, pathOrRoot(path))
		}
		return nil
	case KindComponent:
		return fmt.Errorf("%w: unresolved component at %s", ErrMalformed, pathOrRoot(path))
	default:
		return fmt.Errorf("%w: unknown kind %d at %s", ErrMalformed, node.Kind, pathOrRoot(path))
	}
	switch node.Arity {
	case ArityNone:
		if len(node.Children) > 0 {
			return fmt.Errorf("%w: children declared None but %d present at %s", ErrMalformed, len(node.Children), pathOrRoot(path))
		}
	case AritySingle:
		if len(node.Children) != 1 {
			return fmt.Errorf("%w: children declared Single but %d present at %s", ErrMalformed, len(node.Children), pathOrRoot(path))
		}
	}
	for i, c := range node.Children {
		if err := validate(c, depth+1, maxDepth, childPath(path, node, i)); err != nil {
			return err
		}
	}
	return nil
}

// DuplicateKey returns the first key that appears twice among siblings.
func DuplicateKey(children []*VNode) (string, bool) {
	if len(children) < 2 {
		return "", false
	}
	seen := make(map[string]struct{}, len(children))
	for _, c := range children {
		if c == nil || c.Key == "" {
			continue
		}
		if _, ok := seen[c.Key]; ok {
			return c.Key, true
		}
		seen[c.Key] = struct{}{}
	}
	return "", false
}

func childPath(path string, parent *VNode, i int) string {
	var b strings.Builder
	b.WriteString(path)
	if path != "" {
		b.WriteByte('/')
	}
	if parent.Tag != "" {
		b.WriteString(parent.Tag)
	}
	fmt.Fprintf(&b, "[%d]", i)
	return b.String()
}

func pathOrRoot(path string) string {
	if path == "" {
		return "root"
	}
	return path
}
