package vdom

import (
	"sort"

	"github.com/vango-dev/reconcile/pkg/host"
)

// VKind is the node type discriminator.
type VKind uint8

const (
	KindElement   VKind = iota // <div>, <button>, etc.
	KindText                   // Plain text node
	KindComponent              // Composable function, resolved before reconciliation
)

// String returns the string representation of the VKind.
func (k VKind) String() string {
	switch k {
	case KindElement:
		return "Element"
	case KindText:
		return "Text"
	case KindComponent:
		return "Component"
	default:
		return "Unknown"
	}
}

// Arity classifies the declared shape of a node's children.
type Arity uint8

const (
	ArityNone   Arity = iota // no children, or an empty sequence
	AritySingle              // exactly one non-sequence child
	ArityMany                // a non-empty sequence, even of length one
)

// String returns the string representation of the Arity.
func (a Arity) String() string {
	switch a {
	case ArityNone:
		return "None"
	case AritySingle:
		return "Single"
	case ArityMany:
		return "Many"
	default:
		return "Unknown"
	}
}

// VNode is the declarative description of one tree position.
//
// Nodes are built fresh for every render pass. The reconciler only ever
// writes Handle: once on mount, and by transfer from the node that
// previously occupied the same position.
type VNode struct {
	Kind     VKind         // Node type
	Tag      string        // Element tag name (e.g., "div")
	Text     string        // Literal content for KindText
	Comp     ComponentFunc // Render function for KindComponent
	Props    Props         // Raw props passed to a component
	Attrs    []Attr        // Element attributes, sorted by name
	Arity    Arity         // Declared children shape
	Children []*VNode      // Child nodes in document order
	Key      string        // Reconciliation key, "" when absent
	Handle   host.Handle   // Host node, nil until mounted
}

// Props holds the raw attribute values given to a component.
type Props map[string]any

// ComponentFunc renders a component node into elements and text.
type ComponentFunc func(props Props, children []*VNode) *VNode

// Child returns the only child of a Single-arity node, or nil.
func (v *VNode) Child() *VNode {
	if v == nil || v.Arity != AritySingle || len(v.Children) == 0 {
		return nil
	}
	return v.Children[0]
}

// HasKey reports whether the node carries a reconciliation key.
func (v *VNode) HasKey() bool {
	return v != nil && v.Key != ""
}

// Attr returns the attribute with the given name, or nil.
func (v *VNode) Attr(name string) *Attr {
	if v == nil {
		return nil
	}
	i := sort.Search(len(v.Attrs), func(i int) bool { return v.Attrs[i].Name >= name })
	if i < len(v.Attrs) && v.Attrs[i].Name == name {
		return &v.Attrs[i]
	}
	return nil
}

// Depth returns the number of levels in the tree rooted at v.
func (v *VNode) Depth() int {
	if v == nil {
		return 0
	}
	max := 0
	for _, c := range v.Children {
		if d := c.Depth(); d > max {
			max = d
		}
	}
	return max + 1
}

// Walk calls fn for v and every descendant in document order.
// Returning false from fn skips the node's children.
func (v *VNode) Walk(fn func(*VNode) bool) {
	if v == nil || !fn(v) {
		return
	}
	for _, c := range v.Children {
		c.Walk(fn)
	}
}
