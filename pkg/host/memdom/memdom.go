// Package memdom is an in-memory host tree implementing host.Binding.
//
// It is the reference host used by tests, the CLI and the live server's
// mirror. A Document owns a root element; every other node is created
// through the Binding methods and attached below the root.
package memdom

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/vango-dev/reconcile/pkg/host"
	"github.com/vango-dev/reconcile/pkg/render"
)

var (
	ErrInvalidHandle = errors.New("memdom: invalid handle")
	ErrNotChild      = errors.New("memdom: node is not a child of parent")
	ErrNotElement    = errors.New("memdom: node is not an element")
	ErrCycle         = errors.New("memdom: node cannot contain itself")
)

// NodeType distinguishes elements from text nodes.
type NodeType uint8

const (
	ElementNode NodeType = iota
	TextNode
)

// Node is one host node.
type Node struct {
	id        int
	typ       NodeType
	tag       string
	text      string
	attrs     map[string]string
	style     map[string]string
	listeners map[string][]*host.Listener
	parent    *Node
	children  []*Node
}

// ID returns the creation sequence number of the node (root is 0).
func (n *Node) ID() int { return n.id }

// Type returns the node type.
func (n *Node) Type() NodeType { return n.typ }

// Tag returns the element tag, or "" for text nodes.
func (n *Node) Tag() string { return n.tag }

// Text returns the literal content of a text node.
func (n *Node) Text() string { return n.text }

// Parent returns the attached parent, or nil.
func (n *Node) Parent() *Node { return n.parent }

// Children returns a copy of the child list.
func (n *Node) Children() []*Node { return slices.Clone(n.children) }

// Attr returns the value of a generic attribute.
func (n *Node) Attr(name string) (string, bool) {
	v, ok := n.attrs[name]
	return v, ok
}

// Attrs returns a copy of all attributes.
func (n *Node) Attrs() map[string]string {
	out := make(map[string]string, len(n.attrs))
	for k, v := range n.attrs {
		out[k] = v
	}
	return out
}

// Style returns the value of a style property.
func (n *Node) Style(name string) (string, bool) {
	v, ok := n.style[name]
	return v, ok
}

// StyleNames returns the set style property names, sorted.
func (n *Node) StyleNames() []string {
	names := make([]string, 0, len(n.style))
	for name := range n.style {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// StyleString serializes the style properties in name order.
func (n *Node) StyleString() string {
	return render.StyleString(n.style)
}

// Listeners returns the listeners registered for event, in registration order.
func (n *Node) Listeners(event string) []*host.Listener {
	return slices.Clone(n.listeners[event])
}

// Events returns the names of events with at least one listener, sorted.
func (n *Node) Events() []string {
	names := make([]string, 0, len(n.listeners))
	for name := range n.listeners {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dispatch calls every listener registered for event on this node.
// It returns the number of listeners invoked.
func (n *Node) Dispatch(event string, data map[string]string) int {
	ls := n.Listeners(event)
	for _, l := range ls {
		l.Call(host.Event{Type: event, Target: n, Data: data})
	}
	return len(ls)
}

// TextContent concatenates the text of every descendant text node.
func (n *Node) TextContent() string {
	if n.typ == TextNode {
		return n.text
	}
	var b strings.Builder
	for _, c := range n.children {
		b.WriteString(c.TextContent())
	}
	return b.String()
}

// String identifies the node in op listings: <li#3> or "text"#4.
func (n *Node) String() string {
	if n == nil {
		return "<nil>"
	}
	if n.typ == TextNode {
		return fmt.Sprintf("%q#%d", n.text, n.id)
	}
	return fmt.Sprintf("<%s#%d>", n.tag, n.id)
}

func (n *Node) indexOf(child *Node) int {
	for i, c := range n.children {
		if c == child {
			return i
		}
	}
	return -1
}

func (n *Node) detach() {
	if n.parent == nil {
		return
	}
	p := n.parent
	if i := p.indexOf(n); i >= 0 {
		p.children = slices.Delete(p.children, i, i+1)
	}
	n.parent = nil
}

func (n *Node) contains(other *Node) bool {
	for p := other; p != nil; p = p.parent {
		if p == n {
			return true
		}
	}
	return false
}

// Document is a host tree rooted at a single element.
type Document struct {
	root   *Node
	nextID int
}

var _ host.Binding = (*Document)(nil)

// NewDocument creates a document whose root element has the given tag.
func NewDocument(rootTag string) *Document {
	if rootTag == "" {
		rootTag = "body"
	}
	d := &Document{}
	d.root = d.newNode(ElementNode)
	d.root.tag = rootTag
	return d
}

// Root returns the root element. It is the parent handle for a container.
func (d *Document) Root() *Node { return d.root }

// NodeCount returns how many nodes the document has created, root included.
func (d *Document) NodeCount() int { return d.nextID }

func (d *Document) newNode(typ NodeType) *Node {
	n := &Node{id: d.nextID, typ: typ}
	d.nextID++
	return n
}

func node(h host.Handle) (*Node, error) {
	n, ok := h.(*Node)
	if !ok || n == nil {
		return nil, fmt.Errorf("%w: %T", ErrInvalidHandle, h)
	}
	return n, nil
}

func element(h host.Handle) (*Node, error) {
	n, err := node(h)
	if err != nil {
		return nil, err
	}
	if n.typ != ElementNode {
		return nil, fmt.Errorf("%w: %v", ErrNotElement, n)
	}
	return n, nil
}

func (d *Document) CreateElement(tag string) (host.Handle, error) {
	if tag == "" {
		return nil, errors.New("memdom: empty tag")
	}
	n := d.newNode(ElementNode)
	n.tag = tag
	return n, nil
}

func (d *Document) CreateText(text string) (host.Handle, error) {
	n := d.newNode(TextNode)
	n.text = text
	return n, nil
}

func (d *Document) SetText(h host.Handle, text string) error {
	n, err := node(h)
	if err != nil {
		return err
	}
	if n.typ != TextNode {
		return fmt.Errorf("memdom: SetText on element %v", n)
	}
	n.text = text
	return nil
}

func (d *Document) SetAttribute(h host.Handle, name, value string) error {
	n, err := element(h)
	if err != nil {
		return err
	}
	if n.attrs == nil {
		n.attrs = make(map[string]string)
	}
	n.attrs[name] = value
	return nil
}

func (d *Document) RemoveAttribute(h host.Handle, name string) error {
	n, err := element(h)
	if err != nil {
		return err
	}
	delete(n.attrs, name)
	return nil
}

func (d *Document) SetStyleProperty(h host.Handle, name, value string) error {
	n, err := element(h)
	if err != nil {
		return err
	}
	if n.style == nil {
		n.style = make(map[string]string)
	}
	n.style[name] = value
	return nil
}

func (d *Document) ClearStyleProperty(h host.Handle, name string) error {
	n, err := element(h)
	if err != nil {
		return err
	}
	delete(n.style, name)
	return nil
}

func (d *Document) AddEventHandler(h host.Handle, event string, l *host.Listener) error {
	n, err := element(h)
	if err != nil {
		return err
	}
	if n.listeners == nil {
		n.listeners = make(map[string][]*host.Listener)
	}
	if slices.Contains(n.listeners[event], l) {
		return nil
	}
	n.listeners[event] = append(n.listeners[event], l)
	return nil
}

func (d *Document) RemoveEventHandler(h host.Handle, event string, l *host.Listener) error {
	n, err := element(h)
	if err != nil {
		return err
	}
	ls := n.listeners[event]
	if i := slices.Index(ls, l); i >= 0 {
		ls = slices.Delete(ls, i, i+1)
	}
	if len(ls) == 0 {
		delete(n.listeners, event)
	} else {
		n.listeners[event] = ls
	}
	return nil
}

func (d *Document) AppendChild(parent, child host.Handle) error {
	return d.InsertBefore(parent, child, nil)
}

func (d *Document) InsertBefore(parent, child, ref host.Handle) error {
	p, err := element(parent)
	if err != nil {
		return err
	}
	c, err := node(child)
	if err != nil {
		return err
	}
	if c.contains(p) {
		return fmt.Errorf("%w: %v into %v", ErrCycle, c, p)
	}
	var r *Node
	if ref != nil {
		if r, err = node(ref); err != nil {
			return err
		}
		if r.parent != p {
			return fmt.Errorf("%w: reference %v of %v", ErrNotChild, r, p)
		}
		if r == c {
			return nil
		}
	}
	c.detach()
	c.parent = p
	if r == nil {
		p.children = append(p.children, c)
		return nil
	}
	p.children = slices.Insert(p.children, p.indexOf(r), c)
	return nil
}

func (d *Document) RemoveChild(parent, child host.Handle) error {
	p, err := element(parent)
	if err != nil {
		return err
	}
	c, err := node(child)
	if err != nil {
		return err
	}
	if c.parent != p {
		return fmt.Errorf("%w: %v of %v", ErrNotChild, c, p)
	}
	c.detach()
	return nil
}
