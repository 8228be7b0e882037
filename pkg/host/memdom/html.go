package memdom

import (
	"io"
	"sort"
	"strings"

	"github.com/vango-dev/reconcile/pkg/render"
	"github.com/vango-dev/reconcile/pkg/vdom"
)

// HTML serializes the children of the root element.
func (d *Document) HTML() string {
	var b strings.Builder
	for _, c := range d.root.children {
		writeNode(&b, c)
	}
	return b.String()
}

// WriteHTML writes the serialization of the root's children to w.
func (d *Document) WriteHTML(w io.Writer) error {
	_, err := io.WriteString(w, d.HTML())
	return err
}

// OuterHTML serializes the node itself and its subtree.
func (n *Node) OuterHTML() string {
	var b strings.Builder
	writeNode(&b, n)
	return b.String()
}

func writeNode(b *strings.Builder, n *Node) {
	if n.typ == TextNode {
		b.WriteString(render.EscapeHTML(n.text))
		return
	}

	b.WriteByte('<')
	b.WriteString(n.tag)

	names := make([]string, 0, len(n.attrs))
	for name := range n.attrs {
		if name == "style" && len(n.style) > 0 {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		writeAttr(b, name, n.attrs[name])
	}
	if s := n.StyleString(); s != "" {
		writeAttr(b, "style", s)
	}
	b.WriteByte('>')

	if vdom.IsVoidElement(n.tag) {
		return
	}
	for _, c := range n.children {
		writeNode(b, c)
	}
	b.WriteString("</")
	b.WriteString(n.tag)
	b.WriteByte('>')
}

func writeAttr(b *strings.Builder, name, value string) {
	b.WriteByte(' ')
	b.WriteString(name)
	b.WriteString(`="`)
	b.WriteString(render.EscapeAttr(value))
	b.WriteByte('"')
}
