package render

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/vango-dev/reconcile/pkg/vdom"
)

// RendererConfig configures the HTML renderer.
type RendererConfig struct {
	// Pretty enables indented output. Pretty output adds whitespace text, so
	// it no longer matches what a host holds after reconciliation.
	Pretty bool

	// Indent is the string used for each indentation level in pretty mode.
	// Defaults to two spaces if not specified.
	Indent string
}

// Renderer serializes VNode trees to HTML without a host.
//
// The compact output is byte-identical to memdom's serialization of the same
// tree after it has been reconciled into a document: attributes in name
// order, style last, listeners omitted.
type Renderer struct {
	config RendererConfig
}

// NewRenderer creates a new Renderer with the given configuration.
func NewRenderer(config RendererConfig) *Renderer {
	if config.Indent == "" {
		config.Indent = "  "
	}
	return &Renderer{config: config}
}

// HTML renders node with the default configuration.
func HTML(node *vdom.VNode) (string, error) {
	return NewRenderer(RendererConfig{}).RenderToString(node)
}

// RenderToString renders a VNode tree to an HTML string.
func (r *Renderer) RenderToString(node *vdom.VNode) (string, error) {
	var buf bytes.Buffer
	if err := r.RenderToWriter(&buf, node); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderToWriter streams a VNode tree to w. Components are resolved first,
// so their errors surface before anything is written.
func (r *Renderer) RenderToWriter(w io.Writer, node *vdom.VNode) error {
	if node == nil {
		return nil
	}
	resolved, err := vdom.Resolve(node)
	if err != nil {
		return err
	}
	return r.renderNode(w, resolved, 0)
}

// renderNode dispatches rendering based on node kind.
func (r *Renderer) renderNode(w io.Writer, node *vdom.VNode, depth int) error {
	if node == nil {
		return nil
	}

	switch node.Kind {
	case vdom.KindElement:
		return r.renderElement(w, node, depth)
	case vdom.KindText:
		if r.config.Pretty {
			r.writeIndent(w, depth)
		}
		_, err := io.WriteString(w, EscapeHTML(node.Text))
		if err == nil && r.config.Pretty {
			_, err = io.WriteString(w, "\n")
		}
		return err
	default:
		return fmt.Errorf("render: unexpected %s node", node.Kind)
	}
}

// renderElement renders an HTML element with its attributes and children.
func (r *Renderer) renderElement(w io.Writer, node *vdom.VNode, depth int) error {
	tag := node.Tag
	inline := r.config.Pretty && isInlineElement(tag)

	if r.config.Pretty {
		r.writeIndent(w, depth)
	}

	var open strings.Builder
	open.WriteByte('<')
	open.WriteString(tag)
	writeAttributes(&open, node.Attrs)
	open.WriteByte('>')
	if _, err := io.WriteString(w, open.String()); err != nil {
		return err
	}

	if vdom.IsVoidElement(tag) {
		return r.newline(w)
	}

	if inline {
		// Inline elements render their subtree compactly.
		compact := &Renderer{config: RendererConfig{Indent: r.config.Indent}}
		for _, child := range node.Children {
			if err := compact.renderNode(w, child, 0); err != nil {
				return err
			}
		}
	} else {
		if len(node.Children) > 0 {
			if err := r.newline(w); err != nil {
				return err
			}
		}
		for _, child := range node.Children {
			if err := r.renderNode(w, child, depth+1); err != nil {
				return err
			}
		}
		if r.config.Pretty && len(node.Children) > 0 {
			r.writeIndent(w, depth)
		}
	}

	if _, err := fmt.Fprintf(w, "</%s>", tag); err != nil {
		return err
	}
	return r.newline(w)
}

// writeAttributes writes generic and class attributes in name order and the
// style attribute last. Event attributes are host listeners and never
// appear in markup.
func writeAttributes(b *strings.Builder, attrs []vdom.Attr) {
	var style string
	for i := range attrs {
		a := &attrs[i]
		switch a.Kind {
		case vdom.AttrEvent:
			continue
		case vdom.AttrStyle:
			style = StyleString(a.Style)
			continue
		}
		writeAttr(b, a.Name, a.Value)
	}
	if style != "" {
		writeAttr(b, "style", style)
	}
}

func writeAttr(b *strings.Builder, name, value string) {
	b.WriteByte(' ')
	b.WriteString(name)
	b.WriteString(`="`)
	b.WriteString(EscapeAttr(value))
	b.WriteByte('"')
}

func (r *Renderer) newline(w io.Writer) error {
	if !r.config.Pretty {
		return nil
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// writeIndent writes indentation for pretty printing.
func (r *Renderer) writeIndent(w io.Writer, depth int) {
	io.WriteString(w, strings.Repeat(r.config.Indent, depth))
}
